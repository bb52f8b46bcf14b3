package mapper

import (
	"famicore/internal/cartridge"
	"famicore/internal/memblock"
)

// AxROM (mapper 7): a single write selects the 32 KiB PRG bank and encodes
// one-screen mirroring in bit 4. CHR is an unbanked 8 KiB RAM.
type AxROM struct {
	base

	prgROM *memblock.Block
	chr    *memblock.Block

	prgBank   int
	mirroring cartridge.Mirroring
}

func NewAxROM(file *cartridge.INESFile) (*AxROM, error) {
	chr, err := file.CHRBlock()
	if err != nil {
		return nil, err
	}
	return &AxROM{
		prgROM:    file.PRGROMBlock(),
		chr:       chr,
		mirroring: cartridge.MirrorOneScreenLower,
	}, nil
}

func (m *AxROM) DebugReadCPU(address uint16) (uint8, bool) {
	if address >= 0x8000 {
		return m.prgROM.BankedRead(0x8000, m.prgBank, int(address)-0x8000)
	}
	return 0, false
}

func (m *AxROM) ReadCPU(address uint16) (uint8, bool) {
	return m.DebugReadCPU(address)
}

func (m *AxROM) WriteCPU(address uint16, data uint8) {
	if address < 0x8000 {
		return
	}
	m.prgBank = int(data & 0x07)
	if bitSet(data, 4) {
		m.mirroring = cartridge.MirrorOneScreenUpper
	} else {
		m.mirroring = cartridge.MirrorOneScreenLower
	}
}

func (m *AxROM) DebugReadPPU(address uint16) (uint8, bool) {
	if address <= 0x1FFF {
		return m.chr.WrappingRead(int(address))
	}
	return 0, false
}

func (m *AxROM) ReadPPU(address uint16) (uint8, bool) {
	return m.DebugReadPPU(address)
}

func (m *AxROM) WritePPU(address uint16, data uint8) {
	if address <= 0x1FFF {
		m.chr.WrappingWrite(int(address), data)
	}
}

func (m *AxROM) Mirroring() cartridge.Mirroring { return m.mirroring }

func (m *AxROM) SaveState(buff []uint8) []uint8 {
	buff = appendU32(buff, uint32(m.prgBank))
	buff = appendU8(buff, uint8(m.mirroring))
	buff = m.chr.SaveState(buff)
	return buff
}

func (m *AxROM) LoadState(buff []uint8) ([]uint8, bool) {
	r := newReader(buff)
	bank := r.u32()
	mirror := r.u8()
	if !r.ok {
		return buff, false
	}
	chrLen := 0
	if !m.chr.IsReadonly() {
		chrLen = m.chr.Len()
	}
	if len(r.buff) < chrLen {
		return buff, false
	}
	m.prgBank = int(bank)
	m.mirroring = cartridge.Mirroring(mirror)
	return m.chr.LoadState(r.buff), true
}

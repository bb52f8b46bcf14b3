package mapper

import (
	"famicore/internal/cartridge"
	"famicore/internal/memblock"
)

// CNROM (mapper 3): fixed 32 KiB PRG window, a single write selects the
// 8 KiB CHR bank.
type CNROM struct {
	base

	prgROM *memblock.Block
	chr    *memblock.Block

	chrBank   int
	mirroring cartridge.Mirroring
}

func NewCNROM(file *cartridge.INESFile) (*CNROM, error) {
	chr, err := file.CHRBlock()
	if err != nil {
		return nil, err
	}
	return &CNROM{
		prgROM:    file.PRGROMBlock(),
		chr:       chr,
		mirroring: file.Header.HeaderMirroring(),
	}, nil
}

func (m *CNROM) DebugReadCPU(address uint16) (uint8, bool) {
	if address >= 0x8000 {
		return m.prgROM.WrappingRead(int(address) - 0x8000)
	}
	return 0, false
}

func (m *CNROM) ReadCPU(address uint16) (uint8, bool) {
	return m.DebugReadCPU(address)
}

func (m *CNROM) WriteCPU(address uint16, data uint8) {
	if address >= 0x8000 {
		m.chrBank = int(data & 0x03)
	}
}

func (m *CNROM) DebugReadPPU(address uint16) (uint8, bool) {
	if address <= 0x1FFF {
		return m.chr.BankedRead(0x2000, m.chrBank, int(address))
	}
	return 0, false
}

func (m *CNROM) ReadPPU(address uint16) (uint8, bool) {
	return m.DebugReadPPU(address)
}

func (m *CNROM) WritePPU(address uint16, data uint8) {
	if address <= 0x1FFF {
		m.chr.BankedWrite(0x2000, m.chrBank, int(address), data)
	}
}

func (m *CNROM) Mirroring() cartridge.Mirroring { return m.mirroring }

func (m *CNROM) SaveState(buff []uint8) []uint8 {
	buff = appendU32(buff, uint32(m.chrBank))
	buff = m.chr.SaveState(buff)
	return buff
}

func (m *CNROM) LoadState(buff []uint8) ([]uint8, bool) {
	r := newReader(buff)
	bank := r.u32()
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
	m.chrBank = int(bank)
	return m.chr.LoadState(r.buff), true
}

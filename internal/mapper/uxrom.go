package mapper

import (
	"famicore/internal/cartridge"
	"famicore/internal/memblock"
)

// UxROM (mapper 2): a single write anywhere in 0x8000-0xFFFF selects the
// 16 KiB PRG bank at 0x8000; the bank at 0xC000 is fixed to the last.
// CHR is unbanked (usually RAM).
type UxROM struct {
	base

	prgROM *memblock.Block
	chr    *memblock.Block

	prgBank   int
	mirroring cartridge.Mirroring
}

func NewUxROM(file *cartridge.INESFile) (*UxROM, error) {
	chr, err := file.CHRBlock()
	if err != nil {
		return nil, err
	}
	return &UxROM{
		prgROM:    file.PRGROMBlock(),
		chr:       chr,
		mirroring: file.Header.HeaderMirroring(),
	}, nil
}

func (m *UxROM) DebugReadCPU(address uint16) (uint8, bool) {
	switch {
	case address >= 0x8000 && address <= 0xBFFF:
		return m.prgROM.BankedRead(0x4000, m.prgBank, int(address)-0x8000)
	case address >= 0xC000:
		lastBank := m.prgROM.Len()/0x4000 - 1
		return m.prgROM.BankedRead(0x4000, lastBank, int(address)-0xC000)
	}
	return 0, false
}

func (m *UxROM) ReadCPU(address uint16) (uint8, bool) {
	return m.DebugReadCPU(address)
}

func (m *UxROM) WriteCPU(address uint16, data uint8) {
	if address >= 0x8000 {
		m.prgBank = int(data & 0x0F)
	}
}

func (m *UxROM) DebugReadPPU(address uint16) (uint8, bool) {
	if address <= 0x1FFF {
		return m.chr.WrappingRead(int(address))
	}
	return 0, false
}

func (m *UxROM) ReadPPU(address uint16) (uint8, bool) {
	return m.DebugReadPPU(address)
}

func (m *UxROM) WritePPU(address uint16, data uint8) {
	if address <= 0x1FFF {
		m.chr.WrappingWrite(int(address), data)
	}
}

func (m *UxROM) Mirroring() cartridge.Mirroring { return m.mirroring }

func (m *UxROM) SaveState(buff []uint8) []uint8 {
	buff = appendU32(buff, uint32(m.prgBank))
	buff = m.chr.SaveState(buff)
	return buff
}

func (m *UxROM) LoadState(buff []uint8) ([]uint8, bool) {
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
	m.prgBank = int(bank)
	return m.chr.LoadState(r.buff), true
}

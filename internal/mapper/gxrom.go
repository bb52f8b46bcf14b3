package mapper

import (
	"famicore/internal/cartridge"
	"famicore/internal/memblock"
)

// GxROM (mapper 66): one register switches both windows — bits 4-5 select
// the 32 KiB PRG bank, bits 0-1 the 8 KiB CHR bank.
type GxROM struct {
	base

	prgROM *memblock.Block
	chr    *memblock.Block

	prgBank   int
	chrBank   int
	mirroring cartridge.Mirroring
}

func NewGxROM(file *cartridge.INESFile) (*GxROM, error) {
	chr, err := file.CHRBlock()
	if err != nil {
		return nil, err
	}
	return &GxROM{
		prgROM:    file.PRGROMBlock(),
		chr:       chr,
		mirroring: file.Header.HeaderMirroring(),
	}, nil
}

func (m *GxROM) DebugReadCPU(address uint16) (uint8, bool) {
	if address >= 0x8000 {
		return m.prgROM.BankedRead(0x8000, m.prgBank, int(address)-0x8000)
	}
	return 0, false
}

func (m *GxROM) ReadCPU(address uint16) (uint8, bool) {
	return m.DebugReadCPU(address)
}

func (m *GxROM) WriteCPU(address uint16, data uint8) {
	if address >= 0x8000 {
		m.prgBank = int(bitField(data, 4, 2))
		m.chrBank = int(bitField(data, 0, 2))
	}
}

func (m *GxROM) DebugReadPPU(address uint16) (uint8, bool) {
	if address <= 0x1FFF {
		return m.chr.BankedRead(0x2000, m.chrBank, int(address))
	}
	return 0, false
}

func (m *GxROM) ReadPPU(address uint16) (uint8, bool) {
	return m.DebugReadPPU(address)
}

func (m *GxROM) WritePPU(address uint16, data uint8) {
	if address <= 0x1FFF {
		m.chr.BankedWrite(0x2000, m.chrBank, int(address), data)
	}
}

func (m *GxROM) Mirroring() cartridge.Mirroring { return m.mirroring }

func (m *GxROM) SaveState(buff []uint8) []uint8 {
	buff = appendU32(buff, uint32(m.prgBank))
	buff = appendU32(buff, uint32(m.chrBank))
	return buff
}

func (m *GxROM) LoadState(buff []uint8) ([]uint8, bool) {
	r := newReader(buff)
	prg := r.u32()
	chr := r.u32()
	if !r.ok {
		return buff, false
	}
	m.prgBank = int(prg)
	m.chrBank = int(chr)
	return r.buff, true
}

package mapper

import (
	"famicore/internal/cartridge"
	"famicore/internal/memblock"
)

// NROM (mapper 0): no bank switching. One or two 16 KiB PRG banks appear at
// 0x8000 and 0xC000 (a single bank mirrors), CHR is fixed, mirroring comes
// from the header.
type NROM struct {
	base

	prgROM *memblock.Block
	prgRAM *memblock.Block
	chr    *memblock.Block

	mirroring cartridge.Mirroring
}

// NewNROM builds the mapper from a parsed image.
func NewNROM(file *cartridge.INESFile) (*NROM, error) {
	prgRAM, err := file.PRGRAMBlock()
	if err != nil {
		return nil, err
	}
	chr, err := file.CHRBlock()
	if err != nil {
		return nil, err
	}
	return &NROM{
		prgROM:    file.PRGROMBlock(),
		prgRAM:    prgRAM,
		chr:       chr,
		mirroring: file.Header.HeaderMirroring(),
	}, nil
}

func (m *NROM) DebugReadCPU(address uint16) (uint8, bool) {
	switch {
	case address >= 0x6000 && address <= 0x7FFF:
		return m.prgRAM.WrappingRead(int(address) - 0x6000)
	case address >= 0x8000:
		return m.prgROM.WrappingRead(int(address) - 0x8000)
	}
	return 0, false
}

func (m *NROM) ReadCPU(address uint16) (uint8, bool) {
	return m.DebugReadCPU(address)
}

func (m *NROM) WriteCPU(address uint16, data uint8) {
	if address >= 0x6000 && address <= 0x7FFF {
		m.prgRAM.WrappingWrite(int(address)-0x6000, data)
	}
}

func (m *NROM) DebugReadPPU(address uint16) (uint8, bool) {
	if address <= 0x1FFF {
		return m.chr.WrappingRead(int(address))
	}
	return 0, false
}

func (m *NROM) ReadPPU(address uint16) (uint8, bool) {
	return m.DebugReadPPU(address)
}

func (m *NROM) WritePPU(address uint16, data uint8) {
	if address <= 0x1FFF {
		m.chr.WrappingWrite(int(address), data)
	}
}

func (m *NROM) Mirroring() cartridge.Mirroring { return m.mirroring }

func (m *NROM) HasSRAM() bool { return !m.prgRAM.IsVolatile() }

func (m *NROM) SRAM() []uint8 { return m.prgRAM.Bytes() }

func (m *NROM) LoadSRAM(data []uint8) bool { return m.prgRAM.SetBytes(data) }

func (m *NROM) SaveState(buff []uint8) []uint8 {
	buff = m.prgRAM.SaveState(buff)
	buff = m.chr.SaveState(buff)
	return buff
}

func (m *NROM) LoadState(buff []uint8) ([]uint8, bool) {
	need := 0
	if !m.prgRAM.IsReadonly() {
		need += m.prgRAM.Len()
	}
	if !m.chr.IsReadonly() {
		need += m.chr.Len()
	}
	if len(buff) < need {
		return buff, false
	}
	buff = m.prgRAM.LoadState(buff)
	buff = m.chr.LoadState(buff)
	return buff, true
}

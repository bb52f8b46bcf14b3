package mapper

import (
	"famicore/internal/cartridge"
	"famicore/internal/memblock"
)

// MMC1 (mapper 1): a 5-bit serial load register written one bit at a time
// through 0x8000-0xFFFF. Bit 7 of any write clears the shift register and
// forces PRG mode 3 (last bank fixed). The fifth bit commits to the internal
// register selected by address bits 13-14. Writes on consecutive CPU cycles
// are ignored; the latch clears on the next read cycle.
type MMC1 struct {
	base

	prgROM *memblock.Block
	prgRAM *memblock.Block
	chr    *memblock.Block

	shiftCounter uint8
	shiftData    uint8
	lastWrite    bool

	control    uint8 // mirroring, PRG mode, CHR mode
	chrBank0   int
	chrBank1   int
	prgBank    int
	prgRAMBank int

	prgRAMEnabled bool
	mirroring     cartridge.Mirroring
}

func NewMMC1(file *cartridge.INESFile) (*MMC1, error) {
	prgRAM, err := file.PRGRAMBlock()
	if err != nil {
		return nil, err
	}
	chr, err := file.CHRBlock()
	if err != nil {
		return nil, err
	}
	return &MMC1{
		prgROM: file.PRGROMBlock(),
		prgRAM: prgRAM,
		chr:    chr,
		// Startup state: PRG mode 3, last bank fixed.
		control:       0x0C,
		prgRAMEnabled: true,
		mirroring:     cartridge.MirrorOneScreenLower,
	}, nil
}

func (m *MMC1) prgMode() uint8 { return bitField(m.control, 2, 2) }
func (m *MMC1) chrMode() uint8 { return bitField(m.control, 4, 1) }

func (m *MMC1) DebugReadCPU(address uint16) (uint8, bool) {
	switch {
	case address >= 0x6000 && address <= 0x7FFF:
		if !m.prgRAMEnabled {
			return 0, false
		}
		return m.prgRAM.BankedRead(0x2000, m.prgRAMBank, int(address)-0x6000)
	case address >= 0x8000 && address <= 0xBFFF:
		switch m.prgMode() {
		case 0, 1:
			// 32 KiB mode: bit 0 of the bank number is ignored.
			return m.prgROM.BankedRead(0x4000, m.prgBank&0xFFFE, int(address)-0x8000)
		case 2:
			return m.prgROM.BankedRead(0x4000, 0, int(address)-0x8000)
		default:
			return m.prgROM.BankedRead(0x4000, m.prgBank, int(address)-0x8000)
		}
	case address >= 0xC000:
		switch m.prgMode() {
		case 0, 1:
			return m.prgROM.BankedRead(0x4000, m.prgBank|0x01, int(address)-0xC000)
		case 2:
			return m.prgROM.BankedRead(0x4000, m.prgBank, int(address)-0xC000)
		default:
			lastBank := m.prgROM.Len()/0x4000 - 1
			return m.prgROM.BankedRead(0x4000, lastBank, int(address)-0xC000)
		}
	}
	return 0, false
}

func (m *MMC1) ReadCPU(address uint16) (uint8, bool) {
	// Any read cycle re-arms the serial port.
	m.lastWrite = false
	return m.DebugReadCPU(address)
}

func (m *MMC1) WriteCPU(address uint16, data uint8) {
	switch {
	case address >= 0x6000 && address <= 0x7FFF:
		if m.prgRAMEnabled {
			m.prgRAM.BankedWrite(0x2000, m.prgRAMBank, int(address)-0x6000, data)
		}
	case address >= 0x8000:
		if m.lastWrite {
			// Successive writes on adjacent CPU cycles are ignored.
			return
		}
		m.lastWrite = true

		if bitSet(data, 7) {
			m.shiftCounter = 0
			m.shiftData = 0
			m.control |= 0x0C
			return
		}

		m.shiftData = (m.shiftData >> 1) | ((data & 0x01) << 4)
		m.shiftCounter++
		if m.shiftCounter < 5 {
			return
		}

		// Commit: only address bits 13-14 select the register.
		switch address & 0x6000 {
		case 0x0000:
			m.control = m.shiftData
			switch bitField(m.control, 0, 2) {
			case 0:
				m.mirroring = cartridge.MirrorOneScreenLower
			case 1:
				m.mirroring = cartridge.MirrorOneScreenUpper
			case 2:
				m.mirroring = cartridge.MirrorVertical
			case 3:
				m.mirroring = cartridge.MirrorHorizontal
			}
		case 0x2000:
			m.chrBank0 = int(m.shiftData)
			m.prgRAMBank = int(bitField(m.shiftData, 2, 2))
		case 0x4000:
			m.chrBank1 = int(m.shiftData)
			m.prgRAMBank = int(bitField(m.shiftData, 2, 2))
		case 0x6000:
			m.prgBank = int(m.shiftData & 0x0F)
			m.prgRAMEnabled = !bitSet(m.shiftData, 4)
		}
		m.shiftCounter = 0
		m.shiftData = 0
	}
}

func (m *MMC1) DebugReadPPU(address uint16) (uint8, bool) {
	if address > 0x1FFF {
		return 0, false
	}
	if m.chrMode() == 0 {
		// 8 KiB mode: bit 0 of bank 0 ignored.
		return m.chr.BankedRead(0x2000, m.chrBank0>>1, int(address))
	}
	if address < 0x1000 {
		return m.chr.BankedRead(0x1000, m.chrBank0, int(address))
	}
	return m.chr.BankedRead(0x1000, m.chrBank1, int(address)-0x1000)
}

func (m *MMC1) ReadPPU(address uint16) (uint8, bool) {
	return m.DebugReadPPU(address)
}

func (m *MMC1) WritePPU(address uint16, data uint8) {
	if address > 0x1FFF {
		return
	}
	if m.chrMode() == 0 {
		m.chr.BankedWrite(0x2000, m.chrBank0>>1, int(address), data)
	} else if address < 0x1000 {
		m.chr.BankedWrite(0x1000, m.chrBank0, int(address), data)
	} else {
		m.chr.BankedWrite(0x1000, m.chrBank1, int(address)-0x1000, data)
	}
}

func (m *MMC1) Mirroring() cartridge.Mirroring { return m.mirroring }

func (m *MMC1) HasSRAM() bool { return !m.prgRAM.IsVolatile() }

func (m *MMC1) SRAM() []uint8 { return m.prgRAM.Bytes() }

func (m *MMC1) LoadSRAM(data []uint8) bool { return m.prgRAM.SetBytes(data) }

func (m *MMC1) SaveState(buff []uint8) []uint8 {
	buff = appendU8(buff, m.shiftCounter)
	buff = appendU8(buff, m.shiftData)
	buff = appendBool(buff, m.lastWrite)
	buff = appendU8(buff, m.control)
	buff = appendU32(buff, uint32(m.chrBank0))
	buff = appendU32(buff, uint32(m.chrBank1))
	buff = appendU32(buff, uint32(m.prgBank))
	buff = appendU32(buff, uint32(m.prgRAMBank))
	buff = appendBool(buff, m.prgRAMEnabled)
	buff = appendU8(buff, uint8(m.mirroring))
	buff = m.prgRAM.SaveState(buff)
	buff = m.chr.SaveState(buff)
	return buff
}

func (m *MMC1) LoadState(buff []uint8) ([]uint8, bool) {
	r := newReader(buff)
	shiftCounter := r.u8()
	shiftData := r.u8()
	lastWrite := r.boolean()
	control := r.u8()
	chrBank0 := r.u32()
	chrBank1 := r.u32()
	prgBank := r.u32()
	prgRAMBank := r.u32()
	prgRAMEnabled := r.boolean()
	mirroring := r.u8()
	if !r.ok {
		return buff, false
	}
	need := 0
	if !m.prgRAM.IsReadonly() {
		need += m.prgRAM.Len()
	}
	if !m.chr.IsReadonly() {
		need += m.chr.Len()
	}
	if len(r.buff) < need {
		return buff, false
	}

	m.shiftCounter = shiftCounter
	m.shiftData = shiftData
	m.lastWrite = lastWrite
	m.control = control
	m.chrBank0 = int(chrBank0)
	m.chrBank1 = int(chrBank1)
	m.prgBank = int(prgBank)
	m.prgRAMBank = int(prgRAMBank)
	m.prgRAMEnabled = prgRAMEnabled
	m.mirroring = cartridge.Mirroring(mirroring)
	rest := m.prgRAM.LoadState(r.buff)
	rest = m.chr.LoadState(rest)
	return rest, true
}

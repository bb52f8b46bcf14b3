package mapper

import (
	"famicore/internal/cartridge"
	"famicore/internal/memblock"
)

// MMC3 (mapper 4): three-register bank machinery (bank select + bank data
// pairs) over 8 KiB PRG and 1/2 KiB CHR windows, plus a scanline IRQ counter
// clocked by rising edges of PPU address line A12. The edge detector is
// filtered: A12 must stay low for at least 3 CPU cycles before the next rise
// counts.
type MMC3 struct {
	base

	prgROM *memblock.Block
	prgRAM *memblock.Block
	chr    *memblock.Block

	chr2Bank0 int // 2 KiB banks
	chr2Bank1 int
	chr1Bank2 int // 1 KiB banks
	chr1Bank3 int
	chr1Bank4 int
	chr1Bank5 int

	prgBank6 int
	prgBank7 int

	switchCHRBanks bool
	switchPRGBanks bool
	bankSelect     uint8

	irqCounter         uint8
	irqReload          uint8
	irqReloadRequested bool
	irqEnabled         bool
	irqFlag            bool

	lastA12       uint8
	filteredA12   uint8
	lowA12Counter uint8

	mirroring  cartridge.Mirroring
	fourScreen bool
	vram       []uint8 // four-screen cartridges carry their own 4 KiB
}

func NewMMC3(file *cartridge.INESFile) (*MMC3, error) {
	prgRAM, err := file.PRGRAMBlock()
	if err != nil {
		return nil, err
	}
	chr, err := file.CHRBlock()
	if err != nil {
		return nil, err
	}
	m := &MMC3{
		prgROM:    file.PRGROMBlock(),
		prgRAM:    prgRAM,
		chr:       chr,
		mirroring: file.Header.HeaderMirroring(),
	}
	if m.mirroring == cartridge.MirrorFourScreen {
		m.fourScreen = true
		m.vram = make([]uint8, 0x1000)
	}
	return m, nil
}

// snoopA12 runs the filtered edge detector on every PPU bus transition.
func (m *MMC3) snoopA12(address uint16) {
	current := a12(address)
	lastFiltered := m.filteredA12

	if current == 1 {
		m.filteredA12 = 1
		m.lowA12Counter = 0
	}
	if m.filteredA12 == 1 && lastFiltered == 0 {
		m.clockIRQCounter()
	}
	m.lastA12 = current
}

// snoopM2 ages the low-A12 filter once per CPU cycle.
func (m *MMC3) snoopM2() {
	if m.lowA12Counter < 255 && m.lastA12 == 0 {
		m.lowA12Counter++
	}
	if m.lowA12Counter >= 3 {
		m.filteredA12 = 0
	}
}

func (m *MMC3) clockIRQCounter() {
	if m.irqCounter == 0 || m.irqReloadRequested {
		m.irqCounter = m.irqReload
		m.irqReloadRequested = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqFlag = true
	}
}

func (m *MMC3) ClockCPU() {
	m.snoopM2()
}

func (m *MMC3) IRQFlag() bool { return m.irqFlag }

func (m *MMC3) DebugReadCPU(address uint16) (uint8, bool) {
	switch {
	case address >= 0x6000 && address <= 0x7FFF:
		return m.prgRAM.WrappingRead(int(address) - 0x6000)
	case address >= 0x8000:
		lastBank := m.prgROM.Len()/0x2000 - 1
		if m.switchPRGBanks {
			switch {
			case address <= 0x9FFF:
				return m.prgROM.BankedRead(0x2000, lastBank-1, int(address)-0x8000)
			case address <= 0xBFFF:
				return m.prgROM.BankedRead(0x2000, m.prgBank7, int(address)-0xA000)
			case address <= 0xDFFF:
				return m.prgROM.BankedRead(0x2000, m.prgBank6, int(address)-0xC000)
			default:
				return m.prgROM.BankedRead(0x2000, lastBank, int(address)-0xE000)
			}
		}
		switch {
		case address <= 0x9FFF:
			return m.prgROM.BankedRead(0x2000, m.prgBank6, int(address)-0x8000)
		case address <= 0xBFFF:
			return m.prgROM.BankedRead(0x2000, m.prgBank7, int(address)-0xA000)
		case address <= 0xDFFF:
			return m.prgROM.BankedRead(0x2000, lastBank-1, int(address)-0xC000)
		default:
			return m.prgROM.BankedRead(0x2000, lastBank, int(address)-0xE000)
		}
	}
	return 0, false
}

func (m *MMC3) ReadCPU(address uint16) (uint8, bool) {
	return m.DebugReadCPU(address)
}

func (m *MMC3) WriteCPU(address uint16, data uint8) {
	switch {
	case address >= 0x6000 && address <= 0x7FFF:
		// PRG RAM protection intentionally unemulated for iNES
		// compatibility.
		m.prgRAM.WrappingWrite(int(address)-0x6000, data)
	case address >= 0x8000:
		even := address&1 == 0
		switch {
		case address <= 0x9FFF:
			if even {
				m.bankSelect = bitField(data, 0, 3)
				m.switchPRGBanks = bitSet(data, 6)
				m.switchCHRBanks = bitSet(data, 7)
			} else {
				switch m.bankSelect {
				case 0:
					m.chr2Bank0 = int(data & 0xFE)
				case 1:
					m.chr2Bank1 = int(data & 0xFE)
				case 2:
					m.chr1Bank2 = int(data)
				case 3:
					m.chr1Bank3 = int(data)
				case 4:
					m.chr1Bank4 = int(data)
				case 5:
					m.chr1Bank5 = int(data)
				case 6:
					m.prgBank6 = int(data & 0x3F)
				case 7:
					m.prgBank7 = int(data & 0x3F)
				}
			}
		case address <= 0xBFFF:
			if even && !m.fourScreen {
				if data&1 == 0 {
					m.mirroring = cartridge.MirrorVertical
				} else {
					m.mirroring = cartridge.MirrorHorizontal
				}
			}
			// Odd writes are PRG RAM protect, intentionally ignored.
		case address <= 0xDFFF:
			if even {
				m.irqReload = data
			} else {
				m.irqReloadRequested = true
			}
		default:
			if even {
				m.irqEnabled = false
				m.irqFlag = false
			} else {
				m.irqEnabled = true
			}
		}
	}
}

func (m *MMC3) chrRead(address uint16) (uint8, bool) {
	if m.switchCHRBanks {
		switch {
		case address <= 0x03FF:
			return m.chr.BankedRead(0x400, m.chr1Bank2, int(address))
		case address <= 0x07FF:
			return m.chr.BankedRead(0x400, m.chr1Bank3, int(address)-0x400)
		case address <= 0x0BFF:
			return m.chr.BankedRead(0x400, m.chr1Bank4, int(address)-0x800)
		case address <= 0x0FFF:
			return m.chr.BankedRead(0x400, m.chr1Bank5, int(address)-0xC00)
		case address <= 0x17FF:
			return m.chr.BankedRead(0x800, m.chr2Bank0>>1, int(address)-0x1000)
		default:
			return m.chr.BankedRead(0x800, m.chr2Bank1>>1, int(address)-0x1800)
		}
	}
	switch {
	case address <= 0x07FF:
		return m.chr.BankedRead(0x800, m.chr2Bank0>>1, int(address))
	case address <= 0x0FFF:
		return m.chr.BankedRead(0x800, m.chr2Bank1>>1, int(address)-0x800)
	case address <= 0x13FF:
		return m.chr.BankedRead(0x400, m.chr1Bank2, int(address)-0x1000)
	case address <= 0x17FF:
		return m.chr.BankedRead(0x400, m.chr1Bank3, int(address)-0x1400)
	case address <= 0x1BFF:
		return m.chr.BankedRead(0x400, m.chr1Bank4, int(address)-0x1800)
	default:
		return m.chr.BankedRead(0x400, m.chr1Bank5, int(address)-0x1C00)
	}
}

func (m *MMC3) DebugReadPPU(address uint16) (uint8, bool) {
	switch {
	case address <= 0x1FFF:
		return m.chrRead(address)
	case m.fourScreen && address <= 0x3EFF:
		return m.vram[mirrorFourBanks(address)], true
	}
	return 0, false
}

func (m *MMC3) ReadPPU(address uint16) (uint8, bool) {
	m.snoopA12(address)
	return m.DebugReadPPU(address)
}

func (m *MMC3) AccessPPU(address uint16) {
	m.snoopA12(address)
}

func (m *MMC3) WritePPU(address uint16, data uint8) {
	m.snoopA12(address)
	switch {
	case address <= 0x1FFF:
		// CHR RAM carts accept writes; the bank arithmetic matches reads.
		if m.switchCHRBanks {
			switch {
			case address <= 0x03FF:
				m.chr.BankedWrite(0x400, m.chr1Bank2, int(address), data)
			case address <= 0x07FF:
				m.chr.BankedWrite(0x400, m.chr1Bank3, int(address)-0x400, data)
			case address <= 0x0BFF:
				m.chr.BankedWrite(0x400, m.chr1Bank4, int(address)-0x800, data)
			case address <= 0x0FFF:
				m.chr.BankedWrite(0x400, m.chr1Bank5, int(address)-0xC00, data)
			case address <= 0x17FF:
				m.chr.BankedWrite(0x800, m.chr2Bank0>>1, int(address)-0x1000, data)
			default:
				m.chr.BankedWrite(0x800, m.chr2Bank1>>1, int(address)-0x1800, data)
			}
		} else {
			switch {
			case address <= 0x07FF:
				m.chr.BankedWrite(0x800, m.chr2Bank0>>1, int(address), data)
			case address <= 0x0FFF:
				m.chr.BankedWrite(0x800, m.chr2Bank1>>1, int(address)-0x800, data)
			case address <= 0x13FF:
				m.chr.BankedWrite(0x400, m.chr1Bank2, int(address)-0x1000, data)
			case address <= 0x17FF:
				m.chr.BankedWrite(0x400, m.chr1Bank3, int(address)-0x1400, data)
			case address <= 0x1BFF:
				m.chr.BankedWrite(0x400, m.chr1Bank4, int(address)-0x1800, data)
			default:
				m.chr.BankedWrite(0x400, m.chr1Bank5, int(address)-0x1C00, data)
			}
		}
	case m.fourScreen && address <= 0x3EFF:
		m.vram[mirrorFourBanks(address)] = data
	}
}

func (m *MMC3) Mirroring() cartridge.Mirroring { return m.mirroring }

func (m *MMC3) HasSRAM() bool { return !m.prgRAM.IsVolatile() }

func (m *MMC3) SRAM() []uint8 { return m.prgRAM.Bytes() }

func (m *MMC3) LoadSRAM(data []uint8) bool { return m.prgRAM.SetBytes(data) }

func (m *MMC3) SaveState(buff []uint8) []uint8 {
	buff = appendU32(buff, uint32(m.chr2Bank0))
	buff = appendU32(buff, uint32(m.chr2Bank1))
	buff = appendU32(buff, uint32(m.chr1Bank2))
	buff = appendU32(buff, uint32(m.chr1Bank3))
	buff = appendU32(buff, uint32(m.chr1Bank4))
	buff = appendU32(buff, uint32(m.chr1Bank5))
	buff = appendU32(buff, uint32(m.prgBank6))
	buff = appendU32(buff, uint32(m.prgBank7))
	buff = appendBool(buff, m.switchCHRBanks)
	buff = appendBool(buff, m.switchPRGBanks)
	buff = appendU8(buff, m.bankSelect)
	buff = appendU8(buff, m.irqCounter)
	buff = appendU8(buff, m.irqReload)
	buff = appendBool(buff, m.irqReloadRequested)
	buff = appendBool(buff, m.irqEnabled)
	buff = appendBool(buff, m.irqFlag)
	buff = appendU8(buff, m.lastA12)
	buff = appendU8(buff, m.filteredA12)
	buff = appendU8(buff, m.lowA12Counter)
	buff = appendU8(buff, uint8(m.mirroring))
	buff = append(buff, m.vram...)
	buff = m.prgRAM.SaveState(buff)
	buff = m.chr.SaveState(buff)
	return buff
}

func (m *MMC3) LoadState(buff []uint8) ([]uint8, bool) {
	r := newReader(buff)
	banks := make([]uint32, 8)
	for i := range banks {
		banks[i] = r.u32()
	}
	switchCHR := r.boolean()
	switchPRG := r.boolean()
	bankSelect := r.u8()
	irqCounter := r.u8()
	irqReload := r.u8()
	irqReloadRequested := r.boolean()
	irqEnabled := r.boolean()
	irqFlag := r.boolean()
	lastA12 := r.u8()
	filteredA12 := r.u8()
	lowA12Counter := r.u8()
	mirroring := r.u8()
	vram := r.bytes(len(m.vram))
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

	m.chr2Bank0, m.chr2Bank1 = int(banks[0]), int(banks[1])
	m.chr1Bank2, m.chr1Bank3 = int(banks[2]), int(banks[3])
	m.chr1Bank4, m.chr1Bank5 = int(banks[4]), int(banks[5])
	m.prgBank6, m.prgBank7 = int(banks[6]), int(banks[7])
	m.switchCHRBanks = switchCHR
	m.switchPRGBanks = switchPRG
	m.bankSelect = bankSelect
	m.irqCounter = irqCounter
	m.irqReload = irqReload
	m.irqReloadRequested = irqReloadRequested
	m.irqEnabled = irqEnabled
	m.irqFlag = irqFlag
	m.lastA12 = lastA12
	m.filteredA12 = filteredA12
	m.lowA12Counter = lowA12Counter
	m.mirroring = cartridge.Mirroring(mirroring)
	copy(m.vram, vram)
	rest := m.prgRAM.LoadState(r.buff)
	rest = m.chr.LoadState(rest)
	return rest, true
}

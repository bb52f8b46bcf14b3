package mapper

import (
	"famicore/internal/cartridge"
	"famicore/internal/memblock"
)

// MMC5 (mapper 5): configurable PRG window sizes (32/16/16+8/8 KiB) with
// RAM-capable windows, configurable CHR windows (8/4/2/1 KiB) with separate
// sprite and background bank sets, a 1 KiB expansion RAM with selectable
// roles (extra nametable, extended attributes, general data), a scanline IRQ
// driven by a PPU fetch-pattern heuristic, an 8x8 multiplier, and expansion
// audio (two APU-style pulses plus raw PCM).

// mmc5Pulse mirrors the console pulse channels minus the sweep unit.
type mmc5Pulse struct {
	channelState

	duty          uint8
	sequencerPos  uint8
	timer         uint16
	timerCounter  uint16
	lengthCounter uint8
	lengthHalt    bool
	constantVol   bool
	volume        uint8
	envStart      bool
	envCounter    uint8
	envDivider    uint8
	enabled       bool
}

var mmc5DutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

var mmc5LengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 8, 48, 6, 96, 4,
	192, 2, 72, 16, 28, 32, 52, 2,
}

func (p *mmc5Pulse) clockTimer() {
	if p.timerCounter == 0 {
		p.timerCounter = p.timer
		p.sequencerPos = (p.sequencerPos + 1) & 0x07
	} else {
		p.timerCounter--
	}
}

func (p *mmc5Pulse) clockEnvelope() {
	if p.envStart {
		p.envStart = false
		p.envCounter = 15
		p.envDivider = p.volume
	} else if p.envDivider == 0 {
		p.envDivider = p.volume
		if p.envCounter > 0 {
			p.envCounter--
		} else if p.lengthHalt {
			p.envCounter = 15
		}
	} else {
		p.envDivider--
	}
}

func (p *mmc5Pulse) clockLength() {
	if !p.lengthHalt && p.lengthCounter > 0 {
		p.lengthCounter--
	}
}

func (p *mmc5Pulse) outputLevel() uint8 {
	if !p.enabled || p.lengthCounter == 0 || p.timer < 8 {
		return 0
	}
	if mmc5DutyTable[p.duty][p.sequencerPos] == 0 {
		return 0
	}
	if p.constantVol {
		return p.volume
	}
	return p.envCounter
}

// ExRAM roles selected at 0x5104.
const (
	exRAMModeNametable = 0
	exRAMModeExtAttr   = 1
	exRAMModeData      = 2
	exRAMModeDataRO    = 3
)

// Per-table nametable sources selected at 0x5105.
const (
	ntSourceVRAM0 = 0
	ntSourceVRAM1 = 1
	ntSourceExRAM = 2
	ntSourceFill  = 3
)

// mmc5FrameDivider paces the audio frame clock: envelopes and lengths tick
// at roughly 240 Hz, matching the console sequencer's quarter frames.
const mmc5FrameDivider = 7446

type MMC5 struct {
	base

	prgROM *memblock.Block
	prgRAM *memblock.Block
	chr    *memblock.Block

	prgMode uint8
	chrMode uint8

	prgBanks [5]uint8 // 0x5113-0x5117 raw values; bit 7 = ROM select
	ramProtect1, ramProtect2 uint8

	chrSpriteBanks [8]uint8
	chrBGBanks     [4]uint8
	chrUpper       uint8
	lastCHRSet     uint8 // 0 = sprite set, 1 = bg set

	exRAM     [0x400]uint8
	exRAMMode uint8
	ntMapping uint8
	fillTile  uint8
	fillAttr  uint8
	vram      [0x800]uint8

	// Scanline detection: three consecutive fetches of one nametable
	// address mark a new scanline.
	lastNTAddress   uint16
	ntMatchCount    uint8
	inFrame         bool
	currentScanline uint8
	idleCounter     uint8

	irqTarget  uint8
	irqEnable  bool
	irqPending bool

	extAttrLatch uint8

	multiplicand uint8
	multiplier   uint8

	pulse1, pulse2 mmc5Pulse
	pcmOutput      uint8
	pcmIRQEnable   bool
	pcmReadMode    bool
	frameDivider   int

	mirroring cartridge.Mirroring
}

// mmc5PulseMixWeight matches the console pulse DAC step; the PCM channel
// feeds the same tap as the console DMC.
const (
	mmc5PulseMixWeight = 0.00752
	mmc5PCMMixWeight   = 0.002
)

func NewMMC5(file *cartridge.INESFile) (*MMC5, error) {
	prgRAM, err := file.PRGRAMBlock()
	if err != nil {
		return nil, err
	}
	chr, err := file.CHRBlock()
	if err != nil {
		return nil, err
	}
	m := &MMC5{
		prgROM:    file.PRGROMBlock(),
		prgRAM:    prgRAM,
		chr:       chr,
		prgMode:   3,
		chrMode:   3,
		mirroring: file.Header.HeaderMirroring(),
		pulse1:    mmc5Pulse{channelState: newChannelState("Pulse 1", "MMC5")},
		pulse2:    mmc5Pulse{channelState: newChannelState("Pulse 2", "MMC5")},
	}
	// The fixed window at 0xE000 powers up pointing at the last bank.
	m.prgBanks[4] = 0xFF
	return m, nil
}

func (m *MMC5) ClockCPU() {
	// Audio.
	m.pulse1.clockTimer()
	m.pulse2.clockTimer()
	m.frameDivider++
	if m.frameDivider >= mmc5FrameDivider {
		m.frameDivider = 0
		m.pulse1.clockEnvelope()
		m.pulse2.clockEnvelope()
		m.pulse1.clockLength()
		m.pulse2.clockLength()
	}
	m.pulse1.record(float64(m.pulse1.outputLevel()) / 15.0)
	m.pulse2.record(float64(m.pulse2.outputLevel()) / 15.0)

	// Frame detection decays when the PPU goes quiet (rendering disabled
	// or vblank).
	if m.idleCounter < 255 {
		m.idleCounter++
	}
	if m.idleCounter >= 3*3 {
		m.inFrame = false
		m.ntMatchCount = 0
	}
}

func (m *MMC5) IRQFlag() bool { return m.irqPending && m.irqEnable }

func (m *MMC5) MixExpansionAudio(sample float64) float64 {
	var combined float64
	if !m.pulse1.muted {
		combined += float64(m.pulse1.outputLevel()) * mmc5PulseMixWeight
	}
	if !m.pulse2.muted {
		combined += float64(m.pulse2.outputLevel()) * mmc5PulseMixWeight
	}
	combined += float64(m.pcmOutput) * mmc5PCMMixWeight
	return sample + combined
}

func (m *MMC5) Channels() []AudioChannel {
	return []AudioChannel{&m.pulse1, &m.pulse2}
}

// readPRG reads a CPU address in 0x6000-0xFFFF through the windows of the
// current PRG mode.
func (m *MMC5) readPRG(address uint16) (uint8, bool) {
	if address >= 0x6000 && address <= 0x7FFF {
		return m.prgRAM.BankedRead(0x2000, int(m.prgBanks[0]&0x0F), int(address)-0x6000)
	}

	romBank := func(raw uint8) (int, bool) {
		return int(raw & 0x7F), bitSet(raw, 7)
	}

	switch m.prgMode {
	case 0:
		bank, _ := romBank(m.prgBanks[4])
		return m.prgROM.BankedRead(0x8000, bank>>2, int(address)-0x8000)
	case 1:
		if address < 0xC000 {
			bank, isROM := romBank(m.prgBanks[2])
			if !isROM {
				return m.prgRAM.BankedRead(0x4000, bank>>1, int(address)-0x8000)
			}
			return m.prgROM.BankedRead(0x4000, bank>>1, int(address)-0x8000)
		}
		bank, _ := romBank(m.prgBanks[4])
		return m.prgROM.BankedRead(0x4000, bank>>1, int(address)-0xC000)
	case 2:
		switch {
		case address < 0xC000:
			bank, isROM := romBank(m.prgBanks[2])
			if !isROM {
				return m.prgRAM.BankedRead(0x4000, bank>>1, int(address)-0x8000)
			}
			return m.prgROM.BankedRead(0x4000, bank>>1, int(address)-0x8000)
		case address < 0xE000:
			bank, isROM := romBank(m.prgBanks[3])
			if !isROM {
				return m.prgRAM.BankedRead(0x2000, bank, int(address)-0xC000)
			}
			return m.prgROM.BankedRead(0x2000, bank, int(address)-0xC000)
		default:
			bank, _ := romBank(m.prgBanks[4])
			return m.prgROM.BankedRead(0x2000, bank, int(address)-0xE000)
		}
	default:
		windows := [4]struct {
			start uint16
			index int
		}{{0x8000, 1}, {0xA000, 2}, {0xC000, 3}, {0xE000, 4}}
		for i := len(windows) - 1; i >= 0; i-- {
			w := windows[i]
			if address >= w.start {
				bank, isROM := romBank(m.prgBanks[w.index])
				if !isROM && w.index != 4 {
					return m.prgRAM.BankedRead(0x2000, bank, int(address-w.start))
				}
				return m.prgROM.BankedRead(0x2000, bank, int(address-w.start))
			}
		}
	}
	return 0, false
}

func (m *MMC5) writePRG(address uint16, data uint8) {
	ramWritable := m.ramProtect1 == 0x02 && m.ramProtect2 == 0x01
	if address >= 0x6000 && address <= 0x7FFF {
		if ramWritable {
			m.prgRAM.BankedWrite(0x2000, int(m.prgBanks[0]&0x0F), int(address)-0x6000, data)
		}
		return
	}
	if !ramWritable {
		return
	}
	// RAM-mapped switchable windows accept writes in modes 1-3.
	switch m.prgMode {
	case 1, 2:
		if address < 0xC000 && !bitSet(m.prgBanks[2], 7) {
			m.prgRAM.BankedWrite(0x4000, int(m.prgBanks[2]&0x7F)>>1, int(address)-0x8000, data)
		} else if m.prgMode == 2 && address >= 0xC000 && address < 0xE000 && !bitSet(m.prgBanks[3], 7) {
			m.prgRAM.BankedWrite(0x2000, int(m.prgBanks[3]&0x7F), int(address)-0xC000, data)
		}
	case 3:
		switch {
		case address < 0xA000 && !bitSet(m.prgBanks[1], 7):
			m.prgRAM.BankedWrite(0x2000, int(m.prgBanks[1]&0x7F), int(address)-0x8000, data)
		case address >= 0xA000 && address < 0xC000 && !bitSet(m.prgBanks[2], 7):
			m.prgRAM.BankedWrite(0x2000, int(m.prgBanks[2]&0x7F), int(address)-0xA000, data)
		case address >= 0xC000 && address < 0xE000 && !bitSet(m.prgBanks[3], 7):
			m.prgRAM.BankedWrite(0x2000, int(m.prgBanks[3]&0x7F), int(address)-0xC000, data)
		}
	}
}

func (m *MMC5) DebugReadCPU(address uint16) (uint8, bool) {
	switch {
	case address == 0x5204:
		var value uint8
		if m.irqPending {
			value |= 0x80
		}
		if m.inFrame {
			value |= 0x40
		}
		return value, true
	case address == 0x5205:
		return uint8(uint16(m.multiplicand) * uint16(m.multiplier)), true
	case address == 0x5206:
		return uint8((uint16(m.multiplicand) * uint16(m.multiplier)) >> 8), true
	case address == 0x5015:
		var value uint8
		if m.pulse1.lengthCounter > 0 {
			value |= 0x01
		}
		if m.pulse2.lengthCounter > 0 {
			value |= 0x02
		}
		return value, true
	case address >= 0x5C00 && address <= 0x5FFF:
		if m.exRAMMode >= exRAMModeData {
			return m.exRAM[address-0x5C00], true
		}
		return 0, false
	case address >= 0x6000:
		return m.readPRG(address)
	}
	return 0, false
}

func (m *MMC5) ReadCPU(address uint16) (uint8, bool) {
	value, ok := m.DebugReadCPU(address)
	if address == 0x5204 {
		m.irqPending = false
	}
	return value, ok
}

func (m *MMC5) WriteCPU(address uint16, data uint8) {
	switch {
	case address >= 0x5000 && address <= 0x5007:
		m.writePulse(address, data)
	case address == 0x5010:
		m.pcmReadMode = bitSet(data, 0)
		m.pcmIRQEnable = bitSet(data, 7)
	case address == 0x5011:
		if !m.pcmReadMode {
			m.pcmOutput = data
		}
	case address == 0x5015:
		m.pulse1.enabled = bitSet(data, 0)
		m.pulse2.enabled = bitSet(data, 1)
		if !m.pulse1.enabled {
			m.pulse1.lengthCounter = 0
		}
		if !m.pulse2.enabled {
			m.pulse2.lengthCounter = 0
		}
	case address == 0x5100:
		m.prgMode = bitField(data, 0, 2)
	case address == 0x5101:
		m.chrMode = bitField(data, 0, 2)
	case address == 0x5102:
		m.ramProtect1 = bitField(data, 0, 2)
	case address == 0x5103:
		m.ramProtect2 = bitField(data, 0, 2)
	case address == 0x5104:
		m.exRAMMode = bitField(data, 0, 2)
	case address == 0x5105:
		m.ntMapping = data
	case address == 0x5106:
		m.fillTile = data
	case address == 0x5107:
		m.fillAttr = bitField(data, 0, 2)
	case address >= 0x5113 && address <= 0x5117:
		m.prgBanks[address-0x5113] = data
	case address >= 0x5120 && address <= 0x5127:
		m.chrSpriteBanks[address-0x5120] = data
		m.lastCHRSet = 0
	case address >= 0x5128 && address <= 0x512B:
		m.chrBGBanks[address-0x5128] = data
		m.lastCHRSet = 1
	case address == 0x5130:
		m.chrUpper = bitField(data, 0, 2)
	case address == 0x5203:
		m.irqTarget = data
	case address == 0x5204:
		m.irqEnable = bitSet(data, 7)
	case address == 0x5205:
		m.multiplicand = data
	case address == 0x5206:
		m.multiplier = data
	case address >= 0x5C00 && address <= 0x5FFF:
		if m.exRAMMode != exRAMModeDataRO {
			m.exRAM[address-0x5C00] = data
		}
	case address >= 0x6000:
		m.writePRG(address, data)
	}
}

func (m *MMC5) writePulse(address uint16, data uint8) {
	pulse := &m.pulse1
	if address >= 0x5004 {
		pulse = &m.pulse2
	}
	switch address & 0x03 {
	case 0:
		pulse.duty = bitField(data, 6, 2)
		pulse.lengthHalt = bitSet(data, 5)
		pulse.constantVol = bitSet(data, 4)
		pulse.volume = lowNibble(data)
	case 2:
		pulse.timer = (pulse.timer & 0xFF00) | uint16(data)
	case 3:
		pulse.timer = (pulse.timer & 0x00FF) | uint16(data&0x07)<<8
		if pulse.enabled {
			pulse.lengthCounter = mmc5LengthTable[data>>3]
		}
		pulse.envStart = true
		pulse.sequencerPos = 0
	}
}

// chrRead reads a pattern address through the given bank set under the
// current CHR mode.
func (m *MMC5) chrRead(address uint16, bgSet bool) (uint8, bool) {
	upper := int(m.chrUpper) << 8
	if bgSet {
		// Background set: four registers cover 4 KiB, mirrored over both
		// pattern tables.
		address &= 0x0FFF
		switch m.chrMode {
		case 0, 1:
			return m.chr.BankedRead(0x1000, upper|int(m.chrBGBanks[3]), int(address))
		case 2:
			bank := m.chrBGBanks[1+(address>>11)*2]
			return m.chr.BankedRead(0x800, upper|int(bank), int(address&0x7FF))
		default:
			bank := m.chrBGBanks[address>>10]
			return m.chr.BankedRead(0x400, upper|int(bank), int(address&0x3FF))
		}
	}
	switch m.chrMode {
	case 0:
		return m.chr.BankedRead(0x2000, upper|int(m.chrSpriteBanks[7]), int(address))
	case 1:
		bank := m.chrSpriteBanks[3+(address>>12)*4]
		return m.chr.BankedRead(0x1000, upper|int(bank), int(address&0xFFF))
	case 2:
		bank := m.chrSpriteBanks[1+(address>>11)*2]
		return m.chr.BankedRead(0x800, upper|int(bank), int(address&0x7FF))
	default:
		bank := m.chrSpriteBanks[address>>10]
		return m.chr.BankedRead(0x400, upper|int(bank), int(address&0x3FF))
	}
}

// ntSource decodes the 0x5105 mapping for the table containing address.
func (m *MMC5) ntSource(address uint16) uint8 {
	table := (address & 0xFFF) >> 10
	return bitField(m.ntMapping, uint(table*2), 2)
}

// snoopNametable feeds the scanline heuristic: three consecutive fetches of
// the same nametable address mark the start of a scanline.
func (m *MMC5) snoopNametable(address uint16) {
	m.idleCounter = 0
	if address < 0x2000 || address > 0x2FFF {
		m.ntMatchCount = 0
		m.lastNTAddress = 0xFFFF
		return
	}
	if address == m.lastNTAddress {
		m.ntMatchCount++
		if m.ntMatchCount == 2 {
			if !m.inFrame {
				m.inFrame = true
				m.currentScanline = 0
			} else {
				m.currentScanline++
				if m.currentScanline == m.irqTarget && m.irqTarget != 0 {
					m.irqPending = true
				}
			}
		}
	} else {
		m.ntMatchCount = 0
	}
	m.lastNTAddress = address

	// Latch the tile index for extended attribute mode.
	if m.exRAMMode == exRAMModeExtAttr && address&0x3FF < 0x3C0 {
		m.extAttrLatch = m.exRAM[address&0x3FF]
	}
}

func (m *MMC5) readNametable(address uint16) (uint8, bool) {
	isAttribute := address&0x3FF >= 0x3C0
	if m.exRAMMode == exRAMModeExtAttr && isAttribute {
		// Extended attributes: the latched ExRAM byte's top bits supply the
		// palette for every quadrant.
		attr := bitField(m.extAttrLatch, 6, 2)
		return attr | attr<<2 | attr<<4 | attr<<6, true
	}
	switch m.ntSource(address) {
	case ntSourceVRAM0:
		return m.vram[address&0x3FF], true
	case ntSourceVRAM1:
		return m.vram[0x400|(address&0x3FF)], true
	case ntSourceExRAM:
		if m.exRAMMode <= exRAMModeExtAttr {
			return m.exRAM[address&0x3FF], true
		}
		return 0, true
	default:
		if isAttribute {
			attr := m.fillAttr
			return attr | attr<<2 | attr<<4 | attr<<6, true
		}
		return m.fillTile, true
	}
}

func (m *MMC5) DebugReadPPU(address uint16) (uint8, bool) {
	switch {
	case address <= 0x1FFF:
		if m.exRAMMode == exRAMModeExtAttr {
			// Extended attribute mode redirects background pattern fetches
			// through the latched ExRAM bank bits.
			bank := int(m.extAttrLatch&0x3F) | int(m.chrUpper)<<6
			if m.lastCHRSet == 1 {
				return m.chr.BankedRead(0x1000, bank, int(address&0xFFF))
			}
		}
		return m.chrRead(address, m.lastCHRSet == 1)
	case address <= 0x3EFF:
		return m.readNametable(address)
	}
	return 0, false
}

func (m *MMC5) ReadPPU(address uint16) (uint8, bool) {
	if address >= 0x2000 && address <= 0x2FFF {
		m.snoopNametable(address)
	} else {
		m.idleCounter = 0
	}
	return m.DebugReadPPU(address)
}

func (m *MMC5) AccessPPU(address uint16) {
	if address >= 0x2000 && address <= 0x2FFF {
		m.snoopNametable(address)
	} else {
		m.idleCounter = 0
	}
}

func (m *MMC5) WritePPU(address uint16, data uint8) {
	switch {
	case address <= 0x1FFF:
		// CHR RAM carts accept writes through the sprite bank set.
		upper := int(m.chrUpper) << 8
		switch m.chrMode {
		case 0:
			m.chr.BankedWrite(0x2000, upper|int(m.chrSpriteBanks[7]), int(address), data)
		case 1:
			bank := m.chrSpriteBanks[3+(address>>12)*4]
			m.chr.BankedWrite(0x1000, upper|int(bank), int(address&0xFFF), data)
		case 2:
			bank := m.chrSpriteBanks[1+(address>>11)*2]
			m.chr.BankedWrite(0x800, upper|int(bank), int(address&0x7FF), data)
		default:
			bank := m.chrSpriteBanks[address>>10]
			m.chr.BankedWrite(0x400, upper|int(bank), int(address&0x3FF), data)
		}
	case address <= 0x3EFF:
		switch m.ntSource(address) {
		case ntSourceVRAM0:
			m.vram[address&0x3FF] = data
		case ntSourceVRAM1:
			m.vram[0x400|(address&0x3FF)] = data
		case ntSourceExRAM:
			if m.exRAMMode <= exRAMModeExtAttr {
				m.exRAM[address&0x3FF] = data
			}
		}
	}
}

func (m *MMC5) Mirroring() cartridge.Mirroring { return m.mirroring }

func (m *MMC5) HasSRAM() bool { return !m.prgRAM.IsVolatile() }

func (m *MMC5) SRAM() []uint8 { return m.prgRAM.Bytes() }

func (m *MMC5) LoadSRAM(data []uint8) bool { return m.prgRAM.SetBytes(data) }

func (p *mmc5Pulse) saveState(buff []uint8) []uint8 {
	buff = appendU8(buff, p.duty)
	buff = appendU8(buff, p.sequencerPos)
	buff = appendU16(buff, p.timer)
	buff = appendU16(buff, p.timerCounter)
	buff = appendU8(buff, p.lengthCounter)
	buff = appendBool(buff, p.lengthHalt)
	buff = appendBool(buff, p.constantVol)
	buff = appendU8(buff, p.volume)
	buff = appendBool(buff, p.envStart)
	buff = appendU8(buff, p.envCounter)
	buff = appendU8(buff, p.envDivider)
	buff = appendBool(buff, p.enabled)
	return buff
}

func (p *mmc5Pulse) loadState(r *reader) {
	p.duty = r.u8()
	p.sequencerPos = r.u8()
	p.timer = r.u16()
	p.timerCounter = r.u16()
	p.lengthCounter = r.u8()
	p.lengthHalt = r.boolean()
	p.constantVol = r.boolean()
	p.volume = r.u8()
	p.envStart = r.boolean()
	p.envCounter = r.u8()
	p.envDivider = r.u8()
	p.enabled = r.boolean()
}

func (m *MMC5) SaveState(buff []uint8) []uint8 {
	buff = appendU8(buff, m.prgMode)
	buff = appendU8(buff, m.chrMode)
	buff = append(buff, m.prgBanks[:]...)
	buff = appendU8(buff, m.ramProtect1)
	buff = appendU8(buff, m.ramProtect2)
	buff = append(buff, m.chrSpriteBanks[:]...)
	buff = append(buff, m.chrBGBanks[:]...)
	buff = appendU8(buff, m.chrUpper)
	buff = appendU8(buff, m.lastCHRSet)
	buff = append(buff, m.exRAM[:]...)
	buff = appendU8(buff, m.exRAMMode)
	buff = appendU8(buff, m.ntMapping)
	buff = appendU8(buff, m.fillTile)
	buff = appendU8(buff, m.fillAttr)
	buff = append(buff, m.vram[:]...)
	buff = appendU16(buff, m.lastNTAddress)
	buff = appendU8(buff, m.ntMatchCount)
	buff = appendBool(buff, m.inFrame)
	buff = appendU8(buff, m.currentScanline)
	buff = appendU8(buff, m.idleCounter)
	buff = appendU8(buff, m.irqTarget)
	buff = appendBool(buff, m.irqEnable)
	buff = appendBool(buff, m.irqPending)
	buff = appendU8(buff, m.extAttrLatch)
	buff = appendU8(buff, m.multiplicand)
	buff = appendU8(buff, m.multiplier)
	buff = m.pulse1.saveState(buff)
	buff = m.pulse2.saveState(buff)
	buff = appendU8(buff, m.pcmOutput)
	buff = appendBool(buff, m.pcmIRQEnable)
	buff = appendBool(buff, m.pcmReadMode)
	buff = appendU32(buff, uint32(m.frameDivider))
	buff = m.prgRAM.SaveState(buff)
	buff = m.chr.SaveState(buff)
	return buff
}

func (m *MMC5) LoadState(buff []uint8) ([]uint8, bool) {
	r := newReader(buff)
	prgMode := r.u8()
	chrMode := r.u8()
	prgBanks := r.bytes(len(m.prgBanks))
	ramProtect1 := r.u8()
	ramProtect2 := r.u8()
	chrSpriteBanks := r.bytes(len(m.chrSpriteBanks))
	chrBGBanks := r.bytes(len(m.chrBGBanks))
	chrUpper := r.u8()
	lastCHRSet := r.u8()
	exRAM := r.bytes(len(m.exRAM))
	exRAMMode := r.u8()
	ntMapping := r.u8()
	fillTile := r.u8()
	fillAttr := r.u8()
	vram := r.bytes(len(m.vram))
	lastNTAddress := r.u16()
	ntMatchCount := r.u8()
	inFrame := r.boolean()
	currentScanline := r.u8()
	idleCounter := r.u8()
	irqTarget := r.u8()
	irqEnable := r.boolean()
	irqPending := r.boolean()
	extAttrLatch := r.u8()
	multiplicand := r.u8()
	multiplier := r.u8()
	var pulse1, pulse2 mmc5Pulse
	pulse1.loadState(r)
	pulse2.loadState(r)
	pcmOutput := r.u8()
	pcmIRQEnable := r.boolean()
	pcmReadMode := r.boolean()
	frameDivider := int(r.u32())
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

	m.prgMode = prgMode
	m.chrMode = chrMode
	copy(m.prgBanks[:], prgBanks)
	m.ramProtect1 = ramProtect1
	m.ramProtect2 = ramProtect2
	copy(m.chrSpriteBanks[:], chrSpriteBanks)
	copy(m.chrBGBanks[:], chrBGBanks)
	m.chrUpper = chrUpper
	m.lastCHRSet = lastCHRSet
	copy(m.exRAM[:], exRAM)
	m.exRAMMode = exRAMMode
	m.ntMapping = ntMapping
	m.fillTile = fillTile
	m.fillAttr = fillAttr
	copy(m.vram[:], vram)
	m.lastNTAddress = lastNTAddress
	m.ntMatchCount = ntMatchCount
	m.inFrame = inFrame
	m.currentScanline = currentScanline
	m.idleCounter = idleCounter
	m.irqTarget = irqTarget
	m.irqEnable = irqEnable
	m.irqPending = irqPending
	m.extAttrLatch = extAttrLatch
	m.multiplicand = multiplicand
	m.multiplier = multiplier
	m.pulse1.loadRegisters(&pulse1)
	m.pulse2.loadRegisters(&pulse2)
	m.pcmOutput = pcmOutput
	m.pcmIRQEnable = pcmIRQEnable
	m.pcmReadMode = pcmReadMode
	m.frameDivider = frameDivider
	rest := m.prgRAM.LoadState(r.buff)
	rest = m.chr.LoadState(rest)
	return rest, true
}

func (p *mmc5Pulse) loadRegisters(from *mmc5Pulse) {
	p.duty = from.duty
	p.sequencerPos = from.sequencerPos
	p.timer = from.timer
	p.timerCounter = from.timerCounter
	p.lengthCounter = from.lengthCounter
	p.lengthHalt = from.lengthHalt
	p.constantVol = from.constantVol
	p.volume = from.volume
	p.envStart = from.envStart
	p.envCounter = from.envCounter
	p.envDivider = from.envDivider
	p.enabled = from.enabled
}

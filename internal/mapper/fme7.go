package mapper

import (
	"math"

	"famicore/internal/cartridge"
	"famicore/internal/memblock"
)

// FME-7 / Sunsoft 5B (mapper 69): a command/parameter register pair drives
// 1 KiB CHR banks, 8 KiB PRG banks (including a RAM/ROM window at 0x6000),
// mirroring and a 16-bit CPU-cycle IRQ counter. The 5B variant adds a
// three-channel PSG addressed through its own select/write ports.

// s5bTone is one square-wave PSG channel: a 12-bit period, a 4-bit
// logarithmic volume, and a disable bit from the shared mixer register.
type s5bTone struct {
	channelState

	period  uint16
	counter uint16
	output  uint8 // current square phase, 0 or 1
	volume  uint8
	disabled bool
}

func newS5BTone(name string) s5bTone {
	return s5bTone{channelState: newChannelState(name, "S5B")}
}

// The PSG divides the CPU clock by 16 per tone step; the channel flips phase
// each time the period counter expires.
func (t *s5bTone) clock() {
	if t.counter == 0 {
		t.counter = t.period
		t.output ^= 1
	} else {
		t.counter--
	}
}

// s5bVolumeTable maps the 4-bit volume to a linear amplitude; each step is
// 3 dB on hardware.
var s5bVolumeTable = func() [16]float64 {
	var table [16]float64
	for i := 1; i < 16; i++ {
		table[i] = math.Pow(10, float64(i-15)*3.0/20.0)
	}
	return table
}()

func (t *s5bTone) outputLevel() float64 {
	if t.disabled || t.output == 0 {
		return 0
	}
	return s5bVolumeTable[t.volume&0x0F]
}

// s5bMixWeight scales the summed PSG output into console DAC range. Tuned
// empirically; adjustable without changing the contract.
const s5bMixWeight = 0.18

type FME7 struct {
	base

	prgROM *memblock.Block
	prgRAM *memblock.Block
	chr    *memblock.Block

	command uint8

	chrBanks [8]int
	prgBanks [3]int // 0x8000, 0xA000, 0xC000

	prg6000Bank  int
	prg6000IsRAM bool
	prgRAMEnable bool

	mirroring cartridge.Mirroring

	irqEnable        bool
	irqCounterEnable bool
	irqCounter       uint16
	irqPending       bool

	audioSelect uint8
	psgDivider  uint8
	tones       [3]s5bTone
}

func NewFME7(file *cartridge.INESFile) (*FME7, error) {
	prgRAM, err := file.PRGRAMBlock()
	if err != nil {
		return nil, err
	}
	chr, err := file.CHRBlock()
	if err != nil {
		return nil, err
	}
	return &FME7{
		prgROM:    file.PRGROMBlock(),
		prgRAM:    prgRAM,
		chr:       chr,
		mirroring: file.Header.HeaderMirroring(),
		tones: [3]s5bTone{
			newS5BTone("Tone A"),
			newS5BTone("Tone B"),
			newS5BTone("Tone C"),
		},
	}, nil
}

func (m *FME7) ClockCPU() {
	if m.irqCounterEnable {
		m.irqCounter--
		if m.irqCounter == 0xFFFF && m.irqEnable {
			m.irqPending = true
		}
	}
	m.psgDivider++
	if m.psgDivider >= 16 {
		m.psgDivider = 0
		for i := range m.tones {
			m.tones[i].clock()
			m.tones[i].record(m.tones[i].outputLevel())
		}
	}
}

func (m *FME7) IRQFlag() bool { return m.irqPending }

func (m *FME7) MixExpansionAudio(sample float64) float64 {
	var combined float64
	for i := range m.tones {
		if !m.tones[i].muted {
			combined += m.tones[i].outputLevel()
		}
	}
	return sample + combined*s5bMixWeight
}

func (m *FME7) Channels() []AudioChannel {
	return []AudioChannel{&m.tones[0], &m.tones[1], &m.tones[2]}
}

func (m *FME7) DebugReadCPU(address uint16) (uint8, bool) {
	switch {
	case address >= 0x6000 && address <= 0x7FFF:
		if m.prg6000IsRAM {
			if !m.prgRAMEnable {
				return 0, false
			}
			return m.prgRAM.BankedRead(0x2000, m.prg6000Bank, int(address)-0x6000)
		}
		return m.prgROM.BankedRead(0x2000, m.prg6000Bank, int(address)-0x6000)
	case address >= 0x8000 && address <= 0x9FFF:
		return m.prgROM.BankedRead(0x2000, m.prgBanks[0], int(address)-0x8000)
	case address >= 0xA000 && address <= 0xBFFF:
		return m.prgROM.BankedRead(0x2000, m.prgBanks[1], int(address)-0xA000)
	case address >= 0xC000 && address <= 0xDFFF:
		return m.prgROM.BankedRead(0x2000, m.prgBanks[2], int(address)-0xC000)
	case address >= 0xE000:
		lastBank := m.prgROM.Len()/0x2000 - 1
		return m.prgROM.BankedRead(0x2000, lastBank, int(address)-0xE000)
	}
	return 0, false
}

func (m *FME7) ReadCPU(address uint16) (uint8, bool) {
	return m.DebugReadCPU(address)
}

func (m *FME7) writeCommand(data uint8) {
	switch m.command {
	case 0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7:
		m.chrBanks[m.command] = int(data)
	case 0x8:
		m.prg6000Bank = int(data & 0x3F)
		m.prg6000IsRAM = bitSet(data, 6)
		m.prgRAMEnable = bitSet(data, 7)
	case 0x9, 0xA, 0xB:
		m.prgBanks[m.command-0x9] = int(data & 0x3F)
	case 0xC:
		switch bitField(data, 0, 2) {
		case 0:
			m.mirroring = cartridge.MirrorVertical
		case 1:
			m.mirroring = cartridge.MirrorHorizontal
		case 2:
			m.mirroring = cartridge.MirrorOneScreenLower
		case 3:
			m.mirroring = cartridge.MirrorOneScreenUpper
		}
	case 0xD:
		m.irqEnable = bitSet(data, 0)
		m.irqCounterEnable = bitSet(data, 7)
		// Any write acknowledges a pending IRQ.
		m.irqPending = false
	case 0xE:
		m.irqCounter = (m.irqCounter & 0xFF00) | uint16(data)
	case 0xF:
		m.irqCounter = (m.irqCounter & 0x00FF) | uint16(data)<<8
	}
}

func (m *FME7) writeAudio(data uint8) {
	switch m.audioSelect {
	case 0x0:
		m.tones[0].period = (m.tones[0].period & 0x0F00) | uint16(data)
	case 0x1:
		m.tones[0].period = (m.tones[0].period & 0x00FF) | uint16(lowNibble(data))<<8
	case 0x2:
		m.tones[1].period = (m.tones[1].period & 0x0F00) | uint16(data)
	case 0x3:
		m.tones[1].period = (m.tones[1].period & 0x00FF) | uint16(lowNibble(data))<<8
	case 0x4:
		m.tones[2].period = (m.tones[2].period & 0x0F00) | uint16(data)
	case 0x5:
		m.tones[2].period = (m.tones[2].period & 0x00FF) | uint16(lowNibble(data))<<8
	case 0x7:
		// Mixer: bits 0-2 disable tones A-C. Noise routing is not wired to
		// these cartridges' software, so only the tone bits are honoured.
		m.tones[0].disabled = bitSet(data, 0)
		m.tones[1].disabled = bitSet(data, 1)
		m.tones[2].disabled = bitSet(data, 2)
	case 0x8:
		m.tones[0].volume = lowNibble(data)
	case 0x9:
		m.tones[1].volume = lowNibble(data)
	case 0xA:
		m.tones[2].volume = lowNibble(data)
	}
}

func (m *FME7) WriteCPU(address uint16, data uint8) {
	switch {
	case address >= 0x6000 && address <= 0x7FFF:
		if m.prg6000IsRAM && m.prgRAMEnable {
			m.prgRAM.BankedWrite(0x2000, m.prg6000Bank, int(address)-0x6000, data)
		}
	case address >= 0x8000 && address <= 0x9FFF:
		m.command = lowNibble(data)
	case address >= 0xA000 && address <= 0xBFFF:
		m.writeCommand(data)
	case address >= 0xC000 && address <= 0xDFFF:
		m.audioSelect = lowNibble(data)
	case address >= 0xE000:
		m.writeAudio(data)
	}
}

func (m *FME7) DebugReadPPU(address uint16) (uint8, bool) {
	if address <= 0x1FFF {
		bank := m.chrBanks[address>>10]
		return m.chr.BankedRead(0x400, bank, int(address&0x3FF))
	}
	return 0, false
}

func (m *FME7) ReadPPU(address uint16) (uint8, bool) {
	return m.DebugReadPPU(address)
}

func (m *FME7) WritePPU(address uint16, data uint8) {
	if address <= 0x1FFF {
		bank := m.chrBanks[address>>10]
		m.chr.BankedWrite(0x400, bank, int(address&0x3FF), data)
	}
}

func (m *FME7) Mirroring() cartridge.Mirroring { return m.mirroring }

func (m *FME7) HasSRAM() bool { return !m.prgRAM.IsVolatile() }

func (m *FME7) SRAM() []uint8 { return m.prgRAM.Bytes() }

func (m *FME7) LoadSRAM(data []uint8) bool { return m.prgRAM.SetBytes(data) }

func (m *FME7) SaveState(buff []uint8) []uint8 {
	buff = appendU8(buff, m.command)
	for _, bank := range m.chrBanks {
		buff = appendU32(buff, uint32(bank))
	}
	for _, bank := range m.prgBanks {
		buff = appendU32(buff, uint32(bank))
	}
	buff = appendU32(buff, uint32(m.prg6000Bank))
	buff = appendBool(buff, m.prg6000IsRAM)
	buff = appendBool(buff, m.prgRAMEnable)
	buff = appendU8(buff, uint8(m.mirroring))
	buff = appendBool(buff, m.irqEnable)
	buff = appendBool(buff, m.irqCounterEnable)
	buff = appendU16(buff, m.irqCounter)
	buff = appendBool(buff, m.irqPending)
	buff = appendU8(buff, m.audioSelect)
	buff = appendU8(buff, m.psgDivider)
	for i := range m.tones {
		buff = appendU16(buff, m.tones[i].period)
		buff = appendU16(buff, m.tones[i].counter)
		buff = appendU8(buff, m.tones[i].output)
		buff = appendU8(buff, m.tones[i].volume)
		buff = appendBool(buff, m.tones[i].disabled)
	}
	buff = m.prgRAM.SaveState(buff)
	buff = m.chr.SaveState(buff)
	return buff
}

func (m *FME7) LoadState(buff []uint8) ([]uint8, bool) {
	r := newReader(buff)
	command := r.u8()
	var chrBanks [8]int
	for i := range chrBanks {
		chrBanks[i] = int(r.u32())
	}
	var prgBanks [3]int
	for i := range prgBanks {
		prgBanks[i] = int(r.u32())
	}
	prg6000Bank := int(r.u32())
	prg6000IsRAM := r.boolean()
	prgRAMEnable := r.boolean()
	mirroring := r.u8()
	irqEnable := r.boolean()
	irqCounterEnable := r.boolean()
	irqCounter := r.u16()
	irqPending := r.boolean()
	audioSelect := r.u8()
	psgDivider := r.u8()
	type toneState struct {
		period, counter uint16
		output, volume  uint8
		disabled        bool
	}
	var tones [3]toneState
	for i := range tones {
		tones[i].period = r.u16()
		tones[i].counter = r.u16()
		tones[i].output = r.u8()
		tones[i].volume = r.u8()
		tones[i].disabled = r.boolean()
	}
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

	m.command = command
	m.chrBanks = chrBanks
	m.prgBanks = prgBanks
	m.prg6000Bank = prg6000Bank
	m.prg6000IsRAM = prg6000IsRAM
	m.prgRAMEnable = prgRAMEnable
	m.mirroring = cartridge.Mirroring(mirroring)
	m.irqEnable = irqEnable
	m.irqCounterEnable = irqCounterEnable
	m.irqCounter = irqCounter
	m.irqPending = irqPending
	m.audioSelect = audioSelect
	m.psgDivider = psgDivider
	for i := range m.tones {
		m.tones[i].period = tones[i].period
		m.tones[i].counter = tones[i].counter
		m.tones[i].output = tones[i].output
		m.tones[i].volume = tones[i].volume
		m.tones[i].disabled = tones[i].disabled
	}
	rest := m.prgRAM.LoadState(r.buff)
	rest = m.chr.LoadState(rest)
	return rest, true
}

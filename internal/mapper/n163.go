package mapper

import (
	"famicore/internal/cartridge"
	"famicore/internal/memblock"
)

// N163 (mapper 19): 1 KiB CHR banks that can also map internal VRAM into
// pattern space, 8 KiB PRG banks, a 15-bit CPU-cycle IRQ counter, and a
// wavetable sound chip whose waveforms and channel registers live in a
// 128-byte internal RAM reached through an auto-incrementing data port.
// Hardware time-multiplexes one channel's DAC onto the output at a time;
// that behaviour is emulated and can be disabled in favour of a plain sum.

// n163ChannelStride is the spacing of channel register groups in the
// internal RAM; channel 7 sits at 0x78 and lower-numbered channels below it.
const n163ChannelStride = 8

// n163Channel is the capability wrapper for one wavetable voice; its live
// registers stay in the chip RAM.
type n163Channel struct {
	channelState
	index int
}

type N163 struct {
	base

	prgROM *memblock.Block
	prgRAM *memblock.Block
	chr    *memblock.Block

	chrBanks [8]int // 0xE0.. selects internal VRAM in pattern space
	ntBanks  [4]int // nametable banks, 0xE0.. selects internal VRAM
	prgBanks [3]int

	vram [0x800]uint8

	chipRAM     [0x80]uint8
	ramAddress  uint8
	autoAdvance bool

	irqCounter uint16
	irqEnable  bool
	irqPending bool

	multiplexing    bool
	multiplexTimer  uint8
	multiplexSelect int

	channels [8]n163Channel

	mirroring cartridge.Mirroring
}

// n163MixWeight scales one wavetable voice into console DAC range. Tuned
// empirically; adjustable without changing the contract.
const n163MixWeight = 0.0045

func NewN163(file *cartridge.INESFile) (*N163, error) {
	prgRAM, err := file.PRGRAMBlock()
	if err != nil {
		return nil, err
	}
	chr, err := file.CHRBlock()
	if err != nil {
		return nil, err
	}
	m := &N163{
		prgROM:       file.PRGROMBlock(),
		prgRAM:       prgRAM,
		chr:          chr,
		mirroring:    file.Header.HeaderMirroring(),
		multiplexing: true,
	}
	for i := range m.channels {
		m.channels[i] = n163Channel{
			channelState: newChannelState(
				[8]string{"Wave 1", "Wave 2", "Wave 3", "Wave 4", "Wave 5", "Wave 6", "Wave 7", "Wave 8"}[i],
				"N163"),
			index: i,
		}
	}
	return m, nil
}

// SetMultiplexing selects between hardware-accurate channel multiplexing and
// a cleaner summed mix.
func (m *N163) SetMultiplexing(emulate bool) {
	m.multiplexing = emulate
}

// enabledChannels decodes the channel count from the top of chip RAM: the
// highest-numbered (count) channels are active.
func (m *N163) enabledChannels() int {
	return int(bitField(m.chipRAM[0x7F], 4, 3)) + 1
}

func (m *N163) channelBase(index int) int {
	return 0x40 + index*n163ChannelStride
}

// clockChannel advances one voice's phase accumulator in place. Phase and
// frequency are 24-bit values scattered across the register group.
func (m *N163) clockChannel(index int) {
	base := m.channelBase(index)
	freq := uint32(m.chipRAM[base]) |
		uint32(m.chipRAM[base+2])<<8 |
		uint32(bitField(m.chipRAM[base+4], 0, 2))<<16
	phase := uint32(m.chipRAM[base+1]) |
		uint32(m.chipRAM[base+3])<<8 |
		uint32(m.chipRAM[base+5])<<16

	length := uint32(256-int(m.chipRAM[base+4]&0xFC)) << 16
	if length == 0 {
		return
	}
	phase = (phase + freq) % length

	m.chipRAM[base+1] = uint8(phase)
	m.chipRAM[base+3] = uint8(phase >> 8)
	m.chipRAM[base+5] = uint8(phase >> 16)
}

// channelOutput samples one voice: a 4-bit wavetable entry biased around 8,
// scaled by the 4-bit volume.
func (m *N163) channelOutput(index int) float64 {
	base := m.channelBase(index)
	phase := uint32(m.chipRAM[base+1]) |
		uint32(m.chipRAM[base+3])<<8 |
		uint32(m.chipRAM[base+5])<<16
	offset := uint32(m.chipRAM[base+6])
	volume := float64(lowNibble(m.chipRAM[base+7]))

	sampleIndex := (phase >> 16) + offset
	packed := m.chipRAM[(sampleIndex/2)&0x7F]
	var sample uint8
	if sampleIndex&1 == 0 {
		sample = lowNibble(packed)
	} else {
		sample = highNibble(packed)
	}
	return (float64(sample) - 8.0) * volume
}

func (m *N163) ClockCPU() {
	if m.irqEnable {
		if m.irqCounter < 0x7FFF {
			m.irqCounter++
			if m.irqCounter == 0x7FFF {
				m.irqPending = true
			}
		}
	}

	count := m.enabledChannels()
	first := 8 - count
	// One voice advances per 15 CPU cycles; the DAC carries that voice.
	m.multiplexTimer++
	if m.multiplexTimer >= 15 {
		m.multiplexTimer = 0
		m.multiplexSelect++
		if m.multiplexSelect >= 8 || m.multiplexSelect < first {
			m.multiplexSelect = first
		}
		m.clockChannel(m.multiplexSelect)
		m.channels[m.multiplexSelect].record(m.channelOutput(m.multiplexSelect) * n163MixWeight)
	}
}

func (m *N163) IRQFlag() bool { return m.irqPending }

func (m *N163) MixExpansionAudio(sample float64) float64 {
	count := m.enabledChannels()
	first := 8 - count
	if m.multiplexing {
		selected := m.multiplexSelect
		if selected < first {
			selected = first
		}
		if m.channels[selected].muted {
			return sample
		}
		return sample + m.channelOutput(selected)*n163MixWeight
	}
	var combined float64
	for i := first; i < 8; i++ {
		if !m.channels[i].muted {
			combined += m.channelOutput(i)
		}
	}
	return sample + combined*n163MixWeight/float64(count)
}

func (m *N163) Channels() []AudioChannel {
	out := make([]AudioChannel, 0, 8)
	for i := range m.channels {
		out = append(out, &m.channels[i])
	}
	return out
}

func (m *N163) DebugReadCPU(address uint16) (uint8, bool) {
	switch {
	case address >= 0x4800 && address <= 0x4FFF:
		return m.chipRAM[m.ramAddress&0x7F], true
	case address >= 0x5000 && address <= 0x57FF:
		return uint8(m.irqCounter), true
	case address >= 0x5800 && address <= 0x5FFF:
		value := uint8(m.irqCounter>>8) & 0x7F
		if m.irqEnable {
			value |= 0x80
		}
		return value, true
	case address >= 0x6000 && address <= 0x7FFF:
		return m.prgRAM.WrappingRead(int(address) - 0x6000)
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

func (m *N163) ReadCPU(address uint16) (uint8, bool) {
	value, ok := m.DebugReadCPU(address)
	if address >= 0x4800 && address <= 0x4FFF && m.autoAdvance {
		m.ramAddress = (m.ramAddress + 1) & 0x7F
	}
	// Reading either IRQ port acknowledges a pending IRQ.
	if address >= 0x5000 && address <= 0x5FFF {
		m.irqPending = false
	}
	return value, ok
}

func (m *N163) WriteCPU(address uint16, data uint8) {
	switch {
	case address >= 0x4800 && address <= 0x4FFF:
		m.chipRAM[m.ramAddress&0x7F] = data
		if m.autoAdvance {
			m.ramAddress = (m.ramAddress + 1) & 0x7F
		}
	case address >= 0x5000 && address <= 0x57FF:
		m.irqCounter = (m.irqCounter & 0x7F00) | uint16(data)
		m.irqPending = false
	case address >= 0x5800 && address <= 0x5FFF:
		m.irqCounter = (m.irqCounter & 0x00FF) | uint16(data&0x7F)<<8
		m.irqEnable = bitSet(data, 7)
		m.irqPending = false
	case address >= 0x6000 && address <= 0x7FFF:
		m.prgRAM.WrappingWrite(int(address)-0x6000, data)
	case address >= 0x8000 && address <= 0xBFFF:
		m.chrBanks[(address-0x8000)>>11] = int(data)
	case address >= 0xC000 && address <= 0xDFFF:
		m.ntBanks[(address-0xC000)>>11] = int(data)
	case address >= 0xE000 && address <= 0xE7FF:
		m.prgBanks[0] = int(data & 0x3F)
	case address >= 0xE800 && address <= 0xEFFF:
		m.prgBanks[1] = int(data & 0x3F)
	case address >= 0xF000 && address <= 0xF7FF:
		m.prgBanks[2] = int(data & 0x3F)
	case address >= 0xF800:
		m.ramAddress = data & 0x7F
		m.autoAdvance = bitSet(data, 7)
	}
}

func (m *N163) DebugReadPPU(address uint16) (uint8, bool) {
	switch {
	case address <= 0x1FFF:
		bank := m.chrBanks[address>>10]
		if bank >= 0xE0 {
			return m.vram[(uint16(bank&0x01)<<10)|(address&0x3FF)], true
		}
		return m.chr.BankedRead(0x400, bank, int(address&0x3FF))
	case address <= 0x3EFF:
		bank := m.ntBanks[(address&0xFFF)>>10]
		if bank >= 0xE0 {
			return m.vram[(uint16(bank&0x01)<<10)|(address&0x3FF)], true
		}
		return m.chr.BankedRead(0x400, bank, int(address&0x3FF))
	}
	return 0, false
}

func (m *N163) ReadPPU(address uint16) (uint8, bool) {
	return m.DebugReadPPU(address)
}

func (m *N163) WritePPU(address uint16, data uint8) {
	switch {
	case address <= 0x1FFF:
		bank := m.chrBanks[address>>10]
		if bank >= 0xE0 {
			m.vram[(uint16(bank&0x01)<<10)|(address&0x3FF)] = data
			return
		}
		m.chr.BankedWrite(0x400, bank, int(address&0x3FF), data)
	case address <= 0x3EFF:
		bank := m.ntBanks[(address&0xFFF)>>10]
		if bank >= 0xE0 {
			m.vram[(uint16(bank&0x01)<<10)|(address&0x3FF)] = data
			return
		}
		m.chr.BankedWrite(0x400, bank, int(address&0x3FF), data)
	}
}

func (m *N163) Mirroring() cartridge.Mirroring { return m.mirroring }

func (m *N163) HasSRAM() bool { return !m.prgRAM.IsVolatile() }

func (m *N163) SRAM() []uint8 { return m.prgRAM.Bytes() }

func (m *N163) LoadSRAM(data []uint8) bool { return m.prgRAM.SetBytes(data) }

func (m *N163) SaveState(buff []uint8) []uint8 {
	for _, bank := range m.chrBanks {
		buff = appendU32(buff, uint32(bank))
	}
	for _, bank := range m.ntBanks {
		buff = appendU32(buff, uint32(bank))
	}
	for _, bank := range m.prgBanks {
		buff = appendU32(buff, uint32(bank))
	}
	buff = append(buff, m.vram[:]...)
	buff = append(buff, m.chipRAM[:]...)
	buff = appendU8(buff, m.ramAddress)
	buff = appendBool(buff, m.autoAdvance)
	buff = appendU16(buff, m.irqCounter)
	buff = appendBool(buff, m.irqEnable)
	buff = appendBool(buff, m.irqPending)
	buff = appendU8(buff, m.multiplexTimer)
	buff = appendU32(buff, uint32(m.multiplexSelect))
	buff = m.prgRAM.SaveState(buff)
	buff = m.chr.SaveState(buff)
	return buff
}

func (m *N163) LoadState(buff []uint8) ([]uint8, bool) {
	r := newReader(buff)
	var chrBanks [8]int
	for i := range chrBanks {
		chrBanks[i] = int(r.u32())
	}
	var ntBanks [4]int
	for i := range ntBanks {
		ntBanks[i] = int(r.u32())
	}
	var prgBanks [3]int
	for i := range prgBanks {
		prgBanks[i] = int(r.u32())
	}
	vram := r.bytes(len(m.vram))
	chipRAM := r.bytes(len(m.chipRAM))
	ramAddress := r.u8()
	autoAdvance := r.boolean()
	irqCounter := r.u16()
	irqEnable := r.boolean()
	irqPending := r.boolean()
	multiplexTimer := r.u8()
	multiplexSelect := int(r.u32())
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

	m.chrBanks = chrBanks
	m.ntBanks = ntBanks
	m.prgBanks = prgBanks
	copy(m.vram[:], vram)
	copy(m.chipRAM[:], chipRAM)
	m.ramAddress = ramAddress
	m.autoAdvance = autoAdvance
	m.irqCounter = irqCounter
	m.irqEnable = irqEnable
	m.irqPending = irqPending
	m.multiplexTimer = multiplexTimer
	m.multiplexSelect = multiplexSelect
	rest := m.prgRAM.LoadState(r.buff)
	rest = m.chr.LoadState(rest)
	return rest, true
}

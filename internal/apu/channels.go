package apu

import "famicore/internal/mapper"

// Shared lookup tables.

var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 8, 48, 6, 96, 4,
	192, 2, 72, 16, 28, 32, 52, 2,
}

var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 25% negated
}

var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

var noisePeriodTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160,
	202, 254, 380, 508, 762, 1016, 2034, 4068,
}

var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214,
	190, 160, 142, 128, 106, 84, 72, 54,
}

// channelInfo implements the shared audio-channel capability for consumers.
type channelInfo struct {
	name   string
	muted  bool
	window *mapper.RingBuffer
}

func newChannelInfo(name string) channelInfo {
	return channelInfo{name: name, window: mapper.NewRingBuffer(4096)}
}

func (c *channelInfo) Name() string                     { return c.name }
func (c *channelInfo) Chip() string                     { return "2A03" }
func (c *channelInfo) SampleBuffer() *mapper.RingBuffer { return c.window }
func (c *channelInfo) Muted() bool                      { return c.muted }
func (c *channelInfo) Mute()                            { c.muted = true }
func (c *channelInfo) Unmute()                          { c.muted = false }

// envelope is the shared volume generator: a divider reloaded from the
// volume field decays a 15-step counter, optionally looping.
type envelope struct {
	start   bool
	loop    bool
	divider uint8
	decay   uint8
}

func (e *envelope) clock(period uint8) {
	if e.start {
		e.start = false
		e.decay = 15
		e.divider = period
		return
	}
	if e.divider == 0 {
		e.divider = period
		if e.decay > 0 {
			e.decay--
		} else if e.loop {
			e.decay = 15
		}
	} else {
		e.divider--
	}
}

// pulseChannel is one square-wave voice: an 11-bit period, a four-pattern
// duty sequencer, an envelope, a sweep unit and a length counter.
type pulseChannel struct {
	channelInfo

	enabled bool

	duty         uint8
	sequencerPos uint8

	period       uint16
	timerCounter uint16

	lengthCounter uint8
	lengthHalt    bool

	constantVolume bool
	volume         uint8
	envelope       envelope

	sweepEnable  bool
	sweepPeriod  uint8
	sweepNegate  bool
	sweepShift   uint8
	sweepReload  bool
	sweepCounter uint8

	// Pulse 1's negate path is ones-complement: it undershoots by one.
	onesComplement bool
}

func (p *pulseChannel) writeControl(value uint8) {
	p.duty = (value >> 6) & 0x03
	p.lengthHalt = value&0x20 != 0
	p.envelope.loop = p.lengthHalt
	p.constantVolume = value&0x10 != 0
	p.volume = value & 0x0F
}

func (p *pulseChannel) writeSweep(value uint8) {
	p.sweepEnable = value&0x80 != 0
	p.sweepPeriod = (value >> 4) & 0x07
	p.sweepNegate = value&0x08 != 0
	p.sweepShift = value & 0x07
	p.sweepReload = true
}

func (p *pulseChannel) writeTimerLow(value uint8) {
	p.period = (p.period & 0xFF00) | uint16(value)
}

func (p *pulseChannel) writeTimerHigh(value uint8) {
	p.period = (p.period & 0x00FF) | uint16(value&0x07)<<8
	if p.enabled {
		p.lengthCounter = lengthTable[value>>3]
	}
	p.envelope.start = true
	p.sequencerPos = 0
}

// clockTimer runs at the APU (half-CPU) rate.
func (p *pulseChannel) clockTimer() {
	if p.timerCounter == 0 {
		p.timerCounter = p.period
		p.sequencerPos = (p.sequencerPos + 1) & 0x07
	} else {
		p.timerCounter--
	}
}

// sweepTarget computes the period the sweep is driving towards.
func (p *pulseChannel) sweepTarget() int {
	change := int(p.period >> p.sweepShift)
	if p.sweepNegate {
		if p.onesComplement {
			return int(p.period) - change - 1
		}
		return int(p.period) - change
	}
	return int(p.period) + change
}

// sweepMuted reports the sweep unit's muting conditions; they apply even
// when the sweep is disabled.
func (p *pulseChannel) sweepMuted() bool {
	return p.period < 8 || p.sweepTarget() > 0x7FF
}

func (p *pulseChannel) clockSweep() {
	if p.sweepCounter == 0 && p.sweepEnable && p.sweepShift > 0 && !p.sweepMuted() {
		target := p.sweepTarget()
		if target >= 0 {
			p.period = uint16(target)
		}
	}
	if p.sweepCounter == 0 || p.sweepReload {
		p.sweepCounter = p.sweepPeriod
		p.sweepReload = false
	} else {
		p.sweepCounter--
	}
}

func (p *pulseChannel) clockLength() {
	if !p.lengthHalt && p.lengthCounter > 0 {
		p.lengthCounter--
	}
}

func (p *pulseChannel) output() uint8 {
	if !p.enabled || p.lengthCounter == 0 || p.sweepMuted() {
		return 0
	}
	if dutyTable[p.duty][p.sequencerPos] == 0 {
		return 0
	}
	if p.constantVolume {
		return p.volume
	}
	return p.envelope.decay
}

// triangleChannel steps a fixed 32-entry sequence gated by both the length
// counter and the finer-grained linear counter.
type triangleChannel struct {
	channelInfo

	enabled bool

	period       uint16
	timerCounter uint16

	lengthCounter uint8
	controlFlag   bool

	linearCounter uint8
	linearReload  uint8
	reloadFlag    bool

	sequencerPos uint8
}

func (t *triangleChannel) writeControl(value uint8) {
	t.controlFlag = value&0x80 != 0
	t.linearReload = value & 0x7F
}

func (t *triangleChannel) writeTimerLow(value uint8) {
	t.period = (t.period & 0xFF00) | uint16(value)
}

func (t *triangleChannel) writeTimerHigh(value uint8) {
	t.period = (t.period & 0x00FF) | uint16(value&0x07)<<8
	if t.enabled {
		t.lengthCounter = lengthTable[value>>3]
	}
	t.reloadFlag = true
}

// clockTimer runs at the CPU rate.
func (t *triangleChannel) clockTimer() {
	if t.timerCounter == 0 {
		t.timerCounter = t.period
		if t.lengthCounter > 0 && t.linearCounter > 0 {
			t.sequencerPos = (t.sequencerPos + 1) & 0x1F
		}
	} else {
		t.timerCounter--
	}
}

func (t *triangleChannel) clockLinear() {
	if t.reloadFlag {
		t.linearCounter = t.linearReload
	} else if t.linearCounter > 0 {
		t.linearCounter--
	}
	if !t.controlFlag {
		t.reloadFlag = false
	}
}

func (t *triangleChannel) clockLength() {
	if !t.controlFlag && t.lengthCounter > 0 {
		t.lengthCounter--
	}
}

func (t *triangleChannel) output() uint8 {
	if !t.enabled || t.lengthCounter == 0 || t.linearCounter == 0 {
		return 0
	}
	// Ultra-high pitches are inaudible DC on hardware; silence them
	// instead of emitting popping artifacts.
	if t.period < 2 {
		return 0
	}
	return triangleTable[t.sequencerPos]
}

// noiseChannel clocks a 15-bit LFSR whose feedback tap depends on the mode
// bit. The register is seeded to 1 and can never reach zero.
type noiseChannel struct {
	channelInfo

	enabled bool

	mode        bool
	periodIndex uint8
	timerCounter uint16

	lengthCounter uint8
	lengthHalt    bool

	constantVolume bool
	volume         uint8
	envelope       envelope

	shiftRegister uint16
}

func (n *noiseChannel) writeControl(value uint8) {
	n.lengthHalt = value&0x20 != 0
	n.envelope.loop = n.lengthHalt
	n.constantVolume = value&0x10 != 0
	n.volume = value & 0x0F
}

func (n *noiseChannel) writePeriod(value uint8) {
	n.mode = value&0x80 != 0
	n.periodIndex = value & 0x0F
}

func (n *noiseChannel) writeLength(value uint8) {
	if n.enabled {
		n.lengthCounter = lengthTable[value>>3]
	}
	n.envelope.start = true
}

func (n *noiseChannel) clockTimer() {
	if n.timerCounter == 0 {
		n.timerCounter = noisePeriodTable[n.periodIndex]
		feedback := n.shiftRegister & 0x01
		if n.mode {
			feedback ^= (n.shiftRegister >> 6) & 0x01
		} else {
			feedback ^= (n.shiftRegister >> 1) & 0x01
		}
		n.shiftRegister = (n.shiftRegister >> 1) | feedback<<14
	} else {
		n.timerCounter--
	}
}

func (n *noiseChannel) clockLength() {
	if !n.lengthHalt && n.lengthCounter > 0 {
		n.lengthCounter--
	}
}

func (n *noiseChannel) output() uint8 {
	if !n.enabled || n.lengthCounter == 0 || n.shiftRegister&0x01 != 0 {
		return 0
	}
	if n.constantVolume {
		return n.volume
	}
	return n.envelope.decay
}

// dmcChannel plays delta-coded samples fetched from PRG space through the
// mapper, stealing CPU cycles for each fetch.
type dmcChannel struct {
	channelInfo

	irqEnable bool
	loop      bool
	rateIndex uint8

	outputLevel uint8

	sampleAddress  uint16
	sampleLength   uint16
	currentAddress uint16
	bytesRemaining uint16

	timerCounter uint16

	shiftRegister uint8
	bitsRemaining uint8
	sampleBuffer  uint8
	bufferEmpty   bool
	silence       bool

	irqFlag bool

	// stallRequest accumulates CPU cycles owed for sample fetches; the
	// harness drains it into the CPU each cycle.
	stallRequest int
}

func (d *dmcChannel) writeControl(value uint8) {
	d.irqEnable = value&0x80 != 0
	d.loop = value&0x40 != 0
	d.rateIndex = value & 0x0F
	if !d.irqEnable {
		d.irqFlag = false
	}
}

func (d *dmcChannel) writeDirectLoad(value uint8) {
	d.outputLevel = value & 0x7F
}

func (d *dmcChannel) writeSampleAddress(value uint8) {
	d.sampleAddress = 0xC000 + uint16(value)<<6
}

func (d *dmcChannel) writeSampleLength(value uint8) {
	d.sampleLength = uint16(value)<<4 + 1
}

func (d *dmcChannel) restart() {
	d.currentAddress = d.sampleAddress
	d.bytesRemaining = d.sampleLength
}

// fillBuffer fetches the next sample byte when the buffer is empty,
// requesting the documented CPU stall.
func (d *dmcChannel) fillBuffer(m mapper.Mapper) {
	if !d.bufferEmpty || d.bytesRemaining == 0 {
		return
	}
	if value, ok := m.ReadCPU(d.currentAddress); ok {
		d.sampleBuffer = value
	} else {
		d.sampleBuffer = 0
	}
	d.bufferEmpty = false
	d.stallRequest += 4

	if d.currentAddress == 0xFFFF {
		d.currentAddress = 0x8000
	} else {
		d.currentAddress++
	}
	d.bytesRemaining--
	if d.bytesRemaining == 0 {
		if d.loop {
			d.restart()
		} else if d.irqEnable {
			d.irqFlag = true
		}
	}
}

func (d *dmcChannel) clockTimer(m mapper.Mapper) {
	d.fillBuffer(m)

	if d.timerCounter > 0 {
		d.timerCounter--
		return
	}
	d.timerCounter = dmcRateTable[d.rateIndex]

	if !d.silence {
		if d.shiftRegister&0x01 != 0 {
			if d.outputLevel <= 125 {
				d.outputLevel += 2
			}
		} else if d.outputLevel >= 2 {
			d.outputLevel -= 2
		}
	}
	d.shiftRegister >>= 1

	if d.bitsRemaining > 0 {
		d.bitsRemaining--
	}
	if d.bitsRemaining == 0 {
		// New output cycle: promote the buffer into the shifter.
		d.bitsRemaining = 8
		if d.bufferEmpty {
			d.silence = true
		} else {
			d.silence = false
			d.shiftRegister = d.sampleBuffer
			d.bufferEmpty = true
		}
	}
}

func (d *dmcChannel) output() uint8 {
	return d.outputLevel
}

package mapper

import (
	"famicore/internal/cartridge"
	"famicore/internal/memblock"
)

// FDS: the disk drive addressed as a mapper. A motor position counter walks
// the head over the expanded side image one byte at a time, a timer IRQ with
// enable/repeat bits drives game timers, and disk sides can be switched with
// an eject cooldown so BIOS routines observe the swap. The drive carries a
// single wavetable channel with a frequency modulation unit.

// fdsSideLength is the head travel of one disk side in bytes. The archive
// stores 65500 data bytes; gaps and checksums surfaced by the serialiser
// account for the rest.
const fdsSideLength = 81920

// fdsEjectCooldown is how many CPU cycles the drive reports "no disk" after
// a side switch, long enough for BIOS polling to notice the eject.
const fdsEjectCooldown = 1789773 / 2

// fdsWave is the single wavetable voice: a 64-entry 6-bit table, a 12-bit
// frequency accumulator, an envelope-style master volume, and a modulation
// unit that bends the effective frequency.
type fdsWave struct {
	channelState

	table     [64]uint8
	writeHold bool // table writable only while held

	frequency  uint16
	accumulator uint32
	position   uint8

	volume     uint8 // 6-bit direct gain
	masterVol  uint8 // 2-bit divider select
	halted     bool

	modTable    [32]uint8
	modPosition uint8
	modFrequency uint16
	modAccumulator uint32
	modCounter  int8
	modGain     uint8
	modHalted   bool
}

// fdsMixWeight scales the 6-bit wave DAC into console range. Tuned
// empirically; adjustable without changing the contract.
const fdsMixWeight = 0.00233

var fdsMasterVolumeTable = [4]float64{1.0, 2.0 / 3.0, 2.0 / 4.0, 2.0 / 5.0}

func (w *fdsWave) clock() {
	if w.halted {
		return
	}
	// Modulation first: the counter sweeps -64..+63 and biases the pitch.
	if !w.modHalted && w.modFrequency > 0 {
		w.modAccumulator += uint32(w.modFrequency)
		for w.modAccumulator >= 0x10000 {
			w.modAccumulator -= 0x10000
			w.clockModulator()
		}
	}

	pitch := int32(w.frequency)
	if w.modGain > 0 {
		pitch += int32(w.modCounter) * int32(w.modGain) / 16
		if pitch < 0 {
			pitch = 0
		}
	}
	w.accumulator += uint32(pitch)
	for w.accumulator >= 0x10000 {
		w.accumulator -= 0x10000
		w.position = (w.position + 1) & 0x3F
	}
}

func (w *fdsWave) clockModulator() {
	entry := w.modTable[w.modPosition&0x1F]
	switch entry & 0x07 {
	case 0:
	case 1:
		w.modCounter++
	case 2:
		w.modCounter += 2
	case 3:
		w.modCounter += 4
	case 4:
		w.modCounter = 0
	case 5:
		w.modCounter -= 4
	case 6:
		w.modCounter -= 2
	case 7:
		w.modCounter--
	}
	// 7-bit signed wrap.
	if w.modCounter > 63 {
		w.modCounter += -128
	} else if w.modCounter < -64 {
		w.modCounter -= -128
	}
	w.modPosition++
}

func (w *fdsWave) outputLevel() float64 {
	if w.halted {
		return 0
	}
	gain := float64(w.volume)
	if gain > 32 {
		gain = 32
	}
	sample := float64(w.table[w.position]) - 32.0
	return sample * gain * fdsMasterVolumeTable[w.masterVol]
}

type FDS struct {
	base

	diskImages [][]uint8 // expanded to fdsSideLength per side
	bios       *memblock.Block
	ram        *memblock.Block
	chrRAM     *memblock.Block

	currentSide int
	desiredSide int
	ejectTimer  int

	headPosition int
	motorOn      bool
	motorDelay   int16

	readData      uint8
	writeData     uint8
	byteTransferred bool
	transferIRQEnable bool
	transferIRQ   bool
	readMode      bool
	diskEnabled   bool

	timerReload  uint16
	timerCurrent uint16
	timerEnable  bool
	timerRepeat  bool
	timerIRQ     bool

	mirroring cartridge.Mirroring

	wave fdsWave
}

// NewFDS builds the drive from a parsed disk archive. Sides are expanded to
// head-travel length with gap bytes so the serialiser sees the layout the
// drive head does.
func NewFDS(file *cartridge.FDSFile) (*FDS, error) {
	if len(file.DiskSides) == 0 {
		return nil, &cartridge.ReadError{Reason: "disk archive has no sides"}
	}
	m := &FDS{
		bios:       memblock.NewEmpty(0x2000, memblock.ROM),
		ram:        memblock.NewEmpty(0x8000, memblock.RAM),
		chrRAM:     memblock.NewEmpty(0x2000, memblock.RAM),
		mirroring:  cartridge.MirrorHorizontal,
		motorDelay: 448,
		wave:       fdsWave{channelState: newChannelState("Wavetable", "FDS")},
	}
	for _, side := range file.DiskSides {
		expanded := make([]uint8, fdsSideLength)
		copy(expanded[0x200:], side) // leading gap before the first block
		m.diskImages = append(m.diskImages, expanded)
	}
	return m, nil
}

// LoadBIOS installs the 8 KiB disk system BIOS at 0xE000. Reachable through
// the concrete type only; the console refuses to run an FDS image without
// it.
func (m *FDS) LoadBIOS(data []uint8) bool {
	if len(data) != 0x2000 {
		return false
	}
	m.bios = memblock.New(data, memblock.ROM)
	return true
}

// SwitchDisk ejects the current side and inserts another after the
// cooldown.
func (m *FDS) SwitchDisk(side int) bool {
	if side < 0 || side >= len(m.diskImages) {
		return false
	}
	m.desiredSide = side
	m.ejectTimer = fdsEjectCooldown
	return true
}

// DiskSides reports how many sides the inserted archive carries.
func (m *FDS) DiskSides() int { return len(m.diskImages) }

func (m *FDS) clockTimerIRQ() {
	if !m.timerEnable {
		return
	}
	if m.timerCurrent == 0 {
		m.timerIRQ = true
		m.timerCurrent = m.timerReload
		if !m.timerRepeat {
			m.timerEnable = false
		}
	} else {
		m.timerCurrent--
	}
}

func (m *FDS) updateDiskSides() {
	if m.ejectTimer > 0 {
		m.ejectTimer--
		if m.ejectTimer == 0 {
			m.currentSide = m.desiredSide
			m.headPosition = 0
		}
	}
}

func (m *FDS) updateDiskMotor() {
	if m.ejectTimer > 0 {
		return
	}
	if !m.motorOn && m.headPosition == 0 {
		return
	}
	m.motorDelay -= 3
	if m.motorDelay <= 0 {
		m.motorDelay += 448
		m.advanceHead()
	}
}

func (m *FDS) advanceHead() {
	image := m.diskImages[m.currentSide]
	if m.readMode {
		m.readData = image[m.headPosition]
	} else if m.diskEnabled {
		image[m.headPosition] = m.writeData
	}
	m.byteTransferred = true
	if m.transferIRQEnable {
		m.transferIRQ = true
	}

	m.headPosition++
	if m.headPosition >= fdsSideLength {
		// End of travel: the head rewinds and the motor stops until
		// restarted.
		m.headPosition = 0
		m.motorOn = false
	}
}

func (m *FDS) ClockCPU() {
	m.clockTimerIRQ()
	m.updateDiskSides()
	m.updateDiskMotor()
	m.wave.clock()
	m.wave.record(m.wave.outputLevel() * fdsMixWeight)
}

func (m *FDS) IRQFlag() bool { return m.timerIRQ || m.transferIRQ }

func (m *FDS) MixExpansionAudio(sample float64) float64 {
	if m.wave.muted {
		return sample
	}
	return sample + m.wave.outputLevel()*fdsMixWeight
}

func (m *FDS) Channels() []AudioChannel {
	return []AudioChannel{&m.wave}
}

func (m *FDS) DebugReadCPU(address uint16) (uint8, bool) {
	switch {
	case address >= 0x4040 && address <= 0x407F:
		return m.wave.table[address-0x4040] | 0x40, true
	case address == 0x4090:
		return m.wave.volume | 0x40, true
	case address == 0x4092:
		return uint8(m.wave.modCounter) & 0x7F, true
	case address >= 0x6000 && address <= 0xDFFF:
		return m.ram.WrappingRead(int(address) - 0x6000)
	case address >= 0xE000:
		return m.bios.WrappingRead(int(address) - 0xE000)
	}
	return 0, false
}

func (m *FDS) ReadCPU(address uint16) (uint8, bool) {
	switch address {
	case 0x4030:
		var value uint8
		if m.timerIRQ {
			value |= 0x01
		}
		if m.byteTransferred {
			value |= 0x02
		}
		m.timerIRQ = false
		m.byteTransferred = false
		m.transferIRQ = false
		return value, true
	case 0x4031:
		m.byteTransferred = false
		m.transferIRQ = false
		return m.readData, true
	case 0x4032:
		var value uint8
		if m.ejectTimer > 0 {
			value |= 0x01 // no disk in drive
			value |= 0x04 // write protected while swapping
		}
		if !m.motorOn {
			value |= 0x02 // not ready
		}
		return value, true
	case 0x4033:
		return 0x80, true // battery good
	}
	return m.DebugReadCPU(address)
}

func (m *FDS) WriteCPU(address uint16, data uint8) {
	switch {
	case address == 0x4020:
		m.timerReload = (m.timerReload & 0xFF00) | uint16(data)
	case address == 0x4021:
		m.timerReload = (m.timerReload & 0x00FF) | uint16(data)<<8
	case address == 0x4022:
		m.timerRepeat = bitSet(data, 0)
		m.timerEnable = bitSet(data, 1) && m.diskEnabled
		if m.timerEnable {
			m.timerCurrent = m.timerReload
		} else {
			m.timerIRQ = false
		}
	case address == 0x4023:
		m.diskEnabled = bitSet(data, 0)
		if !m.diskEnabled {
			m.timerEnable = false
			m.timerIRQ = false
		}
	case address == 0x4024:
		m.writeData = data
		m.byteTransferred = false
		m.transferIRQ = false
	case address == 0x4025:
		m.motorOn = bitSet(data, 0)
		if bitSet(data, 1) {
			// Transfer reset rewinds to the start of the side.
			m.headPosition = 0
		}
		m.readMode = bitSet(data, 2)
		if bitSet(data, 3) {
			m.mirroring = cartridge.MirrorHorizontal
		} else {
			m.mirroring = cartridge.MirrorVertical
		}
		m.transferIRQEnable = bitSet(data, 7)
		if !m.transferIRQEnable {
			m.transferIRQ = false
		}
	case address >= 0x4040 && address <= 0x407F:
		if m.wave.writeHold {
			m.wave.table[address-0x4040] = data & 0x3F
		}
	case address == 0x4080:
		m.wave.volume = data & 0x3F
	case address == 0x4082:
		m.wave.frequency = (m.wave.frequency & 0x0F00) | uint16(data)
	case address == 0x4083:
		m.wave.frequency = (m.wave.frequency & 0x00FF) | uint16(lowNibble(data))<<8
		m.wave.halted = bitSet(data, 7)
		if m.wave.halted {
			m.wave.accumulator = 0
			m.wave.position = 0
		}
	case address == 0x4084:
		m.wave.modGain = data & 0x3F
	case address == 0x4085:
		m.wave.modCounter = int8(data&0x7F) << 1 >> 1 // sign-extend 7 bits
	case address == 0x4086:
		m.wave.modFrequency = (m.wave.modFrequency & 0x0F00) | uint16(data)
	case address == 0x4087:
		m.wave.modFrequency = (m.wave.modFrequency & 0x00FF) | uint16(lowNibble(data))<<8
		m.wave.modHalted = bitSet(data, 7)
	case address == 0x4088:
		if m.wave.modHalted {
			// The mod table shifts two entries per write.
			copy(m.wave.modTable[:30], m.wave.modTable[2:])
			m.wave.modTable[30] = data & 0x07
			m.wave.modTable[31] = data & 0x07
		}
	case address == 0x4089:
		m.wave.masterVol = bitField(data, 0, 2)
		m.wave.writeHold = bitSet(data, 7)
	case address >= 0x6000 && address <= 0xDFFF:
		m.ram.WrappingWrite(int(address)-0x6000, data)
	}
}

func (m *FDS) DebugReadPPU(address uint16) (uint8, bool) {
	if address <= 0x1FFF {
		return m.chrRAM.WrappingRead(int(address))
	}
	return 0, false
}

func (m *FDS) ReadPPU(address uint16) (uint8, bool) {
	return m.DebugReadPPU(address)
}

func (m *FDS) WritePPU(address uint16, data uint8) {
	if address <= 0x1FFF {
		m.chrRAM.WrappingWrite(int(address), data)
	}
}

func (m *FDS) Mirroring() cartridge.Mirroring { return m.mirroring }

// HasSRAM exports the writable disk image itself; disk saves mutate the
// side data in place.
func (m *FDS) HasSRAM() bool { return true }

func (m *FDS) SRAM() []uint8 {
	out := make([]uint8, 0, len(m.diskImages)*fdsSideLength)
	for _, side := range m.diskImages {
		out = append(out, side...)
	}
	return out
}

func (m *FDS) LoadSRAM(data []uint8) bool {
	if len(data) != len(m.diskImages)*fdsSideLength {
		return false
	}
	for i := range m.diskImages {
		copy(m.diskImages[i], data[i*fdsSideLength:(i+1)*fdsSideLength])
	}
	return true
}

func (m *FDS) SaveState(buff []uint8) []uint8 {
	buff = appendU32(buff, uint32(m.currentSide))
	buff = appendU32(buff, uint32(m.desiredSide))
	buff = appendU32(buff, uint32(m.ejectTimer))
	buff = appendU32(buff, uint32(m.headPosition))
	buff = appendBool(buff, m.motorOn)
	buff = appendU16(buff, uint16(m.motorDelay))
	buff = appendU8(buff, m.readData)
	buff = appendU8(buff, m.writeData)
	buff = appendBool(buff, m.byteTransferred)
	buff = appendBool(buff, m.transferIRQEnable)
	buff = appendBool(buff, m.transferIRQ)
	buff = appendBool(buff, m.readMode)
	buff = appendBool(buff, m.diskEnabled)
	buff = appendU16(buff, m.timerReload)
	buff = appendU16(buff, m.timerCurrent)
	buff = appendBool(buff, m.timerEnable)
	buff = appendBool(buff, m.timerRepeat)
	buff = appendBool(buff, m.timerIRQ)
	buff = appendU8(buff, uint8(m.mirroring))
	buff = append(buff, m.wave.table[:]...)
	buff = appendBool(buff, m.wave.writeHold)
	buff = appendU16(buff, m.wave.frequency)
	buff = appendU32(buff, m.wave.accumulator)
	buff = appendU8(buff, m.wave.position)
	buff = appendU8(buff, m.wave.volume)
	buff = appendU8(buff, m.wave.masterVol)
	buff = appendBool(buff, m.wave.halted)
	buff = append(buff, m.wave.modTable[:]...)
	buff = appendU8(buff, m.wave.modPosition)
	buff = appendU16(buff, m.wave.modFrequency)
	buff = appendU32(buff, m.wave.modAccumulator)
	buff = appendU8(buff, uint8(m.wave.modCounter))
	buff = appendU8(buff, m.wave.modGain)
	buff = appendBool(buff, m.wave.modHalted)
	buff = m.ram.SaveState(buff)
	buff = m.chrRAM.SaveState(buff)
	return buff
}

func (m *FDS) LoadState(buff []uint8) ([]uint8, bool) {
	r := newReader(buff)
	currentSide := int(r.u32())
	desiredSide := int(r.u32())
	ejectTimer := int(r.u32())
	headPosition := int(r.u32())
	motorOn := r.boolean()
	motorDelay := int16(r.u16())
	readData := r.u8()
	writeData := r.u8()
	byteTransferred := r.boolean()
	transferIRQEnable := r.boolean()
	transferIRQ := r.boolean()
	readMode := r.boolean()
	diskEnabled := r.boolean()
	timerReload := r.u16()
	timerCurrent := r.u16()
	timerEnable := r.boolean()
	timerRepeat := r.boolean()
	timerIRQ := r.boolean()
	mirroring := r.u8()
	waveTable := r.bytes(len(m.wave.table))
	writeHold := r.boolean()
	frequency := r.u16()
	accumulator := r.u32()
	position := r.u8()
	volume := r.u8()
	masterVol := r.u8()
	halted := r.boolean()
	modTable := r.bytes(len(m.wave.modTable))
	modPosition := r.u8()
	modFrequency := r.u16()
	modAccumulator := r.u32()
	modCounter := int8(r.u8())
	modGain := r.u8()
	modHalted := r.boolean()
	if !r.ok {
		return buff, false
	}
	if len(r.buff) < m.ram.Len()+m.chrRAM.Len() {
		return buff, false
	}
	if currentSide >= len(m.diskImages) || desiredSide >= len(m.diskImages) {
		return buff, false
	}

	m.currentSide = currentSide
	m.desiredSide = desiredSide
	m.ejectTimer = ejectTimer
	m.headPosition = headPosition % fdsSideLength
	m.motorOn = motorOn
	m.motorDelay = motorDelay
	m.readData = readData
	m.writeData = writeData
	m.byteTransferred = byteTransferred
	m.transferIRQEnable = transferIRQEnable
	m.transferIRQ = transferIRQ
	m.readMode = readMode
	m.diskEnabled = diskEnabled
	m.timerReload = timerReload
	m.timerCurrent = timerCurrent
	m.timerEnable = timerEnable
	m.timerRepeat = timerRepeat
	m.timerIRQ = timerIRQ
	m.mirroring = cartridge.Mirroring(mirroring)
	copy(m.wave.table[:], waveTable)
	m.wave.writeHold = writeHold
	m.wave.frequency = frequency
	m.wave.accumulator = accumulator
	m.wave.position = position
	m.wave.volume = volume
	m.wave.masterVol = masterVol
	m.wave.halted = halted
	copy(m.wave.modTable[:], modTable)
	m.wave.modPosition = modPosition
	m.wave.modFrequency = modFrequency
	m.wave.modAccumulator = modAccumulator
	m.wave.modCounter = modCounter
	m.wave.modGain = modGain
	m.wave.modHalted = modHalted
	rest := m.ram.LoadState(r.buff)
	rest = m.chrRAM.LoadState(rest)
	return rest, true
}

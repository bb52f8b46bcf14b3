// Package cpu implements the console's 6502 core: official opcodes, the
// unofficial NOPs and the SLO/RLA/SRE/RRA/SAX/LAX/DCP/ISC group, hardware
// interrupt sequencing, and per-cycle stepping driven by the console's
// master clock. Other unofficial opcodes halt the core like STP.
package cpu

const (
	stackBase = 0x0100

	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01

	zeroPageMask = 0xFF
	pageMask     = 0xFF00

	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// Bus is the CPU's window onto the rest of the console.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CPU is the 6502 core. Registers are exported for the harness and tests;
// everything else advances through StepCycle.
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	S  uint8
	PC uint16

	// Status flags. Decimal is settable but ignored by arithmetic on this
	// part.
	C bool
	Z bool
	I bool
	D bool
	V bool
	N bool

	bus Bus

	// Per-cycle state machine: the opcode executes on tick 0 and the
	// remaining ticks burn down its bus time. tick==0 marks an instruction
	// boundary.
	tick   uint8
	opcode uint8

	// Interrupt lines. NMI keeps a one-bit edge memory; IRQ is level
	// sampled at each boundary.
	nmiLine     bool
	nmiLastLine bool
	nmiPending  bool
	irqLine     bool

	// Stall cycles requested by DMA engines; burned before any
	// instruction work.
	stallCycles int

	halted bool
	cycles uint64
}

// New wires a CPU to its bus.
func New(bus Bus) *CPU {
	return &CPU{bus: bus, S: 0xFD}
}

// PowerOn initialises the register file to the documented power-up state
// and loads PC from the reset vector.
func (c *CPU) PowerOn() {
	c.A = 0
	c.X = 0
	c.Y = 0
	c.S = 0xFD
	c.SetStatus(0x34)
	c.PC = c.readWord(resetVector)
	c.tick = 0
	c.halted = false
	c.nmiPending = false
}

// Reset performs a warm reset: S drops by 3, interrupts are masked, PC
// reloads from the reset vector. The APU silencing write belongs to the
// harness.
func (c *CPU) Reset() {
	c.S -= 3
	c.I = true
	c.PC = c.readWord(resetVector)
	c.tick = 0
	c.halted = false
}

// Halted reports whether a STP opcode stopped the core.
func (c *CPU) Halted() bool { return c.halted }

// Cycles returns the total CPU cycles executed.
func (c *CPU) Cycles() uint64 { return c.cycles }

// Tick returns the sub-cycle counter; 0 is an instruction boundary.
func (c *CPU) Tick() uint8 { return c.tick }

// SetNMILine drives the NMI input. The line is edge-sensitive: a low-to-high
// transition latches a pending NMI, held until serviced.
func (c *CPU) SetNMILine(state bool) {
	if state && !c.nmiLastLine {
		c.nmiPending = true
	}
	c.nmiLastLine = state
}

// SetIRQLine drives the level-sensitive IRQ input, already ORed across the
// APU and mapper sources by the harness.
func (c *CPU) SetIRQLine(state bool) {
	c.irqLine = state
}

// AddStall suspends instruction progress for n CPU cycles (OAM DMA, DMC
// sample fetches).
func (c *CPU) AddStall(n int) {
	c.stallCycles += n
}

// StepCycle advances the core by one CPU cycle. On an instruction boundary
// it services interrupts, fetches and fully executes the next instruction,
// then spreads the cost over the following cycles.
func (c *CPU) StepCycle() {
	c.cycles++

	if c.halted {
		return
	}
	if c.stallCycles > 0 {
		c.stallCycles--
		return
	}
	if c.tick > 0 {
		c.tick--
		return
	}

	// Instruction boundary: interrupts first. NMI wins over IRQ.
	if c.nmiPending {
		c.nmiPending = false
		c.interrupt(nmiVector)
		return
	}
	if c.irqLine && !c.I {
		c.interrupt(irqVector)
		return
	}

	c.opcode = c.bus.Read(c.PC)
	instruction := opcodeTable[c.opcode]
	if instruction == nil {
		// STP family, or an unofficial opcode with no table entry: the
		// core wedges until reset.
		c.halted = true
		return
	}

	address, pageCrossed := c.operandAddress(instruction.Mode)
	extra := c.execute(c.opcode, address, pageCrossed)
	if pageCrossed && pageCrossPenalty(c.opcode) {
		extra++
	}

	// This cycle was the first of the instruction.
	c.tick = instruction.Cycles + extra - 1
}

// interrupt runs the 7-cycle hardware interrupt sequence. The pushed status
// carries B clear; bit 5 is always set.
func (c *CPU) interrupt(vector uint16) {
	c.pushWord(c.PC)
	c.push(c.Status() &^ bFlagMask)
	c.I = true
	c.PC = c.readWord(vector)
	c.tick = 6
}

// pageCrossPenalty reports whether the opcode pays an extra cycle when its
// indexed operand crosses a page. Stores and RMW ops bake the cost into
// their base count.
func pageCrossPenalty(opcode uint8) bool {
	switch opcode {
	case 0xBD, 0xB9, 0xB1, 0xBE, 0xBC, // loads
		0x7D, 0x79, 0x71, 0x3D, 0x39, 0x31, // ADC, AND
		0x1D, 0x19, 0x11, 0x5D, 0x59, 0x51, // ORA, EOR
		0xDD, 0xD9, 0xD1, 0xFD, 0xF9, 0xF1, // CMP, SBC
		0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC, // NOP abs,X
		0xBF, 0xB3: // LAX
		return true
	}
	return false
}

// operandAddress resolves the instruction's effective address, advancing PC
// past the operand bytes and reporting page crossings.
func (c *CPU) operandAddress(mode AddressingMode) (uint16, bool) {
	switch mode {
	case Implied, Accumulator:
		c.PC++
		return 0, false

	case Immediate:
		address := c.PC + 1
		c.PC += 2
		return address, false

	case ZeroPage:
		address := uint16(c.bus.Read(c.PC + 1))
		c.PC += 2
		return address, false

	case ZeroPageX:
		base := c.bus.Read(c.PC + 1)
		c.PC += 2
		return uint16(base+c.X) & zeroPageMask, false

	case ZeroPageY:
		base := c.bus.Read(c.PC + 1)
		c.PC += 2
		return uint16(base+c.Y) & zeroPageMask, false

	case Relative:
		offset := int8(c.bus.Read(c.PC + 1))
		next := c.PC + 2
		target := uint16(int32(next) + int32(offset))
		c.PC = next
		return target, next&pageMask != target&pageMask

	case Absolute:
		address := c.readWord(c.PC + 1)
		c.PC += 3
		return address, false

	case AbsoluteX:
		base := c.readWord(c.PC + 1)
		c.PC += 3
		address := base + uint16(c.X)
		return address, base&pageMask != address&pageMask

	case AbsoluteY:
		base := c.readWord(c.PC + 1)
		c.PC += 3
		address := base + uint16(c.Y)
		return address, base&pageMask != address&pageMask

	case Indirect:
		ptr := c.readWord(c.PC + 1)
		c.PC += 3
		// Hardware bug: the high byte of a pointer at 0xXXFF comes from
		// 0xXX00, not the next page.
		if ptr&zeroPageMask == zeroPageMask {
			low := uint16(c.bus.Read(ptr))
			high := uint16(c.bus.Read(ptr & pageMask))
			return high<<8 | low, false
		}
		return c.readWord(ptr), false

	case IndexedIndirect:
		base := c.bus.Read(c.PC + 1)
		c.PC += 2
		ptr := uint16(base+c.X) & zeroPageMask
		low := uint16(c.bus.Read(ptr))
		high := uint16(c.bus.Read((ptr + 1) & zeroPageMask))
		return high<<8 | low, false

	case IndirectIndexed:
		ptr := uint16(c.bus.Read(c.PC + 1))
		c.PC += 2
		low := uint16(c.bus.Read(ptr))
		high := uint16(c.bus.Read((ptr + 1) & zeroPageMask))
		base := high<<8 | low
		address := base + uint16(c.Y)
		return address, base&pageMask != address&pageMask
	}
	return 0, false
}

func (c *CPU) readWord(address uint16) uint16 {
	low := uint16(c.bus.Read(address))
	high := uint16(c.bus.Read(address + 1))
	return high<<8 | low
}

// Stack helpers. S points into page 1 and post-decrements on push.
func (c *CPU) push(value uint8) {
	c.bus.Write(stackBase+uint16(c.S), value)
	c.S--
}

func (c *CPU) pop() uint8 {
	c.S++
	return c.bus.Read(stackBase + uint16(c.S))
}

func (c *CPU) pushWord(value uint16) {
	c.push(uint8(value >> 8))
	c.push(uint8(value))
}

func (c *CPU) popWord() uint16 {
	low := uint16(c.pop())
	high := uint16(c.pop())
	return high<<8 | low
}

// setZN updates Zero and Negative from a result byte.
func (c *CPU) setZN(value uint8) {
	c.Z = value == 0
	c.N = value&nFlagMask != 0
}

// Status packs the flag byte; bit 5 reads as 1, B reads as 0 here and is
// painted in by the push sites that want it.
func (c *CPU) Status() uint8 {
	var status uint8 = unusedMask
	if c.N {
		status |= nFlagMask
	}
	if c.V {
		status |= vFlagMask
	}
	if c.D {
		status |= dFlagMask
	}
	if c.I {
		status |= iFlagMask
	}
	if c.Z {
		status |= zFlagMask
	}
	if c.C {
		status |= cFlagMask
	}
	return status
}

// SetStatus unpacks the flag byte; B and bit 5 have no storage.
func (c *CPU) SetStatus(status uint8) {
	c.N = status&nFlagMask != 0
	c.V = status&vFlagMask != 0
	c.D = status&dFlagMask != 0
	c.I = status&iFlagMask != 0
	c.Z = status&zFlagMask != 0
	c.C = status&cFlagMask != 0
}

// SaveState appends the register file and sequencing state.
func (c *CPU) SaveState(buff []uint8) []uint8 {
	buff = append(buff, c.A, c.X, c.Y, c.S)
	buff = append(buff, uint8(c.PC), uint8(c.PC>>8))
	buff = append(buff, c.Status())
	buff = append(buff, c.tick, c.opcode)
	var flags uint8
	if c.nmiLastLine {
		flags |= 0x01
	}
	if c.nmiPending {
		flags |= 0x02
	}
	if c.irqLine {
		flags |= 0x04
	}
	if c.halted {
		flags |= 0x08
	}
	buff = append(buff, flags)
	buff = append(buff, uint8(c.stallCycles), uint8(c.stallCycles>>8))
	for i := 0; i < 8; i++ {
		buff = append(buff, uint8(c.cycles>>(8*i)))
	}
	return buff
}

// cpuStateSize is the byte length SaveState emits.
const cpuStateSize = 4 + 2 + 1 + 2 + 1 + 2 + 8

// LoadState restores what SaveState wrote, returning the remaining buffer.
func (c *CPU) LoadState(buff []uint8) ([]uint8, bool) {
	if len(buff) < cpuStateSize {
		return buff, false
	}
	c.A, c.X, c.Y, c.S = buff[0], buff[1], buff[2], buff[3]
	c.PC = uint16(buff[4]) | uint16(buff[5])<<8
	c.SetStatus(buff[6])
	c.tick = buff[7]
	c.opcode = buff[8]
	flags := buff[9]
	c.nmiLastLine = flags&0x01 != 0
	c.nmiPending = flags&0x02 != 0
	c.irqLine = flags&0x04 != 0
	c.halted = flags&0x08 != 0
	c.stallCycles = int(uint16(buff[10]) | uint16(buff[11])<<8)
	c.cycles = 0
	for i := 0; i < 8; i++ {
		c.cycles |= uint64(buff[12+i]) << (8 * i)
	}
	return buff[cpuStateSize:], true
}

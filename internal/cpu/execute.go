package cpu

// Instruction operations. Each helper performs the data work of one
// mnemonic; execute dispatches opcodes onto them. Extra cycles (taken
// branches) are returned to the sequencer.

func (c *CPU) lda(address uint16) {
	c.A = c.bus.Read(address)
	c.setZN(c.A)
}

func (c *CPU) ldx(address uint16) {
	c.X = c.bus.Read(address)
	c.setZN(c.X)
}

func (c *CPU) ldy(address uint16) {
	c.Y = c.bus.Read(address)
	c.setZN(c.Y)
}

// addWithCarry implements ADC; SBC feeds it the operand's complement.
// Overflow is set when both inputs share a sign that differs from the
// result's.
func (c *CPU) addWithCarry(value uint8) {
	carry := uint16(0)
	if c.C {
		carry = 1
	}
	result := uint16(c.A) + uint16(value) + carry
	c.V = (c.A^uint8(result))&0x80 != 0 && (c.A^value)&0x80 == 0
	c.C = result > 0xFF
	c.A = uint8(result)
	c.setZN(c.A)
}

func (c *CPU) adc(address uint16) {
	c.addWithCarry(c.bus.Read(address))
}

func (c *CPU) sbc(address uint16) {
	c.addWithCarry(c.bus.Read(address) ^ 0xFF)
}

func (c *CPU) compare(register uint8, address uint16) {
	value := c.bus.Read(address)
	c.C = register >= value
	c.setZN(register - value)
}

func (c *CPU) aslMemory(address uint16) uint8 {
	value := c.bus.Read(address)
	c.bus.Write(address, value) // RMW dummy write of the unmodified value
	c.C = value&0x80 != 0
	value <<= 1
	c.bus.Write(address, value)
	c.setZN(value)
	return value
}

func (c *CPU) lsrMemory(address uint16) uint8 {
	value := c.bus.Read(address)
	c.bus.Write(address, value)
	c.C = value&0x01 != 0
	value >>= 1
	c.bus.Write(address, value)
	c.setZN(value)
	return value
}

func (c *CPU) rolMemory(address uint16) uint8 {
	value := c.bus.Read(address)
	c.bus.Write(address, value)
	oldCarry := c.C
	c.C = value&0x80 != 0
	value <<= 1
	if oldCarry {
		value |= 0x01
	}
	c.bus.Write(address, value)
	c.setZN(value)
	return value
}

func (c *CPU) rorMemory(address uint16) uint8 {
	value := c.bus.Read(address)
	c.bus.Write(address, value)
	oldCarry := c.C
	c.C = value&0x01 != 0
	value >>= 1
	if oldCarry {
		value |= 0x80
	}
	c.bus.Write(address, value)
	c.setZN(value)
	return value
}

func (c *CPU) branch(taken bool, target uint16, pageCrossed bool) uint8 {
	if !taken {
		return 0
	}
	c.PC = target
	if pageCrossed {
		return 2
	}
	return 1
}

func (c *CPU) bit(address uint16) {
	value := c.bus.Read(address)
	c.N = value&nFlagMask != 0
	c.V = value&vFlagMask != 0
	c.Z = c.A&value == 0
}

func (c *CPU) brk() {
	// BRK pushes the address of the byte after its padding byte, with B
	// set in the pushed status.
	c.PC++
	c.pushWord(c.PC)
	c.push(c.Status() | bFlagMask)
	c.I = true
	c.PC = c.readWord(irqVector)
}

// execute runs one fully decoded instruction and returns extra cycles
// beyond the table's base count.
func (c *CPU) execute(opcode uint8, address uint16, pageCrossed bool) uint8 {
	switch opcode {
	// Loads and stores
	case 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1:
		c.lda(address)
	case 0xA2, 0xA6, 0xB6, 0xAE, 0xBE:
		c.ldx(address)
	case 0xA0, 0xA4, 0xB4, 0xAC, 0xBC:
		c.ldy(address)
	case 0x85, 0x95, 0x8D, 0x9D, 0x99, 0x81, 0x91:
		c.bus.Write(address, c.A)
	case 0x86, 0x96, 0x8E:
		c.bus.Write(address, c.X)
	case 0x84, 0x94, 0x8C:
		c.bus.Write(address, c.Y)

	// Arithmetic
	case 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71:
		c.adc(address)
	case 0xE9, 0xEB, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1:
		c.sbc(address)

	// Logic
	case 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31:
		c.A &= c.bus.Read(address)
		c.setZN(c.A)
	case 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11:
		c.A |= c.bus.Read(address)
		c.setZN(c.A)
	case 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51:
		c.A ^= c.bus.Read(address)
		c.setZN(c.A)

	// Shifts and rotates
	case 0x0A:
		c.C = c.A&0x80 != 0
		c.A <<= 1
		c.setZN(c.A)
	case 0x06, 0x16, 0x0E, 0x1E:
		c.aslMemory(address)
	case 0x4A:
		c.C = c.A&0x01 != 0
		c.A >>= 1
		c.setZN(c.A)
	case 0x46, 0x56, 0x4E, 0x5E:
		c.lsrMemory(address)
	case 0x2A:
		oldCarry := c.C
		c.C = c.A&0x80 != 0
		c.A <<= 1
		if oldCarry {
			c.A |= 0x01
		}
		c.setZN(c.A)
	case 0x26, 0x36, 0x2E, 0x3E:
		c.rolMemory(address)
	case 0x6A:
		oldCarry := c.C
		c.C = c.A&0x01 != 0
		c.A >>= 1
		if oldCarry {
			c.A |= 0x80
		}
		c.setZN(c.A)
	case 0x66, 0x76, 0x6E, 0x7E:
		c.rorMemory(address)

	// Compares
	case 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1:
		c.compare(c.A, address)
	case 0xE0, 0xE4, 0xEC:
		c.compare(c.X, address)
	case 0xC0, 0xC4, 0xCC:
		c.compare(c.Y, address)

	// Increment / decrement
	case 0xE6, 0xF6, 0xEE, 0xFE:
		value := c.bus.Read(address) + 1
		c.bus.Write(address, value)
		c.setZN(value)
	case 0xC6, 0xD6, 0xCE, 0xDE:
		value := c.bus.Read(address) - 1
		c.bus.Write(address, value)
		c.setZN(value)
	case 0xE8:
		c.X++
		c.setZN(c.X)
	case 0xCA:
		c.X--
		c.setZN(c.X)
	case 0xC8:
		c.Y++
		c.setZN(c.Y)
	case 0x88:
		c.Y--
		c.setZN(c.Y)

	// Transfers
	case 0xAA:
		c.X = c.A
		c.setZN(c.X)
	case 0x8A:
		c.A = c.X
		c.setZN(c.A)
	case 0xA8:
		c.Y = c.A
		c.setZN(c.Y)
	case 0x98:
		c.A = c.Y
		c.setZN(c.A)
	case 0xBA:
		c.X = c.S
		c.setZN(c.X)
	case 0x9A:
		c.S = c.X

	// Stack
	case 0x48:
		c.push(c.A)
	case 0x68:
		c.A = c.pop()
		c.setZN(c.A)
	case 0x08:
		c.push(c.Status() | bFlagMask)
	case 0x28:
		c.SetStatus(c.pop())

	// Flags
	case 0x18:
		c.C = false
	case 0x38:
		c.C = true
	case 0x58:
		c.I = false
	case 0x78:
		c.I = true
	case 0xB8:
		c.V = false
	case 0xD8:
		c.D = false
	case 0xF8:
		c.D = true

	// Control flow
	case 0x4C, 0x6C:
		c.PC = address
	case 0x20:
		c.pushWord(c.PC - 1)
		c.PC = address
	case 0x60:
		c.PC = c.popWord() + 1
	case 0x40:
		c.SetStatus(c.pop())
		c.PC = c.popWord()
	case 0x00:
		c.brk()

	// Branches
	case 0x90:
		return c.branch(!c.C, address, pageCrossed)
	case 0xB0:
		return c.branch(c.C, address, pageCrossed)
	case 0xD0:
		return c.branch(!c.Z, address, pageCrossed)
	case 0xF0:
		return c.branch(c.Z, address, pageCrossed)
	case 0x10:
		return c.branch(!c.N, address, pageCrossed)
	case 0x30:
		return c.branch(c.N, address, pageCrossed)
	case 0x50:
		return c.branch(!c.V, address, pageCrossed)
	case 0x70:
		return c.branch(c.V, address, pageCrossed)

	// Misc
	case 0x24, 0x2C:
		c.bit(address)

	// Official and unofficial NOPs. The addressed forms still perform
	// their dummy operand read.
	case 0xEA, 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA:
	case 0x80, 0x82, 0x89, 0xC2, 0xE2,
		0x04, 0x44, 0x64, 0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4,
		0x0C, 0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC:
		c.bus.Read(address)

	// Unofficial combos
	case 0xA3, 0xA7, 0xAF, 0xB3, 0xB7, 0xBF: // LAX
		c.A = c.bus.Read(address)
		c.X = c.A
		c.setZN(c.A)
	case 0x83, 0x87, 0x8F, 0x97: // SAX
		c.bus.Write(address, c.A&c.X)
	case 0xC3, 0xC7, 0xCF, 0xD3, 0xD7, 0xDF, 0xDB: // DCP
		value := c.bus.Read(address) - 1
		c.bus.Write(address, value)
		c.C = c.A >= value
		c.setZN(c.A - value)
	case 0xE3, 0xE7, 0xEF, 0xF3, 0xF7, 0xFF, 0xFB: // ISC
		value := c.bus.Read(address) + 1
		c.bus.Write(address, value)
		c.addWithCarry(value ^ 0xFF)
	case 0x03, 0x07, 0x0F, 0x13, 0x17, 0x1F, 0x1B: // SLO
		value := c.aslMemory(address)
		c.A |= value
		c.setZN(c.A)
	case 0x23, 0x27, 0x2F, 0x33, 0x37, 0x3F, 0x3B: // RLA
		value := c.rolMemory(address)
		c.A &= value
		c.setZN(c.A)
	case 0x43, 0x47, 0x4F, 0x53, 0x57, 0x5F, 0x5B: // SRE
		value := c.lsrMemory(address)
		c.A ^= value
		c.setZN(c.A)
	case 0x63, 0x67, 0x6F, 0x73, 0x77, 0x7F, 0x7B: // RRA
		value := c.rorMemory(address)
		c.addWithCarry(value)
	}
	return 0
}

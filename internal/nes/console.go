// Package nes is the console harness: it owns the CPU, PPU, APU, mapper and
// controller ports, advances them on the master clock, and exposes the
// frame, audio and persistence surfaces.
package nes

import (
	"bytes"
	"errors"
	"fmt"

	"famicore/internal/apu"
	"famicore/internal/cartridge"
	"famicore/internal/cpu"
	"famicore/internal/input"
	"famicore/internal/mapper"
	"famicore/internal/ppu"
)

var (
	// ErrCPUHalted reports a halted core (STP, or an opcode with no table
	// entry), or a Step whose retry budget ran out.
	ErrCPUHalted = errors.New("cpu halted")
	// ErrStateMismatch reports a save-state vector that does not match this
	// console's configuration.
	ErrStateMismatch = errors.New("save state does not match console configuration")
)

// masterTicksPerCPUCycle: the finest scheduling unit is the master clock;
// one CPU cycle spans 12 ticks and one PPU dot spans 4.
const masterTicksPerCPUCycle = 12

// stepRetryBudget bounds Step's cycle loop. The longest legitimate
// instruction footprint is an OAM DMA landing mid-instruction (514 stall
// cycles plus the instruction itself); anything beyond the budget means the
// core is wedged.
const stepRetryBudget = 600

// DefaultSampleRate is the host audio rate used when none is configured.
const DefaultSampleRate = 44100

// Console owns the five core components and the master clock.
type Console struct {
	cpu    *cpu.CPU
	ppu    *ppu.PPU
	apu    *apu.APU
	mapper mapper.Mapper

	ram     [ramSize]uint8
	openBus uint8
	pads    [2]input.Controller

	masterClock uint64
}

// New assembles a console around a loaded mapper.
func New(m mapper.Mapper) *Console {
	c := &Console{
		ppu:    ppu.New(),
		apu:    apu.New(DefaultSampleRate),
		mapper: m,
	}
	c.cpu = cpu.New(c)
	return c
}

// LoadROM parses a ROM cartridge image and assembles a powered-on console.
func LoadROM(data []uint8) (*Console, error) {
	file, err := cartridge.ParseINES(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	m, err := mapper.New(file)
	if err != nil {
		return nil, err
	}
	c := New(m)
	c.PowerOn()
	return c, nil
}

// LoadFDS parses a disk archive, installs the BIOS, and assembles a
// powered-on console.
func LoadFDS(data, bios []uint8) (*Console, error) {
	file, err := cartridge.ParseFDS(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	m, err := mapper.NewFDS(file)
	if err != nil {
		return nil, err
	}
	if !m.LoadBIOS(bios) {
		return nil, fmt.Errorf("%w: BIOS must be 8 KiB", cartridge.ErrInvalidHeader)
	}
	c := New(m)
	c.PowerOn()
	return c, nil
}

// CPU exposes the processor for register inspection.
func (c *Console) CPU() *cpu.CPU { return c.cpu }

// PPU exposes the picture processor.
func (c *Console) PPU() *ppu.PPU { return c.ppu }

// APU exposes the audio processor.
func (c *Console) APU() *apu.APU { return c.apu }

// Mapper exposes the cartridge mapper; variant-specific operations (disk
// switching, BIOS loading) are reached by type assertion.
func (c *Console) Mapper() mapper.Mapper { return c.mapper }

// Controller returns one of the two pads.
func (c *Console) Controller(index int) *input.Controller {
	return &c.pads[index&1]
}

// MasterClock returns the master tick count.
func (c *Console) MasterClock() uint64 { return c.masterClock }

// Channels lists every audio channel, console first, then expansion.
func (c *Console) Channels() []mapper.AudioChannel {
	return append(c.apu.Channels(), c.mapper.Channels()...)
}

// PowerOn runs the documented cold-boot sequence.
func (c *Console) PowerOn() {
	c.cpu.PowerOn()

	// I/O and audio registers start zeroed.
	for address := uint16(0x4000); address <= 0x400F; address++ {
		c.Write(address, 0)
	}
	c.Write(0x4015, 0)
	c.Write(0x4017, 0)

	c.ppu.Reset()

	// Pre-clock the APU; this subtly shifts the first frame IRQ, matching
	// hardware measurements.
	for i := 0; i < 10; i++ {
		c.apu.Clock(c.mapper)
	}
}

// Reset performs a warm reset: the CPU sequence plus APU silencing.
func (c *Console) Reset() {
	c.cpu.Reset()
	c.Write(0x4015, 0)
}

// Cycle advances the console by one CPU cycle: 12 master ticks, the CPU,
// three PPU dots, the APU, and the mapper's per-cycle hook, in bus order.
func (c *Console) Cycle() {
	c.masterClock += masterTicksPerCPUCycle

	c.cpu.StepCycle()
	c.ppu.Clock(c.mapper)
	c.ppu.Clock(c.mapper)
	c.ppu.Clock(c.mapper)
	c.apu.Clock(c.mapper)
	c.mapper.ClockCPU()

	// Wire the lines for the next cycle: DMC stalls, the NMI edge, and the
	// ORed IRQ level.
	if stall := c.apu.TakeStall(); stall > 0 {
		c.cpu.AddStall(stall)
	}
	c.cpu.SetNMILine(c.ppu.NMIAsserted())
	c.cpu.SetIRQLine(c.apu.IRQAsserted() || c.mapper.IRQFlag())
}

// Step advances to the next instruction boundary. The retry budget guards
// against a wedged core; exhaustion surfaces ErrCPUHalted.
func (c *Console) Step() error {
	c.Cycle()
	for i := 0; c.cpu.Tick() >= 1 || c.cpu.Halted(); i++ {
		if c.cpu.Halted() || i >= stepRetryBudget {
			return ErrCPUHalted
		}
		c.Cycle()
	}
	return nil
}

// RunUntilVBlank steps until the PPU transitions into and back out of the
// vblank entry scanline.
func (c *Console) RunUntilVBlank() error {
	for c.ppu.Scanline() != 241 {
		if err := c.Step(); err != nil {
			return err
		}
	}
	for c.ppu.Scanline() == 241 {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunUntilHBlank steps until the PPU leaves the current scanline.
func (c *Console) RunUntilHBlank() error {
	scanline := c.ppu.Scanline()
	for scanline == c.ppu.Scanline() {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// NudgePPUAlignment advances the PPU a single dot relative to the CPU,
// for reproducing alternate power-up phase alignments.
func (c *Console) NudgePPUAlignment() {
	c.ppu.Clock(c.mapper)
}

// Framebuffer exposes the current frame's palette indices.
func (c *Console) Framebuffer() []uint16 {
	return c.ppu.Framebuffer()
}

// ConsumeSamples drains the queued host-rate audio samples.
func (c *Console) ConsumeSamples() []int16 {
	return c.apu.ConsumeSamples()
}

// HasSRAM reports whether the cartridge carries battery-backed memory.
func (c *Console) HasSRAM() bool { return c.mapper.HasSRAM() }

// SRAM exports the battery-backed contents.
func (c *Console) SRAM() []uint8 { return c.mapper.SRAM() }

// SetSRAM imports battery-backed contents; the size must match exactly.
func (c *Console) SetSRAM(data []uint8) error {
	if !c.mapper.LoadSRAM(data) {
		return fmt.Errorf("%w: sram size %d does not match", ErrStateMismatch, len(data))
	}
	return nil
}

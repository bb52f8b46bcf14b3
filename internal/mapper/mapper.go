// Package mapper virtualises the cartridge bus. Every CPU access in
// 0x4020-0xFFFF and every PPU access in 0x0000-0x3EFF routes through a
// Mapper; variants implement bank switching, mirroring control, IRQ counters
// and expansion audio behind one contract.
package mapper

import "famicore/internal/cartridge"

// Mapper is the cartridge bus contract. Reads return ok=false for open bus.
// ReadCPU/ReadPPU may have side effects (bank latches, A12 snooping);
// the Debug variants never do.
type Mapper interface {
	ReadCPU(address uint16) (uint8, bool)
	DebugReadCPU(address uint16) (uint8, bool)
	WriteCPU(address uint16, data uint8)

	ReadPPU(address uint16) (uint8, bool)
	DebugReadPPU(address uint16) (uint8, bool)
	WritePPU(address uint16, data uint8)
	// AccessPPU reports an address-bus transition with no data transfer, so
	// scanline counters watching A12 see every fetch the PPU performs.
	AccessPPU(address uint16)

	// Mirroring reports the current nametable mapping; it may change at
	// runtime under mapper control.
	Mirroring() cartridge.Mirroring

	// IRQFlag is level-triggered; the CPU ORs it with the APU sources and
	// samples the result once per step.
	IRQFlag() bool

	// ClockCPU advances IRQ counters and expansion audio once per CPU cycle.
	ClockCPU()

	// MixExpansionAudio composes this cartridge's audio onto the console
	// sample. The default is identity.
	MixExpansionAudio(sample float64) float64

	// Channels exposes any expansion audio channels for consumers.
	Channels() []AudioChannel

	HasSRAM() bool
	SRAM() []uint8
	LoadSRAM(data []uint8) bool

	// SaveState appends this variant's variable state in a stable order;
	// LoadState consumes the same bytes and reports whether they matched.
	SaveState(buff []uint8) []uint8
	LoadState(buff []uint8) ([]uint8, bool)
}

// base provides the no-op defaults of the contract. Variants embed it and
// override what they implement.
type base struct{}

func (base) AccessPPU(uint16)  {}
func (base) IRQFlag() bool     { return false }
func (base) ClockCPU()         {}
func (base) HasSRAM() bool     { return false }
func (base) SRAM() []uint8     { return nil }
func (base) LoadSRAM([]uint8) bool { return false }

func (base) MixExpansionAudio(sample float64) float64 { return sample }
func (base) Channels() []AudioChannel                 { return nil }

package nes

import (
	"encoding/binary"
	"fmt"
)

// Save states: an opaque little-endian byte vector. Each component is
// serialised into its own tagged, size-prefixed section (the magic and one
// version number lead the whole vector), in the dependency
// order of the system layout (mapper first, then CPU, PPU, APU, harness).
// Tag or size mismatches reject the whole vector and leave the console
// untouched.

const stateVersion = 1

var stateMagic = [4]uint8{'F', 'C', 'S', 'S'}

var sectionOrder = [...]string{"MAPR", "CPU ", "PPU ", "APU ", "CONS"}

func appendSection(buff []uint8, tag string, payload []uint8) []uint8 {
	buff = append(buff, tag[:4]...)
	var size [4]uint8
	binary.LittleEndian.PutUint32(size[:], uint32(len(payload)))
	buff = append(buff, size[:]...)
	return append(buff, payload...)
}

// SaveState serialises the whole console.
func (c *Console) SaveState() []uint8 {
	buff := make([]uint8, 0, 0x4000)
	buff = append(buff, stateMagic[:]...)
	var version [4]uint8
	binary.LittleEndian.PutUint32(version[:], stateVersion)
	buff = append(buff, version[:]...)

	buff = appendSection(buff, "MAPR", c.mapper.SaveState(nil))
	buff = appendSection(buff, "CPU ", c.cpu.SaveState(nil))
	buff = appendSection(buff, "PPU ", c.ppu.SaveState(nil))
	buff = appendSection(buff, "APU ", c.apu.SaveState(nil))
	buff = appendSection(buff, "CONS", c.saveHarness(nil))
	return buff
}

func (c *Console) saveHarness(buff []uint8) []uint8 {
	buff = append(buff, c.ram[:]...)
	buff = append(buff, c.openBus)
	buff = c.pads[0].SaveState(buff)
	buff = c.pads[1].SaveState(buff)
	var clock [8]uint8
	binary.LittleEndian.PutUint64(clock[:], c.masterClock)
	return append(buff, clock[:]...)
}

func (c *Console) loadHarness(buff []uint8) ([]uint8, bool) {
	need := ramSize + 1 + 3 + 3 + 8
	if len(buff) < need {
		return buff, false
	}
	copy(c.ram[:], buff[:ramSize])
	buff = buff[ramSize:]
	c.openBus = buff[0]
	buff = buff[1:]
	var ok bool
	if buff, ok = c.pads[0].LoadState(buff); !ok {
		return buff, false
	}
	if buff, ok = c.pads[1].LoadState(buff); !ok {
		return buff, false
	}
	c.masterClock = binary.LittleEndian.Uint64(buff[:8])
	return buff[8:], true
}

// parseSections validates the envelope and splits the payloads.
func parseSections(data []uint8) (map[string][]uint8, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: truncated header", ErrStateMismatch)
	}
	for i, b := range stateMagic {
		if data[i] != b {
			return nil, fmt.Errorf("%w: bad magic", ErrStateMismatch)
		}
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != stateVersion {
		return nil, fmt.Errorf("%w: version %d", ErrStateMismatch, version)
	}
	data = data[8:]

	sections := make(map[string][]uint8, len(sectionOrder))
	for _, tag := range sectionOrder {
		if len(data) < 8 {
			return nil, fmt.Errorf("%w: truncated section table", ErrStateMismatch)
		}
		if string(data[:4]) != tag {
			return nil, fmt.Errorf("%w: expected section %q", ErrStateMismatch, tag)
		}
		size := int(binary.LittleEndian.Uint32(data[4:8]))
		data = data[8:]
		if len(data) < size {
			return nil, fmt.Errorf("%w: section %q truncated", ErrStateMismatch, tag)
		}
		sections[tag] = data[:size]
		data = data[size:]
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%w: trailing bytes", ErrStateMismatch)
	}
	return sections, nil
}

// LoadState restores a SaveState vector. On any mismatch the console is
// left exactly as it was.
func (c *Console) LoadState(data []uint8) error {
	sections, err := parseSections(data)
	if err != nil {
		return err
	}

	// The components load in place, so take a rollback snapshot first.
	snapshot := c.SaveState()

	if ok := c.applySections(sections); !ok {
		rollback, _ := parseSections(snapshot)
		c.applySections(rollback)
		return fmt.Errorf("%w: component payload rejected", ErrStateMismatch)
	}
	return nil
}

func (c *Console) applySections(sections map[string][]uint8) bool {
	if rest, ok := c.mapper.LoadState(sections["MAPR"]); !ok || len(rest) != 0 {
		return false
	}
	if rest, ok := c.cpu.LoadState(sections["CPU "]); !ok || len(rest) != 0 {
		return false
	}
	if rest, ok := c.ppu.LoadState(sections["PPU "]); !ok || len(rest) != 0 {
		return false
	}
	if rest, ok := c.apu.LoadState(sections["APU "]); !ok || len(rest) != 0 {
		return false
	}
	if rest, ok := c.loadHarness(sections["CONS"]); !ok || len(rest) != 0 {
		return false
	}
	return true
}

package mapper

import (
	"bytes"
	"testing"
)

// Exercise every variant's serialisation: configure some state, save,
// scramble, load, and confirm the save bytes reproduce.
func TestSaveLoadRoundTrip(t *testing.T) {
	builders := map[string]func() Mapper{
		"nrom": func() Mapper {
			m, _ := NewNROM(testImage(2, 1, 0x02, 0x00))
			m.WriteCPU(0x6000, 0x5A)
			return m
		},
		"uxrom": func() Mapper {
			m, _ := NewUxROM(testImage(4, 0, 0x20, 0x00))
			m.WriteCPU(0x8000, 2)
			return m
		},
		"cnrom": func() Mapper {
			m, _ := NewCNROM(testImage(2, 4, 0x30, 0x00))
			m.WriteCPU(0x8000, 1)
			return m
		},
		"axrom": func() Mapper {
			m, _ := NewAxROM(testImage(8, 0, 0x70, 0x00))
			m.WriteCPU(0x8000, 0x13)
			return m
		},
		"gxrom": func() Mapper {
			m, _ := NewGxROM(testImage(4, 2, 0x60, 0x40))
			m.WriteCPU(0x8000, 0x21)
			return m
		},
		"mmc1": func() Mapper {
			m, _ := NewMMC1(testImage(8, 0, 0x12, 0x00))
			loadSerial(m, 0xE000, 0x03)
			return m
		},
		"mmc3": func() Mapper {
			m, _ := NewMMC3(fineGrainedImage(8, 4, 0x42, 0x00))
			m.WriteCPU(0x8000, 6)
			m.WriteCPU(0x8001, 3)
			m.WriteCPU(0xC000, 7)
			m.WriteCPU(0xE001, 0)
			return m
		},
		"mmc5": func() Mapper {
			m, _ := NewMMC5(fineGrainedImage(8, 4, 0x52, 0x00))
			m.WriteCPU(0x5100, 3)
			m.WriteCPU(0x5114, 0x82)
			m.WriteCPU(0x5C00, 0x11)
			return m
		},
		"vrc6": func() Mapper {
			m, _ := NewVRC6(fineGrainedImage(8, 4, 0x82, 0x10))
			m.WriteCPU(0x8000, 2)
			m.WriteCPU(0x9000, 0x7F)
			return m
		},
		"fme7": func() Mapper {
			m, _ := NewFME7(fineGrainedImage(8, 4, 0x52, 0x40))
			m.WriteCPU(0x8000, 0x9)
			m.WriteCPU(0xA000, 5)
			return m
		},
		"n163": func() Mapper {
			m, _ := NewN163(fineGrainedImage(8, 4, 0x32, 0x10))
			m.WriteCPU(0xF800, 0x90)
			m.WriteCPU(0x4800, 0x77)
			return m
		},
	}

	for name, build := range builders {
		m := build()
		saved := m.SaveState(nil)

		// Disturb the mapper, then restore.
		m.WriteCPU(0x8000, 0x01)
		m.WriteCPU(0x6000, 0xFF)

		rest, ok := m.LoadState(append([]uint8{}, saved...))
		if !ok {
			t.Errorf("%s: LoadState rejected its own SaveState", name)
			continue
		}
		if len(rest) != 0 {
			t.Errorf("%s: LoadState left %d bytes", name, len(rest))
			continue
		}
		if again := m.SaveState(nil); !bytes.Equal(saved, again) {
			t.Errorf("%s: state not reproduced after round trip", name)
		}

		// Truncated payloads are rejected.
		if len(saved) > 0 {
			if _, ok := m.LoadState(saved[:len(saved)/2]); ok && len(saved) > 1 {
				t.Errorf("%s: LoadState accepted a truncated payload", name)
			}
		}
	}
}

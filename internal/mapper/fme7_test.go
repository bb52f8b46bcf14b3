package mapper

import "testing"

func newTestFME7(t *testing.T) *FME7 {
	t.Helper()
	m, err := NewFME7(fineGrainedImage(8, 4, 0x52, 0x40)) // mapper 69
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestFME7CommandBanking(t *testing.T) {
	m := newTestFME7(t)

	m.WriteCPU(0x8000, 0x9) // select PRG window at 0x8000
	m.WriteCPU(0xA000, 5)
	if got := readCPU(m, 0x8000); got != 5*8 {
		t.Errorf("0x8000 window = 1K unit %d, want %d", got, 5*8)
	}

	m.WriteCPU(0x8000, 0x3) // CHR slot 3
	m.WriteCPU(0xA000, 9)
	if got := readPPU(m, 0x0C00); got != 9 {
		t.Errorf("CHR slot 3 = 1K bank %d, want 9", got)
	}
}

func TestFME7RAMWindow(t *testing.T) {
	m := newTestFME7(t)

	// Command 8 with RAM select + enable maps PRG RAM at 0x6000.
	m.WriteCPU(0x8000, 0x8)
	m.WriteCPU(0xA000, 0xC0)
	m.WriteCPU(0x6000, 0x3C)
	if got := readCPU(m, 0x6000); got != 0x3C {
		t.Errorf("RAM window readback = %#x, want 0x3C", got)
	}

	// With the enable bit clear the window floats.
	m.WriteCPU(0x8000, 0x8)
	m.WriteCPU(0xA000, 0x40)
	if _, ok := m.ReadCPU(0x6000); ok {
		t.Error("disabled RAM window should read open bus")
	}
}

func TestFME7IRQCounter(t *testing.T) {
	m := newTestFME7(t)

	m.WriteCPU(0x8000, 0xE)
	m.WriteCPU(0xA000, 3) // counter low
	m.WriteCPU(0x8000, 0xF)
	m.WriteCPU(0xA000, 0) // counter high
	m.WriteCPU(0x8000, 0xD)
	m.WriteCPU(0xA000, 0x81) // enable IRQ + counter

	for i := 0; i < 3; i++ {
		m.ClockCPU()
		if m.IRQFlag() {
			t.Fatalf("IRQ asserted after %d cycles", i+1)
		}
	}
	m.ClockCPU() // counter wraps 0 -> 0xFFFF
	if !m.IRQFlag() {
		t.Fatal("IRQ should assert on counter underflow")
	}

	m.WriteCPU(0x8000, 0xD)
	m.WriteCPU(0xA000, 0x81)
	if m.IRQFlag() {
		t.Error("control write should acknowledge the IRQ")
	}
}

func TestFME7ToneOutput(t *testing.T) {
	m := newTestFME7(t)

	m.WriteCPU(0xC000, 0x0)
	m.WriteCPU(0xE000, 1) // period low
	m.WriteCPU(0xC000, 0x8)
	m.WriteCPU(0xE000, 15) // full volume
	m.WriteCPU(0xC000, 0x7)
	m.WriteCPU(0xE000, 0x00) // all tones on

	var high, low bool
	for i := 0; i < 16*8; i++ {
		m.ClockCPU()
		if m.tones[0].outputLevel() > 0 {
			high = true
		} else {
			low = true
		}
	}
	if !high || !low {
		t.Errorf("tone did not oscillate: high=%v low=%v", high, low)
	}
}

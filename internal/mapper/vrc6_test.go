package mapper

import "testing"

func newTestVRC6(t *testing.T) *VRC6 {
	t.Helper()
	file := fineGrainedImage(8, 4, 0x82, 0x10) // mapper 24
	m, err := NewVRC6(file)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestVRC6Banking(t *testing.T) {
	m := newTestVRC6(t)

	m.WriteCPU(0x8000, 2) // 16 KiB bank 2 at 0x8000
	if got := readCPU(m, 0x8000); got != 2*16 {
		t.Errorf("16K window = 1K unit %d, want %d", got, 2*16)
	}
	m.WriteCPU(0xC000, 5) // 8 KiB bank 5 at 0xC000
	if got := readCPU(m, 0xC000); got != 5*8 {
		t.Errorf("8K window = 1K unit %d, want %d", got, 5*8)
	}
	// Fixed last 8 KiB bank.
	if got := readCPU(m, 0xE000); got != 8*16-8 {
		t.Errorf("fixed window = 1K unit %d, want %d", got, 8*16-8)
	}

	m.WriteCPU(0xD002, 7) // CHR 1K bank 7 into slot 2
	if got := readPPU(m, 0x0800); got != 7 {
		t.Errorf("CHR slot 2 = 1K bank %d, want 7", got)
	}
}

func TestVRC6PulseOutput(t *testing.T) {
	m := newTestVRC6(t)

	// Volume 15, duty compare 7, period 0, enabled, not halted.
	m.WriteCPU(0x9000, 0x7F)
	m.WriteCPU(0x9001, 0x00)
	m.WriteCPU(0x9002, 0x80)
	m.WriteCPU(0x9003, 0x00)

	// The duty counter starts at 15; with compare 7 the first eight steps
	// are silent and the next eight emit the volume.
	seenZero, seenVolume := false, false
	for i := 0; i < 16; i++ {
		m.ClockCPU()
		switch m.pulse1.outputLevel() {
		case 0:
			seenZero = true
		case 15:
			seenVolume = true
		}
	}
	if !seenZero || !seenVolume {
		t.Errorf("pulse did not toggle: zero=%v volume=%v", seenZero, seenVolume)
	}
}

func TestVRC6SawtoothRamp(t *testing.T) {
	m := newTestVRC6(t)

	// Rate 8, period 0, enabled.
	m.WriteCPU(0xB000, 8)
	m.WriteCPU(0xB001, 0)
	m.WriteCPU(0xB002, 0x80)
	m.WriteCPU(0x9003, 0x00) // clear the shared halt

	last := uint8(0)
	climbed := false
	for i := 0; i < 12; i++ {
		m.ClockCPU()
		out := m.sawtooth.outputLevel()
		if out > last {
			climbed = true
		}
		last = out
	}
	if !climbed {
		t.Error("sawtooth accumulator never climbed")
	}
}

func TestVRC6CycleModeIRQ(t *testing.T) {
	m := newTestVRC6(t)

	m.WriteCPU(0xF000, 0xF8)        // latch: 8 counts to overflow
	m.WriteCPU(0xF001, 0x04|0x02)   // cycle mode, enable

	for i := 0; i < 7; i++ {
		m.ClockCPU()
		if m.IRQFlag() {
			t.Fatalf("IRQ asserted after %d cycles", i+1)
		}
	}
	m.ClockCPU()
	if !m.IRQFlag() {
		t.Fatal("IRQ should assert when the counter overflows")
	}
	m.WriteCPU(0xF002, 0) // acknowledge
	if m.IRQFlag() {
		t.Error("acknowledge should clear the flag")
	}
}

func TestVRC6ExpansionMixAddsSignal(t *testing.T) {
	m := newTestVRC6(t)
	m.WriteCPU(0x9000, 0x7F)
	m.WriteCPU(0x9002, 0x80)
	m.WriteCPU(0x9003, 0x00)
	for i := 0; i < 20; i++ {
		m.ClockCPU()
	}

	base := 0.125
	var moved bool
	for i := 0; i < 16; i++ {
		m.ClockCPU()
		if m.MixExpansionAudio(base) != base {
			moved = true
		}
	}
	if !moved {
		t.Error("expansion mix never contributed")
	}

	m.pulse1.Mute()
	m.pulse2.Mute()
	m.sawtooth.Mute()
	if m.MixExpansionAudio(base) != base {
		t.Error("muted channels should leave the console sample untouched")
	}
}

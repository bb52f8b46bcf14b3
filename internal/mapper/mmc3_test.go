package mapper

import "testing"

func newTestMMC3(t *testing.T) *MMC3 {
	t.Helper()
	m, err := NewMMC3(fineGrainedImage(8, 4, 0x42, 0x00))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestMMC3PRGBanking(t *testing.T) {
	m := newTestMMC3(t)

	// Select register 6 and map PRG 8K bank 3 at 0x8000.
	m.WriteCPU(0x8000, 6)
	m.WriteCPU(0x8001, 3)
	if got := readCPU(m, 0x8000); got != 3*8 {
		t.Errorf("0x8000 window = 1K unit %d, want %d", got, 3*8)
	}
	// 0xE000 is always the last 8K bank.
	lastUnit := uint8(8*16 - 8)
	if got := readCPU(m, 0xE000); got != lastUnit {
		t.Errorf("0xE000 window = 1K unit %d, want %d", got, lastUnit)
	}

	// Flip PRG mode: the switched bank moves to 0xC000.
	m.WriteCPU(0x8000, 6|0x40)
	if got := readCPU(m, 0xC000); got != 3*8 {
		t.Errorf("0xC000 window after mode flip = %d, want %d", got, 3*8)
	}
}

func TestMMC3MirroringRegister(t *testing.T) {
	m := newTestMMC3(t)
	m.WriteCPU(0xA000, 0)
	if got := m.Mirroring().String(); got != "Vertical" {
		t.Errorf("mirroring = %s, want Vertical", got)
	}
	m.WriteCPU(0xA000, 1)
	if got := m.Mirroring().String(); got != "Horizontal" {
		t.Errorf("mirroring = %s, want Horizontal", got)
	}
}

// pumpA12Edge walks the mapper through one filtered A12 rising edge: at
// least three CPU cycles of low A12 traffic, then a high fetch.
func pumpA12Edge(m *MMC3) {
	for i := 0; i < 4; i++ {
		m.AccessPPU(0x0000)
		m.ClockCPU()
	}
	m.AccessPPU(0x1000)
}

func TestMMC3ScanlineIRQ(t *testing.T) {
	m := newTestMMC3(t)

	// Program a reload of 4 and enable the IRQ.
	m.WriteCPU(0xC000, 4) // reload value
	m.WriteCPU(0xC001, 0) // request reload
	m.WriteCPU(0xE001, 0) // enable

	// Edge 1 reloads to 4; edges 2-5 count 3, 2, 1, 0.
	for edge := 1; edge <= 4; edge++ {
		pumpA12Edge(m)
		if m.IRQFlag() {
			t.Fatalf("IRQ asserted after %d edges, want clear", edge)
		}
	}
	pumpA12Edge(m)
	if !m.IRQFlag() {
		t.Fatal("IRQ should assert on the fifth filtered edge")
	}

	// Disabling acknowledges the flag.
	m.WriteCPU(0xE000, 0)
	if m.IRQFlag() {
		t.Error("IRQ flag should clear on disable")
	}
}

func TestMMC3A12FilterRejectsShortLows(t *testing.T) {
	m := newTestMMC3(t)
	m.WriteCPU(0xC000, 1)
	m.WriteCPU(0xC001, 0)
	m.WriteCPU(0xE001, 0)

	pumpA12Edge(m) // reload to 1
	pumpA12Edge(m) // counts to 0: IRQ
	if !m.IRQFlag() {
		t.Fatal("expected IRQ after two well-spaced edges")
	}
	m.WriteCPU(0xE000, 0)
	m.WriteCPU(0xE001, 0)

	// Rapid A12 toggles with under three CPU cycles of low time must not
	// clock the counter.
	for i := 0; i < 10; i++ {
		m.AccessPPU(0x0000)
		m.ClockCPU()
		m.AccessPPU(0x1000)
	}
	if m.IRQFlag() {
		t.Error("unfiltered toggles clocked the IRQ counter")
	}
}

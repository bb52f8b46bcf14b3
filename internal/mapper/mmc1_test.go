package mapper

import (
	"testing"

	"famicore/internal/cartridge"
)

// loadSerial feeds value to the MMC1 serial port five bits at a time, with
// an interleaved read so the single-write latch re-arms.
func loadSerial(m *MMC1, address uint16, value uint8) {
	for i := 0; i < 5; i++ {
		m.ReadCPU(0xFFFF)
		m.WriteCPU(address, value>>i)
	}
}

func TestMMC1SerialCommit(t *testing.T) {
	m, err := NewMMC1(testImage(16, 0, 0x12, 0x00))
	if err != nil {
		t.Fatal(err)
	}

	// Control: PRG mode 3, vertical mirroring.
	loadSerial(m, 0x8000, 0x0E)
	if m.Mirroring() != cartridge.MirrorVertical {
		t.Errorf("mirroring = %v, want vertical", m.Mirroring())
	}

	loadSerial(m, 0xE000, 0x05)
	if got := readCPU(m, 0x8000); got != 5 {
		t.Errorf("PRG window = bank %d, want 5", got)
	}
	// Mode 3 pins the upper window to the last bank.
	if got := readCPU(m, 0xC000); got != 15 {
		t.Errorf("fixed window = bank %d, want 15", got)
	}
}

func TestMMC1ResetForcesMode3(t *testing.T) {
	m, err := NewMMC1(testImage(16, 0, 0x12, 0x00))
	if err != nil {
		t.Fatal(err)
	}

	// Select PRG mode 0 (32 KiB switching).
	loadSerial(m, 0x8000, 0x00)
	// Two bits of a partial load, then a bit-7 write: the partial value is
	// discarded and PRG mode snaps back to 3.
	m.ReadCPU(0xFFFF)
	m.WriteCPU(0xE000, 0x01)
	m.ReadCPU(0xFFFF)
	m.WriteCPU(0xE000, 0x01)
	m.ReadCPU(0xFFFF)
	m.WriteCPU(0xE000, 0x80)

	if got := m.prgMode(); got != 3 {
		t.Errorf("prgMode = %d, want 3 after reset write", got)
	}
	// A full five-bit load still works afterwards.
	loadSerial(m, 0xE000, 0x0F)
	if got := readCPU(m, 0x8000); got != 15 {
		t.Errorf("PRG window = bank %d, want 15", got)
	}
	if got := readCPU(m, 0xC000); got != 15 {
		t.Errorf("fixed window = bank %d, want 15", got)
	}
}

func TestMMC1IgnoresBackToBackWrites(t *testing.T) {
	m, err := NewMMC1(testImage(16, 0, 0x12, 0x00))
	if err != nil {
		t.Fatal(err)
	}
	// Five writes with no intervening reads: only the first lands, so no
	// register commit happens.
	for i := 0; i < 5; i++ {
		m.WriteCPU(0x8000, 0x00)
	}
	if m.shiftCounter != 1 {
		t.Errorf("shiftCounter = %d, want 1 (later writes ignored)", m.shiftCounter)
	}
}

func TestMMC1CHRModes(t *testing.T) {
	m, err := NewMMC1(fineGrainedImage(2, 4, 0x12, 0x00))
	if err != nil {
		t.Fatal(err)
	}

	// 4 KiB CHR mode, bank 1 low, bank 3 high.
	loadSerial(m, 0x8000, 0x1E)
	loadSerial(m, 0xA000, 0x01)
	loadSerial(m, 0xC000, 0x03)
	if got := readPPU(m, 0x0000); got != 4 {
		t.Errorf("low pattern window = 1K unit %d, want 4", got)
	}
	if got := readPPU(m, 0x1000); got != 12 {
		t.Errorf("high pattern window = 1K unit %d, want 12", got)
	}
}

func TestMMC1SRAMRoundTrip(t *testing.T) {
	m, err := NewMMC1(testImage(2, 1, 0x12, 0x00))
	if err != nil {
		t.Fatal(err)
	}
	if !m.HasSRAM() {
		t.Fatal("battery image should expose SRAM")
	}
	m.WriteCPU(0x6000, 0x77)
	exported := append([]uint8{}, m.SRAM()...)
	m.WriteCPU(0x6000, 0x00)
	if !m.LoadSRAM(exported) {
		t.Fatal("LoadSRAM rejected matching size")
	}
	if got := readCPU(m, 0x6000); got != 0x77 {
		t.Errorf("restored SRAM byte = %#x, want 0x77", got)
	}
	if m.LoadSRAM(make([]uint8, 3)) {
		t.Error("LoadSRAM should reject a size mismatch")
	}
}

package mapper

import (
	"errors"
	"fmt"
	"testing"

	"famicore/internal/cartridge"
)

func TestFactorySelectsVariant(t *testing.T) {
	cases := []struct {
		flags6 uint8
		flags7 uint8
		name   string
	}{
		{0x00, 0x00, "*mapper.NROM"},
		{0x10, 0x00, "*mapper.MMC1"},
		{0x20, 0x00, "*mapper.UxROM"},
		{0x40, 0x00, "*mapper.MMC3"},
		{0x70, 0x00, "*mapper.AxROM"},
	}
	for _, tc := range cases {
		m, err := New(testImage(2, 1, tc.flags6, tc.flags7))
		if err != nil {
			t.Fatalf("New(flags6=%#x): %v", tc.flags6, err)
		}
		if m == nil {
			t.Fatalf("New(flags6=%#x) returned nil mapper", tc.flags6)
		}
		if got := fmt.Sprintf("%T", m); got != tc.name {
			t.Errorf("New(flags6=%#x) = %s, want %s", tc.flags6, got, tc.name)
		}
	}
}

func TestFactoryUnsupportedMapper(t *testing.T) {
	// Mapper 15 is not in the compiled set.
	_, err := New(testImage(2, 1, 0xF0, 0x00))
	if !errors.Is(err, cartridge.ErrUnsupportedMapper) {
		t.Errorf("err = %v, want ErrUnsupportedMapper", err)
	}
}

func TestNROMMirrorsSixteenKiB(t *testing.T) {
	m, err := NewNROM(testImage(1, 1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	// A single PRG bank appears at both 0x8000 and 0xC000.
	if readCPU(m, 0x8123) != readCPU(m, 0xC123) {
		t.Error("16 KiB PRG image should mirror into the upper window")
	}
}

func TestNROMPRGRAM(t *testing.T) {
	m, err := NewNROM(testImage(1, 1, 0x02, 0)) // battery flag
	if err != nil {
		t.Fatal(err)
	}
	m.WriteCPU(0x6010, 0x5A)
	if got := readCPU(m, 0x6010); got != 0x5A {
		t.Errorf("PRG RAM readback = %#x, want 0x5A", got)
	}
	if !m.HasSRAM() {
		t.Error("battery-flagged NROM should report SRAM")
	}
}

func TestUxROMBankSelect(t *testing.T) {
	m, err := NewUxROM(testImage(4, 0, 0, 0x20))
	if err != nil {
		t.Fatal(err)
	}
	m.WriteCPU(0x8000, 2)
	if got := readCPU(m, 0x8000); got != 2 {
		t.Errorf("switched window = bank %d, want 2", got)
	}
	// The upper window is pinned to the last bank.
	if got := readCPU(m, 0xC000); got != 3 {
		t.Errorf("fixed window = bank %d, want 3", got)
	}
}

func TestCNROMBankSelect(t *testing.T) {
	m, err := NewCNROM(testImage(2, 4, 0, 0x30))
	if err != nil {
		t.Fatal(err)
	}
	m.WriteCPU(0x8000, 3)
	if got := readPPU(m, 0x0000); got != 3 {
		t.Errorf("CHR window = bank %d, want 3", got)
	}
}

func TestAxROMBankAndMirroring(t *testing.T) {
	m, err := NewAxROM(testImage(8, 0, 0, 0x70))
	if err != nil {
		t.Fatal(err)
	}
	if m.Mirroring() != cartridge.MirrorOneScreenLower {
		t.Error("AxROM should power up on the lower screen")
	}
	m.WriteCPU(0x8000, 0x12) // bank 2, upper screen
	if got := readCPU(m, 0x8000); got != 4 {
		// 32 KiB banks: bank 2 starts at 16 KiB-bank 4.
		t.Errorf("PRG window = 16K bank %d, want 4", got)
	}
	if m.Mirroring() != cartridge.MirrorOneScreenUpper {
		t.Error("bit 4 should select the upper screen")
	}
}

func TestGxROMSwitchesBothWindows(t *testing.T) {
	m, err := NewGxROM(testImage(4, 2, 0, 0x40))
	if err != nil {
		t.Fatal(err)
	}
	m.WriteCPU(0x8000, 0x11) // PRG bank 1, CHR bank 1
	if got := readCPU(m, 0x8000); got != 2 {
		t.Errorf("PRG window = 16K bank %d, want 2", got)
	}
	if got := readPPU(m, 0x0000); got != 1 {
		t.Errorf("CHR window = bank %d, want 1", got)
	}
}

func TestMirrorAddressTables(t *testing.T) {
	cases := []struct {
		mode    cartridge.Mirroring
		address uint16
		want    uint16
	}{
		{cartridge.MirrorHorizontal, 0x2000, 0x000},
		{cartridge.MirrorHorizontal, 0x2400, 0x000},
		{cartridge.MirrorHorizontal, 0x2800, 0x400},
		{cartridge.MirrorHorizontal, 0x2C00, 0x400},
		{cartridge.MirrorVertical, 0x2400, 0x400},
		{cartridge.MirrorVertical, 0x2800, 0x000},
		{cartridge.MirrorOneScreenLower, 0x2C05, 0x005},
		{cartridge.MirrorOneScreenUpper, 0x2005, 0x405},
		{cartridge.MirrorFourScreen, 0x2C05, 0xC05},
	}
	for _, tc := range cases {
		if got := MirrorAddress(tc.mode, tc.address); got != tc.want {
			t.Errorf("MirrorAddress(%v, %#x) = %#x, want %#x", tc.mode, tc.address, got, tc.want)
		}
	}
}

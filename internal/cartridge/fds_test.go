package cartridge

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseFDSHeadered(t *testing.T) {
	data := []uint8{'F', 'D', 'S', 0x1A, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	body := make([]uint8, 2*diskSideSize)
	body[0] = 0x11
	body[diskSideSize] = 0x22
	data = append(data, body...)

	file, err := ParseFDS(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseFDS: %v", err)
	}
	if len(file.DiskSides) != 2 {
		t.Fatalf("sides = %d, want 2", len(file.DiskSides))
	}
	if file.DiskSides[0][0] != 0x11 || file.DiskSides[1][0] != 0x22 {
		t.Error("side contents scrambled")
	}
}

func TestParseFDSHeaderedTruncated(t *testing.T) {
	data := []uint8{'F', 'D', 'S', 0x1A, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	data = append(data, make([]uint8, diskSideSize)...) // one side short
	var readErr *ReadError
	if _, err := ParseFDS(bytes.NewReader(data)); !errors.As(err, &readErr) {
		t.Errorf("err = %v, want ReadError", err)
	}
}

func TestParseFDSRawDump(t *testing.T) {
	data := make([]uint8, diskSideSize)
	copy(data, fdsVerificationString)

	file, err := ParseFDS(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseFDS: %v", err)
	}
	if len(file.DiskSides) != 1 {
		t.Errorf("sides = %d, want 1", len(file.DiskSides))
	}
}

func TestParseFDSUnknownFormat(t *testing.T) {
	if _, err := ParseFDS(bytes.NewReader(make([]uint8, 1000))); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("err = %v, want ErrInvalidHeader", err)
	}
}

package memblock

import "testing"

func TestBoundedRead(t *testing.T) {
	b := New([]uint8{0x10, 0x20, 0x30}, ROM)

	if v, ok := b.BoundedRead(1); !ok || v != 0x20 {
		t.Errorf("BoundedRead(1) = %#02x, %v; want 0x20, true", v, ok)
	}
	if _, ok := b.BoundedRead(3); ok {
		t.Error("BoundedRead past end should report open bus")
	}
}

func TestWrappingIdentity(t *testing.T) {
	data := make([]uint8, 0x400)
	for i := range data {
		data[i] = uint8(i)
	}
	b := New(data, RAM)

	for _, i := range []int{0, 1, 0x3FF, 0x400, 0x801, 12345} {
		v1, ok1 := b.WrappingRead(i)
		v2, ok2 := b.WrappingRead(i + b.Len())
		if !ok1 || !ok2 || v1 != v2 {
			t.Errorf("wrapping identity broken at %d: %#02x/%v vs %#02x/%v", i, v1, ok1, v2, ok2)
		}
	}
}

func TestZeroLengthBlock(t *testing.T) {
	b := New(nil, RAM)
	if _, ok := b.WrappingRead(0); ok {
		t.Error("zero-length WrappingRead should report open bus")
	}
	if _, ok := b.BoundedRead(0); ok {
		t.Error("zero-length BoundedRead should report open bus")
	}
	// Writes must not panic.
	b.WrappingWrite(0, 0xFF)
	b.BoundedWrite(0, 0xFF)
}

func TestROMWritesAreDropped(t *testing.T) {
	b := New([]uint8{0xAA, 0xBB}, ROM)
	b.BoundedWrite(0, 0x00)
	b.WrappingWrite(1, 0x00)
	b.BankedWrite(1, 1, 0, 0x00)

	if v, _ := b.BoundedRead(0); v != 0xAA {
		t.Errorf("ROM byte 0 changed to %#02x", v)
	}
	if v, _ := b.BoundedRead(1); v != 0xBB {
		t.Errorf("ROM byte 1 changed to %#02x", v)
	}
}

func TestBankedRead(t *testing.T) {
	data := make([]uint8, 0x8000)
	for i := range data {
		data[i] = uint8(i >> 12) // bank number in every byte of a 4K bank
	}
	b := New(data, ROM)

	if v, _ := b.BankedRead(0x1000, 3, 0x123); v != 3 {
		t.Errorf("bank 3 read = %d, want 3", v)
	}
	// Offset wraps within the bank before the bank base is applied.
	if v, _ := b.BankedRead(0x1000, 3, 0x1123); v != 3 {
		t.Errorf("bank 3 wrapped-offset read = %d, want 3", v)
	}
	// Oversized bank index mirrors across the block.
	if v, _ := b.BankedRead(0x1000, 8, 0); v != 0 {
		t.Errorf("mirrored bank 8 read = %d, want 0", v)
	}
}

func TestSaveLoadSkipsROM(t *testing.T) {
	rom := New([]uint8{1, 2, 3}, ROM)
	ram := New([]uint8{4, 5}, RAM)

	var buff []uint8
	buff = rom.SaveState(buff)
	buff = ram.SaveState(buff)
	if len(buff) != 2 {
		t.Fatalf("state size = %d, want 2 (RAM only)", len(buff))
	}

	ram.BoundedWrite(0, 0xFF)
	rest := ram.LoadState(buff)
	if len(rest) != 0 {
		t.Errorf("LoadState left %d bytes", len(rest))
	}
	if v, _ := ram.BoundedRead(0); v != 4 {
		t.Errorf("restored byte = %d, want 4", v)
	}
}

package ppu

import (
	"testing"

	"famicore/internal/cartridge"
	"famicore/internal/mapper"
)

// newTestMapper builds an NROM cartridge with 8 KiB of CHR RAM so tests can
// write patterns through the PPU bus.
func newTestMapper(t *testing.T, flags6 uint8) mapper.Mapper {
	t.Helper()
	header := []uint8{'N', 'E', 'S', 0x1A, 1, 0, flags6, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	file := &cartridge.INESFile{
		Header: cartridge.NewINESHeader(header),
		PRG:    make([]uint8, 0x4000),
	}
	m, err := mapper.NewNROM(file)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func newTestPPU(t *testing.T) (*PPU, mapper.Mapper) {
	p := New()
	p.Reset()
	return p, newTestMapper(t, 0x00)
}

// clockTo advances the PPU to a given frame position.
func clockTo(p *PPU, m mapper.Mapper, scanline, dot int) {
	for p.Scanline() != scanline || p.Dot() != dot {
		p.Clock(m)
	}
}

func TestStatusReadClearsVBlankAndToggle(t *testing.T) {
	p, m := newTestPPU(t)
	p.status |= statusVBlank
	p.WriteRegister(m, 0x2005, 0x10) // w now set

	value := p.ReadRegister(m, 0x2002)
	if value&statusVBlank == 0 {
		t.Error("first status read should report vblank")
	}
	if p.InVBlank() {
		t.Error("status read should clear the vblank flag")
	}
	if p.w {
		t.Error("status read should reset the write toggle")
	}
	if again := p.ReadRegister(m, 0x2002); again&statusVBlank != 0 {
		t.Error("second status read should report vblank clear")
	}
}

func TestScrollRegisterLoadsT(t *testing.T) {
	p, m := newTestPPU(t)

	p.WriteRegister(m, 0x2005, 0x7D) // coarse X = 15, fine X = 5
	if p.t&0x1F != 15 {
		t.Errorf("coarse X = %d, want 15", p.t&0x1F)
	}
	if p.x != 5 {
		t.Errorf("fine X = %d, want 5", p.x)
	}

	p.WriteRegister(m, 0x2005, 0x5E) // coarse Y = 11, fine Y = 6
	if coarseY := (p.t >> 5) & 0x1F; coarseY != 11 {
		t.Errorf("coarse Y = %d, want 11", coarseY)
	}
	if fineY := (p.t >> 12) & 0x07; fineY != 6 {
		t.Errorf("fine Y = %d, want 6", fineY)
	}
}

func TestAddressRegisterTransfersV(t *testing.T) {
	p, m := newTestPPU(t)

	p.WriteRegister(m, 0x2006, 0x3F)
	if p.v == 0x3F00 {
		t.Error("V must not update on the first address write")
	}
	p.WriteRegister(m, 0x2006, 0x00)
	if p.v != 0x3F00 {
		t.Errorf("V = %#x, want 0x3F00 after the second write", p.v)
	}

	// Palette writes now land through 0x2007.
	p.WriteRegister(m, 0x2007, 0x2A)
	if got := p.readPalette(0x3F00); got != 0x2A {
		t.Errorf("palette[0] = %#x, want 0x2A", got)
	}
}

func TestDataReadBuffering(t *testing.T) {
	p, m := newTestPPU(t)

	// Seed a nametable byte through the data port.
	p.WriteRegister(m, 0x2006, 0x20)
	p.WriteRegister(m, 0x2006, 0x00)
	p.WriteRegister(m, 0x2007, 0x55)

	p.WriteRegister(m, 0x2006, 0x20)
	p.WriteRegister(m, 0x2006, 0x00)
	first := p.ReadRegister(m, 0x2007)  // stale buffer
	second := p.ReadRegister(m, 0x2007) // now the real byte
	if first == 0x55 {
		t.Error("first data read should return the stale buffer")
	}
	if second != 0x55 {
		t.Errorf("second data read = %#x, want 0x55", second)
	}
}

func TestPaletteReadsAreDirect(t *testing.T) {
	p, m := newTestPPU(t)
	p.WriteRegister(m, 0x2006, 0x3F)
	p.WriteRegister(m, 0x2006, 0x01)
	p.WriteRegister(m, 0x2007, 0x19)

	p.WriteRegister(m, 0x2006, 0x3F)
	p.WriteRegister(m, 0x2006, 0x01)
	if got := p.ReadRegister(m, 0x2007); got != 0x19 {
		t.Errorf("palette read = %#x, want direct 0x19", got)
	}
}

func TestAddressIncrementModes(t *testing.T) {
	p, m := newTestPPU(t)

	p.WriteRegister(m, 0x2006, 0x20)
	p.WriteRegister(m, 0x2006, 0x00)
	p.WriteRegister(m, 0x2007, 0)
	if p.v != 0x2001 {
		t.Errorf("V = %#x, want +1 increment", p.v)
	}

	p.WriteRegister(m, 0x2000, ctrlIncrement32)
	p.WriteRegister(m, 0x2007, 0)
	if p.v != 0x2021 {
		t.Errorf("V = %#x, want +32 increment", p.v)
	}
}

func TestOAMDataPort(t *testing.T) {
	p, m := newTestPPU(t)
	p.WriteRegister(m, 0x2003, 0x10)
	p.WriteRegister(m, 0x2004, 0xAB)
	if p.oam[0x10] != 0xAB {
		t.Errorf("OAM[0x10] = %#x, want 0xAB", p.oam[0x10])
	}
	if p.oamAddr != 0x11 {
		t.Errorf("OAM pointer = %#x, want post-increment", p.oamAddr)
	}
	p.WriteRegister(m, 0x2003, 0x10)
	if got := p.ReadRegister(m, 0x2004); got != 0xAB {
		t.Errorf("OAM read = %#x, want 0xAB", got)
	}
}

func TestVBlankTimingAndNMI(t *testing.T) {
	p, m := newTestPPU(t)
	p.WriteRegister(m, 0x2000, ctrlNMIEnable)

	clockTo(p, m, 241, 0)
	if p.InVBlank() {
		t.Fatal("vblank set before (241,1)")
	}
	p.Clock(m) // dot 1
	p.Clock(m)
	if !p.InVBlank() {
		t.Fatal("vblank should set at (241,1)")
	}
	if !p.NMIAsserted() {
		t.Error("NMI line should assert with vblank + enable")
	}

	// The pre-render line clears everything at dot 1.
	clockTo(p, m, 261, 2)
	if p.InVBlank() {
		t.Error("pre-render dot 1 should clear vblank")
	}
}

func TestLoopyIncrementY(t *testing.T) {
	p, _ := newTestPPU(t)

	// Fine Y wraps into coarse Y.
	p.v = 0x7000 // fine Y = 7, coarse Y = 0
	p.incrementY()
	if p.v != 0x0020 {
		t.Errorf("V = %#x, want coarse Y = 1", p.v)
	}

	// Coarse Y 29 wraps to 0 and toggles the vertical nametable.
	p.v = 0x7000 | 29<<5
	p.incrementY()
	if p.v != 0x0800 {
		t.Errorf("V = %#x, want NT toggle with coarse Y 0", p.v)
	}

	// Coarse Y 31 wraps without the toggle.
	p.v = 0x7000 | 31<<5
	p.incrementY()
	if p.v != 0x0000 {
		t.Errorf("V = %#x, want plain wrap", p.v)
	}
}

func TestLoopyIncrementX(t *testing.T) {
	p, _ := newTestPPU(t)
	p.v = 31 // coarse X at the edge
	p.incrementX()
	if p.v != 0x0400 {
		t.Errorf("V = %#x, want horizontal NT toggle", p.v)
	}
}

func TestSpriteEvaluationOverflow(t *testing.T) {
	p, m := newTestPPU(t)
	p.mask = maskShowBG | maskShowSprites

	// Ten sprites on scanline 40.
	for i := 0; i < 10; i++ {
		p.oam[i*4] = 40
		p.oam[i*4+1] = uint8(i)
		p.oam[i*4+3] = uint8(i * 8)
	}
	p.scanline = 40
	p.dot = 257
	p.evaluateSprites()
	_ = m

	if p.spriteCount != 8 {
		t.Errorf("secondary OAM holds %d sprites, want 8", p.spriteCount)
	}
	if p.status&statusOverflow == 0 {
		t.Error("ninth candidate should set the overflow flag")
	}
}

func TestSpriteEvaluationNoOverflowAtEight(t *testing.T) {
	p, _ := newTestPPU(t)
	p.mask = maskShowBG | maskShowSprites
	for i := 0; i < 8; i++ {
		p.oam[i*4] = 40
	}
	for i := 8; i < 64; i++ {
		p.oam[i*4] = 0xEF // off screen
	}
	p.scanline = 40
	p.evaluateSprites()
	if p.spriteCount != 8 {
		t.Errorf("spriteCount = %d, want 8", p.spriteCount)
	}
	if p.status&statusOverflow != 0 {
		t.Error("exactly eight candidates must not set overflow")
	}
}

func TestSprite0Hit(t *testing.T) {
	p, m := newTestPPU(t)

	// Solid background tile 0 and sprite tile 1 in CHR RAM.
	for row := 0; row < 8; row++ {
		m.WritePPU(uint16(row), 0xFF)      // tile 0, plane 0: solid colour 1
		m.WritePPU(uint16(16+row), 0xFF)   // tile 1, plane 0
	}
	// Nametable already zero: every background tile is tile 0.

	// Sprite 0 at (16, 16).
	p.oam[0] = 15 // OAM Y is one less than the render line
	p.oam[1] = 1
	p.oam[2] = 0
	p.oam[3] = 16

	p.WriteRegister(m, 0x2001, maskShowBG|maskShowSprites)

	// Run to the start of scanline 18; the hit lands while drawing line 16.
	for p.Scanline() != 18 {
		p.Clock(m)
	}
	if p.status&statusSprite0 == 0 {
		t.Fatal("sprite 0 hit flag should be set")
	}
	if got := p.ReadRegister(m, 0x2002); got&statusSprite0 == 0 {
		t.Error("status read should report the hit")
	}
}

func TestFramebufferEmphasisBits(t *testing.T) {
	p, m := newTestPPU(t)
	p.WriteRegister(m, 0x2001, maskShowBG|0x20) // red emphasis
	p.scanline = 10
	p.dot = 5
	p.emitPixel()
	entry := p.Framebuffer()[10*VisibleWidth+4]
	if entry>>6 != 0x01 {
		t.Errorf("emphasis bits = %#x, want 0x1", entry>>6)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p, m := newTestPPU(t)
	p.WriteRegister(m, 0x2000, 0x90)
	p.WriteRegister(m, 0x2005, 0x12)
	clockTo(p, m, 100, 17)

	saved := p.SaveState(nil)
	clockTo(p, m, 150, 3)
	rest, ok := p.LoadState(saved)
	if !ok || len(rest) != 0 {
		t.Fatalf("LoadState: ok=%v rest=%d", ok, len(rest))
	}
	if p.Scanline() != 100 || p.Dot() != 17 {
		t.Errorf("restored position = (%d,%d), want (100,17)", p.Scanline(), p.Dot())
	}
	if again := p.SaveState(nil); string(again) != string(saved) {
		t.Error("state not reproduced after round trip")
	}
}

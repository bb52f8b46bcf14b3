package graphics

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// EbitengineBackend presents frames through an ebiten image; the app layer
// drives it from its Draw callback.
type EbitengineBackend struct {
	image  *ebiten.Image
	pixels []uint8
}

// NewEbitengineBackend allocates the frame image.
func NewEbitengineBackend() *EbitengineBackend {
	return &EbitengineBackend{
		image:  ebiten.NewImage(256, 240),
		pixels: make([]uint8, 256*240*4),
	}
}

func (e *EbitengineBackend) RenderFrame(framebuffer []uint16) error {
	for i, entry := range framebuffer {
		rgb := ColourFor(entry)
		e.pixels[i*4] = uint8(rgb >> 16)
		e.pixels[i*4+1] = uint8(rgb >> 8)
		e.pixels[i*4+2] = uint8(rgb)
		e.pixels[i*4+3] = 0xFF
	}
	e.image.WritePixels(e.pixels)
	return nil
}

func (e *EbitengineBackend) Name() string { return "ebitengine" }

// Image exposes the frame for composition into the window.
func (e *EbitengineBackend) Image() *ebiten.Image { return e.image }

package graphics

// Backend presents frames produced by the core. The ebitengine backend
// opens a window; the headless backend keeps the last frame for inspection.
type Backend interface {
	// RenderFrame accepts one 256x240 palette-index framebuffer.
	RenderFrame(framebuffer []uint16) error

	// Name identifies the backend.
	Name() string
}

// HeadlessBackend retains frames without presenting them; used by tests and
// batch runs.
type HeadlessBackend struct {
	lastFrame []uint32
	frames    int
}

// NewHeadlessBackend creates an offscreen backend.
func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{lastFrame: make([]uint32, 256*240)}
}

func (h *HeadlessBackend) RenderFrame(framebuffer []uint16) error {
	for i, entry := range framebuffer {
		h.lastFrame[i] = ColourFor(entry)
	}
	h.frames++
	return nil
}

func (h *HeadlessBackend) Name() string { return "headless" }

// LastFrame returns the most recent frame as packed RGB.
func (h *HeadlessBackend) LastFrame() []uint32 { return h.lastFrame }

// FrameCount returns how many frames were rendered.
func (h *HeadlessBackend) FrameCount() int { return h.frames }

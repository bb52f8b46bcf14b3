package mapper

// AudioChannel is the capability set shared by APU and expansion audio
// channels: identification, a recent-output window for visualisers, and
// mute control.
type AudioChannel interface {
	Name() string
	Chip() string
	SampleBuffer() *RingBuffer
	Muted() bool
	Mute()
	Unmute()
}

// RingBuffer keeps a fixed window of recent channel output.
type RingBuffer struct {
	buffer []int16
	index  int
}

// NewRingBuffer creates a window of the given length.
func NewRingBuffer(length int) *RingBuffer {
	return &RingBuffer{buffer: make([]int16, length)}
}

// Push overwrites the oldest sample.
func (r *RingBuffer) Push(sample int16) {
	r.buffer[r.index] = sample
	r.index = (r.index + 1) % len(r.buffer)
}

// Buffer exposes the raw window storage.
func (r *RingBuffer) Buffer() []int16 {
	return r.buffer
}

// Index returns the position the next sample will land at.
func (r *RingBuffer) Index() int {
	return r.index
}

// channelState carries the bookkeeping every concrete channel shares: a
// recent-output ring recorded through a DC-removing high pass, so waveform
// views center on zero regardless of the channel's DAC bias.
type channelState struct {
	name   string
	chip   string
	muted  bool
	output *RingBuffer

	hpPreviousInput  float64
	hpPreviousOutput float64
}

const channelWindowSize = 4096

// debugHighPassAlpha puts the corner near 140 Hz for a channel recorded every
// CPU cycle, and proportionally lower for channels recorded less often; it
// only shapes the debug window, never the mixed output.
const debugHighPassAlpha = 0.9995

func newChannelState(name, chip string) channelState {
	return channelState{
		name:   name,
		chip:   chip,
		output: NewRingBuffer(channelWindowSize),
	}
}

func (c *channelState) Name() string             { return c.name }
func (c *channelState) Chip() string             { return c.chip }
func (c *channelState) SampleBuffer() *RingBuffer { return c.output }
func (c *channelState) Muted() bool              { return c.muted }
func (c *channelState) Mute()                    { c.muted = true }
func (c *channelState) Unmute()                  { c.muted = false }

// record pushes one raw output sample through the debug high pass into the
// window.
func (c *channelState) record(sample float64) {
	filtered := debugHighPassAlpha*(c.hpPreviousOutput+sample-c.hpPreviousInput)
	c.hpPreviousInput = sample
	c.hpPreviousOutput = filtered
	c.output.Push(int16(filtered * 32767))
}

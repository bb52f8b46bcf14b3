// Package app is the host shell: it owns the window, audio output and
// input polling around a core console.
package app

// Config holds the shell's settings. Defaults suit interactive play.
type Config struct {
	Scale       int  // window size as a multiple of 256x240
	SampleRate  int
	Headless    bool
	HeadlessFrames int // frame budget for headless runs
	NESFilter   bool // use the NES filter chain instead of the famicom one
}

// DefaultConfig returns the interactive defaults.
func DefaultConfig() Config {
	return Config{
		Scale:          3,
		SampleRate:     44100,
		HeadlessFrames: 60,
	}
}

package app

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"famicore/internal/apu"
	"famicore/internal/graphics"
	"famicore/internal/input"
	"famicore/internal/nes"
)

// Emulator drives one console through the ebiten game loop.
type Emulator struct {
	console *nes.Console
	config  Config

	backend *graphics.EbitengineBackend

	audioContext *audio.Context
	audioPlayer  *audio.Player
	audioStream  *sampleStream

	sramPath string
}

// keyBindings maps host keys onto the standard pad.
var keyBindings = map[ebiten.Key]input.Button{
	ebiten.KeyZ:          input.ButtonA,
	ebiten.KeyX:          input.ButtonB,
	ebiten.KeyShiftRight: input.ButtonSelect,
	ebiten.KeyEnter:      input.ButtonStart,
	ebiten.KeyArrowUp:    input.ButtonUp,
	ebiten.KeyArrowDown:  input.ButtonDown,
	ebiten.KeyArrowLeft:  input.ButtonLeft,
	ebiten.KeyArrowRight: input.ButtonRight,
}

// NewEmulator wraps a console for interactive play.
func NewEmulator(console *nes.Console, config Config) *Emulator {
	e := &Emulator{
		console: console,
		config:  config,
	}
	console.APU().SetSampleRate(config.SampleRate)
	if config.NESFilter {
		console.APU().SetFilterChain(apu.FilterChainNES)
	}
	if !config.Headless {
		e.backend = graphics.NewEbitengineBackend()
		e.audioContext = audio.NewContext(config.SampleRate)
		e.audioStream = newSampleStream()
		player, err := e.audioContext.NewPlayer(e.audioStream)
		if err == nil {
			e.audioPlayer = player
			e.audioPlayer.Play()
		}
	}
	return e
}

// SetSRAMPath enables battery saves to the given file.
func (e *Emulator) SetSRAMPath(path string) {
	e.sramPath = path
	if data, err := os.ReadFile(path); err == nil {
		if err := e.console.SetSRAM(data); err != nil {
			fmt.Fprintf(os.Stderr, "ignoring battery file: %v\n", err)
		}
	}
}

// Update advances the console one frame and services audio and input.
func (e *Emulator) Update() error {
	pad := e.console.Controller(0)
	for key, button := range keyBindings {
		pad.SetButton(button, ebiten.IsKeyPressed(key))
	}

	if err := e.console.RunUntilVBlank(); err != nil {
		return err
	}

	if e.audioStream != nil {
		e.audioStream.queue(e.console.ConsumeSamples())
	} else {
		e.console.ConsumeSamples()
	}
	return nil
}

// Draw presents the framebuffer.
func (e *Emulator) Draw(screen *ebiten.Image) {
	if e.backend == nil {
		return
	}
	if err := e.backend.RenderFrame(e.console.Framebuffer()); err != nil {
		return
	}
	options := &ebiten.DrawImageOptions{}
	scale := float64(e.config.Scale)
	options.GeoM.Scale(scale, scale)
	screen.DrawImage(e.backend.Image(), options)
}

// Layout reports the window's logical size.
func (e *Emulator) Layout(int, int) (int, int) {
	return 256 * e.config.Scale, 240 * e.config.Scale
}

// Run enters the game loop, or a bounded headless run.
func (e *Emulator) Run() error {
	defer e.saveSRAM()

	if e.config.Headless {
		backend := graphics.NewHeadlessBackend()
		for i := 0; i < e.config.HeadlessFrames; i++ {
			if err := e.console.RunUntilVBlank(); err != nil {
				return err
			}
			if err := backend.RenderFrame(e.console.Framebuffer()); err != nil {
				return err
			}
			e.console.ConsumeSamples()
		}
		return nil
	}

	ebiten.SetWindowSize(256*e.config.Scale, 240*e.config.Scale)
	ebiten.SetWindowTitle("famicore")
	return ebiten.RunGame(e)
}

func (e *Emulator) saveSRAM() {
	if e.sramPath == "" || !e.console.HasSRAM() {
		return
	}
	if err := os.WriteFile(e.sramPath, e.console.SRAM(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write battery file: %v\n", err)
	}
}

// sampleStream adapts the console's mono int16 output into the 16-bit
// stereo stream ebiten consumes, padding with silence on underrun.
type sampleStream struct {
	buffer []uint8
}

func newSampleStream() *sampleStream {
	return &sampleStream{}
}

func (s *sampleStream) queue(samples []int16) {
	for _, sample := range samples {
		low, high := uint8(sample), uint8(sample>>8)
		s.buffer = append(s.buffer, low, high, low, high)
	}
}

func (s *sampleStream) Read(p []uint8) (int, error) {
	n := copy(p, s.buffer)
	s.buffer = s.buffer[n:]
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"famicore/internal/app"
	"famicore/internal/nes"
	"famicore/internal/version"
)

func main() {
	config := app.DefaultConfig()

	flag.IntVar(&config.Scale, "scale", config.Scale, "window scale factor")
	flag.IntVar(&config.SampleRate, "samplerate", config.SampleRate, "audio sample rate")
	flag.BoolVar(&config.Headless, "headless", false, "run without a window")
	flag.IntVar(&config.HeadlessFrames, "frames", config.HeadlessFrames, "frames to run in headless mode")
	flag.BoolVar(&config.NESFilter, "nes-filters", false, "use the NES filter chain")
	bios := flag.String("bios", "", "disk system BIOS image (required for .fds)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetDetailedVersion())
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <rom>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	romPath := flag.Arg(0)

	data, err := os.ReadFile(romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", romPath, err)
		os.Exit(1)
	}

	var console *nes.Console
	if strings.HasSuffix(strings.ToLower(romPath), ".fds") {
		biosData, err := os.ReadFile(*bios)
		if err != nil {
			fmt.Fprintf(os.Stderr, "disk images need -bios: %v\n", err)
			os.Exit(1)
		}
		console, err = nes.LoadFDS(data, biosData)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load disk image: %v\n", err)
			os.Exit(1)
		}
	} else {
		console, err = nes.LoadROM(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load rom: %v\n", err)
			os.Exit(1)
		}
	}

	emulator := app.NewEmulator(console, config)
	if console.HasSRAM() {
		emulator.SetSRAMPath(romPath + ".sav")
	}

	if err := emulator.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "emulation stopped: %v\n", err)
		os.Exit(1)
	}
}

package apu

import "famicore/internal/mapper"

// The non-linear mixer. Hardware sums channel currents through a resistor
// ladder; the result is captured in two lookup tables, one over the summed
// pulse level and one over the triangle/noise/DMC combination.

var pulseMixTable [31]float64
var tndMixTable [16][16][128]float64

func init() {
	for i := 1; i < 31; i++ {
		pulseMixTable[i] = 95.52 / (8128.0/float64(i) + 100.0)
	}
	for t := 0; t < 16; t++ {
		for n := 0; n < 16; n++ {
			for d := 0; d < 128; d++ {
				sum := float64(t)/8227.0 + float64(n)/12241.0 + float64(d)/22638.0
				if sum > 0 {
					tndMixTable[t][n][d] = 159.79 / (1.0/sum + 100.0)
				}
			}
		}
	}
}

// mix produces the console DAC level in [0, 1) for the current channel
// outputs, honoring per-channel mutes.
func (a *APU) mix() float64 {
	var p1, p2 uint8
	if !a.pulse1.muted {
		p1 = a.pulse1.output()
	}
	if !a.pulse2.muted {
		p2 = a.pulse2.output()
	}
	var t, n, d uint8
	if !a.triangle.muted {
		t = a.triangle.output()
	}
	if !a.noise.muted {
		n = a.noise.output()
	}
	if !a.dmc.muted {
		d = a.dmc.output()
	}

	a.pulse1.window.Push(int16(p1) << 10)
	a.pulse2.window.Push(int16(p2) << 10)
	a.triangle.window.Push(int16(t) << 10)
	a.noise.window.Push(int16(n) << 10)
	a.dmc.window.Push(int16(d) << 7)

	return pulseMixTable[p1+p2] + tndMixTable[t][n][d]
}

// mixAndResample runs once per CPU cycle: mix, compose expansion audio,
// filter at the CPU rate, and emit one host sample whenever the cycle
// counter crosses the next resampling point.
func (a *APU) mixAndResample(m mapper.Mapper) {
	// Center the DAC range on zero before filtering.
	sample := a.mix() - 0.5
	sample = m.MixExpansionAudio(sample)

	switch a.filterChain {
	case FilterChainFamicom:
		a.hp37.consume(sample)
		a.lpPreDecimate.consume(a.hp37.output())
	case FilterChainNES:
		a.hp90.consume(sample)
		a.hp440.consume(a.hp90.output())
		a.lp14k.consume(a.hp440.output())
		a.lpPreDecimate.consume(a.lp14k.output())
	}

	if a.cycles >= a.nextSampleAt {
		value := a.lpPreDecimate.output()
		if value > 0.5 {
			value = 0.5
		} else if value < -0.5 {
			value = -0.5
		}
		a.staging = append(a.staging, int16(value*2*32767))
		a.generatedSamples++
		a.nextSampleAt = (a.generatedSamples + 1) * cpuClockRate / a.sampleRate

		if len(a.staging) >= a.blockSize {
			a.pending = append(a.pending, a.staging...)
			a.staging = a.staging[:0]
			a.bufferFull = true
		}
	}
}

// First-order IIR sections used by both output models.

type highPassIIR struct {
	alpha          float64
	previousOutput float64
	previousInput  float64
	delta          float64
}

func newHighPassIIR(sampleRate, cutoff float64) highPassIIR {
	deltaT := 1.0 / sampleRate
	timeConstant := 1.0 / cutoff
	return highPassIIR{alpha: timeConstant / (timeConstant + deltaT)}
}

func (f *highPassIIR) consume(input float64) {
	f.previousOutput = f.output()
	f.delta = input - f.previousInput
	f.previousInput = input
}

func (f *highPassIIR) output() float64 {
	return f.alpha*f.previousOutput + f.alpha*f.delta
}

type lowPassIIR struct {
	alpha          float64
	previousOutput float64
	delta          float64
}

func newLowPassIIR(sampleRate, cutoff float64) lowPassIIR {
	deltaT := 1.0 / sampleRate
	timeConstant := 1.0 / cutoff
	return lowPassIIR{alpha: deltaT / (timeConstant + deltaT)}
}

func (f *lowPassIIR) consume(input float64) {
	f.previousOutput = f.output()
	f.delta = input - f.previousOutput
}

func (f *lowPassIIR) output() float64 {
	return f.previousOutput + f.alpha*f.delta
}

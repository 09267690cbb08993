// Package dsp provides the streaming synthesis primitives spec.md §6
// assumes are available at the audio layer: noise sources, biquad
// filters, oscillators, envelopes, a phasor, and a sample-and-hold. Each
// is a github.com/gopxl/beep Streamer, grounded on the
// oscillator/envelope/noise helpers in the pack's vi-fighter audio
// generator (adapted from one-shot buffer generation to per-sample
// streaming).
package dsp

import "math/rand"

// Waveform enumerates the oscillator shapes spec.md §6 requires.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSquare
	WaveSaw
)

// NoiseColor selects a noise source's spectral tilt.
type NoiseColor int

const (
	NoiseWhite NoiseColor = iota
	NoisePink
	NoiseBrown
)

// Noise is a streaming white/pink/brown noise source. Pink and brown use
// the classic cheap IIR approximations (Paul Kellet's pink filter; brown
// as a leaky integrator of white noise), matching the fidelity level of
// the generator helpers in the pack's reference audio code.
type Noise struct {
	Color NoiseColor
	rng   *rand.Rand

	// pink filter state (Kellet's economy method, 3-pole)
	b0, b1, b2 float64
	// brown state
	brown float64
}

// NewNoise constructs a noise source seeded independently per voice so
// concurrent voices don't produce identical sequences.
func NewNoise(color NoiseColor, seed int64) *Noise {
	return &Noise{Color: color, rng: rand.New(rand.NewSource(seed))}
}

func (n *Noise) nextWhite() float64 { return n.rng.Float64()*2 - 1 }

func (n *Noise) nextPink() float64 {
	white := n.nextWhite()
	n.b0 = 0.99886*n.b0 + white*0.0555179
	n.b1 = 0.99332*n.b1 + white*0.0750759
	n.b2 = 0.96900*n.b2 + white*0.1538520
	out := n.b0 + n.b1 + n.b2 + white*0.1848
	return out * 0.25
}

func (n *Noise) nextBrown() float64 {
	white := n.nextWhite()
	n.brown += white * 0.02
	if n.brown > 1 {
		n.brown = 1
	}
	if n.brown < -1 {
		n.brown = -1
	}
	return n.brown * 3.0
}

// Next returns the next mono sample.
func (n *Noise) Next() float64 {
	switch n.Color {
	case NoisePink:
		return n.nextPink()
	case NoiseBrown:
		return n.nextBrown()
	default:
		return n.nextWhite()
	}
}

// Stream fills samples with mono noise duplicated to both channels.
func (n *Noise) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := n.Next()
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

func (n *Noise) Err() error { return nil }

// FBm is a fractional-Brownian-motion value-noise generator: 5 octaves of
// 1-D value noise, lacunarity 2, configurable persistence (spec.md §6
// "an fBm noise generator"). Advance(dt) moves the generator's phase by
// dt "time units" and returns the new sample in [-1, 1].
type FBm struct {
	Octaves     int
	Persistence float64
	Lacunarity  float64

	phase float64
	seeds []int64
	rngs  []*rand.Rand
	last  []float64
	next  []float64
	incr  []float64
}

// NewFBm constructs a 5-octave fBm generator with the given persistence.
func NewFBm(persistence float64, seed int64) *FBm {
	const octaves = 5
	f := &FBm{Octaves: octaves, Persistence: persistence, Lacunarity: 2}
	f.rngs = make([]*rand.Rand, octaves)
	f.last = make([]float64, octaves)
	f.next = make([]float64, octaves)
	f.incr = make([]float64, octaves)
	for i := 0; i < octaves; i++ {
		f.rngs[i] = rand.New(rand.NewSource(seed + int64(i)*7919))
		f.last[i] = f.rngs[i].Float64()*2 - 1
		f.next[i] = f.rngs[i].Float64()*2 - 1
	}
	return f
}

// Advance steps the generator by dt "octave-0 cycles" worth of phase and
// returns the blended multi-octave sample.
func (f *FBm) Advance(dt float64) float64 {
	f.phase += dt
	if f.phase >= 1 {
		f.phase -= 1
		for i := range f.last {
			f.last[i] = f.next[i]
			f.next[i] = f.rngs[i].Float64()*2 - 1
		}
	}
	sum, norm, amp, freq := 0.0, 0.0, 1.0, 1.0
	for o := 0; o < f.Octaves; o++ {
		t := f.phase * freq
		t -= float64(int(t))
		v := f.last[o]*(1-t) + f.next[o]*t
		sum += v * amp
		norm += amp
		amp *= f.Persistence
		freq *= f.Lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

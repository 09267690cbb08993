package dsp

import (
	"math"

	"github.com/gopxl/beep"
)

// BiquadKind selects the filter topology (RBJ Audio-EQ-Cookbook forms).
type BiquadKind int

const (
	LowPass BiquadKind = iota
	HighPass
	BandPass
	Notch
	Peaking
	LowShelf
	HighShelf
)

// Biquad is a single second-order IIR section, stereo (independent state
// per channel), re-coefficiented whenever Configure is called. Grounded
// on the filter-sweep idiom in the pack's vi-fighter audio generator,
// generalized from one-shot buffer filtering to a streaming Streamer.
type Biquad struct {
	Source beep.Streamer

	b0, b1, b2, a1, a2 float64
	x1, x2             [2]float64
	y1, y2             [2]float64

	sampleRate float64
}

// NewBiquad wraps src with a biquad filter at the given sample rate.
func NewBiquad(src beep.Streamer, sampleRate float64) *Biquad {
	b := &Biquad{Source: src, sampleRate: sampleRate}
	b.Configure(LowPass, 20000, 0.707, 0)
	return b
}

// Configure recomputes coefficients for the given kind, cutoff/center
// frequency, Q, and (for shelf/peaking kinds) gain in dB.
func (b *Biquad) Configure(kind BiquadKind, freq, q, gainDB float64) {
	if freq <= 0 {
		freq = 1
	}
	if freq > b.sampleRate/2-1 {
		freq = b.sampleRate/2 - 1
	}
	if q <= 0 {
		q = 0.01
	}
	w0 := 2 * math.Pi * freq / b.sampleRate
	cosw0 := math.Cos(w0)
	sinw0 := math.Sin(w0)
	alpha := sinw0 / (2 * q)
	A := math.Pow(10, gainDB/40)

	var b0, b1, b2, a0, a1, a2 float64
	switch kind {
	case LowPass:
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case HighPass:
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case BandPass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case Notch:
		b0 = 1
		b1 = -2 * cosw0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case Peaking:
		b0 = 1 + alpha*A
		b1 = -2 * cosw0
		b2 = 1 - alpha*A
		a0 = 1 + alpha/A
		a1 = -2 * cosw0
		a2 = 1 - alpha/A
	case LowShelf:
		sq := math.Sqrt(A) * 2 * alpha
		b0 = A * ((A + 1) - (A-1)*cosw0 + sq)
		b1 = 2 * A * ((A - 1) - (A+1)*cosw0)
		b2 = A * ((A + 1) - (A-1)*cosw0 - sq)
		a0 = (A + 1) + (A-1)*cosw0 + sq
		a1 = -2 * ((A - 1) + (A+1)*cosw0)
		a2 = (A + 1) + (A-1)*cosw0 - sq
	case HighShelf:
		sq := math.Sqrt(A) * 2 * alpha
		b0 = A * ((A + 1) + (A-1)*cosw0 + sq)
		b1 = -2 * A * ((A - 1) + (A+1)*cosw0)
		b2 = A * ((A + 1) + (A-1)*cosw0 - sq)
		a0 = (A + 1) - (A-1)*cosw0 + sq
		a1 = 2 * ((A - 1) - (A+1)*cosw0)
		a2 = (A + 1) - (A-1)*cosw0 - sq
	}
	b.b0, b.b1, b.b2 = b0/a0, b1/a0, b2/a0
	b.a1, b.a2 = a1/a0, a2/a0
}

// ProcessMono runs a single sample through the filter's channel-0 state,
// for callers (like internal/audio/wind) that drive the filter directly
// from a per-sample synthesis loop rather than through Stream.
func (b *Biquad) ProcessMono(in float64) float64 {
	return b.processChannel(0, in)
}

func (b *Biquad) processChannel(ch int, in float64) float64 {
	out := b.b0*in + b.b1*b.x1[ch] + b.b2*b.x2[ch] - b.a1*b.y1[ch] - b.a2*b.y2[ch]
	b.x2[ch] = b.x1[ch]
	b.x1[ch] = in
	b.y2[ch] = b.y1[ch]
	b.y1[ch] = out
	return out
}

func (b *Biquad) Stream(samples [][2]float64) (int, bool) {
	n, ok := b.Source.Stream(samples)
	for i := 0; i < n; i++ {
		samples[i][0] = b.processChannel(0, samples[i][0])
		samples[i][1] = b.processChannel(1, samples[i][1])
	}
	return n, ok
}

func (b *Biquad) Err() error { return b.Source.Err() }

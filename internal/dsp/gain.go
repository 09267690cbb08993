package dsp

import (
	"math"
	"sync/atomic"

	"github.com/gopxl/beep"
)

// AtomicF32 is a lock-free float32 box, safe to write from a config or
// UI goroutine and read from the audio callback without blocking it —
// the same "atomic with respect to next tick/buffer" idiom
// internal/simgrid uses for its live physics parameters.
type AtomicF32 struct {
	bits atomic.Uint32
}

func NewAtomicF32(v float32) *AtomicF32 {
	a := &AtomicF32{}
	a.Store(v)
	return a
}

func (a *AtomicF32) Load() float32 {
	return math.Float32frombits(a.bits.Load())
}

func (a *AtomicF32) Store(v float32) {
	a.bits.Store(math.Float32bits(v))
}

// DbToLinear converts a decibel gain to a linear amplitude multiplier.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDb converts a linear amplitude multiplier to decibels; silence
// maps to a large negative floor rather than -Inf.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return -120
	}
	return 20 * math.Log10(linear)
}

// Gain is a Streamer that scales its source by a live AtomicF32 linear
// multiplier, smoothed with a one-pole filter to avoid zipper noise when
// the target changes abruptly (spec.md §6's "no audible zipper noise on
// parameter change").
type Gain struct {
	Source     beep.Streamer
	Target     *AtomicF32
	current    float64
	smoothCoef float64
}

// NewGain wraps src with a smoothed gain stage, smoothMs controlling how
// fast current chases Target.
func NewGain(src beep.Streamer, initial float32, sampleRate, smoothMs float64) *Gain {
	coef := math.Exp(-1 / (smoothMs / 1000 * sampleRate))
	return &Gain{Source: src, Target: NewAtomicF32(initial), current: float64(initial), smoothCoef: coef}
}

func (g *Gain) Stream(samples [][2]float64) (int, bool) {
	n, ok := g.Source.Stream(samples)
	target := float64(g.Target.Load())
	for i := 0; i < n; i++ {
		g.current = g.smoothCoef*g.current + (1-g.smoothCoef)*target
		samples[i][0] *= g.current
		samples[i][1] *= g.current
	}
	return n, ok
}

func (g *Gain) Err() error { return g.Source.Err() }

// Pan applies an equal-power pan law, Position in [-1, 1] (left to
// right), used by the bus layer's per-voice panning (spec.md §4.10).
type Pan struct {
	Source   beep.Streamer
	Position *AtomicF32
}

func NewPan(src beep.Streamer, position float32) *Pan {
	return &Pan{Source: src, Position: NewAtomicF32(position)}
}

func (p *Pan) Stream(samples [][2]float64) (int, bool) {
	n, ok := p.Source.Stream(samples)
	pos := float64(p.Position.Load())
	if pos < -1 {
		pos = -1
	}
	if pos > 1 {
		pos = 1
	}
	angle := (pos + 1) * math.Pi / 4
	left := math.Cos(angle)
	right := math.Sin(angle)
	for i := 0; i < n; i++ {
		l := samples[i][0]
		r := samples[i][1]
		mono := (l + r) / 2
		samples[i][0] = mono * left
		samples[i][1] = mono * right
	}
	return n, ok
}

func (p *Pan) Err() error { return p.Source.Err() }

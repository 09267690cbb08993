// Package impact implements the filtered-noise-burst voice pool spec.md
// §4.4 assigns to each raindrop collision: noise source → bandpass
// filter → per-voice pan → shared output gain, auto-released on the
// audio clock at decay+0.05s. Grounded on the biquad-sweep trigger
// pattern in the pack's vi-fighter DrumVoice (audio-voice.go),
// generalized from a fixed percussion kit to mapper-driven parameters.
package impact

import (
	"math"
	"math/rand"

	"github.com/rainydesk/engine/internal/dsp"
	"github.com/rainydesk/engine/internal/mapper"
)

// Config mirrors spec.md §6's impacts.impact.* configuration surface.
type Config struct {
	PoolSize        int
	NoiseType       dsp.NoiseColor
	Attack          float64
	DecayMin        float64
	DecayMax        float64
	FilterFreqMin   float64
	FilterFreqMax   float64
	FilterQ         float64
	PitchCenter     float64 // 0..100
	PitchOscAmount  float64 // 0..100
}

// Voice is one impact pool slot: noise → bandpass → AD envelope → pan.
type Voice struct {
	noise  *dsp.Noise
	filter *dsp.Biquad
	env    *dsp.Envelope
	pan    *dsp.Pan
	rng    *rand.Rand

	sampleRate   float64
	pendingAutoRelease float64 // seconds remaining until auto-release fires, <0 when idle
}

// New constructs an idle voice seeded independently so concurrent voices
// in the pool don't share a noise sequence.
func New(sampleRate float64, seed int64) *Voice {
	v := &Voice{sampleRate: sampleRate, rng: rand.New(rand.NewSource(seed))}
	v.noise = dsp.NewNoise(dsp.NoiseWhite, seed)
	v.filter = dsp.NewBiquad(v.noise, sampleRate)
	v.env = dsp.NewEnvelope(v.filter, sampleRate)
	v.env.SustainLevel = 0
	v.pan = dsp.NewPan(v.env, 0)
	v.pendingAutoRelease = -1
	return v
}

// Trigger fires the voice from a mapper.Params result, spec.md §4.4:
// filter frequency derives from pitchCenter with a per-drop random
// octave offset scaled by pitchOscAmount, Q rises at low frequencies,
// decay is volume mapped linearly onto [decayMin, decayMax], and an
// auto-release is scheduled at decay+0.05s.
func (v *Voice) Trigger(cfg Config, p mapper.Params, panPosition float32) {
	v.noise.Color = cfg.NoiseType

	centerHz := 500 * math.Pow(6000.0/500.0, clamp01(cfg.PitchCenter/100))
	octaveSpread := 2 * (cfg.PitchOscAmount / 100)
	octaveOffset := (v.rng.Float64()*2 - 1) * octaveSpread
	freq := clampF(centerHz*math.Pow(2, octaveOffset), 200, 12000)

	q := cfg.FilterQ
	if q <= 0 {
		q = 1
	}
	if freq < 1000 {
		q *= 1.5
	}

	v.filter.Configure(dsp.BandPass, freq, q, 0)

	volT := clamp01((p.VolumeDb - (-40)) / ((-6) - (-40)))
	decay := clampF(cfg.DecayMin+volT*(cfg.DecayMax-cfg.DecayMin), cfg.DecayMin, cfg.DecayMax)

	v.env.AttackS = cfg.Attack
	v.env.DecayS = decay
	v.env.SustainLevel = 0
	v.env.Trigger()

	v.pan.Position.Store(panPosition)
	v.pendingAutoRelease = decay + 0.05
}

func (v *Voice) Active() bool {
	return !v.env.Done()
}

func (v *Voice) Release() {
	v.env.Release()
	v.pendingAutoRelease = -1
}

func (v *Voice) Reset() {
	v.env.Release()
	v.pendingAutoRelease = -1
}

func (v *Voice) Stream(samples [][2]float64) (int, bool) {
	n, ok := v.pan.Stream(samples)
	if v.pendingAutoRelease >= 0 {
		v.pendingAutoRelease -= float64(n) / v.sampleRate
		if v.pendingAutoRelease <= 0 {
			v.env.Release()
			v.pendingAutoRelease = -1
		}
	}
	return n, ok
}

func (v *Voice) Err() error { return nil }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

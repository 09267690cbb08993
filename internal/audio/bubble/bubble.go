// Package bubble implements the Minnaert-like resonator voice pool
// spec.md §4.4 triggers on material.bubbleProbability hits: oscillator
// → AD envelope → shared output gain, with the oscillator frequency
// chirping linearly down to frequency*(1-chirpAmount) over chirpTime.
// Grounded on the same vi-fighter voice-trigger pattern as
// internal/audio/impact, generalized to a chirping oscillator rather
// than a static noise burst.
package bubble

import (
	"math/rand"

	"github.com/rainydesk/engine/internal/audio/voicepool"
	"github.com/rainydesk/engine/internal/dsp"
)

// Config mirrors spec.md §6's impacts.bubble.* configuration surface.
type Config struct {
	PoolSize     int
	Wave         dsp.Waveform
	Probability  float64
	ChirpAmount  float64
	ChirpTime    float64
	FreqMin      float64
	FreqMax      float64
	FilterQ      float64
	HarmonicCount int
}

// Voice is one bubble pool slot.
type Voice struct {
	osc *dsp.Oscillator
	env *dsp.Envelope

	startFreq, endFreq float64
	chirpTimeS         float64
	elapsedS           float64
	sampleRate         float64
}

func New(sampleRate float64) *Voice {
	v := &Voice{sampleRate: sampleRate}
	v.osc = dsp.NewOscillator(dsp.WaveSine, 440, sampleRate)
	v.env = dsp.NewEnvelope(v.osc, sampleRate)
	v.env.SustainLevel = 0
	return v
}

// Trigger fires the resonator at frequencyHz, chirping to
// frequencyHz*(1-chirpAmount) over chirpTime seconds, with a decay
// envelope shaped by decayS (from the mapper).
func (v *Voice) Trigger(cfg Config, frequencyHz, decayS float64) {
	v.osc.Wave = cfg.Wave
	v.startFreq = frequencyHz
	v.endFreq = frequencyHz * (1 - cfg.ChirpAmount)
	v.chirpTimeS = cfg.ChirpTime
	if v.chirpTimeS <= 0 {
		v.chirpTimeS = 0.001
	}
	v.elapsedS = 0
	v.osc.FreqHz = v.startFreq
	v.osc.Reset()

	v.env.AttackS = 0.002
	v.env.DecayS = decayS
	v.env.SustainLevel = 0
	v.env.Trigger()
}

func (v *Voice) Active() bool { return !v.env.Done() }

func (v *Voice) Release() { v.env.Release() }

func (v *Voice) Reset() { v.env.Release() }

func (v *Voice) Stream(samples [][2]float64) (int, bool) {
	dt := 1.0 / v.sampleRate
	for i := range samples {
		t := v.elapsedS / v.chirpTimeS
		if t > 1 {
			t = 1
		}
		v.osc.FreqHz = v.startFreq + (v.endFreq-v.startFreq)*t
		v.elapsedS += dt
		_ = i
	}
	return v.env.Stream(samples)
}

func (v *Voice) Err() error { return nil }

// Pool wires the generic voicepool to bubble-specific trigger logic,
// including the spec.md §4.4 "skip unless triggerBubble" gate.
type Pool struct {
	voices *voicepool.Pool[*Voice]
	cfg    Config
	rng    *rand.Rand
}

func NewPool(cfg Config, sampleRate float64, seed int64) *Pool {
	voices := voicepool.New(cfg.PoolSize, func() *Voice { return New(sampleRate) })
	return &Pool{voices: voices, cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

func (p *Pool) SetConfig(cfg Config) { p.cfg = cfg }

// Trigger fires a bubble voice if triggerBubble is true; a no-op
// otherwise, matching spec.md §4.4's idempotent, non-blocking trigger
// contract.
func (p *Pool) Trigger(triggerBubble bool, frequencyHz, decayS float64) {
	if !triggerBubble {
		return
	}
	v, ok := p.voices.Acquire()
	if !ok {
		return
	}
	v.Trigger(p.cfg, frequencyHz, decayS)
}

func (p *Pool) Stream(samples [][2]float64) (int, bool) { return p.voices.Stream(samples) }
func (p *Pool) Err() error                               { return p.voices.Err() }
func (p *Pool) ActiveCount() int                          { return p.voices.ActiveCount() }

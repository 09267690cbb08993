package dsp

import "github.com/gopxl/beep"

// EnvStage identifies where an Envelope currently sits in its ADSR cycle.
type EnvStage int

const (
	EnvIdle EnvStage = iota
	EnvAttack
	EnvDecay
	EnvSustain
	EnvRelease
)

// Envelope is a streaming ADSR amplitude envelope applied to a Source
// Streamer. Impact and bubble voices (spec.md §4.4) use the AD shape
// (SustainLevel 0, no hold); the sheet/thunder layers use full ADSR.
// Grounded on the gain-ramp helper in the pack's vi-fighter voice code,
// generalized to a reusable per-sample envelope generator.
type Envelope struct {
	Source beep.Streamer

	AttackS, DecayS, ReleaseS float64
	SustainLevel              float64

	sampleRate float64
	stage      EnvStage
	level      float64
	elapsed    float64
	releaseFrom float64
}

// NewEnvelope constructs an idle envelope; call Trigger to start it.
func NewEnvelope(src beep.Streamer, sampleRate float64) *Envelope {
	return &Envelope{Source: src, sampleRate: sampleRate, SustainLevel: 1}
}

// Trigger restarts the envelope from the attack stage.
func (e *Envelope) Trigger() {
	e.stage = EnvAttack
	e.elapsed = 0
}

// Release moves the envelope into its release stage from wherever it
// currently sits.
func (e *Envelope) Release() {
	if e.stage == EnvIdle {
		return
	}
	e.stage = EnvRelease
	e.elapsed = 0
	e.releaseFrom = e.level
}

// Done reports whether the envelope has fully decayed to silence.
func (e *Envelope) Done() bool { return e.stage == EnvIdle }

func (e *Envelope) advance(dt float64) float64 {
	switch e.stage {
	case EnvIdle:
		e.level = 0
	case EnvAttack:
		if e.AttackS <= 0 {
			e.level = 1
		} else {
			e.level = e.elapsed / e.AttackS
		}
		if e.level >= 1 {
			e.level = 1
			e.stage = EnvDecay
			e.elapsed = 0
		}
	case EnvDecay:
		if e.DecayS <= 0 {
			e.level = e.SustainLevel
		} else {
			t := e.elapsed / e.DecayS
			if t > 1 {
				t = 1
			}
			e.level = 1 - t*(1-e.SustainLevel)
		}
		if e.elapsed >= e.DecayS {
			e.stage = EnvSustain
			e.elapsed = 0
			if e.SustainLevel <= 0 {
				e.stage = EnvIdle
			}
		}
	case EnvSustain:
		e.level = e.SustainLevel
	case EnvRelease:
		if e.ReleaseS <= 0 {
			e.level = 0
		} else {
			t := e.elapsed / e.ReleaseS
			if t > 1 {
				t = 1
			}
			e.level = e.releaseFrom * (1 - t)
		}
		if e.elapsed >= e.ReleaseS {
			e.stage = EnvIdle
			e.level = 0
		}
	}
	e.elapsed += dt
	return e.level
}

func (e *Envelope) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.Source.Stream(samples)
	dt := 1.0 / e.sampleRate
	for i := 0; i < n; i++ {
		g := e.advance(dt)
		samples[i][0] *= g
		samples[i][1] *= g
	}
	return n, ok
}

func (e *Envelope) Err() error { return e.Source.Err() }

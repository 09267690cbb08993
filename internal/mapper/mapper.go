// Package mapper implements the pure, deterministic map from a collision
// event plus a material descriptor to audio synthesis parameters
// (spec.md §4.2). It is stateless: every call is independent and cannot
// fail.
package mapper

import (
	"math"
	"math/rand"

	"github.com/rainydesk/engine/internal/material"
)

// Physics bundles the tunable constants spec.md §4.2 and the Impacts
// "physics" config subsection reference (radius/decay/angle scaling,
// velocity range, Minnaert base, clamp bounds).
type Physics struct {
	VelMin, VelMax             float64
	FreqMin, FreqMax           float64
	DecayBase, DecayRadiusScal float64
	MinnaertBase               float64
}

// Event mirrors spec.md §3 "Collision event".
type Event struct {
	Velocity    float64 // screen px/s, magnitude
	DropRadius  float64 // screen px
	ImpactAngle float64 // radians
	Mass        float64
}

// Params is the synthesis parameter bundle the impact/bubble pools consume.
type Params struct {
	VolumeDb      float64
	FrequencyHz   float64
	DecayS        float64
	TriggerBubble bool
	FilterFreqHz  float64
}

// logMap reshapes t=[0,1] logarithmically via log10(9t+1), then lerps
// into [outMin,outMax], matching spec.md §4.2's volume curve exactly.
func logMap(v, inMin, inMax, outMin, outMax float64) float64 {
	t := (v - inMin) / (inMax - inMin)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	shaped := math.Log10(9*t + 1)
	return outMin + shaped*(outMax-outMin)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// velocityFactor implements spec.md §4.2's triggerBubble velocity banding.
func velocityFactor(v float64) float64 {
	switch {
	case v < 10:
		return 1
	case v <= 15:
		return 0.75
	default:
		return 0.5
	}
}

// Map computes audio parameters for a single collision event against a
// material descriptor. rng supplies the bubble-trigger coin flip; pass a
// per-call *rand.Rand (or nil for a fresh source seeded with 1, so every
// nil-rng call draws the same value) — the function itself holds no
// state between calls.
func Map(ev Event, mat material.Descriptor, phys Physics, rng *rand.Rand) Params {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	volumeDb := logMap(math.Abs(ev.Velocity), phys.VelMin, phys.VelMax, -40, -6) + mat.GainOffsetDb

	r := ev.DropRadius
	if r <= 0 {
		r = 0.01
	}
	freq := clamp(phys.MinnaertBase/r*mat.PitchMultiplier, phys.FreqMin, phys.FreqMax)

	decay := clamp(phys.DecayBase+r*phys.DecayRadiusScal, mat.DecayMin, mat.DecayMax)

	vFrac := ev.Velocity / phys.VelMax
	if vFrac > 1 {
		vFrac = 1
	}
	if vFrac < 0 {
		vFrac = 0
	}
	filterFreq := clamp(mat.FilterFreq*(1+vFrac), 20, 18000)

	triggerP := mat.BubbleProbability * (0.5 + 0.5*math.Cos(ev.ImpactAngle)) * velocityFactor(math.Abs(ev.Velocity))
	triggerBubble := rng.Float64() < triggerP

	return Params{
		VolumeDb:      volumeDb,
		FrequencyHz:   freq,
		DecayS:        decay,
		TriggerBubble: triggerBubble,
		FilterFreqHz:  filterFreq,
	}
}

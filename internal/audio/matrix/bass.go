package matrix

import "github.com/rainydesk/engine/internal/dsp"

// BassMode selects the bass envelope preset for the current bar range
// (spec.md §4.9 "Bass").
type BassMode int

const (
	BassSilent BassMode = iota
	BassSustained
	BassPulsed
)

// bassModeForBar implements the bar-range table: silent 0..1, 64..75,
// 88..89; sustained 2..63; pulsed 76..87.
func bassModeForBar(bar int) BassMode {
	switch {
	case bar <= 1:
		return BassSilent
	case bar <= 63:
		return BassSustained
	case bar <= 75:
		return BassSilent
	case bar <= 87:
		return BassPulsed
	default:
		return BassSilent
	}
}

// Bass is the triangle-synth bass voice driven by the bar state
// machine.
type Bass struct {
	osc *dsp.Oscillator
	env *dsp.Envelope

	mode       BassMode
	lastBar    int
	sampleRate float64

	pulseTimerS  float64
	pendingPulse int // number of remaining eighth-note pulses this bar
}

func NewBass(sampleRate float64) *Bass {
	b := &Bass{sampleRate: sampleRate, lastBar: -1}
	b.osc = dsp.NewOscillator(dsp.WaveTriangle, 55, sampleRate)
	b.env = dsp.NewEnvelope(b.osc, sampleRate)
	return b
}

// Advance updates the bass state machine for bar/time t, switching
// envelope preset on bar change and scheduling the "dmm dmm" pulses for
// pulsed bars (spec.md §4.9).
func (b *Bass) Advance(bar int, beatInBar float64) {
	mode := bassModeForBar(bar)
	if bar != b.lastBar {
		b.lastBar = bar
		b.mode = mode
		switch mode {
		case BassSustained:
			b.env.AttackS = 0.05
			b.env.DecayS = 0.2
			b.env.SustainLevel = 0.8
			b.env.ReleaseS = 0.3
			b.env.Trigger()
		case BassPulsed:
			b.env.AttackS = 0.005
			b.env.DecayS = 0.15
			b.env.SustainLevel = 0
			b.env.ReleaseS = 0.05
		case BassSilent:
			b.env.Release()
		}
	}

	if mode == BassPulsed {
		if beatInBar >= 1 && beatInBar < 1.02 {
			b.env.Trigger()
		}
		if beatInBar >= 1.5 && beatInBar < 1.52 {
			b.env.Trigger()
		}
	}
}

func (b *Bass) Stream(samples [][2]float64) (int, bool) { return b.env.Stream(samples) }
func (b *Bass) Err() error                               { return b.env.Err() }

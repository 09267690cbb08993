package matrix

import (
	"math"
	"math/rand"

	"github.com/rainydesk/engine/internal/dsp"
)

// GlitchConfig mirrors spec.md §6's matrix.glitch.* configuration
// surface.
type GlitchConfig struct {
	Probability    float64
	Bits           int
	SampleRateDrop float64 // 0..1, fraction of samples held (bitcrusher-style downsample)
}

// bitcrush quantises v to Config.Bits and optionally holds samples to
// emulate a sample-rate drop, the simplest general-purpose realisation
// of the "bitcrusher" DSP primitive spec.md §6 assumes is available.
type bitcrush struct {
	cfg     GlitchConfig
	held    float64
	counter float64
}

func (b *bitcrush) process(v float64) float64 {
	hold := 1 - b.cfg.SampleRateDrop
	if hold <= 0 {
		hold = 1
	}
	b.counter += hold
	if b.counter >= 1 {
		b.counter -= 1
		levels := math.Pow(2, float64(max(1, b.cfg.Bits)))
		b.held = math.Round(v*levels/2) / (levels / 2)
	}
	return b.held
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// GlitchVoice is the short on-beat noise burst through the bitcrusher
// (spec.md §4.9's on-beat collision response).
type GlitchVoice struct {
	noise *dsp.Noise
	env   *dsp.Envelope
	crush *bitcrush
	rng   *rand.Rand
}

func NewGlitchVoice(cfg GlitchConfig, sampleRate float64, seed int64) *GlitchVoice {
	g := &GlitchVoice{rng: rand.New(rand.NewSource(seed))}
	g.noise = dsp.NewNoise(dsp.NoiseWhite, seed)
	g.env = dsp.NewEnvelope(g.noise, sampleRate)
	g.env.AttackS = 0.001
	g.env.DecayS = 0.05
	g.env.SustainLevel = 0
	g.crush = &bitcrush{cfg: cfg}
	return g
}

// MaybeTrigger fires the burst with cfg.Probability chance (spec.md
// §4.9: on-beat collisions trigger "a short noise burst (50ms) through a
// bitcrusher").
func (g *GlitchVoice) MaybeTrigger(cfg GlitchConfig) bool {
	g.crush.cfg = cfg
	if g.rng.Float64() >= cfg.Probability {
		return false
	}
	g.env.Trigger()
	return true
}

func (g *GlitchVoice) Active() bool { return !g.env.Done() }
func (g *GlitchVoice) Release()     { g.env.Release() }
func (g *GlitchVoice) Reset()       { g.env.Release() }

func (g *GlitchVoice) Stream(samples [][2]float64) (int, bool) {
	n, ok := g.env.Stream(samples)
	for i := 0; i < n; i++ {
		v := g.crush.process(samples[i][0])
		samples[i][0] = v
		samples[i][1] = v
	}
	return n, ok
}

func (g *GlitchVoice) Err() error { return nil }

// NoteVoice is the square-wave note at the chord-advanced pitch fired
// alongside the glitch burst on-beat.
type NoteVoice struct {
	osc *dsp.Oscillator
	env *dsp.Envelope
}

func NewNoteVoice(sampleRate float64) *NoteVoice {
	n := &NoteVoice{}
	n.osc = dsp.NewOscillator(dsp.WaveSquare, 220, sampleRate)
	n.env = dsp.NewEnvelope(n.osc, sampleRate)
	n.env.AttackS = 0.002
	n.env.DecayS = 0.12
	n.env.SustainLevel = 0
	return n
}

func (n *NoteVoice) Trigger(freqHz float64) {
	n.osc.FreqHz = freqHz
	n.osc.Reset()
	n.env.Trigger()
}

func (n *NoteVoice) Active() bool { return !n.env.Done() }
func (n *NoteVoice) Release()     { n.env.Release() }
func (n *NoteVoice) Reset()       { n.env.Release() }

func (n *NoteVoice) Stream(samples [][2]float64) (int, bool) { return n.env.Stream(samples) }
func (n *NoteVoice) Err() error                              { return nil }

// NoteFrequency converts a note name like "G3" to Hz (A4 = 440Hz,
// standard 12-TET).
func NoteFrequency(name string) float64 {
	letter, octave, ok := splitNote(name)
	if !ok {
		return 0
	}
	semi, ok := noteSemitone[letter]
	if !ok {
		return 0
	}
	midi := (octave+1)*12 + semi
	return 440 * math.Pow(2, float64(midi-69)/12)
}

package dsp

import (
	"math"

	"github.com/gopxl/beep"
)

// Compressor is a feed-forward peak-detector dynamics processor: a
// downward compressor above ThresholdDb at Ratio:1, with independent
// attack/release smoothing of the gain-reduction envelope. The same
// shape also serves as a limiter when Ratio is set very high (spec.md
// §4.10's master limiter). No example repo in the pack ships a
// dynamics processor, so this is a from-scratch streaming primitive
// built in the same RBJ-cookbook style as Biquad rather than adopted
// from elsewhere in the corpus.
type Compressor struct {
	Source beep.Streamer

	ThresholdDb float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64

	sampleRate float64
	envelope   float64 // linear, smoothed peak follower
	gainDb     float64
}

func NewCompressor(src beep.Streamer, sampleRate float64) *Compressor {
	return &Compressor{
		Source:      src,
		ThresholdDb: 0,
		Ratio:       1,
		AttackMs:    10,
		ReleaseMs:   100,
		sampleRate:  sampleRate,
	}
}

func (c *Compressor) coef(ms float64) float64 {
	if ms <= 0 {
		return 0
	}
	return math.Exp(-1 / (ms / 1000 * c.sampleRate))
}

// ProcessStereo runs one stereo sample through the compressor's shared
// envelope/gain-reduction state, for callers (like internal/audio/bus)
// that already hold a materialized sample block rather than a Source
// Streamer to wrap.
func (c *Compressor) ProcessStereo(l, r float64) (float64, float64) {
	mono := math.Max(math.Abs(l), math.Abs(r))
	c.processSample(mono)
	g := DbToLinear(c.gainDb)
	return l * g, r * g
}

func (c *Compressor) processSample(in float64) float64 {
	peak := math.Abs(in)
	ac := c.coef(c.AttackMs)
	rc := c.coef(c.ReleaseMs)
	if peak > c.envelope {
		c.envelope = ac*c.envelope + (1-ac)*peak
	} else {
		c.envelope = rc*c.envelope + (1-rc)*peak
	}

	inputDb := LinearToDb(c.envelope)
	overDb := inputDb - c.ThresholdDb
	targetGainDb := 0.0
	if overDb > 0 && c.Ratio > 1 {
		targetGainDb = -overDb * (1 - 1/c.Ratio)
	}
	c.gainDb = targetGainDb
	return in * DbToLinear(c.gainDb)
}

func (c *Compressor) Stream(samples [][2]float64) (int, bool) {
	n, ok := c.Source.Stream(samples)
	for i := 0; i < n; i++ {
		l := samples[i][0]
		r := samples[i][1]
		mono := math.Max(math.Abs(l), math.Abs(r))
		_ = c.processSample(mono) // update shared envelope/gain from the louder channel
		g := DbToLinear(c.gainDb)
		samples[i][0] = l * g
		samples[i][1] = r * g
	}
	return n, ok
}

func (c *Compressor) Err() error { return c.Source.Err() }

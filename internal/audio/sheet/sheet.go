// Package sheet implements the density-modulated continuous noise bed
// spec.md §4.5 describes: a single filtered noise source whose volume
// tracks live particle count, ramped (not stepped) to avoid zipper
// noise, with true silence below a density floor. Grounded on the
// teacher's resource-field continuous-signal update loop
// (systems/resource_field.go), generalized from a scalar field sample
// to an audio gain ramp.
package sheet

import (
	"github.com/rainydesk/engine/internal/dsp"
)

// Config mirrors spec.md §6's sheets[].* configuration surface.
type Config struct {
	Enabled          bool
	NoiseType        dsp.NoiseColor
	FilterFreq       float64
	FilterQ          float64
	MinVolumeDb      float64
	MaxVolumeDb      float64
	MaxParticleCount int
	RampTimeS        float64
	Stereo           StereoConfig
}

// StereoConfig models spec.md §6's sheets[].stereo.* widening LFOs.
type StereoConfig struct {
	Width    float64
	LfoRateL float64
	LfoRateR float64
	LfoDepth float64
}

// Layer is one sheet-layer instance.
type Layer struct {
	noise  *dsp.Noise
	filter *dsp.Biquad
	gain   *dsp.Gain
	lfoL   *dsp.Oscillator
	lfoR   *dsp.Oscillator

	cfg        Config
	sampleRate float64
}

// New constructs a sheet layer at the given sample rate, seeded
// independently of other noise sources.
func New(cfg Config, sampleRate float64, seed int64) *Layer {
	l := &Layer{cfg: cfg, sampleRate: sampleRate}
	l.noise = dsp.NewNoise(cfg.NoiseType, seed)
	l.filter = dsp.NewBiquad(l.noise, sampleRate)
	l.filter.Configure(dsp.LowPass, cfg.FilterFreq, cfg.FilterQ, 0)
	l.gain = dsp.NewGain(l.filter, 0, sampleRate, cfg.RampTimeS*1000)
	l.lfoL = dsp.NewOscillator(dsp.WaveSine, cfg.Stereo.LfoRateL, sampleRate)
	l.lfoR = dsp.NewOscillator(dsp.WaveSine, cfg.Stereo.LfoRateR, sampleRate)
	return l
}

// SetConfig applies a live config update. Changing NoiseType restarts the
// underlying source silently (spec.md §4.5); filter frequency/Q update
// in place without a restart.
func (l *Layer) SetConfig(cfg Config) {
	restartNoise := cfg.NoiseType != l.cfg.NoiseType
	l.cfg = cfg
	if restartNoise {
		l.noise.Color = cfg.NoiseType
	}
	l.filter.Configure(dsp.LowPass, cfg.FilterFreq, cfg.FilterQ, 0)
	l.lfoL.FreqHz = cfg.Stereo.LfoRateL
	l.lfoR.FreqHz = cfg.Stereo.LfoRateR
}

// SetParticleCount ramps volume to lerp(minVol, maxVol,
// min(1, particleCount/maxParticleCount)), going to true silence when
// the ratio drops below 0.001 (spec.md §4.5).
func (l *Layer) SetParticleCount(particleCount int) {
	if !l.cfg.Enabled || l.cfg.MaxParticleCount <= 0 {
		l.gain.Target.Store(0)
		return
	}
	ratio := float64(particleCount) / float64(l.cfg.MaxParticleCount)
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0.001 {
		l.gain.Target.Store(0)
		return
	}
	volDb := l.cfg.MinVolumeDb + (l.cfg.MaxVolumeDb-l.cfg.MinVolumeDb)*ratio
	l.gain.Target.Store(float32(dsp.DbToLinear(volDb)))
}

// Stream renders the layer with a subtle stereo-widening LFO applied
// independently to each channel (spec.md §6's sheets[].stereo.*).
func (l *Layer) Stream(samples [][2]float64) (int, bool) {
	n, ok := l.gain.Stream(samples)
	depth := l.cfg.Stereo.LfoDepth
	width := l.cfg.Stereo.Width
	for i := 0; i < n; i++ {
		modL := 1 + l.lfoL.Next()*depth
		modR := 1 + l.lfoR.Next()*depth
		mono := samples[i][0]
		samples[i][0] = mono * modL * (1 - width/2)
		samples[i][1] = mono * modR * (1 + width/2)
	}
	return n, ok
}

func (l *Layer) Err() error { return l.gain.Err() }

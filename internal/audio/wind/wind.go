// Package wind implements the five-layer wind module spec.md §4.7
// describes: bed, gust scheduler, aeolian tone bank, singing-wind
// formant filter, and katabatic sub-bass — each independently gated and
// mixed into one module gain. Grounded on the teacher's layered
// scalar-field update loop (systems/resource_field.go), generalized
// from a single diffusing field to five independently clocked DSP
// layers sharing one speed parameter.
package wind

import (
	"math"
	"math/rand"

	"github.com/rainydesk/engine/internal/dsp"
)

// Config mirrors spec.md §6's wind[].* configuration surface.
type Config struct {
	Enabled bool

	Bed struct {
		Enabled    bool
		HpfHz      float64
		LpfHz      float64
		LfoDepthHz float64
		LfoRateHz  float64
		GainDb     float64
	}
	Gust struct {
		Enabled      bool
		MinInterval  float64
		MaxInterval  float64
		LpfHz        float64
		GainDb       float64
	}
	Aeolian struct {
		Enabled     bool
		Harmonics   int
		StrouhalNum float64
		DiameterMm  float64
		GainDb      float64
	}
	Singing struct {
		Enabled bool
		GainDb  float64
		Formants [5]float64
	}
	Katabatic struct {
		Enabled   bool
		LpfHz     float64
		SurgeRate float64
		GainDb    float64
	}

	SpeedPercent float64 // 0..100
	ModuleGainDb float64
}

var formantQs = [5]float64{8, 10, 12, 14, 16}

func defaultFormants(cfg Config) [5]float64 {
	if cfg.Singing.Formants == ([5]float64{}) {
		return [5]float64{300, 900, 2200, 3000, 3700}
	}
	return cfg.Singing.Formants
}

// Module is one wind-module instance mixing its five layers.
type Module struct {
	cfg Config

	bedNoise  *dsp.Noise
	bedHpf    *dsp.Biquad
	bedLpf    *dsp.Biquad
	bedLfo    *dsp.Oscillator

	gustNoise *dsp.Noise
	gustLpf   *dsp.Biquad
	gustEnv   *dsp.Envelope
	gustTimer float64
	gustRng   *rand.Rand

	aeolianOscs []*dsp.Oscillator

	singingNoise   *dsp.Noise
	singingFilters [5]*dsp.Biquad
	singingFreqs   [5]float64

	katabaticNoise *dsp.Noise
	katabaticLpf   *dsp.Biquad
	katabaticLfo   *dsp.Oscillator

	sampleRate float64
}

// New constructs a wind module with the given harmonic count
// pre-allocated (resizing the oscillator bank at runtime is not
// supported; harmonicCount is fixed at construction like the pack's
// fixed voice-pool sizing).
func New(cfg Config, sampleRate float64, seed int64) *Module {
	m := &Module{cfg: cfg, sampleRate: sampleRate}

	m.bedNoise = dsp.NewNoise(dsp.NoiseWhite, seed)
	m.bedHpf = dsp.NewBiquad(m.bedNoise, sampleRate)
	m.bedHpf.Configure(dsp.HighPass, cfg.Bed.HpfHz, 0.707, 0)
	m.bedLpf = dsp.NewBiquad(m.bedHpf, sampleRate)
	m.bedLpf.Configure(dsp.LowPass, cfg.Bed.LpfHz, 0.707, 0)
	m.bedLfo = dsp.NewOscillator(dsp.WaveSine, cfg.Bed.LfoRateHz, sampleRate)

	m.gustNoise = dsp.NewNoise(dsp.NoiseBrown, seed+1)
	m.gustLpf = dsp.NewBiquad(m.gustNoise, sampleRate)
	m.gustLpf.Configure(dsp.LowPass, cfg.Gust.LpfHz, 0.707, 0)
	m.gustEnv = dsp.NewEnvelope(m.gustLpf, sampleRate)
	m.gustEnv.SustainLevel = 0
	m.gustRng = rand.New(rand.NewSource(seed + 2))
	m.scheduleNextGust()

	harmonics := cfg.Aeolian.Harmonics
	if harmonics <= 0 {
		harmonics = 3
	}
	m.aeolianOscs = make([]*dsp.Oscillator, harmonics)
	for i := range m.aeolianOscs {
		m.aeolianOscs[i] = dsp.NewOscillator(dsp.WaveSine, 200, sampleRate)
	}

	m.singingFreqs = defaultFormants(cfg)
	m.singingNoise = dsp.NewNoise(dsp.NoisePink, seed+3)
	for i := range m.singingFilters {
		m.singingFilters[i] = dsp.NewBiquad(m.singingNoise, sampleRate)
		m.singingFilters[i].Configure(dsp.BandPass, m.singingFreqs[i], formantQs[i], 0)
	}

	m.katabaticNoise = dsp.NewNoise(dsp.NoiseBrown, seed+4)
	m.katabaticLpf = dsp.NewBiquad(m.katabaticNoise, sampleRate)
	m.katabaticLpf.Configure(dsp.LowPass, cfg.Katabatic.LpfHz, 0.707, 0)
	m.katabaticLfo = dsp.NewOscillator(dsp.WaveSine, cfg.Katabatic.SurgeRate, sampleRate)

	return m
}

// SetConfig applies a live config update, recomputing filter
// coefficients from the new cutoffs.
func (m *Module) SetConfig(cfg Config) {
	m.cfg = cfg
	m.singingFreqs = defaultFormants(cfg)
	m.bedHpf.Configure(dsp.HighPass, cfg.Bed.HpfHz, 0.707, 0)
	m.bedLpf.Configure(dsp.LowPass, cfg.Bed.LpfHz, 0.707, 0)
	m.bedLfo.FreqHz = cfg.Bed.LfoRateHz
	m.gustLpf.Configure(dsp.LowPass, cfg.Gust.LpfHz, 0.707, 0)
	m.katabaticLpf.Configure(dsp.LowPass, cfg.Katabatic.LpfHz, 0.707, 0)
	m.katabaticLfo.FreqHz = cfg.Katabatic.SurgeRate
}

// speedMS rescales SpeedPercent (0..100) internally to m/s (0..30),
// spec.md §4.7.
func (m *Module) speedMS() float64 {
	return clamp01(m.cfg.SpeedPercent/100) * 30
}

func (m *Module) scheduleNextGust() {
	lo, hi := m.cfg.Gust.MinInterval, m.cfg.Gust.MaxInterval
	if hi <= lo {
		hi = lo + 1
	}
	m.gustTimer = lo + m.gustRng.Float64()*(hi-lo)
}

// Advance steps per-block state that isn't purely per-sample: the gust
// scheduler's event clock.
func (m *Module) Advance(dt float64) {
	if !m.cfg.Gust.Enabled {
		return
	}
	m.gustTimer -= dt
	if m.gustTimer <= 0 {
		intensity := clamp01(m.speedMS() / 30)
		m.gustEnv.AttackS = 0.3 + m.gustRng.Float64()*0.7*(1-intensity)
		m.gustEnv.DecayS = 1 + m.gustRng.Float64()*2*(1-intensity)
		m.gustEnv.SustainLevel = 0
		m.gustEnv.Trigger()
		m.scheduleNextGust()
	}
}

func (m *Module) bedSample() float64 {
	if !m.cfg.Bed.Enabled {
		return 0
	}
	lfo := m.bedLfo.Next()
	m.bedLpf.Configure(dsp.LowPass, m.cfg.Bed.LpfHz+lfo*m.cfg.Bed.LfoDepthHz, 0.707, 0)
	boost := m.speedMS() / 30 * 12
	return m.bedLpf.ProcessMono(m.bedHpf.ProcessMono(m.bedNoise.Next())) * dsp.DbToLinear(m.cfg.Bed.GainDb+boost)
}

func (m *Module) gustSample() float64 {
	if !m.cfg.Gust.Enabled {
		return 0
	}
	raw := m.gustLpf.ProcessMono(m.gustNoise.Next())
	buf := [][2]float64{{raw, raw}}
	m.gustEnv.Stream(buf)
	return buf[0][0] * dsp.DbToLinear(m.cfg.Gust.GainDb)
}

func (m *Module) aeolianSample() float64 {
	if !m.cfg.Aeolian.Enabled {
		return 0
	}
	speed := m.speedMS()
	diameter := m.cfg.Aeolian.DiameterMm / 1000
	if diameter <= 0 {
		diameter = 0.002
	}
	fundamental := m.cfg.Aeolian.StrouhalNum * speed / diameter
	sum := 0.0
	for h, osc := range m.aeolianOscs {
		osc.FreqHz = fundamental * float64(h+1)
		sum += osc.Next()
	}
	if len(m.aeolianOscs) > 0 {
		sum /= float64(len(m.aeolianOscs))
	}
	return sum * math.Min(1, speed/15) * dsp.DbToLinear(m.cfg.Aeolian.GainDb)
}

func (m *Module) singingSample() float64 {
	if !m.cfg.Singing.Enabled {
		return 0
	}
	shift := 1 + (m.speedMS()/30)*0.3
	src := m.singingNoise.Next()
	sum := 0.0
	for i, f := range m.singingFilters {
		f.Configure(dsp.BandPass, m.singingFreqs[i]*shift, formantQs[i], 0)
		sum += f.ProcessMono(src)
	}
	return sum / float64(len(m.singingFilters)) * dsp.DbToLinear(m.cfg.Singing.GainDb)
}

func (m *Module) katabaticSample() float64 {
	if !m.cfg.Katabatic.Enabled {
		return 0
	}
	lfo := (m.katabaticLfo.Next() + 1) / 2 // 0..1
	gate := 0.3 + lfo*0.7
	return m.katabaticLpf.ProcessMono(m.katabaticNoise.Next()) * gate * dsp.DbToLinear(m.cfg.Katabatic.GainDb)
}

func (m *Module) Stream(samples [][2]float64) (int, bool) {
	if !m.cfg.Enabled {
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	}
	moduleGain := dsp.DbToLinear(m.cfg.ModuleGainDb)
	dt := 1.0 / m.sampleRate
	for i := range samples {
		m.Advance(dt)
		v := (m.bedSample() + m.gustSample() + m.aeolianSample() + m.singingSample() + m.katabaticSample()) * moduleGain
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

func (m *Module) Err() error { return nil }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

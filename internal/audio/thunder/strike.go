package thunder

import (
	"math"
	"math/rand"

	"github.com/gopxl/beep"

	"github.com/rainydesk/engine/internal/dsp"
)

// LayerFlags lets configuration force-disable a sub-model even when
// distance would otherwise enable it (spec.md §6 "layer flags").
type LayerFlags struct {
	Deepener   bool
	Afterimage bool
	Rumbler    bool
	Crackle    bool
	Lightning  bool
}

// Strike is one thunder event: a fixed set of sub-models running for a
// bounded, distance-stretched duration, summed, master-filtered and
// scaled, then split into a dry path and a convolved wet path.
type Strike struct {
	sampleRate float64
	distanceKm float64
	elapsedS   float64
	durationS  float64
	masterVol  float64

	deepenerEnabled   bool
	afterimageEnabled bool
	rumblerEnabled    bool
	crackleEnabled    bool
	lightningEnabled  bool

	// Deepener
	deepNoise          *dsp.Noise
	deepLp1, deepHp, deepLp2 *dsp.Biquad
	deepEnv            *nSegmentEnvelope

	// Afterimage
	afterNoiseA, afterNoiseB *dsp.Noise
	afterSweep               *dsp.Biquad
	afterBand                *dsp.Biquad
	afterEnv                 *nSegmentEnvelope

	// Rumbler
	rumbleFBmA, rumbleFBmB *dsp.FBm
	rumbleLpf              *dsp.Biquad
	rumblePhasor           *dsp.Phasor
	rumbleSH               *dsp.SampleAndHold
	rumbleHpf              *dsp.Biquad
	rumbleEnv              *nSegmentEnvelope
	rumbleTs               float64

	// Pre-strike crackle
	crackleNoise   *dsp.FBm
	crackleRng     *rand.Rand
	crackleNextS   float64
	crackleQuarter int
	cracklePanRng  *rand.Rand

	// Lightning
	strokes []*stroke

	// Master
	masterLpf  *dsp.Biquad
	sweepStart, sweepEnd, sweepTimeS float64

	duckAmount, duckAttack, duckRelease float64
	duckFired bool

	wetRatio  float64
	ir        *beep.Buffer
	convolver *dsp.Convolver

	rng *rand.Rand
}

// stroke is one lightning return stroke (spec.md §4.8 "Lightning").
type stroke struct {
	offsetS  float64
	snapEnv  *nSegmentEnvelope
	thumpEnv *nSegmentEnvelope
	boomEnv  *nSegmentEnvelope
	boomOffsetS float64
	snapLpf  *dsp.Biquad
	thumpLpf *dsp.Biquad
	boomOsc  *dsp.Oscillator
	noise    *dsp.Noise
	bpBanks  [4]*dsp.Biquad
	bpStart, bpEnd [4]float64
	bpDecay  [4]float64
	secondary bool
}

// nSegmentEnvelope linearly interpolates through an arbitrary list of
// (time, level) breakpoints, the shape spec.md §4.8 calls a
// "nine-segment" or "ten-segment" envelope, time-stretched by a single
// scale factor.
type nSegmentEnvelope struct {
	times  []float64
	levels []float64
	scale  float64
}

func newSegmentEnvelope(times, levels []float64, scale float64) *nSegmentEnvelope {
	return &nSegmentEnvelope{times: times, levels: levels, scale: scale}
}

func (e *nSegmentEnvelope) at(elapsedS float64) float64 {
	t := elapsedS / e.scale
	if len(e.times) == 0 {
		return 0
	}
	if t <= e.times[0] {
		return e.levels[0]
	}
	for i := 1; i < len(e.times); i++ {
		if t <= e.times[i] {
			span := e.times[i] - e.times[i-1]
			if span <= 0 {
				return e.levels[i]
			}
			frac := (t - e.times[i-1]) / span
			return e.levels[i-1] + (e.levels[i]-e.levels[i-1])*frac
		}
	}
	return e.levels[len(e.levels)-1]
}

func (e *nSegmentEnvelope) done(elapsedS float64) bool {
	return elapsedS/e.scale > e.times[len(e.times)-1]
}

func nineSegmentEnvelope(scale float64) *nSegmentEnvelope {
	return newSegmentEnvelope(
		[]float64{0, 0.05, 0.15, 0.3, 0.5, 0.7, 0.85, 0.95, 1.0},
		[]float64{0, 1, 0.8, 0.9, 0.6, 0.4, 0.2, 0.08, 0},
		scale,
	)
}

func tenSegmentEnvelope(scale float64) *nSegmentEnvelope {
	return newSegmentEnvelope(
		[]float64{0, 0.04, 0.1, 0.2, 0.35, 0.5, 0.65, 0.8, 0.92, 1.0},
		[]float64{0, 1, 0.85, 0.9, 0.7, 0.55, 0.4, 0.25, 0.1, 0},
		scale,
	)
}

// newStrike constructs a strike and decides which sub-models fire based
// on distance (spec.md §4.8, testable property "distance bands").
func newStrike(cfg StrikeConfig, manifest IRManifest, irc *irCache, sampleRate float64, seed int64) *Strike {
	rng := rand.New(rand.NewSource(seed))
	dist := cfg.Distance * (1 + (rng.Float64()*0.3-0.15))
	if dist < 0.5 {
		dist = 0.5
	}
	if dist > 15 {
		dist = 15
	}

	s := &Strike{
		sampleRate: sampleRate,
		distanceKm: dist,
		rng:        rng,
		masterVol:  0.5 + rng.Float64(),
	}

	s.deepenerEnabled = cfg.Flags.Deepener
	s.afterimageEnabled = cfg.Flags.Afterimage
	s.rumblerEnabled = cfg.Flags.Rumbler && dist <= 10
	s.crackleEnabled = cfg.Flags.Crackle && dist < 3
	s.lightningEnabled = cfg.Flags.Lightning && dist <= 5

	timeStretch := 1 + dist*0.15

	if s.deepenerEnabled {
		s.deepNoise = dsp.NewNoise(dsp.NoiseWhite, seed+1)
		s.deepLp1 = dsp.NewBiquad(nil, sampleRate)
		s.deepLp1.Configure(dsp.LowPass, 60, 0.707, 0)
		s.deepHp = dsp.NewBiquad(nil, sampleRate)
		s.deepHp.Configure(dsp.HighPass, 30, 0.707, 0)
		s.deepLp2 = dsp.NewBiquad(nil, sampleRate)
		s.deepLp2.Configure(dsp.LowPass, 120, 0.707, 0)
		s.deepEnv = nineSegmentEnvelope(14 * timeStretch)
	}

	if s.afterimageEnabled {
		s.afterNoiseA = dsp.NewNoise(dsp.NoiseWhite, seed+2)
		s.afterNoiseB = dsp.NewNoise(dsp.NoiseWhite, seed+3)
		s.afterSweep = dsp.NewBiquad(nil, sampleRate)
		s.afterSweep.Configure(dsp.LowPass, 33, 0.707, 0)
		s.afterBand = dsp.NewBiquad(nil, sampleRate)
		s.afterBand.Configure(dsp.BandPass, 333, 4, 0)
		s.afterEnv = tenSegmentEnvelope(14 * timeStretch)
	}

	if s.rumblerEnabled {
		s.rumbleFBmA = dsp.NewFBm(0.5, seed+4)
		s.rumbleFBmB = dsp.NewFBm(0.5, seed+5)
		s.rumbleLpf = dsp.NewBiquad(nil, sampleRate)
		s.rumbleHpf = dsp.NewBiquad(nil, sampleRate)
		s.rumbleHpf.Configure(dsp.HighPass, 300, 9, 0)
		s.rumblePhasor = dsp.NewPhasor(2, sampleRate)
		s.rumbleSH = dsp.NewSampleAndHold(2, sampleRate, rng.Float64)
		s.rumbleEnv = nineSegmentEnvelope(14 * timeStretch)
		s.rumbleTs = timeStretch
	}

	if s.crackleEnabled {
		s.crackleNoise = dsp.NewFBm(0.6, seed+6)
		s.crackleRng = rand.New(rand.NewSource(seed + 7))
		s.cracklePanRng = rand.New(rand.NewSource(seed + 8))
		s.crackleNextS = 0.2 + s.crackleRng.Float64()*0.6
	}

	if s.lightningEnabled {
		numStrikes := 1
		switch {
		case cfg.Storminess > 70 && dist < 2:
			numStrikes = 1 + rng.Intn(5)
		case cfg.Storminess > 40:
			numStrikes = 1 + rng.Intn(3)
		}
		for i := 0; i < numStrikes; i++ {
			s.strokes = append(s.strokes, newStroke(rng, dist, sampleRate, seed+int64(100+i)))
		}
	}

	s.masterLpf = dsp.NewBiquad(nil, sampleRate)
	s.sweepStart = 14000 / (1 + dist*0.5)
	s.sweepEnd = 80
	s.sweepTimeS = clampF(16.2-dist*0.5, 8, 16.2)
	s.masterLpf.Configure(dsp.LowPass, s.sweepStart, 0.707, 0)

	s.durationS = math.Max(s.sweepTimeS, 14*timeStretch) + 1

	switch {
	case dist < 2:
		s.duckAmount = 0.85
	case dist < 5:
		s.duckAmount = 0.6
	default:
		s.duckAmount = 0.3
	}
	s.duckAttack = 0.01
	s.duckRelease = 1.5 + dist*0.3

	s.wetRatio = clampF(0.2+(dist/15)*0.65, 0.2, 0.85)
	if buf, ok := irc.get(manifest, cfg.Environment, rng); ok {
		s.ir = buf
		s.convolver = dsp.NewConvolver(buf)
	}

	return s
}

func newStroke(rng *rand.Rand, dist, sampleRate float64, seed int64) *stroke {
	st := &stroke{
		offsetS: 0,
		noise:   dsp.NewNoise(dsp.NoiseBrown, seed),
	}
	st.snapLpf = dsp.NewBiquad(nil, sampleRate)
	st.snapLpf.Configure(dsp.LowPass, 2000, 0.707, 0)
	st.snapEnv = newSegmentEnvelope([]float64{0, 0.3, 1}, []float64{0, 1, 0}, 0.025+rng.Float64()*0.035)

	st.thumpLpf = dsp.NewBiquad(nil, sampleRate)
	st.thumpLpf.Configure(dsp.LowPass, 2000, 0.707, 0)
	st.thumpEnv = newSegmentEnvelope([]float64{0, 0.2, 1}, []float64{0, 1, 0}, 0.8)

	st.boomOsc = dsp.NewOscillator(dsp.WaveSine, 60+rng.Float64()*240, sampleRate)
	st.boomOffsetS = 0.2 + rng.Float64()*0.35
	decayBase := 240 * math.Pow(1.4-0.5, 5) * 2.5 / 1000
	if decayBase < 0.15 {
		decayBase = 0.15
	}
	st.boomEnv = newSegmentEnvelope([]float64{0, 0.1, 1}, []float64{0, 1, 0}, decayBase+rng.Float64()*0.3)

	for i := 0; i < 4; i++ {
		f := 200 + rng.Float64()*2000
		st.bpBanks[i] = dsp.NewBiquad(nil, sampleRate)
		st.bpBanks[i].Configure(dsp.BandPass, f, 6, 0)
		st.bpStart[i] = f
		st.bpEnd[i] = f / 2
		r := rng.Float64()
		decay := 240 * math.Pow(1.4-r, 5) * 2.5 / 1000
		if decay < 0.15 {
			decay = 0.15
		}
		st.bpDecay[i] = decay
	}
	st.secondary = rng.Float64() < 0.4
	return st
}

func (st *stroke) sample(t float64) float64 {
	out := 0.0
	if !st.snapEnv.done(t) {
		out += st.snapLpf.ProcessMono(st.noise.Next()) * st.snapEnv.at(t)
	}
	tThump := t
	if !st.thumpEnv.done(tThump) {
		sweep := 2000 - (2000-120)*math.Min(1, tThump/0.8)
		st.thumpLpf.Configure(dsp.LowPass, sweep, 0.707, 0)
		out += st.thumpLpf.ProcessMono(st.noise.Next()) * st.thumpEnv.at(tThump) * 0.8
	}
	tBoom := t - st.boomOffsetS
	if tBoom >= 0 && !st.boomEnv.done(tBoom) {
		out += st.boomOsc.Next() * st.boomEnv.at(tBoom) * 0.9
	}
	for i := range st.bpBanks {
		if st.bpDecay[i] <= 0 || t > st.bpDecay[i] {
			continue
		}
		frac := t / st.bpDecay[i]
		freq := st.bpStart[i] + (st.bpEnd[i]-st.bpStart[i])*frac
		st.bpBanks[i].Configure(dsp.BandPass, math.Max(40, freq), 8, 0)
		excite := st.noise.Next()
		out += st.bpBanks[i].ProcessMono(excite) * (1 - frac) * 0.5
	}
	if st.secondary {
		out *= 1.2
	}
	return out
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

package thunder

import (
	"math"
	"math/rand"
	"sync"

	"github.com/rainydesk/engine/internal/dsp"
)

// DuckFunc is the sidechain duck hook handed to external buses: amount
// in [0,1], attack/release in seconds (spec.md §4.8 "distance-dependent
// ducking").
type DuckFunc func(amount, attack, release float64)

// StrikeConfig is the live parameter set a strike is triggered with.
type StrikeConfig struct {
	Distance    float64
	Environment Environment
	Storminess  float64
	Flags       LayerFlags
}

// Config mirrors spec.md §6's thunder.* configuration surface.
type Config struct {
	MasterGainDb    float64
	Storminess      float64 // 0..100
	DistanceKm      float64 // 0.5..15
	Environment     Environment
	StrikeIntensity float64
	RumbleIntensity float64
	GrowlIntensity  float64
	Sidechain       SidechainConfig
	Flags           LayerFlags
}

type SidechainConfig struct {
	Enabled bool
	Ratio   float64
	Attack  float64
	Release float64
}

// Module owns the active set of strikes, the IR cache, and the
// auto-scheduling clock.
type Module struct {
	mu sync.Mutex

	cfg      Config
	manifest IRManifest
	irc      *irCache

	sampleRate float64
	rng        *rand.Rand
	seedCursor int64

	strikes []*Strike

	autoRunning  bool
	nextFireS    float64
	scheduledIDs map[int]bool
	nextID       int

	duck DuckFunc
}

// NewModule constructs a thunder module; loader decodes IR assets by
// name (asset directory layout is a host concern).
func NewModule(cfg Config, manifest IRManifest, loader IRLoader, sampleRate float64, seed int64, duck DuckFunc) *Module {
	return &Module{
		cfg:          cfg,
		manifest:     manifest,
		irc:          newIRCache(loader),
		sampleRate:   sampleRate,
		rng:          rand.New(rand.NewSource(seed)),
		seedCursor:   seed,
		scheduledIDs: make(map[int]bool),
		duck:         duck,
	}
}

func (m *Module) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// TriggerStrike fires one strike immediately using the module's current
// config (used by both manual triggers and the auto-scheduler).
func (m *Module) TriggerStrike() {
	m.mu.Lock()
	cfg := m.cfg
	m.seedCursor++
	seed := m.seedCursor
	m.mu.Unlock()

	strike := newStrike(StrikeConfig{
		Distance:    cfg.DistanceKm,
		Environment: cfg.Environment,
		Storminess:  cfg.Storminess,
		Flags:       cfg.Flags,
	}, m.manifest, m.irc, m.sampleRate, seed)

	if m.duck != nil {
		m.duck(strike.duckAmount, strike.duckAttack, strike.duckRelease)
	}

	m.mu.Lock()
	m.strikes = append(m.strikes, strike)
	m.mu.Unlock()
}

// StartAuto begins auto-scheduling strikes by storminess band (spec.md
// §4.8 "Auto scheduling"). Storminess 0 is a no-op (spec.md §8).
func (m *Module) StartAuto() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg.Storminess <= 0 {
		return
	}
	m.autoRunning = true
	m.nextFireS = m.nextIntervalLocked()
}

// StopAuto clears every pending scheduled strike id and halts the
// auto-scheduler; already-playing strikes continue to completion
// (spec.md §5 "Cancellation").
func (m *Module) StopAuto() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoRunning = false
	for id := range m.scheduledIDs {
		delete(m.scheduledIDs, id)
	}
}

func (m *Module) nextIntervalLocked() float64 {
	s := m.cfg.Storminess
	var lo, hi float64
	switch {
	case s <= 25:
		lo, hi = 90, 180
	case s <= 50:
		lo, hi = 45, 120
	case s <= 75:
		lo, hi = 20, 60
	default:
		lo, hi = 10, 30
	}
	base := lo + m.rng.Float64()*(hi-lo)
	jitter := base * (1 + (m.rng.Float64()*0.6 - 0.3))
	if jitter < 5 {
		jitter = 5
	}
	return jitter
}

// Advance steps the auto-scheduler clock and every active strike's
// elapsed time, retiring finished strikes.
func (m *Module) Advance(dt float64) {
	m.mu.Lock()
	if m.autoRunning {
		m.nextFireS -= dt
		if m.nextFireS <= 0 {
			id := m.nextID
			m.nextID++
			m.scheduledIDs[id] = true
			m.nextFireS = m.nextIntervalLocked()
			m.mu.Unlock()
			m.fireScheduled(id)
			m.mu.Lock()
		}
	}

	kept := m.strikes[:0]
	for _, s := range m.strikes {
		if s.elapsedS < s.durationS {
			kept = append(kept, s)
		}
	}
	m.strikes = kept
	m.mu.Unlock()
}

func (m *Module) fireScheduled(id int) {
	m.mu.Lock()
	if !m.scheduledIDs[id] {
		m.mu.Unlock()
		return // cancelled by StopAuto before it fired
	}
	delete(m.scheduledIDs, id)
	m.mu.Unlock()

	m.TriggerStrike()
}

// ActiveCount reports how many strikes are currently playing.
func (m *Module) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.strikes)
}

func (s *Strike) sample() float64 {
	t := s.elapsedS
	out := 0.0

	if s.deepenerEnabled && !s.deepEnv.done(t) {
		n := s.deepNoise.Next()
		n = s.deepLp1.ProcessMono(n)
		n = s.deepHp.ProcessMono(n)
		n = driveClip(n, 3)
		n = s.deepLp2.ProcessMono(n)
		out += n * s.deepEnv.at(t)
	}

	if s.afterimageEnabled && !s.afterEnv.done(t) {
		sweepFreq := 33 - (33-0)*math.Min(1, t/14)
		s.afterSweep.Configure(dsp.LowPass, math.Max(0.1, sweepFreq), 0.707, 0)
		mod := s.afterSweep.ProcessMono(s.afterNoiseA.Next())
		carrier := s.afterNoiseB.Next() * (0.5 + mod*0.5)
		out += s.afterBand.ProcessMono(carrier) * s.afterEnv.at(t) * 0.7
	}

	if s.rumblerEnabled && !s.rumbleEnv.done(t) {
		sweepFreq := 1000 - (1000-0.1)*math.Min(1, t/(14*s.rumbleTs))
		s.rumbleLpf.Configure(dsp.LowPass, math.Max(0.1, sweepFreq), 0.707, 0)
		pathA := s.rumbleLpf.ProcessMono(s.rumbleFBmA.Advance(0.01))
		posClip := math.Max(0, pathA)
		s.rumblePhasor.FreqHz = posClip + 1
		_, _ = s.rumblePhasor.Next()
		shVal := s.rumbleSH.Next()
		pathB := s.rumbleFBmB.Advance(0.01) * (0.5 + shVal*0.5)
		filtered := s.rumbleHpf.ProcessMono(pathB)
		out += filtered * s.rumbleEnv.at(t) * 0.6
	}

	if s.crackleEnabled && t < 0.8 {
		if t >= s.crackleNextS {
			impulse := s.crackleNoise.Advance(0.3) * 0.6
			out += impulse
			quarter := math.Min(3, math.Floor(t/0.2))
			rate := 0.05 / math.Pow(2, quarter)
			s.crackleNextS = t + rate*(0.5+s.crackleRng.Float64())
		}
		if t > 0.7 {
			out += s.crackleNoise.Advance(0.5) * 0.3
		}
	}

	if s.lightningEnabled {
		for _, st := range s.strokes {
			lt := t - st.offsetS
			if lt < 0 {
				continue
			}
			out += st.sample(lt)
		}
	}

	sweepFreq := s.sweepStart - (s.sweepStart-s.sweepEnd)*math.Min(1, t/s.sweepTimeS)
	s.masterLpf.Configure(dsp.LowPass, math.Max(40, sweepFreq), 0.707, 0)
	out = s.masterLpf.ProcessMono(out) * s.masterVol

	if s.convolver != nil {
		wet := s.convolver.ProcessMono(out)
		out = out*(1-s.wetRatio) + wet*s.wetRatio
	}

	return out
}

func driveClip(x, drive float64) float64 {
	x *= drive
	if x > 1 {
		x = 1
	}
	if x < -1 {
		x = -1
	}
	return x
}

func (m *Module) Stream(samples [][2]float64) (int, bool) {
	dt := 1.0 / m.sampleRate
	for i := range samples {
		m.Advance(dt)

		m.mu.Lock()
		strikes := m.strikes
		gainDb := m.cfg.MasterGainDb
		sum := 0.0
		for _, s := range strikes {
			sum += s.sample()
			s.elapsedS += dt
		}
		m.mu.Unlock()

		v := sum * dsp.DbToLinear(gainDb)
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

func (m *Module) Err() error { return nil }

package simgrid

import (
	"math"
	"sync/atomic"
)

// atomicF32 stores a float32 behind an atomic.Uint32 so parameter setters
// are atomic with respect to the next tick without requiring a mutex on
// the simulation hot path (spec.md §5 point 1).
type atomicF32 struct{ bits atomic.Uint32 }

func newAtomicF32(v float32) *atomicF32 {
	a := &atomicF32{}
	a.store(v)
	return a
}

func (a *atomicF32) store(v float32) { a.bits.Store(math.Float32bits(v)) }
func (a *atomicF32) load() float32   { return math.Float32frombits(a.bits.Load()) }

// Params holds the simulator's runtime-tunable parameters, each exposed
// through a pure setter per spec.md §4.1 (no tick is triggered by a
// setter call).
type Params struct {
	intensity      *atomicF32
	wind           *atomicF32 // windBase, horizontal px/s
	gravity        *atomicF32
	splashScale    *atomicF32
	turbulence     *atomicF32
	evaporation    *atomicF32
	dropMaxRadius  *atomicF32
	dropMinRadius  *atomicF32
	reverseGravity atomic.Bool
	slipThreshold  *atomicF32
	spawnRate      *atomicF32 // spawns/sec
}

func newParams() *Params {
	return &Params{
		intensity:     newAtomicF32(0.5),
		wind:          newAtomicF32(0),
		gravity:       newAtomicF32(420),
		splashScale:   newAtomicF32(1),
		turbulence:    newAtomicF32(20),
		evaporation:   newAtomicF32(1),
		dropMaxRadius: newAtomicF32(3),
		dropMinRadius: newAtomicF32(0.8),
		slipThreshold: newAtomicF32(0.85),
		spawnRate:     newAtomicF32(40),
	}
}

// SetIntensity stores the rain intensity, clamped to [0,1]. The
// simulator does not read it; the spawn rate is its own parameter.
func (s *Simulator) SetIntensity(v float32) { s.params.intensity.store(clampF32(v, 0, 1)) }

// SetWind sets the base horizontal wind speed in px/s, ± turbulence/2.
func (s *Simulator) SetWind(v float32) { s.params.wind.store(v) }

// SetGravity sets the downward acceleration in px/s².
func (s *Simulator) SetGravity(v float32) {
	if v < 0 {
		v = 0
	}
	s.params.gravity.store(v)
}

// SetSplashScale scales spawned splash particle counts/velocities.
func (s *Simulator) SetSplashScale(v float32) { s.params.splashScale.store(clampF32(v, 0, 4)) }

// SetTurbulence sets the per-tick velocity noise amplitude.
func (s *Simulator) SetTurbulence(v float32) { s.params.turbulence.store(clampF32(v, 0, 200)) }

// SetEvaporationRate scales the puddle evaporation probability.
func (s *Simulator) SetEvaporationRate(v float32) { s.params.evaporation.store(clampF32(v, 0, 10)) }

// SetDropMaxRadius bounds the spawn radius range's upper end.
func (s *Simulator) SetDropMaxRadius(v float32) {
	if v < 0.1 {
		v = 0.1
	}
	s.params.dropMaxRadius.store(v)
}

// SetDropMinRadius bounds the spawn radius range's lower end.
func (s *Simulator) SetDropMinRadius(v float32) {
	if v < 0.1 {
		v = 0.1
	}
	s.params.dropMinRadius.store(v)
}

// SetSlipThreshold sets the sideways-slip fraction above which a swept
// collision is not resolved: the drop passes the obstacle without an
// event instead of hitting its top face.
func (s *Simulator) SetSlipThreshold(v float32) { s.params.slipThreshold.store(clampF32(v, 0, 1)) }

// SetReverseGravity flips the simulation to rain "up" from the display
// floor toward the spawn line (used for the inverted desktop mode).
func (s *Simulator) SetReverseGravity(v bool) { s.params.reverseGravity.Store(v) }

// SetSpawnRate sets the spawn frequency in drops/sec.
func (s *Simulator) SetSpawnRate(v float32) {
	if v < 0 {
		v = 0
	}
	s.params.spawnRate.store(v)
}

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package telemetry collects rolling-window performance and simulation
// statistics and flushes them to CSV for offline analysis.
package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the per-tick breakdown recorded by PerfCollector.
const (
	PhasePhysics    = "physics"
	PhaseCollision  = "collision"
	PhaseDensitySync = "density_sync"
	PhaseAudioMix   = "audio_mix"
)

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window of ticks.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a collector averaging over windowSize ticks
// (e.g. 60 for one second of a 60 Hz tick loop).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a named phase, closing out the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick closes the final phase and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.currentPhases,
	}

	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics over the window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var totalTick time.Duration
	var minTick, maxTick time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalTick += s.TickDuration

		if i == 0 || s.TickDuration < minTick {
			minTick = s.TickDuration
		}
		if s.TickDuration > maxTick {
			maxTick = s.TickDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avgTick := totalTick / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avgTick > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgTick) * 100
		}
	}

	var ticksPerSec float64
	if avgTick > 0 {
		ticksPerSec = float64(time.Second) / float64(avgTick)
	}

	return PerfStats{
		AvgTickDuration: avgTick,
		MinTickDuration: minTick,
		MaxTickDuration: maxTick,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		TicksPerSecond:  ticksPerSec,
	}
}

// LogStats emits the stats as a structured log line.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}

	for _, phase := range []string{PhasePhysics, PhaseCollision, PhaseDensitySync, PhaseAudioMix} {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd       int64   `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	PhysicsPct      float64 `csv:"physics_pct"`
	CollisionPct    float64 `csv:"collision_pct"`
	DensitySyncPct  float64 `csv:"density_sync_pct"`
	AudioMixPct     float64 `csv:"audio_mix_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgTickUS:      s.AvgTickDuration.Microseconds(),
		MinTickUS:      s.MinTickDuration.Microseconds(),
		MaxTickUS:      s.MaxTickDuration.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		PhysicsPct:     s.PhasePct[PhasePhysics],
		CollisionPct:   s.PhasePct[PhaseCollision],
		DensitySyncPct: s.PhasePct[PhaseDensitySync],
		AudioMixPct:    s.PhasePct[PhaseAudioMix],
	}
}

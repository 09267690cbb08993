package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats is a flat snapshot of simulation and audio activity over one
// stats window, suitable for CSV export.
type WindowStats struct {
	WindowStartTick int64   `csv:"window_start_tick"`
	WindowEndTick   int64   `csv:"window_end_tick"`
	SimTimeSec      float64 `csv:"sim_time_sec"`

	Collisions     int `csv:"collisions"`
	BubbleTriggers int `csv:"bubble_triggers"`
	ThunderStrikes int `csv:"thunder_strikes"`
	MatrixBeats    int `csv:"matrix_beats"`

	AvgDropCount      float64 `csv:"avg_drop_count"`
	AvgPuddleCells    float64 `csv:"avg_puddle_cells"`
	ImpactVelocityMean float64 `csv:"impact_velocity_mean"`
	ImpactVelocityP10 float64 `csv:"impact_velocity_p10"`
	ImpactVelocityP50 float64 `csv:"impact_velocity_p50"`
	ImpactVelocityP90 float64 `csv:"impact_velocity_p90"`
}

// Collector accumulates per-tick events and samples within a window and
// produces a WindowStats on Flush, resetting its counters.
type Collector struct {
	windowDurationTicks int64
	dt                  float64

	windowStartTick int64

	collisions     int
	bubbleTriggers int
	thunderStrikes int
	matrixBeats    int

	dropCountSum   float64
	puddleCellsSum float64
	sampleCount    int

	impactVelocities []float64
}

// NewCollector creates a stats collector flushing every windowDurationSec
// of simulated time, given the fixed tick period dt in seconds.
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int64(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordCollision records one physics collision event and its velocity
// magnitude, used for the window's velocity distribution.
func (c *Collector) RecordCollision(velocity float64) {
	c.collisions++
	c.impactVelocities = append(c.impactVelocities, velocity)
}

// RecordBubbleTrigger records one bubble voice trigger.
func (c *Collector) RecordBubbleTrigger() { c.bubbleTriggers++ }

// RecordThunderStrike records one thunder strike trigger.
func (c *Collector) RecordThunderStrike() { c.thunderStrikes++ }

// RecordMatrixBeat records one matrix on/off-beat dispatch.
func (c *Collector) RecordMatrixBeat() { c.matrixBeats++ }

// RecordDensitySample accumulates a density reading taken once per tick.
func (c *Collector) RecordDensitySample(dropCount, puddleCells int) {
	c.dropCountSum += float64(dropCount)
	c.puddleCellsSum += float64(puddleCells)
	c.sampleCount++
}

// ShouldFlush reports whether enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 { return c.windowDurationTicks }

// Flush produces a WindowStats for the elapsed window and resets counters.
func (c *Collector) Flush(currentTick int64) WindowStats {
	mean, p10, p50, p90 := velocityStats(c.impactVelocities)

	var avgDrop, avgPuddle float64
	if c.sampleCount > 0 {
		avgDrop = c.dropCountSum / float64(c.sampleCount)
		avgPuddle = c.puddleCellsSum / float64(c.sampleCount)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Collisions:     c.collisions,
		BubbleTriggers: c.bubbleTriggers,
		ThunderStrikes: c.thunderStrikes,
		MatrixBeats:    c.matrixBeats,

		AvgDropCount:       avgDrop,
		AvgPuddleCells:     avgPuddle,
		ImpactVelocityMean: mean,
		ImpactVelocityP10:  p10,
		ImpactVelocityP50:  p50,
		ImpactVelocityP90:  p90,
	}

	c.windowStartTick = currentTick
	c.collisions = 0
	c.bubbleTriggers = 0
	c.thunderStrikes = 0
	c.matrixBeats = 0
	c.dropCountSum = 0
	c.puddleCellsSum = 0
	c.sampleCount = 0
	c.impactVelocities = nil

	return stats
}

// velocityStats computes the mean and 10th/50th/90th percentiles of a
// sample set via gonum/stat, which requires ascending-sorted input.
func velocityStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

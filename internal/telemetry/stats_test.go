package telemetry

import (
	"math"
	"testing"
)

func TestVelocityStats_Mean(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	mean, p10, p50, p90 := velocityStats(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if !(p10 <= p50 && p50 <= p90) {
		t.Errorf("expected p10 <= p50 <= p90, got %v %v %v", p10, p50, p90)
	}
	if p10 < values[0] || p90 > values[len(values)-1] {
		t.Errorf("expected quantiles within [%v, %v], got p10=%v p90=%v", values[0], values[len(values)-1], p10, p90)
	}
}

func TestVelocityStats_Empty(t *testing.T) {
	mean, p10, p50, p90 := velocityStats(nil)
	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollector_FlushResetsAndReportsCounts(t *testing.T) {
	c := NewCollector(1.0, 1.0/60.0)

	c.RecordCollision(5.0)
	c.RecordCollision(7.0)
	c.RecordBubbleTrigger()
	c.RecordThunderStrike()
	c.RecordMatrixBeat()
	c.RecordDensitySample(10, 3)
	c.RecordDensitySample(20, 5)

	if !c.ShouldFlush(c.WindowDurationTicks()) {
		t.Fatal("expected ShouldFlush to be true once windowDurationTicks have elapsed")
	}

	stats := c.Flush(c.WindowDurationTicks())

	if stats.Collisions != 2 {
		t.Errorf("expected 2 collisions, got %d", stats.Collisions)
	}
	if stats.BubbleTriggers != 1 {
		t.Errorf("expected 1 bubble trigger, got %d", stats.BubbleTriggers)
	}
	if stats.ThunderStrikes != 1 {
		t.Errorf("expected 1 thunder strike, got %d", stats.ThunderStrikes)
	}
	if stats.MatrixBeats != 1 {
		t.Errorf("expected 1 matrix beat, got %d", stats.MatrixBeats)
	}
	if math.Abs(stats.AvgDropCount-15) > 0.001 {
		t.Errorf("expected avg drop count 15, got %v", stats.AvgDropCount)
	}
	if math.Abs(stats.AvgPuddleCells-4) > 0.001 {
		t.Errorf("expected avg puddle cells 4, got %v", stats.AvgPuddleCells)
	}
	if math.Abs(stats.ImpactVelocityMean-6) > 0.001 {
		t.Errorf("expected impact velocity mean 6, got %v", stats.ImpactVelocityMean)
	}

	// Counters must reset for the next window.
	next := c.Flush(2 * c.WindowDurationTicks())
	if next.Collisions != 0 || next.BubbleTriggers != 0 || next.ThunderStrikes != 0 || next.MatrixBeats != 0 {
		t.Error("expected counters to reset after Flush")
	}
}

func TestCollector_ShouldFlushBeforeWindowElapses(t *testing.T) {
	c := NewCollector(1.0, 1.0/60.0)
	if c.ShouldFlush(1) {
		t.Error("expected ShouldFlush to be false before a full window has elapsed")
	}
}

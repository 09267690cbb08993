package dsp

import (
	"testing"

	"github.com/gopxl/beep"
)

func bufferOf(samples [][2]float64) *beep.Buffer {
	buf := beep.NewBuffer(beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2})
	buf.Append(newSliceStreamer(samples))
	return buf
}

// sliceStreamer feeds a fixed slice of samples through beep.Streamer once,
// matching the pattern other packages in this module use to build a
// Buffer from in-memory test fixtures rather than a decoded file.
type sliceStreamer [][2]float64

func (s *sliceStreamer) Stream(samples [][2]float64) (int, bool) {
	n := copy(samples, *s)
	*s = (*s)[n:]
	return n, n > 0
}

func (s *sliceStreamer) Err() error { return nil }

func newSliceStreamer(samples [][2]float64) beep.Streamer {
	s := sliceStreamer(samples)
	return &s
}

func TestNewConvolver_NilOrEmptyBufferIsPassThrough(t *testing.T) {
	c := NewConvolver(nil)
	if got := c.ProcessMono(0.42); got != 0.42 {
		t.Errorf("expected a nil IR to pass the dry sample through unchanged, got %v", got)
	}

	empty := beep.NewBuffer(beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2})
	c2 := NewConvolver(empty)
	if got := c2.ProcessMono(0.17); got != 0.17 {
		t.Errorf("expected an empty IR buffer to pass the dry sample through unchanged, got %v", got)
	}
}

func TestNewConvolver_SingleImpulseActsAsGain(t *testing.T) {
	buf := bufferOf([][2]float64{{0.5, 0.5}})
	c := NewConvolver(buf)

	if got := c.ProcessMono(1); got != 0.5 {
		t.Errorf("expected a single-tap IR of 0.5 to scale the input by 0.5, got %v", got)
	}
}

func TestNewConvolver_TruncatesToMaxTaps(t *testing.T) {
	samples := make([][2]float64, MaxConvolverTaps+500)
	for i := range samples {
		samples[i] = [2]float64{1, 1}
	}
	c := NewConvolver(bufferOf(samples))

	if len(c.taps) != MaxConvolverTaps {
		t.Errorf("expected taps truncated to %d, got %d", MaxConvolverTaps, len(c.taps))
	}
}

func TestConvolver_ImpulseResponseAppearsDelayedInOutput(t *testing.T) {
	// A two-tap IR [1, 0.5]: an input impulse at t=0 should produce 1 at
	// t=0 and 0.5 at t=1 (the IR's second tap), then silence.
	buf := bufferOf([][2]float64{{1, 1}, {0.5, 0.5}})
	c := NewConvolver(buf)

	out0 := c.ProcessMono(1)
	out1 := c.ProcessMono(0)
	out2 := c.ProcessMono(0)

	if out0 != 1 {
		t.Errorf("expected the impulse's direct tap to appear immediately, got %v", out0)
	}
	if out1 != 0.5 {
		t.Errorf("expected the impulse's second tap to appear one sample later, got %v", out1)
	}
	if out2 != 0 {
		t.Errorf("expected silence once the IR has fully passed, got %v", out2)
	}
}

package dsp

import "github.com/gopxl/beep"

// MaxConvolverTaps bounds how much of an impulse response Convolver will
// process per sample; thunder's convolution reverb (spec.md §4.8) truncates
// its IR buffers to this many taps on load so worst-case per-sample cost
// stays bounded regardless of a source file's tail length.
const MaxConvolverTaps = 2048

// Convolver applies a direct-form FIR convolution against a fixed impulse
// response, collapsing a stereo IR to mono and processing both output
// channels identically. Grounded on the same ProcessMono(in float64)
// float64 shape as Biquad, so it slots into the same per-sample call
// chains as the other filter stages.
type Convolver struct {
	taps    []float64
	history []float64
	pos     int
}

// NewConvolver extracts up to MaxConvolverTaps samples from buf (averaging
// left/right) to use as the impulse response. A nil or empty buf yields a
// pass-through convolver (the identity kernel [1]).
func NewConvolver(buf *beep.Buffer) *Convolver {
	if buf == nil || buf.Len() == 0 {
		return &Convolver{taps: []float64{1}, history: make([]float64, 1)}
	}

	n := buf.Len()
	if n > MaxConvolverTaps {
		n = MaxConvolverTaps
	}
	samples := make([][2]float64, n)
	buf.Streamer(0, n).Stream(samples)

	taps := make([]float64, n)
	for i, s := range samples {
		taps[i] = (s[0] + s[1]) / 2
	}
	return &Convolver{taps: taps, history: make([]float64, len(taps))}
}

// ProcessMono convolves one dry input sample against the impulse response
// and returns the wet output sample.
func (c *Convolver) ProcessMono(in float64) float64 {
	c.history[c.pos] = in

	var out float64
	idx := c.pos
	for _, tap := range c.taps {
		out += c.history[idx] * tap
		idx--
		if idx < 0 {
			idx = len(c.history) - 1
		}
	}

	c.pos++
	if c.pos >= len(c.history) {
		c.pos = 0
	}
	return out
}

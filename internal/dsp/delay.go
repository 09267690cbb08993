package dsp

import "math"

// Delay is a single feedback delay line: TimeS sets the tap length,
// Feedback the per-repeat decay, Wet the dry/wet mix. Backs spec.md
// §4.10's SFX `delay.{enabled,time,feedback,wet}` aux send.
type Delay struct {
	TimeS    float64
	Feedback float64
	Wet      float64

	sampleRate float64
	bufL, bufR []float64
	pos        int
}

func NewDelay(sampleRate float64) *Delay {
	return &Delay{sampleRate: sampleRate}
}

func (d *Delay) resize() {
	n := int(d.TimeS * d.sampleRate)
	if n < 1 {
		n = 1
	}
	if len(d.bufL) != n {
		d.bufL = make([]float64, n)
		d.bufR = make([]float64, n)
		d.pos = 0
	}
}

// ProcessStereo runs one stereo aux-send sample through the delay line.
func (d *Delay) ProcessStereo(l, r float64) (float64, float64) {
	d.resize()
	readL, readR := d.bufL[d.pos], d.bufR[d.pos]
	d.bufL[d.pos] = l + readL*d.Feedback
	d.bufR[d.pos] = r + readR*d.Feedback
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	outL := l*(1-d.Wet) + readL*d.Wet
	outR := r*(1-d.Wet) + readR*d.Wet
	return outL, outR
}

// Reverb is a small Schroeder reverberator: four parallel comb filters at
// prime-ish millisecond spacings (so their resonances don't line up),
// summed and run through two series allpass filters. Decay is the RT60
// time in seconds (time for a comb's repeats to fall 60dB), converted to
// each comb's own feedback gain via the standard `10^(-3*delay/RT60)`
// relation so Decay stays stable at any tap spacing. Wetness is the
// dry/wet mix. Backs spec.md §4.10's SFX `reverb.{decay,wetness}` aux
// send.
type Reverb struct {
	Decay   float64
	Wetness float64

	combs    [4]*combFilter
	allpass1 *allpassFilter
	allpass2 *allpassFilter
}

func NewReverb(sampleRate float64) *Reverb {
	msLens := [4]float64{29.7, 37.1, 41.3, 43.7}
	rv := &Reverb{}
	for i, ms := range msLens {
		rv.combs[i] = newCombFilter(ms/1000, sampleRate)
	}
	rv.allpass1 = newAllpassFilter(int(5 / 1000 * sampleRate))
	rv.allpass2 = newAllpassFilter(int(1.7 / 1000 * sampleRate))
	return rv
}

// ProcessStereo runs one stereo aux-send sample through the comb/allpass
// network, collapsing to mono for the tank and re-splitting on output.
func (rv *Reverb) ProcessStereo(l, r float64) (float64, float64) {
	mono := (l + r) / 2

	sum := 0.0
	for _, c := range rv.combs {
		sum += c.process(mono, rv.Decay)
	}
	sum /= float64(len(rv.combs))
	sum = rv.allpass1.process(sum)
	sum = rv.allpass2.process(sum)

	outL := l*(1-rv.Wetness) + sum*rv.Wetness
	outR := r*(1-rv.Wetness) + sum*rv.Wetness
	return outL, outR
}

type combFilter struct {
	buf       []float64
	pos       int
	delaySecs float64
}

func newCombFilter(delaySecs, sampleRate float64) *combFilter {
	n := int(delaySecs * sampleRate)
	if n < 1 {
		n = 1
	}
	return &combFilter{buf: make([]float64, n), delaySecs: delaySecs}
}

// process advances the comb by one sample, deriving this tick's feedback
// gain from the RT60 decay time so the tap length doesn't change the
// perceived decay rate.
func (c *combFilter) process(in, rt60 float64) float64 {
	feedback := 0.0
	if rt60 > 0 {
		feedback = math.Pow(10, -3*c.delaySecs/rt60)
	}
	if feedback > 0.98 {
		feedback = 0.98
	}
	out := c.buf[c.pos]
	c.buf[c.pos] = in + out*feedback
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

type allpassFilter struct {
	buf []float64
	pos int
	g   float64
}

func newAllpassFilter(n int) *allpassFilter {
	if n < 1 {
		n = 1
	}
	return &allpassFilter{buf: make([]float64, n), g: 0.5}
}

func (a *allpassFilter) process(in float64) float64 {
	bufOut := a.buf[a.pos]
	out := -a.g*in + bufOut
	a.buf[a.pos] = in + bufOut*a.g
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

package dsp

import "math"

// Oscillator is a streaming band-unlimited oscillator (adequate for the
// sub-audio modulation and low-harmonic-content uses spec.md §6 asks for
// — LFOs, the aeolian tone, the bass layer — not a band-limited synth
// voice). FreqHz and Phase are exported for lock-free external control;
// callers own synchronization the same way internal/simgrid's atomicF32
// params do for the physics side.
type Oscillator struct {
	Wave       Waveform
	FreqHz     float64
	sampleRate float64
	phase      float64 // 0..1
}

// NewOscillator builds an oscillator at the given sample rate.
func NewOscillator(wave Waveform, freqHz, sampleRate float64) *Oscillator {
	return &Oscillator{Wave: wave, FreqHz: freqHz, sampleRate: sampleRate}
}

// Next advances the phasor by one sample and returns the waveform value
// in [-1, 1].
func (o *Oscillator) Next() float64 {
	v := o.valueAt(o.phase)
	o.phase += o.FreqHz / o.sampleRate
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return v
}

func (o *Oscillator) valueAt(phase float64) float64 {
	switch o.Wave {
	case WaveSine:
		return math.Sin(2 * math.Pi * phase)
	case WaveTriangle:
		return 4*math.Abs(phase-0.5) - 1
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case WaveSaw:
		return 2*phase - 1
	default:
		return 0
	}
}

// Reset zeroes the phase, used when a voice is re-triggered from silence.
func (o *Oscillator) Reset() { o.phase = 0 }

func (o *Oscillator) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := o.Next()
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

func (o *Oscillator) Err() error { return nil }

// Phasor is a bare 0..1 ramp, the building block for beat-synced LFOs and
// the matrix module's beat quantisation (spec.md §4.9). Unlike Oscillator
// it exposes the raw ramp value rather than a shaped waveform.
type Phasor struct {
	FreqHz     float64
	sampleRate float64
	phase      float64
}

func NewPhasor(freqHz, sampleRate float64) *Phasor {
	return &Phasor{FreqHz: freqHz, sampleRate: sampleRate}
}

// Next advances the ramp by one sample, returning the new phase in
// [0, 1), and whether the phasor wrapped (crossed 0) this sample — used
// to detect bar/beat boundaries without a separate counter.
func (p *Phasor) Next() (float64, bool) {
	p.phase += p.FreqHz / p.sampleRate
	wrapped := false
	if p.phase >= 1 {
		p.phase -= math.Floor(p.phase)
		wrapped = true
	}
	return p.phase, wrapped
}

func (p *Phasor) Phase() float64 { return p.phase }

func (p *Phasor) SetPhase(phase float64) { p.phase = phase }

// SampleAndHold emits a new uniformly-distributed random value in
// [-1, 1] each time its driving phasor wraps, holding it constant
// between wraps — used for the wind gust scheduler and aeolian tone
// drift (spec.md §4.7).
type SampleAndHold struct {
	phasor *Phasor
	rng    func() float64
	held   float64
}

// NewSampleAndHold builds a sample-and-hold clocked at freqHz, using rng
// (typically rand.Float64, rescaled by the caller) to draw new values.
func NewSampleAndHold(freqHz, sampleRate float64, rng func() float64) *SampleAndHold {
	return &SampleAndHold{phasor: NewPhasor(freqHz, sampleRate), rng: rng}
}

// Next advances one sample and returns the currently-held value.
func (s *SampleAndHold) Next() float64 {
	_, wrapped := s.phasor.Next()
	if wrapped {
		s.held = s.rng()*2 - 1
	}
	return s.held
}

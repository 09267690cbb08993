package matrix

import (
	"github.com/gopxl/beep"

	"github.com/rainydesk/engine/internal/dsp"
)

// Drone is the two-sample-player A/B loop pair. Loop A is audible and
// loop B silent until Swap crossfades them over 2s; the drone never
// swaps on its own. There is no fade-in: once started it plays at its
// overall gain (1 unless FadeTo changed it) from the first sample.
type Drone struct {
	a, b       beep.Streamer
	gainA      *dsp.Gain
	gainB      *dsp.Gain
	fadeInGain *dsp.AtomicF32
	active     string // "a" or "b"
	started    bool
}

// NewDrone wraps two looping sample sources; swap alternates which one
// is audible, crossfading over 2s.
func NewDrone(a, b beep.Streamer, sampleRate float64) *Drone {
	d := &Drone{a: a, b: b, active: "a"}
	d.gainA = dsp.NewGain(a, 1, sampleRate, 2000)
	d.gainB = dsp.NewGain(b, 0, sampleRate, 2000)
	d.fadeInGain = dsp.NewAtomicF32(1)
	return d
}

// Start unmutes the drone (Stream renders silence until then), at full
// overall gain with no fade-in; calling it again is a no-op while
// already started.
func (d *Drone) Start() {
	if d.started {
		return
	}
	d.started = true
}

// Swap crossfades from the currently active loop to the other one.
func (d *Drone) Swap() {
	if d.active == "a" {
		d.gainA.Target.Store(0)
		d.gainB.Target.Store(1)
		d.active = "b"
	} else {
		d.gainA.Target.Store(1)
		d.gainB.Target.Store(0)
		d.active = "a"
	}
}

// FadeTo sets the drone's overall gain to target. The change is not
// ramped: it applies in full from the next Stream call.
func (d *Drone) FadeTo(target float32) {
	d.fadeInGain.Store(target)
}

func (d *Drone) Stream(samples [][2]float64) (int, bool) {
	if !d.started {
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	}
	n, okA := d.gainA.Stream(samples)
	buf := make([][2]float64, len(samples))
	nB, okB := d.gainB.Stream(buf)
	for i := 0; i < n && i < nB; i++ {
		samples[i][0] += buf[i][0]
		samples[i][1] += buf[i][1]
	}
	fadeBuf := make([][2]float64, len(samples))
	copy(fadeBuf, samples)
	gain := float64(d.fadeInGain.Load())
	for i := range samples {
		samples[i][0] = fadeBuf[i][0] * gain
		samples[i][1] = fadeBuf[i][1] * gain
	}
	return n, okA && okB
}

func (d *Drone) Err() error { return nil }

// Package bus implements the fixed Rain/Wind/Thunder/Matrix bus
// topology and master chain spec.md §4.10 describes: per-bus
// panner → EQ3 → pre-fader send taps → optional compressor → gain →
// output, feeding a shared master gain → limiter → output stage.
// Grounded on the voice/bus mixing idiom in the pack's vi-fighter
// sound manager (per-channel gain nodes summed into one output), with
// EQ and dynamics built from internal/dsp's Biquad and Compressor
// primitives.
package bus

import (
	"math"
	"sync"

	"github.com/gopxl/beep"

	"github.com/rainydesk/engine/internal/dsp"
)

// Config mirrors spec.md §4.10's bus parameter set.
type Config struct {
	GainDb  float64
	Mute    bool
	Solo    bool
	Pan     float64 // -1..1
	EqLowDb, EqMidDb, EqHighDb float64

	CompressorEnabled    bool
	CompressorThresholdDb float64
	CompressorRatio      float64

	ReverbSend float64 // 0..1
	DelaySend  float64 // 0..1
}

const muteRampMs = 50

// Bus is one of the four fixed input buses (Rain/Wind/Thunder/Matrix).
type Bus struct {
	Name   string
	Source beep.Streamer

	mu  sync.Mutex
	cfg Config

	eqLow, eqMid, eqHigh *dsp.Biquad
	compressor           *dsp.Compressor

	sampleRate float64

	currentGain float64 // smoothed linear gain, chases effective target
	gainCoef    float64

	effectiveMuted bool // set by the owning Mixer each block from solo state

	// pre-fader send taps, refreshed each Stream call so the Mixer can
	// pull them after processing this bus for the current block.
	reverbBuf [][2]float64
	delayBuf  [][2]float64
}

// New constructs a bus wrapping src, the mixed voice/module content
// feeding this bus's input.
func New(name string, src beep.Streamer, cfg Config, sampleRate float64) *Bus {
	b := &Bus{
		Name:       name,
		Source:     src,
		cfg:        cfg,
		sampleRate: sampleRate,
	}
	b.eqLow = dsp.NewBiquad(src, sampleRate)
	b.eqLow.Configure(dsp.LowShelf, 250, 0.707, cfg.EqLowDb)
	b.eqMid = dsp.NewBiquad(b.eqLow, sampleRate)
	b.eqMid.Configure(dsp.Peaking, 1000, 1.0, cfg.EqMidDb)
	b.eqHigh = dsp.NewBiquad(b.eqMid, sampleRate)
	b.eqHigh.Configure(dsp.HighShelf, 4000, 0.707, cfg.EqHighDb)

	b.compressor = dsp.NewCompressor(nil, sampleRate)
	b.compressor.ThresholdDb = cfg.CompressorThresholdDb
	b.compressor.Ratio = cfg.CompressorRatio

	b.gainCoef = math.Exp(-1 / (muteRampMs / 1000 * sampleRate))
	b.currentGain = dsp.DbToLinear(cfg.GainDb)
	return b
}

// SetConfig updates the live bus parameters; EQ/compressor coefficients
// are recomputed, gain changes ramp smoothly via the mute-ramp
// coefficient rather than stepping (spec.md §4.10 "no audible zipper").
func (b *Bus) SetConfig(cfg Config) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg = cfg
	b.eqLow.Configure(dsp.LowShelf, 250, 0.707, cfg.EqLowDb)
	b.eqMid.Configure(dsp.Peaking, 1000, 1.0, cfg.EqMidDb)
	b.eqHigh.Configure(dsp.HighShelf, 4000, 0.707, cfg.EqHighDb)
	b.compressor.ThresholdDb = cfg.CompressorThresholdDb
	b.compressor.Ratio = cfg.CompressorRatio
}

// setEffectiveMute is called by the owning Mixer once per block,
// implementing spec.md §4.10's "effective mute = bus.mute OR
// (anyBusSoloed AND NOT bus.solo)".
func (b *Bus) setEffectiveMute(muted bool) {
	b.mu.Lock()
	b.effectiveMuted = muted
	b.mu.Unlock()
}

// Stream renders this bus's output for one block and refreshes its
// pre-fader reverb/delay send taps for the Mixer to pull afterward.
func (b *Bus) Stream(samples [][2]float64) (int, bool) {
	b.mu.Lock()
	cfg := b.cfg
	muted := b.effectiveMuted
	b.mu.Unlock()

	n, ok := b.eqHigh.Stream(samples)

	pos := clampPan(cfg.Pan)
	angle := (pos + 1) * math.Pi / 4
	left, right := math.Cos(angle), math.Sin(angle)
	for i := 0; i < n; i++ {
		l, r := samples[i][0], samples[i][1]
		mono := (l + r) / 2
		samples[i][0] = mono * left
		samples[i][1] = mono * right
	}

	if cap(b.reverbBuf) < n {
		b.reverbBuf = make([][2]float64, n)
		b.delayBuf = make([][2]float64, n)
	}
	b.reverbBuf = b.reverbBuf[:n]
	b.delayBuf = b.delayBuf[:n]
	for i := 0; i < n; i++ {
		b.reverbBuf[i][0] = samples[i][0] * cfg.ReverbSend
		b.reverbBuf[i][1] = samples[i][1] * cfg.ReverbSend
		b.delayBuf[i][0] = samples[i][0] * cfg.DelaySend
		b.delayBuf[i][1] = samples[i][1] * cfg.DelaySend
	}

	if cfg.CompressorEnabled {
		for i := 0; i < n; i++ {
			samples[i][0], samples[i][1] = b.compressor.ProcessStereo(samples[i][0], samples[i][1])
		}
	}

	target := 0.0
	if !muted {
		target = dsp.DbToLinear(cfg.GainDb)
	}
	for i := 0; i < n; i++ {
		b.currentGain = b.gainCoef*b.currentGain + (1-b.gainCoef)*target
		samples[i][0] *= b.currentGain
		samples[i][1] *= b.currentGain
	}

	return n, ok
}

func (b *Bus) Err() error { return b.Source.Err() }

// ReverbSend returns the current block's pre-fader reverb send tap.
func (b *Bus) ReverbSend() [][2]float64 { return b.reverbBuf }

// DelaySend returns the current block's pre-fader delay send tap.
func (b *Bus) DelaySend() [][2]float64 { return b.delayBuf }

func clampPan(p float64) float64 {
	if p < -1 {
		return -1
	}
	if p > 1 {
		return 1
	}
	return p
}

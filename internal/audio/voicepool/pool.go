// Package voicepool provides a generic fixed-size voice-stealing pool,
// shared by the impact and bubble voice pools of spec.md §4. Grounded on
// the Voice interface and
// stealing policy in the pack's vi-fighter audio engine
// (audio-voice.go, audio-sound_manager.go), generalized from a
// hand-written per-instrument slice search to a generic pool type.
package voicepool

import (
	"sync"

	"github.com/gopxl/beep"
)

// Voice is anything a Pool can manage: a streaming audio source that
// reports whether it's still producing sound and can be force-silenced.
type Voice interface {
	beep.Streamer
	Active() bool
	Release()
	Reset()
}

// Pool manages up to a fixed number of concurrently active voices of a
// single type V, stealing the oldest-triggered voice when asked to
// acquire past capacity (spec.md §4.4's impact/bubble pool sizing).
type Pool[V Voice] struct {
	mu       sync.Mutex
	voices   []V
	age      []uint64
	clock    uint64
	stealing bool
}

// New constructs a pool of the given capacity, pre-populated with make.
// make is called once per slot up front so Voice implementations can
// own fixed per-voice DSP state (filters, oscillators) for the life of
// the pool.
func New[V Voice](capacity int, make_ func() V) *Pool[V] {
	p := &Pool[V]{
		voices:   make([]V, capacity),
		age:      make([]uint64, capacity),
		stealing: true,
	}
	for i := range p.voices {
		p.voices[i] = make_()
	}
	return p
}

// SetStealing controls whether Acquire may steal the oldest voice when
// the pool is full (true by default) or instead return ok=false.
func (p *Pool[V]) SetStealing(stealing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stealing = stealing
}

// Acquire returns an inactive voice to trigger, stealing the
// oldest-triggered active voice if every slot is busy and stealing is
// enabled. ok is false only when the pool is full and stealing is
// disabled.
func (p *Pool[V]) Acquire() (v V, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock++

	for i, voice := range p.voices {
		if !voice.Active() {
			p.age[i] = p.clock
			return voice, true
		}
	}

	if !p.stealing {
		var zero V
		return zero, false
	}

	oldest := 0
	for i := 1; i < len(p.age); i++ {
		if p.age[i] < p.age[oldest] {
			oldest = i
		}
	}
	p.voices[oldest].Reset()
	p.age[oldest] = p.clock
	return p.voices[oldest], true
}

// ReleaseAll forces every active voice to release (used on global mute
// or master bypass).
func (p *Pool[V]) ReleaseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, voice := range p.voices {
		if voice.Active() {
			voice.Release()
		}
	}
}

// ActiveCount reports how many voices currently report Active().
func (p *Pool[V]) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, voice := range p.voices {
		if voice.Active() {
			n++
		}
	}
	return n
}

// Resize grows or shrinks the pool, adding freshly made voices when
// growing. When shrinking it drops idle voices first; active voices are
// dropped only when more than capacity of them are active, and those are
// released first so they don't hang the bus mixer's streamer graph.
func (p *Pool[V]) Resize(capacity int, make_ func() V) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if capacity < 0 {
		capacity = 0
	}
	if capacity == len(p.voices) {
		return
	}
	if capacity < len(p.voices) {
		// Move active voices to the front so the idle ones are dropped.
		kept := 0
		for i, voice := range p.voices {
			if voice.Active() {
				p.voices[kept], p.voices[i] = p.voices[i], p.voices[kept]
				p.age[kept], p.age[i] = p.age[i], p.age[kept]
				kept++
			}
		}
		for _, voice := range p.voices[capacity:] {
			if voice.Active() {
				voice.Release()
			}
		}
		p.voices = p.voices[:capacity]
		p.age = p.age[:capacity]
		return
	}
	for len(p.voices) < capacity {
		p.voices = append(p.voices, make_())
		p.age = append(p.age, 0)
	}
}

// Cap reports the pool's current capacity.
func (p *Pool[V]) Cap() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.voices)
}

// Stream sums every active voice's output, satisfying beep.Streamer so a
// Pool can sit directly on a bus's mix bus (spec.md §4.10). Inactive
// voices are skipped entirely to avoid paying their Stream cost.
func (p *Pool[V]) Stream(samples [][2]float64) (int, bool) {
	p.mu.Lock()
	voices := make([]V, 0, len(p.voices))
	for _, voice := range p.voices {
		if voice.Active() {
			voices = append(voices, voice)
		}
	}
	p.mu.Unlock()

	for i := range samples {
		samples[i] = [2]float64{}
	}
	if len(voices) == 0 {
		return len(samples), true
	}

	buf := make([][2]float64, len(samples))
	for _, voice := range voices {
		n, _ := voice.Stream(buf)
		for i := 0; i < n; i++ {
			samples[i][0] += buf[i][0]
			samples[i][1] += buf[i][1]
		}
	}
	return len(samples), true
}

func (p *Pool[V]) Err() error { return nil }

package impact

import (
	"github.com/rainydesk/engine/internal/audio/voicepool"
	"github.com/rainydesk/engine/internal/mapper"
)

// Pool is the impact voice pool wired to a mapper.Params trigger.
type Pool struct {
	voices *voicepool.Pool[*Voice]
	cfg    Config
}

// NewPool builds a pool of cfg.PoolSize impact voices at sampleRate.
func NewPool(cfg Config, sampleRate float64, seed int64) *Pool {
	i := int64(0)
	voices := voicepool.New(cfg.PoolSize, func() *Voice {
		i++
		return New(sampleRate, seed+i*104729)
	})
	return &Pool{voices: voices, cfg: cfg}
}

// SetConfig updates the live configuration used on the next Trigger.
func (p *Pool) SetConfig(cfg Config) { p.cfg = cfg }

// Trigger acquires a voice (stealing the oldest if the pool is full) and
// fires it with mapper-derived parameters; panPosition in [-1, 1] comes
// from the collision's screen-space X relative to the desktop width.
func (p *Pool) Trigger(params mapper.Params, panPosition float32) {
	v, ok := p.voices.Acquire()
	if !ok {
		return
	}
	v.Trigger(p.cfg, params, panPosition)
}

func (p *Pool) Stream(samples [][2]float64) (int, bool) { return p.voices.Stream(samples) }
func (p *Pool) Err() error                               { return p.voices.Err() }
func (p *Pool) ActiveCount() int                          { return p.voices.ActiveCount() }
func (p *Pool) Resize(n int, sampleRate float64, seed int64) {
	i := int64(1000)
	p.voices.Resize(n, func() *Voice {
		i++
		return New(sampleRate, seed+i*104729)
	})
}

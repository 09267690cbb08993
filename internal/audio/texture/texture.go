// Package texture implements the surface density-tier crossfade layer
// spec.md §4.6 describes: two LoopPlayers mixing A/B source pairs,
// gapless crossfade over 2s scheduled against the audio clock, driven
// by an LRU buffer cache (capacity 16) and a monotonically increasing
// load generation that invalidates stale in-flight loads. Grounded on
// the teacher's lazy single-value memoization in
// systems/resource_field.go, generalized to a keyed, bounded,
// generation-invalidated cache of decoded loop buffers.
package texture

import (
	"fmt"
	"sync"

	"github.com/gopxl/beep"

	"github.com/rainydesk/engine/internal/cache"
	"github.com/rainydesk/engine/internal/dsp"
)

// AssetLoader decodes a named asset into a loopable buffer. Supplied by
// the host (the engine never knows the asset directory layout itself).
type AssetLoader func(name string) (*beep.Buffer, error)

// SurfaceRegistry maps a surface id to its ordered sparse→dense density
// filenames.
type SurfaceRegistry map[string][]string

const crossfadeSeconds = 2.0

// Layer is one texture-layer instance. It owns a single surface's A/B
// crossfade pair at a time; switching surfaces resets the pair.
type Layer struct {
	mu sync.Mutex

	registry SurfaceRegistry
	loader   AssetLoader
	cache    *cache.LRU[string, *beep.Buffer]

	surfaceID string
	lowerIdx  int
	upperIdx  int

	lowerLoop beep.Streamer
	upperLoop beep.Streamer
	lowerGain *dsp.Gain
	upperGain *dsp.Gain

	loadGeneration uint64
	loading        bool
	pendingLevel   int // -1 when nothing pending
	sampleRate     float64
}

// New constructs an empty texture layer; call SetSurface before
// SetIntensity.
func New(registry SurfaceRegistry, loader AssetLoader, sampleRate float64) *Layer {
	return &Layer{
		registry:     registry,
		loader:       loader,
		cache:        cache.New[string, *beep.Buffer](16),
		pendingLevel: -1,
		sampleRate:   sampleRate,
	}
}

func (l *Layer) assetKey(level int) string {
	levels := l.registry[l.surfaceID]
	if level < 0 || level >= len(levels) {
		return ""
	}
	return fmt.Sprintf("%s/%s", l.surfaceID, levels[level])
}

// SetSurface switches the active surface id, invalidating any in-flight
// load for the previous surface via the load generation counter.
func (l *Layer) SetSurface(surfaceID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.surfaceID == surfaceID {
		return
	}
	l.surfaceID = surfaceID
	l.loadGeneration++
	l.lowerIdx, l.upperIdx = 0, 0
	l.lowerLoop, l.upperLoop = nil, nil
}

// SetIntensity selects the (lower, upper) adjacent density levels for
// intensity 1..100 and the blend between them. If the level pair is
// unchanged this only ramps gains; a changed pair loads the missing
// level through the LRU cache and coalesces concurrent calls, keeping
// only the most recently requested intensity in flight (spec.md §4.6
// "at most one setIntensity update may be in flight").
func (l *Layer) SetIntensity(intensity int) {
	l.mu.Lock()
	levels := l.registry[l.surfaceID]
	if len(levels) == 0 {
		l.mu.Unlock()
		return
	}
	if intensity < 1 {
		intensity = 1
	}
	if intensity > 100 {
		intensity = 100
	}
	span := float64(len(levels) - 1)
	pos := span * float64(intensity-1) / 99
	lower := int(pos)
	upper := lower + 1
	if upper > len(levels)-1 {
		upper = len(levels) - 1
	}
	blend := pos - float64(lower)

	sameLevels := lower == l.lowerIdx && upper == l.upperIdx && l.lowerLoop != nil
	if sameLevels {
		l.mu.Unlock()
		l.rampGains(blend)
		return
	}

	if l.loading {
		l.pendingLevel = intensity
		l.mu.Unlock()
		return
	}
	l.loading = true
	gen := l.loadGeneration
	l.mu.Unlock()

	l.loadLevels(gen, lower, upper, blend)
}

func (l *Layer) loadLevels(gen uint64, lower, upper int, blend float64) {
	lowerKey := l.assetKey(lower)
	upperKey := l.assetKey(upper)

	lowerBuf, lowerErr := l.cache.GetOrLoad(lowerKey, func() (*beep.Buffer, error) { return l.loader(lowerKey) })
	upperBuf, upperErr := l.cache.GetOrLoad(upperKey, func() (*beep.Buffer, error) { return l.loader(upperKey) })

	l.mu.Lock()
	l.loading = false

	if gen != l.loadGeneration {
		// A surface change raced us; discard this stale result and
		// re-fire with whatever was requested most recently, if any.
		pending := l.pendingLevel
		l.pendingLevel = -1
		l.mu.Unlock()
		if pending >= 0 {
			l.SetIntensity(pending)
		}
		return
	}

	if lowerErr == nil && lowerBuf != nil {
		l.lowerLoop = loopStreamer(lowerBuf)
		l.lowerIdx = lower
	}
	if upperErr == nil && upperBuf != nil {
		l.upperLoop = loopStreamer(upperBuf)
		l.upperIdx = upper
	}
	l.lowerGain = dsp.NewGain(l.lowerLoop, 0, l.sampleRate, crossfadeSeconds*1000)
	l.upperGain = dsp.NewGain(l.upperLoop, 0, l.sampleRate, crossfadeSeconds*1000)
	l.lowerGain.Target.Store(float32(1 - blend))
	l.upperGain.Target.Store(float32(blend))

	pending := l.pendingLevel
	l.pendingLevel = -1
	l.mu.Unlock()
	if pending >= 0 {
		l.SetIntensity(pending)
	}
}

func (l *Layer) rampGains(blend float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lowerGain != nil {
		l.lowerGain.Target.Store(float32(1 - blend))
	}
	if l.upperGain != nil {
		l.upperGain.Target.Store(float32(blend))
	}
}

func loopStreamer(buf *beep.Buffer) beep.Streamer {
	return beep.Loop(-1, buf.Streamer(0, buf.Len()))
}

// Stream mixes the lower and upper gain stages. Either may be nil before
// the first SetIntensity load completes, in which case it renders
// silence.
func (l *Layer) Stream(samples [][2]float64) (int, bool) {
	l.mu.Lock()
	lower, upper := l.lowerGain, l.upperGain
	l.mu.Unlock()

	for i := range samples {
		samples[i] = [2]float64{}
	}
	if lower == nil && upper == nil {
		return len(samples), true
	}

	buf := make([][2]float64, len(samples))
	if lower != nil {
		n, _ := lower.Stream(buf)
		for i := 0; i < n; i++ {
			samples[i][0] += buf[i][0]
			samples[i][1] += buf[i][1]
		}
	}
	if upper != nil {
		n, _ := upper.Stream(buf)
		for i := 0; i < n; i++ {
			samples[i][0] += buf[i][0]
			samples[i][1] += buf[i][1]
		}
	}
	return len(samples), true
}

func (l *Layer) Err() error { return nil }

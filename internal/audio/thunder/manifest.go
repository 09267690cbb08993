// Package thunder implements the physical thunder model spec.md §4.8
// adopts as normative: five per-strike sub-models (deepener, afterimage,
// rumbler, pre-strike crackle, lightning), an IR manifest with an LRU
// cache (capacity 8), distance-banded auto-scheduling, and a sidechain
// duck hook handed to external buses. Grounded on the teacher's
// config-driven environment registry pattern (config/config.go) for the
// IR manifest, and on the pack's vi-fighter sound_manager for scheduled,
// cancellable one-shot voices.
package thunder

import (
	"fmt"
	"math/rand"

	"github.com/gopxl/beep"

	"github.com/rainydesk/engine/internal/cache"
)

// Environment selects an IR pool, spec.md §4.8/§6.
type Environment string

const (
	EnvForest   Environment = "forest"
	EnvPlains   Environment = "plains"
	EnvMountain Environment = "mountain"
	EnvCoastal  Environment = "coastal"
	EnvSuburban Environment = "suburban"
	EnvUrban    Environment = "urban"
)

// IRManifest mirrors ir-manifest.json: a pool of impulse-response names
// per environment plus a fallback used on any miss.
type IRManifest struct {
	Pools       map[Environment][]string
	FallbackIR  string
}

// IRLoader decodes a named impulse response into a convolvable buffer.
// Supplied by the host; the engine never knows the asset directory
// layout.
type IRLoader func(name string) (*beep.Buffer, error)

// irCache is process-wide-per-module, capacity 8 (spec.md §5 "Resource
// limits").
type irCache struct {
	cache *cache.LRU[string, *beep.Buffer]
	load  IRLoader
}

func newIRCache(load IRLoader) *irCache {
	return &irCache{cache: cache.New[string, *beep.Buffer](8), load: load}
}

// pick selects a random IR name for env, falling back to the manifest's
// fallback on a missing/empty pool (spec.md §4.8 "IR selection").
func (m IRManifest) pick(env Environment, rng *rand.Rand) string {
	pool := m.Pools[env]
	if len(pool) == 0 {
		return m.FallbackIR
	}
	return pool[rng.Intn(len(pool))]
}

// get lazily decodes and caches the IR, falling back to the manifest
// fallback on decode failure (spec.md §7 "asset load failures ...
// strike plays dry").
func (c *irCache) get(manifest IRManifest, env Environment, rng *rand.Rand) (*beep.Buffer, bool) {
	name := manifest.pick(env, rng)
	if name == "" {
		return nil, false
	}
	buf, err := c.cache.GetOrLoad(name, func() (*beep.Buffer, error) { return c.load(name) })
	if err == nil && buf != nil {
		return buf, true
	}
	if name != manifest.FallbackIR && manifest.FallbackIR != "" {
		buf, err = c.cache.GetOrLoad(manifest.FallbackIR, func() (*beep.Buffer, error) { return c.load(manifest.FallbackIR) })
		if err == nil && buf != nil {
			return buf, true
		}
	}
	return nil, false
}

func assetKey(env Environment, name string) string { return fmt.Sprintf("%s/%s", env, name) }

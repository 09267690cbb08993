// Package material holds the named, clonable surface-acoustic descriptors
// consulted by the collision mapper on every impact (spec.md §3 "Material
// descriptor", §4.2).
package material

import (
	"sync"

	"github.com/rainydesk/engine/internal/config"
)

// ImpactSynthType enumerates the impact voice's noise shaping.
type ImpactSynthType string

const (
	SynthNoise    ImpactSynthType = "noise"
	SynthMetal    ImpactSynthType = "metal"
	SynthMembrane ImpactSynthType = "membrane"
)

// Descriptor is a surface's acoustic profile (spec.md §3).
type Descriptor struct {
	ID                string
	BubbleProbability float64
	ImpactSynthType   ImpactSynthType
	BubbleOscillator  string
	FilterFreq        float64
	FilterQ           float64
	DecayMin          float64
	DecayMax          float64
	PitchMultiplier   float64
	GainOffsetDb      float64
}

// Clone returns a value copy (descriptors are passed by value throughout
// the engine; Clone exists for call sites that want an explicit copy
// before mutating a transient variant).
func (d Descriptor) Clone() Descriptor { return d }

func fromParams(id string, p config.MaterialParams) Descriptor {
	return Descriptor{
		ID:                id,
		BubbleProbability: p.BubbleProbability,
		ImpactSynthType:   ImpactSynthType(p.ImpactSynthType),
		BubbleOscillator:  p.BubbleOscillator,
		FilterFreq:        p.FilterFreq,
		FilterQ:           p.FilterQ,
		DecayMin:          p.DecayMin,
		DecayMax:          p.DecayMax,
		PitchMultiplier:   p.PitchMultiplier,
		GainOffsetDb:      p.GainOffsetDb,
	}
}

// Registry is a mutable, concurrency-safe id->Descriptor map. Writes are
// expected from the UI/control thread; reads happen synchronously inside
// the simulator's collision-emission path, so Registry uses a coarse
// RWMutex per spec.md §5 ("copy-on-write or coarse locking both suffice;
// material lookups must never block collision emission meaningfully").
type Registry struct {
	mu   sync.RWMutex
	byID map[string]Descriptor
}

// NewRegistry builds a registry seeded from the config's material table,
// falling back to a built-in "default" entry if config carries none.
func NewRegistry(materials map[string]config.MaterialParams) *Registry {
	r := &Registry{byID: make(map[string]Descriptor, len(materials)+1)}
	for id, p := range materials {
		r.byID[id] = fromParams(id, p)
	}
	if _, ok := r.byID["default"]; !ok {
		r.byID["default"] = Descriptor{
			ID: "default", FilterFreq: 2000, FilterQ: 1.5,
			DecayMin: 0.05, DecayMax: 0.2, PitchMultiplier: 1,
			BubbleProbability: 0.08, ImpactSynthType: SynthNoise,
		}
	}
	return r
}

// Get returns the descriptor for id, or the "default" descriptor if id is
// unknown (material lookups never fail).
func (r *Registry) Get(id string) Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.byID[id]; ok {
		return d
	}
	return r.byID["default"]
}

// Register adds or replaces a descriptor.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[d.ID] = d
}

// Update applies fn to a clone of the current descriptor for id (or a
// zero-valued one keyed to id if unknown) and stores the result.
func (r *Registry) Update(id string, fn func(*Descriptor)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		d = Descriptor{ID: id}
	}
	fn(&d)
	r.byID[id] = d
}

// IDs returns every registered material id.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids
}

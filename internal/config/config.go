// Package config loads and serves the Rainscape parameter tree: embedded
// defaults merged with an optional user file, and the `.rain` persisted
// document format.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// MaterialParams is the clonable acoustic descriptor for a surface.
type MaterialParams struct {
	BubbleProbability   float64 `yaml:"bubble_probability"`
	ImpactSynthType     string  `yaml:"impact_synth_type"` // noise|metal|membrane
	BubbleOscillator    string  `yaml:"bubble_oscillator_type"`
	FilterFreq          float64 `yaml:"filter_freq"`
	FilterQ             float64 `yaml:"filter_q"`
	DecayMin            float64 `yaml:"decay_min"`
	DecayMax            float64 `yaml:"decay_max"`
	PitchMultiplier     float64 `yaml:"pitch_multiplier"`
	GainOffsetDb        float64 `yaml:"gain_offset_db"`
}

// PhysicsConfig mirrors spec.md §4.1 parameter setters.
type PhysicsConfig struct {
	Intensity       float64 `yaml:"intensity"`
	Wind            float64 `yaml:"wind"`
	Gravity         float64 `yaml:"gravity"`
	SplashScale     float64 `yaml:"splash_scale"`
	Turbulence      float64 `yaml:"turbulence"`
	EvaporationRate float64 `yaml:"evaporation_rate"`
	DropMaxRadius   float64 `yaml:"drop_max_radius"`
	DropMinRadius   float64 `yaml:"drop_min_radius"`
	ReverseGravity  bool    `yaml:"reverse_gravity"`
	SlipThreshold   float64 `yaml:"slip_threshold"`
	SpawnRate       float64 `yaml:"spawn_rate"` // spawns/sec
	MaxDrops        int     `yaml:"max_drops"`
	MaxSplashes     int     `yaml:"max_splashes"`
	GridCellPx      int     `yaml:"grid_cell_px"` // logic-to-screen cell scale (spec: x4)
}

// BusConfig is shared by rain/wind/thunder/matrix buses (spec.md §4.10).
type BusConfig struct {
	GainDb               float64 `yaml:"gain_db"`
	Muted                bool    `yaml:"muted"`
	Solo                 bool    `yaml:"solo"`
	Pan                  float64 `yaml:"pan"`
	EqLowDb              float64 `yaml:"eq_low_db"`
	EqMidDb              float64 `yaml:"eq_mid_db"`
	EqHighDb             float64 `yaml:"eq_high_db"`
	CompressorEnabled    bool    `yaml:"compressor_enabled"`
	CompressorThresholdD float64 `yaml:"compressor_threshold_db"`
	CompressorRatio      float64 `yaml:"compressor_ratio"`
	ReverbSend           float64 `yaml:"reverb_send"`
	DelaySend            float64 `yaml:"delay_send"`
}

// MasterConfig is the top mix bus plus the four named sub-buses.
type MasterConfig struct {
	VolumeDb  float64   `yaml:"volume_db"`
	Muted     bool      `yaml:"muted"`
	Rain      BusConfig `yaml:"rain"`
	Wind      BusConfig `yaml:"wind"`
	Thunder   BusConfig `yaml:"thunder"`
	Matrix    BusConfig `yaml:"matrix"`
	Limiter   struct {
		ThresholdDb float64 `yaml:"threshold_db"`
		ReleaseS    float64 `yaml:"release_s"`
	} `yaml:"limiter"`
}

// ImpactConfig is spec.md §6 "Impacts".
type ImpactConfig struct {
	PoolSize       int     `yaml:"pool_size"`
	NoiseType      string  `yaml:"noise_type"`
	Attack         float64 `yaml:"attack"`
	DecayMin       float64 `yaml:"decay_min"`
	DecayMax       float64 `yaml:"decay_max"`
	FilterFreqMin  float64 `yaml:"filter_freq_min"`
	FilterFreqMax  float64 `yaml:"filter_freq_max"`
	FilterQ        float64 `yaml:"filter_q"`
	PitchCenter    float64 `yaml:"pitch_center"`     // 0..100
	PitchOscAmount float64 `yaml:"pitch_osc_amount"` // 0..100
}

// BubbleConfig is spec.md §6 "bubble".
type BubbleConfig struct {
	PoolSize       int     `yaml:"pool_size"`
	OscillatorType string  `yaml:"oscillator_type"`
	PulseWidth     float64 `yaml:"pulse_width"`
	Probability    float64 `yaml:"probability"`
	ChirpAmount    float64 `yaml:"chirp_amount"`
	ChirpTimeS     float64 `yaml:"chirp_time_s"`
	FreqMin        float64 `yaml:"freq_min"`
	FreqMax        float64 `yaml:"freq_max"`
	FilterQ        float64 `yaml:"filter_q"`
	HarmonicCount  int     `yaml:"harmonic_count"`
}

// ImpactsPhysicsConfig is spec.md §6 "physics" subsection of Impacts.
type ImpactsPhysicsConfig struct {
	RadiusFreqMultiplier   float64 `yaml:"radius_freq_multiplier"`
	RadiusDecayMultiplier  float64 `yaml:"radius_decay_multiplier"`
	AngleBubbleBoost       float64 `yaml:"angle_bubble_boost"`
	VelMin                 float64 `yaml:"vel_min"`
	VelMax                 float64 `yaml:"vel_max"`
	DecayBase              float64 `yaml:"decay_base"`
	DecayRadiusScale       float64 `yaml:"decay_radius_scale"`
	MinnaertBase           float64 `yaml:"minnaert_base"`
	FreqMin                float64 `yaml:"freq_min"`
	FreqMax                float64 `yaml:"freq_max"`
}

// ImpactsConfig bundles material id, impact, bubble, physics.
type ImpactsConfig struct {
	MaterialID string               `yaml:"material_id"`
	Impact     ImpactConfig         `yaml:"impact"`
	Bubble     BubbleConfig         `yaml:"bubble"`
	Physics    ImpactsPhysicsConfig `yaml:"physics"`
}

// StereoConfig is a sheet layer's stereo-width parameters.
type StereoConfig struct {
	Width    float64 `yaml:"width"`
	LfoRateL float64 `yaml:"lfo_rate_l"`
	LfoRateR float64 `yaml:"lfo_rate_r"`
	LfoDepth float64 `yaml:"lfo_depth"`
}

// SheetConfig is one sheet-layer instance (spec §4.5, §6).
type SheetConfig struct {
	Enabled         bool         `yaml:"enabled"`
	NoiseType       string       `yaml:"noise_type"` // white|pink|brown
	FilterFreq      float64      `yaml:"filter_freq"`
	FilterQ         float64      `yaml:"filter_q"`
	MinVolume       float64      `yaml:"min_volume"`
	MaxVolume       float64      `yaml:"max_volume"`
	MaxParticleCnt  float64      `yaml:"max_particle_count"`
	RampTime        float64      `yaml:"ramp_time"`
	Stereo          StereoConfig `yaml:"stereo"`
}

// WindConfig is one wind-module instance (spec §4.7, §6). Each of the
// five internal layers carries its own enabled gate and gain, matching
// spec.md §4.7's "each with its own gain and enabled gate".
type WindConfig struct {
	Enabled      bool    `yaml:"enabled"`
	SpeedPercent float64 `yaml:"speed_percent"` // 0..100
	DiameterMm   float64 `yaml:"diameter_mm"`
	ModuleGainDb float64 `yaml:"module_gain_db"`

	BedEnabled   bool    `yaml:"bed_enabled"`
	BedHpfHz     float64 `yaml:"bed_hpf_hz"`
	BedLpfHz     float64 `yaml:"bed_lpf_hz"`
	BedLfoDepth  float64 `yaml:"bed_lfo_depth"`
	BedLfoRateHz float64 `yaml:"bed_lfo_rate_hz"`
	BedGainDb    float64 `yaml:"bed_gain_db"`

	GustEnabled      bool    `yaml:"gust_enabled"`
	GustMinIntervalS float64 `yaml:"gust_min_interval_s"`
	GustMaxIntervalS float64 `yaml:"gust_max_interval_s"`
	GustLpfHz        float64 `yaml:"gust_lpf_hz"`
	GustGainDb       float64 `yaml:"gust_gain_db"`

	AeolianEnabled   bool    `yaml:"aeolian_enabled"`
	AeolianHarmonics int     `yaml:"aeolian_harmonics"`
	Strouhal         float64 `yaml:"strouhal"`
	AeolianGainDb    float64 `yaml:"aeolian_gain_db"`

	SingingEnabled  bool       `yaml:"singing_enabled"`
	SingingFormants [5]float64 `yaml:"singing_formants"`
	SingingGainDb   float64    `yaml:"singing_gain_db"`

	KatabaticEnabled   bool    `yaml:"katabatic_enabled"`
	KatabaticLpfHz     float64 `yaml:"katabatic_lpf_hz"`
	KatabaticSurgeRate float64 `yaml:"katabatic_surge_rate"`
	KatabaticGainDb    float64 `yaml:"katabatic_gain_db"`
}

// ThunderSidechainConfig drives the duck() callback.
type ThunderSidechainConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Ratio    float64 `yaml:"ratio"`
	AttackS  float64 `yaml:"attack_s"`
	ReleaseS float64 `yaml:"release_s"`
}

// ThunderLayerFlags toggles the five sub-models.
type ThunderLayerFlags struct {
	Deepener   bool `yaml:"deepener"`
	Afterimage bool `yaml:"afterimage"`
	Rumbler    bool `yaml:"rumbler"`
	Crackle    bool `yaml:"crackle"`
	Lightning  bool `yaml:"lightning"`
}

// ThunderConfig is spec §4.8, §6.
type ThunderConfig struct {
	MasterGainDb    float64                `yaml:"master_gain_db"`
	Storminess      float64                `yaml:"storminess"` // 0..100
	DistanceKm      float64                `yaml:"distance_km"`
	Environment     string                 `yaml:"environment"`
	StrikeIntensity float64                `yaml:"strike_intensity"`
	RumbleIntensity float64                `yaml:"rumble_intensity"`
	GrowlIntensity  float64                `yaml:"growl_intensity"`
	Sidechain       ThunderSidechainConfig `yaml:"sidechain"`
	Layers          ThunderLayerFlags      `yaml:"layers"`
	IRBasePath      string                 `yaml:"ir_base_path"`
}

// MatrixCodeDropsConfig drives the arpeggio/bass layer density.
type MatrixCodeDropsConfig struct {
	TriggerRate  float64 `yaml:"trigger_rate"`
	Harmonicity  float64 `yaml:"harmonicity"`
}

// MatrixGlitchConfig drives the on-beat glitch voice.
type MatrixGlitchConfig struct {
	Probability    float64 `yaml:"probability"`
	Bits           int     `yaml:"bits"`
	SampleRateDrop int     `yaml:"sample_rate_drop"`
}

// MatrixAgentConfig is the reserved "agent" feedback stub (spec §9 open
// question) — fields exist so persisted documents round-trip, but no
// audio behavior is wired to them.
type MatrixAgentConfig struct {
	FeedbackDur float64 `yaml:"feedback_dur"`
	SubStart    float64 `yaml:"sub_start"`
	SubEnd      float64 `yaml:"sub_end"`
	SubDur      float64 `yaml:"sub_dur"`
}

// MatrixConfig is spec §4.9, §6.
type MatrixConfig struct {
	Enabled       bool                  `yaml:"enabled"`
	MasterGainDb  float64               `yaml:"master_gain_db"`
	DroneEnabled  bool                  `yaml:"drone_enabled"`
	TransposeSemi int                   `yaml:"transpose_semi"`
	CodeDrops     MatrixCodeDropsConfig `yaml:"code_drops"`
	Glitch        MatrixGlitchConfig    `yaml:"glitch"`
	Agent         MatrixAgentConfig     `yaml:"agent"`
}

// TextureConfig is spec.md §4.6, §6: the density-blended loop layer has
// no persisted list like Sheets/Winds (there is exactly one texture
// layer), so its surface id and asset base path are config-level rather
// than per-instance.
type TextureConfig struct {
	Enabled        bool   `yaml:"enabled"`
	SurfaceID      string `yaml:"surface_id"`
	BasePath       string `yaml:"base_path"`
	MaxPuddleCells int    `yaml:"max_puddle_cells"`
}

// SfxConfig bundles the shared-effects parameters (reverb/eq/compressor/
// bitcrusher/spatial/muffling/delay/filter).
type SfxConfig struct {
	Reverb struct {
		Decay    float64 `yaml:"decay"`
		Wetness  float64 `yaml:"wetness"`
	} `yaml:"reverb"`
	Compressor struct {
		Threshold float64 `yaml:"threshold"`
		Ratio     float64 `yaml:"ratio"`
	} `yaml:"compressor"`
	Bitcrusher struct {
		Enabled bool `yaml:"enabled"`
		Bits    int  `yaml:"bits"`
	} `yaml:"bitcrusher"`
	Spatial struct {
		Listener struct {
			X, Y, Z float64
		} `yaml:"listener"`
	} `yaml:"spatial"`
	Muffling struct {
		Enabled    bool    `yaml:"enabled"`
		VolumeDrop float64 `yaml:"volume_drop"`
		LPCutoff   float64 `yaml:"lp_cutoff"`
	} `yaml:"muffling"`
	Delay struct {
		Enabled  bool    `yaml:"enabled"`
		TimeS    float64 `yaml:"time_s"`
		Feedback float64 `yaml:"feedback"`
		Wet      float64 `yaml:"wet"`
	} `yaml:"delay"`
	Filter struct {
		Enabled bool    `yaml:"enabled"`
		Type    string  `yaml:"type"`
		FreqHz  float64 `yaml:"freq_hz"`
		Q       float64 `yaml:"q"`
	} `yaml:"filter"`
}

// Config is the full live parameter tree consulted by every component.
type Config struct {
	SampleRate int             `yaml:"sample_rate"`
	Physics    PhysicsConfig   `yaml:"physics"`
	Master     MasterConfig    `yaml:"master"`
	Impacts    ImpactsConfig   `yaml:"impacts"`
	Sheets     []SheetConfig   `yaml:"sheets"`
	Winds      []WindConfig    `yaml:"winds"`
	Thunder    ThunderConfig   `yaml:"thunder"`
	Matrix     MatrixConfig    `yaml:"matrix"`
	Texture    TextureConfig   `yaml:"texture"`
	Sfx        SfxConfig       `yaml:"sfx"`

	Materials map[string]MaterialParams `yaml:"materials"`
}

var (
	globalMu sync.RWMutex
	global   *Config
	gen      atomic.Uint64
)

// Load loads configuration from embedded defaults merged with an optional
// user YAML file. Matches the teacher's `config.Load` merge pattern
// (unmarshal defaults, then unmarshal the override file into the same
// struct so only present fields overwrite).
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing embedded defaults: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Init loads configuration and installs it as the process-wide global.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	Set(cfg)
	return nil
}

// Set installs cfg as the global configuration. Safe to call from the UI
// thread while the simulation/audio tick reads Cfg() concurrently — the
// whole tree is swapped atomically under a coarse lock, never mutated
// field-by-field mid-tick (spec.md §5 "atomic with respect to the next
// tick").
func Set(cfg *Config) {
	globalMu.Lock()
	global = cfg
	gen.Add(1)
	globalMu.Unlock()
}

// Cfg returns the current global configuration snapshot.
func Cfg() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Generation returns a counter bumped on every Set, so long-lived
// components can detect a config swap without comparing full structs.
func Generation() uint64 {
	return gen.Load()
}

// WriteYAML serializes cfg to path, matching the teacher's
// `cfg.WriteYAML` round-trip helper.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Clamp coerces out-of-range values to their nearest valid bound. Setters
// throughout the engine call this instead of returning an error (spec.md
// §7 "Invalid config values").
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

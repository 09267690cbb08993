package orchestrator

import (
	"github.com/rainydesk/engine/internal/audio/bubble"
	"github.com/rainydesk/engine/internal/audio/bus"
	"github.com/rainydesk/engine/internal/audio/impact"
	"github.com/rainydesk/engine/internal/audio/matrix"
	"github.com/rainydesk/engine/internal/audio/sheet"
	"github.com/rainydesk/engine/internal/audio/thunder"
	"github.com/rainydesk/engine/internal/audio/wind"
	"github.com/rainydesk/engine/internal/config"
	"github.com/rainydesk/engine/internal/dsp"
	"github.com/rainydesk/engine/internal/mapper"
)

// parseNoiseColor maps the config's string noise id to dsp.NoiseColor,
// defaulting to white on anything unrecognised.
func parseNoiseColor(s string) dsp.NoiseColor {
	switch s {
	case "pink":
		return dsp.NoisePink
	case "brown":
		return dsp.NoiseBrown
	default:
		return dsp.NoiseWhite
	}
}

// parseWaveform maps the config's string oscillator id to dsp.Waveform,
// defaulting to sine.
func parseWaveform(s string) dsp.Waveform {
	switch s {
	case "triangle":
		return dsp.WaveTriangle
	case "square":
		return dsp.WaveSquare
	case "saw":
		return dsp.WaveSaw
	default:
		return dsp.WaveSine
	}
}

func parseEnvironment(s string) thunder.Environment {
	switch thunder.Environment(s) {
	case thunder.EnvForest, thunder.EnvPlains, thunder.EnvMountain,
		thunder.EnvCoastal, thunder.EnvSuburban, thunder.EnvUrban:
		return thunder.Environment(s)
	default:
		return thunder.EnvPlains
	}
}

func impactConfigFrom(c config.ImpactConfig) impact.Config {
	return impact.Config{
		PoolSize:       c.PoolSize,
		NoiseType:      parseNoiseColor(c.NoiseType),
		Attack:         c.Attack,
		DecayMin:       c.DecayMin,
		DecayMax:       c.DecayMax,
		FilterFreqMin:  c.FilterFreqMin,
		FilterFreqMax:  c.FilterFreqMax,
		FilterQ:        c.FilterQ,
		PitchCenter:    c.PitchCenter,
		PitchOscAmount: c.PitchOscAmount,
	}
}

func bubbleConfigFrom(c config.BubbleConfig) bubble.Config {
	return bubble.Config{
		PoolSize:      c.PoolSize,
		Wave:          parseWaveform(c.OscillatorType),
		Probability:   c.Probability,
		ChirpAmount:   c.ChirpAmount,
		ChirpTime:     c.ChirpTimeS,
		FreqMin:       c.FreqMin,
		FreqMax:       c.FreqMax,
		FilterQ:       c.FilterQ,
		HarmonicCount: c.HarmonicCount,
	}
}

func physicsFrom(c config.ImpactsPhysicsConfig) mapper.Physics {
	return mapper.Physics{
		VelMin:          c.VelMin,
		VelMax:          c.VelMax,
		FreqMin:         c.FreqMin,
		FreqMax:         c.FreqMax,
		DecayBase:       c.DecayBase,
		DecayRadiusScal: c.DecayRadiusScale,
		MinnaertBase:    c.MinnaertBase,
	}
}

func sheetConfigFrom(c config.SheetConfig) sheet.Config {
	return sheet.Config{
		Enabled:          c.Enabled,
		NoiseType:        parseNoiseColor(c.NoiseType),
		FilterFreq:       c.FilterFreq,
		FilterQ:          c.FilterQ,
		MinVolumeDb:      c.MinVolume,
		MaxVolumeDb:      c.MaxVolume,
		MaxParticleCount: int(c.MaxParticleCnt),
		RampTimeS:        c.RampTime,
		Stereo: sheet.StereoConfig{
			Width:    c.Stereo.Width,
			LfoRateL: c.Stereo.LfoRateL,
			LfoRateR: c.Stereo.LfoRateR,
			LfoDepth: c.Stereo.LfoDepth,
		},
	}
}

func windConfigFrom(c config.WindConfig) wind.Config {
	var w wind.Config
	w.Enabled = c.Enabled
	w.SpeedPercent = c.SpeedPercent
	w.ModuleGainDb = c.ModuleGainDb

	w.Bed.Enabled = c.BedEnabled
	w.Bed.HpfHz = c.BedHpfHz
	w.Bed.LpfHz = c.BedLpfHz
	w.Bed.LfoDepthHz = c.BedLfoDepth
	w.Bed.LfoRateHz = c.BedLfoRateHz
	w.Bed.GainDb = c.BedGainDb

	w.Gust.Enabled = c.GustEnabled
	w.Gust.MinInterval = c.GustMinIntervalS
	w.Gust.MaxInterval = c.GustMaxIntervalS
	w.Gust.LpfHz = c.GustLpfHz
	w.Gust.GainDb = c.GustGainDb

	w.Aeolian.Enabled = c.AeolianEnabled
	w.Aeolian.Harmonics = c.AeolianHarmonics
	w.Aeolian.StrouhalNum = c.Strouhal
	w.Aeolian.DiameterMm = c.DiameterMm
	w.Aeolian.GainDb = c.AeolianGainDb

	w.Singing.Enabled = c.SingingEnabled
	w.Singing.GainDb = c.SingingGainDb
	w.Singing.Formants = c.SingingFormants

	w.Katabatic.Enabled = c.KatabaticEnabled
	w.Katabatic.LpfHz = c.KatabaticLpfHz
	w.Katabatic.SurgeRate = c.KatabaticSurgeRate
	w.Katabatic.GainDb = c.KatabaticGainDb

	return w
}

func thunderConfigFrom(c config.ThunderConfig) thunder.Config {
	return thunder.Config{
		MasterGainDb:    c.MasterGainDb,
		Storminess:      c.Storminess,
		DistanceKm:      c.DistanceKm,
		Environment:     parseEnvironment(c.Environment),
		StrikeIntensity: c.StrikeIntensity,
		RumbleIntensity: c.RumbleIntensity,
		GrowlIntensity:  c.GrowlIntensity,
		Sidechain: thunder.SidechainConfig{
			Enabled: c.Sidechain.Enabled,
			Ratio:   c.Sidechain.Ratio,
			Attack:  c.Sidechain.AttackS,
			Release: c.Sidechain.ReleaseS,
		},
		Flags: thunder.LayerFlags{
			Deepener:   c.Layers.Deepener,
			Afterimage: c.Layers.Afterimage,
			Rumbler:    c.Layers.Rumbler,
			Crackle:    c.Layers.Crackle,
			Lightning:  c.Layers.Lightning,
		},
	}
}

func matrixConfigFrom(c config.MatrixConfig) matrix.Config {
	return matrix.Config{
		MasterGainDb: c.MasterGainDb,
		Transpose:    c.TransposeSemi,
		Glitch: matrix.GlitchConfig{
			Probability:    c.Glitch.Probability,
			Bits:           c.Glitch.Bits,
			SampleRateDrop: float64(c.Glitch.SampleRateDrop) / 100,
		},
	}
}

func busConfigFrom(c config.BusConfig) bus.Config {
	return bus.Config{
		GainDb:                c.GainDb,
		Mute:                  c.Muted,
		Solo:                  c.Solo,
		Pan:                   c.Pan,
		EqLowDb:               c.EqLowDb,
		EqMidDb:               c.EqMidDb,
		EqHighDb:              c.EqHighDb,
		CompressorEnabled:     c.CompressorEnabled,
		CompressorThresholdDb: c.CompressorThresholdD,
		CompressorRatio:       c.CompressorRatio,
		ReverbSend:            c.ReverbSend,
		DelaySend:             c.DelaySend,
	}
}

func masterConfigFrom(c config.MasterConfig, sfx config.SfxConfig) bus.MasterConfig {
	return bus.MasterConfig{
		GainDb:             c.VolumeDb,
		LimiterThresholdDb: c.Limiter.ThresholdDb,
		LimiterReleaseMs:   c.Limiter.ReleaseS * 1000,

		ReverbDecay:   sfx.Reverb.Decay,
		ReverbWetness: sfx.Reverb.Wetness,

		DelayEnabled:  sfx.Delay.Enabled,
		DelayTimeS:    sfx.Delay.TimeS,
		DelayFeedback: sfx.Delay.Feedback,
		DelayWet:      sfx.Delay.Wet,
	}
}

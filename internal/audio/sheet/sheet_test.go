package sheet

import (
	"math"
	"testing"

	"github.com/rainydesk/engine/internal/dsp"
)

func testConfig() Config {
	return Config{
		Enabled:          true,
		NoiseType:        dsp.NoiseWhite,
		FilterFreq:       4000,
		FilterQ:          0.7,
		MinVolumeDb:      -60,
		MaxVolumeDb:      -10,
		MaxParticleCount: 100,
		RampTimeS:        0.05,
		Stereo:           StereoConfig{Width: 0.2, LfoRateL: 0.3, LfoRateR: 0.37, LfoDepth: 0.05},
	}
}

func TestSetParticleCount_ZeroRatioGoesSilent(t *testing.T) {
	l := New(testConfig(), 44100, 1)
	l.SetParticleCount(0)

	if l.gain.Target.Load() != 0 {
		t.Errorf("expected zero particles to target silence, got %v", l.gain.Target.Load())
	}
}

func TestSetParticleCount_FullRatioTargetsMaxVolume(t *testing.T) {
	cfg := testConfig()
	l := New(cfg, 44100, 1)
	l.SetParticleCount(cfg.MaxParticleCount * 2) // clamp above 1.0

	want := dsp.DbToLinear(cfg.MaxVolumeDb)
	got := float64(l.gain.Target.Load())
	if math.Abs(got-want) > 0.001 {
		t.Errorf("expected target volume %v at full density, got %v", want, got)
	}
}

func TestSetParticleCount_DisabledLayerIsSilent(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	l := New(cfg, 44100, 1)
	l.SetParticleCount(cfg.MaxParticleCount)

	if l.gain.Target.Load() != 0 {
		t.Errorf("expected a disabled layer to target silence regardless of particle count, got %v", l.gain.Target.Load())
	}
}

func TestSetParticleCount_ZeroMaxParticleCountIsSilent(t *testing.T) {
	cfg := testConfig()
	cfg.MaxParticleCount = 0
	l := New(cfg, 44100, 1)
	l.SetParticleCount(50)

	if l.gain.Target.Load() != 0 {
		t.Error("expected MaxParticleCount<=0 to force silence rather than divide by zero")
	}
}

func TestStream_ProducesAFullNonTerminalBlock(t *testing.T) {
	l := New(testConfig(), 44100, 1)
	l.SetParticleCount(50)

	buf := make([][2]float64, 512)
	n, ok := l.Stream(buf)
	if n != 512 || !ok {
		t.Fatalf("expected a full block, got n=%d ok=%v", n, ok)
	}
	if err := l.Err(); err != nil {
		t.Errorf("unexpected stream error: %v", err)
	}
}

func TestSetConfig_RestartsNoiseOnlyOnColorChange(t *testing.T) {
	l := New(testConfig(), 44100, 1)
	originalNoise := l.noise

	same := testConfig()
	l.SetConfig(same)
	if l.noise != originalNoise {
		t.Error("expected an unchanged NoiseType to leave the noise source untouched")
	}

	changed := testConfig()
	changed.NoiseType = dsp.NoisePink
	l.SetConfig(changed)
	if l.noise.Color != dsp.NoisePink {
		t.Errorf("expected SetConfig to apply the new noise color, got %v", l.noise.Color)
	}
}

package bus

import (
	"math"
	"testing"
)

type constStreamer struct{ l, r float64 }

func (c constStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		samples[i] = [2]float64{c.l, c.r}
	}
	return len(samples), true
}

func (c constStreamer) Err() error { return nil }

func defaultConfig() Config {
	return Config{GainDb: 0, CompressorRatio: 1}
}

func TestMuteRampsToSilence(t *testing.T) {
	cfg := defaultConfig()
	b := New("rain", constStreamer{1, 1}, cfg, 44100)
	b.setEffectiveMute(true)

	samples := make([][2]float64, 44100) // 1s, well past the 50ms ramp
	b.Stream(samples)

	last := samples[len(samples)-1]
	if math.Abs(last[0]) > 1e-6 || math.Abs(last[1]) > 1e-6 {
		t.Fatalf("bus should settle to silence after a sustained mute, got %v", last)
	}
}

func TestSoloMutesOtherBuses(t *testing.T) {
	rainCfg := defaultConfig()
	windCfg := defaultConfig()
	windCfg.Solo = true

	rain := New("rain", constStreamer{1, 1}, rainCfg, 44100)
	wind := New("wind", constStreamer{1, 1}, windCfg, 44100)
	thunder := New("thunder", constStreamer{1, 1}, defaultConfig(), 44100)
	matrix := New("matrix", constStreamer{1, 1}, defaultConfig(), 44100)

	mx := NewMixer(rain, wind, thunder, matrix, MasterConfig{GainDb: 0, LimiterThresholdDb: 0, LimiterReleaseMs: 50}, 44100)

	samples := make([][2]float64, 44100)
	mx.Stream(samples)

	last := samples[len(samples)-1]
	// Only wind should be audible; rain/thunder/matrix ramp to silence,
	// wind alone should produce non-zero output (limited, but nonzero).
	if math.Abs(last[0]) < 1e-6 && math.Abs(last[1]) < 1e-6 {
		t.Fatalf("soloed bus should still be audible, got %v", last)
	}
	if !rain.effectiveMuted || !thunder.effectiveMuted || !matrix.effectiveMuted {
		t.Fatalf("non-soloed buses should be effectively muted: rain=%v thunder=%v matrix=%v",
			rain.effectiveMuted, thunder.effectiveMuted, matrix.effectiveMuted)
	}
	if wind.effectiveMuted {
		t.Fatalf("soloed wind bus should not be effectively muted")
	}
}

func TestPanLawHardLeftSilencesRightChannel(t *testing.T) {
	cfg := defaultConfig()
	cfg.Pan = -1
	b := New("rain", constStreamer{1, 1}, cfg, 44100)

	samples := make([][2]float64, 8)
	b.Stream(samples)
	last := samples[len(samples)-1]
	if math.Abs(last[1]) > 1e-9 {
		t.Fatalf("hard-left pan should silence right channel, got %v", last)
	}
}

func TestSendTapsScaleByConfiguredAmount(t *testing.T) {
	cfg := defaultConfig()
	cfg.ReverbSend = 0.5
	cfg.DelaySend = 0.25
	b := New("rain", constStreamer{1, 1}, cfg, 44100)

	samples := make([][2]float64, 8)
	b.Stream(samples)

	reverb := b.ReverbSend()
	delay := b.DelaySend()
	if len(reverb) != 8 || len(delay) != 8 {
		t.Fatalf("send taps should match block length")
	}
	// Unity gain and no compressor: the output equals the pre-fader signal.
	for i := range samples {
		for c := 0; c < 2; c++ {
			if math.Abs(reverb[i][c]-0.5*samples[i][c]) > 1e-9 {
				t.Fatalf("reverb send[%d][%d] = %v, want 0.5 * %v", i, c, reverb[i][c], samples[i][c])
			}
			if math.Abs(delay[i][c]-0.25*samples[i][c]) > 1e-9 {
				t.Fatalf("delay send[%d][%d] = %v, want 0.25 * %v", i, c, delay[i][c], samples[i][c])
			}
		}
	}
}

package impact

import (
	"testing"

	"github.com/rainydesk/engine/internal/dsp"
	"github.com/rainydesk/engine/internal/mapper"
)

func testConfig() Config {
	return Config{
		PoolSize:       8,
		NoiseType:      dsp.NoiseWhite,
		Attack:         0.001,
		DecayMin:       0.05,
		DecayMax:       0.3,
		FilterFreqMin:  200,
		FilterFreqMax:  8000,
		FilterQ:        1.2,
		PitchCenter:    50,
		PitchOscAmount: 20,
	}
}

func TestVoice_TriggerActivatesEnvelope(t *testing.T) {
	v := New(44100, 1)
	if v.Active() {
		t.Fatal("expected a freshly constructed voice to be idle")
	}

	v.Trigger(testConfig(), mapper.Params{FrequencyHz: 1200, VolumeDb: -20}, 0)
	if !v.Active() {
		t.Fatal("expected Trigger to activate the voice")
	}
}

func TestVoice_AutoReleaseFiresAfterDecay(t *testing.T) {
	v := New(1000, 1) // low sample rate keeps the test buffer small
	v.Trigger(testConfig(), mapper.Params{VolumeDb: -40}, 0) // quietest: maps to DecayMin

	buf := make([][2]float64, 2000) // well past decayMin(0.05s) + 0.05s auto-release at 1kHz
	v.Stream(buf)

	if v.Active() {
		t.Error("expected the voice to auto-release and fall idle after decay+0.05s")
	}
}

func TestVoice_ReleaseStopsAutoReleaseBookkeeping(t *testing.T) {
	v := New(44100, 1)
	v.Trigger(testConfig(), mapper.Params{VolumeDb: -20}, 0)
	v.Release()

	if v.pendingAutoRelease != -1 {
		t.Errorf("expected Release to clear pendingAutoRelease, got %v", v.pendingAutoRelease)
	}
}

// TestVoice_DecayLinearlyMapsVolumeOntoConfigRange checks spec.md §4.4's
// "map volume in [-40,-6] to decay in [decayMin,decayMax] linearly", with
// out-of-range volumes clamped rather than extrapolated.
func TestVoice_DecayLinearlyMapsVolumeOntoConfigRange(t *testing.T) {
	cfg := testConfig()

	quiet := New(44100, 1)
	quiet.Trigger(cfg, mapper.Params{VolumeDb: -40}, 0)
	if quiet.env.DecayS != cfg.DecayMin {
		t.Errorf("expected -40dB to map to DecayMin=%v, got %v", cfg.DecayMin, quiet.env.DecayS)
	}

	loud := New(44100, 1)
	loud.Trigger(cfg, mapper.Params{VolumeDb: -6}, 0)
	if loud.env.DecayS != cfg.DecayMax {
		t.Errorf("expected -6dB to map to DecayMax=%v, got %v", cfg.DecayMax, loud.env.DecayS)
	}

	mid := New(44100, 1)
	mid.Trigger(cfg, mapper.Params{VolumeDb: -23}, 0) // midpoint of [-40,-6]
	if mid.env.DecayS <= cfg.DecayMin || mid.env.DecayS >= cfg.DecayMax {
		t.Errorf("expected a midpoint volume to map strictly between DecayMin/DecayMax, got %v", mid.env.DecayS)
	}
}

func TestVoice_DecayClampedBeyondVolumeRange(t *testing.T) {
	cfg := testConfig()
	v := New(44100, 1)
	v.Trigger(cfg, mapper.Params{VolumeDb: 20}, 0) // far louder than -6dB ceiling

	if v.env.DecayS > cfg.DecayMax {
		t.Errorf("expected decay clamped to DecayMax=%v, got %v", cfg.DecayMax, v.env.DecayS)
	}
}

func TestVoice_StreamProducesAFullBlock(t *testing.T) {
	v := New(44100, 1)
	v.Trigger(testConfig(), mapper.Params{VolumeDb: -20}, 0)

	buf := make([][2]float64, 128)
	n, ok := v.Stream(buf)
	if n != 128 || !ok {
		t.Fatalf("expected a full non-terminal block, got n=%d ok=%v", n, ok)
	}
}

func TestPool_TriggerActivatesAVoice(t *testing.T) {
	p := NewPool(testConfig(), 44100, 1)
	if p.ActiveCount() != 0 {
		t.Fatalf("expected a fresh pool to have no active voices, got %d", p.ActiveCount())
	}

	p.Trigger(mapper.Params{VolumeDb: -20}, 0.5)
	if p.ActiveCount() != 1 {
		t.Errorf("expected 1 active voice after Trigger, got %d", p.ActiveCount())
	}
}

func TestPool_ResizeRebuildsVoices(t *testing.T) {
	p := NewPool(testConfig(), 44100, 1)
	p.Resize(16, 44100, 2)

	for i := 0; i < 16; i++ {
		p.Trigger(mapper.Params{VolumeDb: -20}, 0)
	}
	if got := p.ActiveCount(); got != 16 {
		t.Errorf("expected 16 active voices after resizing to 16 and triggering 16 times, got %d", got)
	}
}

package bubble

import (
	"testing"

	"github.com/rainydesk/engine/internal/dsp"
)

func testConfig() Config {
	return Config{
		PoolSize:    4,
		Wave:        dsp.WaveSine,
		Probability: 0.1,
		ChirpAmount: 0.3,
		ChirpTime:   0.05,
		FreqMin:     200,
		FreqMax:     4000,
		FilterQ:     2,
	}
}

func TestVoice_TriggerActivatesEnvelope(t *testing.T) {
	v := New(44100)
	if v.Active() {
		t.Fatal("expected a fresh voice to be idle")
	}
	v.Trigger(testConfig(), 800, 0.1)
	if !v.Active() {
		t.Fatal("expected Trigger to activate the voice")
	}
}

func TestVoice_ChirpsDownToEndFrequency(t *testing.T) {
	v := New(44100)
	cfg := testConfig()
	v.Trigger(cfg, 1000, 0.2)

	want := 1000 * (1 - cfg.ChirpAmount)
	buf := make([][2]float64, int(cfg.ChirpTime*44100)*2)
	v.Stream(buf)

	if v.osc.FreqHz > 1000 || v.osc.FreqHz < want-1 {
		t.Errorf("expected frequency to have chirped down toward %v, got %v", want, v.osc.FreqHz)
	}
}

func TestVoice_ZeroChirpTimeDoesNotDivideByZero(t *testing.T) {
	v := New(44100)
	cfg := testConfig()
	cfg.ChirpTime = 0
	v.Trigger(cfg, 500, 0.1)

	buf := make([][2]float64, 256)
	n, ok := v.Stream(buf)
	if n != 256 || !ok {
		t.Fatalf("expected a full block even with ChirpTime=0, got n=%d ok=%v", n, ok)
	}
}

func TestVoice_ReleaseSilencesTheEnvelope(t *testing.T) {
	v := New(44100)
	v.Trigger(testConfig(), 800, 0.5)
	v.Release()

	buf := make([][2]float64, 44100) // well past any attack/decay at this sample rate
	v.Stream(buf)
	if v.Active() {
		t.Error("expected Release to drive the voice to idle")
	}
}

func TestPool_TriggerSkippedWhenNotTriggered(t *testing.T) {
	p := NewPool(testConfig(), 44100, 1)
	p.Trigger(false, 800, 0.1)
	if p.ActiveCount() != 0 {
		t.Errorf("expected Trigger(false, ...) to be a no-op, got %d active", p.ActiveCount())
	}
}

func TestPool_TriggerActivatesOnTrue(t *testing.T) {
	p := NewPool(testConfig(), 44100, 1)
	p.Trigger(true, 800, 0.1)
	if p.ActiveCount() != 1 {
		t.Errorf("expected 1 active voice, got %d", p.ActiveCount())
	}
}

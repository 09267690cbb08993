package thunder

import (
	"errors"
	"testing"

	"github.com/gopxl/beep"
)

func testManifest() IRManifest {
	return IRManifest{
		Pools: map[Environment][]string{
			EnvForest: {"forest-1", "forest-2"},
		},
		FallbackIR: "generic",
	}
}

func testLoader() IRLoader {
	return func(name string) (*beep.Buffer, error) {
		if name == "" {
			return nil, errors.New("empty name")
		}
		return beep.NewBuffer(beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}), nil
	}
}

func allFlags() LayerFlags {
	return LayerFlags{Deepener: true, Afterimage: true, Rumbler: true, Crackle: true, Lightning: true}
}

func TestCloseStrikeFiresAllFiveSubModels(t *testing.T) {
	s := newStrike(StrikeConfig{Distance: 1.5, Environment: EnvForest, Storminess: 80, Flags: allFlags()}, testManifest(), newIRCache(testLoader()), 44100, 1)
	if !s.deepenerEnabled || !s.afterimageEnabled || !s.rumblerEnabled || !s.crackleEnabled || !s.lightningEnabled {
		t.Fatalf("expected all five sub-models enabled at distance 1.5km, got %+v", s)
	}
}

func TestFarStrikeOnlyDeepenerAndAfterimage(t *testing.T) {
	s := newStrike(StrikeConfig{Distance: 12, Environment: EnvForest, Storminess: 80, Flags: allFlags()}, testManifest(), newIRCache(testLoader()), 44100, 2)
	if !s.deepenerEnabled || !s.afterimageEnabled {
		t.Fatalf("expected deepener and afterimage at 12km")
	}
	if s.rumblerEnabled || s.crackleEnabled || s.lightningEnabled {
		t.Fatalf("expected rumbler/crackle/lightning disabled at 12km, got rumbler=%v crackle=%v lightning=%v",
			s.rumblerEnabled, s.crackleEnabled, s.lightningEnabled)
	}
}

func TestStorminessZeroStartAutoIsNoop(t *testing.T) {
	m := NewModule(Config{Storminess: 0, Environment: EnvForest, Flags: allFlags()}, testManifest(), testLoader(), 44100, 1, nil)
	m.StartAuto()
	if m.autoRunning {
		t.Fatalf("expected startAuto to be a no-op at storminess 0")
	}
}

func TestStopAutoPreventsScheduledStrikes(t *testing.T) {
	m := NewModule(Config{Storminess: 100, DistanceKm: 1, Environment: EnvForest, Flags: allFlags()}, testManifest(), testLoader(), 44100, 1, nil)
	m.StartAuto()
	m.StopAuto()

	for i := 0; i < 100000; i++ {
		m.Advance(1.0 / 44100)
	}
	if m.ActiveCount() != 0 {
		t.Fatalf("expected no strikes to fire after stopAuto, got %d active", m.ActiveCount())
	}
}

func TestTriggerStrikeCallsDuck(t *testing.T) {
	var gotAmount float64
	called := false
	duck := func(amount, attack, release float64) {
		called = true
		gotAmount = amount
	}
	m := NewModule(Config{Storminess: 50, DistanceKm: 1, Environment: EnvForest, Flags: allFlags()}, testManifest(), testLoader(), 44100, 3, duck)
	m.TriggerStrike()
	if !called {
		t.Fatalf("expected duck callback to be invoked on trigger")
	}
	if gotAmount != 0.85 {
		t.Fatalf("expected duck amount 0.85 within 2km, got %f", gotAmount)
	}
	if m.ActiveCount() != 1 {
		t.Fatalf("expected one active strike after trigger")
	}
}

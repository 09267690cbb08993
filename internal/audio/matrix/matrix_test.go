package matrix

import "testing"

func TestBarFormulaArpeggioWrap(t *testing.T) {
	seq := NewSequencer()
	seq.Anchor(0)

	t4 := 4*BarSeconds + 1.5*BeatSeconds
	if bar := seq.Bar(t4); bar != 4 {
		t.Fatalf("bar at t=%.4f = %d, want 4", t4, bar)
	}
	chord := seq.GetCurrentChord(t4)
	if chord.Name != "Gm" {
		t.Fatalf("chord at bar 4 = %q, want Gm", chord.Name)
	}

	t64 := 64 * BarSeconds
	if bar := seq.Bar(t64); bar != 64 {
		t.Fatalf("bar at t=%.4f = %d, want 64", t64, bar)
	}
	if got := SectionAt(seq.Bar(t64)); got != SectionBridge {
		t.Fatalf("section at bar 64 = %v, want bridge", got)
	}
	bridgeChord, _ := currentChordForBar(64)
	if bridgeChord.Name != BridgeTheme[0].Name {
		t.Fatalf("bridge chord at bar 64 = %q, want %q", bridgeChord.Name, BridgeTheme[0].Name)
	}

	tBeforeSplit := 84*BarSeconds + 1*BeatSeconds
	seq.Advance(tBeforeSplit)
	seq.NextNote(tBeforeSplit)
	seq.NextNote(tBeforeSplit)
	if seq.noteIndex == 0 {
		t.Fatalf("note index should have advanced past 0 before the beat-3 split")
	}

	t84 := 84*BarSeconds + 3*BeatSeconds
	seq.Advance(t84)
	if seq.noteIndex != 0 {
		t.Fatalf("note index after beat-3 reset on split bar 84 = %d, want 0", seq.noteIndex)
	}
	splitChord, split := currentChordForBar(84)
	if !split {
		t.Fatalf("bar 84 should be a split bar")
	}
	if splitChord.Name != BridgeTheme[0].Name {
		t.Fatalf("bar 84 chord = %q, want %q", splitChord.Name, BridgeTheme[0].Name)
	}
}

func TestTransposeNoteRoundTrips(t *testing.T) {
	notes := []string{"C4", "G3", "Bb3", "F#2", "Eb4", "A-1"}
	for _, n := range notes {
		for k := -17; k <= 17; k++ {
			out := TransposeNote(TransposeNote(n, k), -k)
			if out != n {
				t.Fatalf("TransposeNote(%q,%d) then -%d = %q, want %q", n, k, k, out, n)
			}
		}
	}
}

func TestSectionChangeFiresAtMostOncePerBoundary(t *testing.T) {
	seq := NewSequencer()
	seq.Anchor(0)

	fires := 0
	var lastFrom, lastTo Section
	seq.OnSectionChange(func(from, to Section) {
		fires++
		lastFrom, lastTo = from, to
	})

	// Sweep across the main->bridge boundary one sixteenth-note step at
	// a time; the callback must fire exactly once despite many Advance
	// calls landing inside the bridge section.
	for bar := 60; bar < 70; bar++ {
		for step := 0; step < 16; step++ {
			t64 := float64(bar)*BarSeconds + float64(step)*sixteenthSeconds
			seq.Advance(t64)
		}
	}

	if fires != 1 {
		t.Fatalf("onSectionChange fired %d times crossing one boundary, want 1", fires)
	}
	if lastFrom != SectionMain || lastTo != SectionBridge {
		t.Fatalf("onSectionChange args = (%v,%v), want (main,bridge)", lastFrom, lastTo)
	}
}

func TestIsOnBeatToleranceWindow(t *testing.T) {
	if !IsOnBeat(0) {
		t.Fatalf("t=0 should be on-beat")
	}
	if !IsOnBeat(sixteenthSeconds) {
		t.Fatalf("exact sixteenth boundary should be on-beat")
	}
	if !IsOnBeat(0.011) {
		t.Fatalf("t=0.011 within 12ms tolerance should be on-beat")
	}
	if IsOnBeat(sixteenthSeconds / 2) {
		t.Fatalf("t=half a sixteenth should not be on-beat")
	}
}

func TestModuleTriggerCollisionOffBeatIsNoop(t *testing.T) {
	m := NewModule(Config{Glitch: GlitchConfig{Probability: 1, Bits: 4}}, silentStreamer{}, silentStreamer{}, 44100, 1)
	m.Start()

	// Drive the module's clock to a point strictly between beats, then
	// attempt a collision.
	buf := make([][2]float64, int(0.5*sixteenthSeconds*44100))
	m.Stream(buf)
	if fired := m.TriggerCollision(); fired {
		t.Fatalf("off-beat collision should not fire")
	}
}

func TestModuleTriggerCollisionOnBeatAdvancesChord(t *testing.T) {
	m := NewModule(Config{Glitch: GlitchConfig{Probability: 1, Bits: 4}}, silentStreamer{}, silentStreamer{}, 44100, 1)
	m.Start()

	if fired := m.TriggerCollision(); !fired {
		t.Fatalf("collision at t=0 (on-beat) should fire")
	}
	if m.seq.noteIndex != 1 {
		t.Fatalf("note index after one on-beat collision = %d, want 1", m.seq.noteIndex)
	}
}

type silentStreamer struct{}

func (silentStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

func (silentStreamer) Err() error { return nil }

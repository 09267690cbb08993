package config

import (
	"path/filepath"
	"testing"
)

func TestToDocumentApplyDocument_RoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Master.Rain.GainDb = -3.5
	cfg.Impacts.Physics.VelMin = 0.75
	cfg.Thunder.StrikeIntensity = 0.9

	doc := cfg.ToDocument("storm-preset", "tester")
	if doc.Meta.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", CurrentSchemaVersion, doc.Meta.SchemaVersion)
	}
	if doc.Meta.Name != "storm-preset" || doc.Meta.Author != "tester" {
		t.Errorf("meta not carried through: %+v", doc.Meta)
	}

	var restored Config
	restored.Materials = cfg.Materials
	restored.SampleRate = cfg.SampleRate
	restored.ApplyDocument(doc)

	if restored.Master.Rain.GainDb != -3.5 {
		t.Errorf("Master not round-tripped: got %v", restored.Master.Rain.GainDb)
	}
	if restored.Impacts.Physics.VelMin != 0.75 {
		t.Errorf("Impacts not round-tripped: got %v", restored.Impacts.Physics.VelMin)
	}
	if restored.Thunder.StrikeIntensity != 0.9 {
		t.Errorf("Thunder not round-tripped: got %v", restored.Thunder.StrikeIntensity)
	}
	// Fields deliberately outside the document must be untouched.
	if restored.SampleRate != cfg.SampleRate {
		t.Errorf("SampleRate should not be touched by ApplyDocument")
	}
}

func TestToDocument_SheetsAndWindsAreCopiesNotAliases(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sheets) == 0 {
		cfg.Sheets = []SheetConfig{{Enabled: true, NoiseType: "pink"}}
	}

	doc := cfg.ToDocument("n", "a")
	doc.Sheets[0].NoiseType = "mutated"

	if cfg.Sheets[0].NoiseType == "mutated" {
		t.Error("ToDocument must deep-copy Sheets, not alias the live config's backing array")
	}
}

func TestParseDocument_CoercesZeroSchemaVersion(t *testing.T) {
	raw := []byte("meta:\n  name: legacy\n  author: someone\n")

	doc, err := ParseDocument(raw)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if doc.Meta.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("expected a zero schema_version to be coerced to %d, got %d", CurrentSchemaVersion, doc.Meta.SchemaVersion)
	}
}

func TestParseDocument_InvalidYAML(t *testing.T) {
	_, err := ParseDocument([]byte("not: [valid: yaml"))
	if err == nil {
		t.Fatal("expected an error parsing malformed YAML")
	}
}

func TestSaveAndLoadDocument_RoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Matrix.MasterGainDb = -12

	doc := cfg.ToDocument("roundtrip", "tester")
	path := filepath.Join(t.TempDir(), "preset.rain")

	if err := SaveDocument(path, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	loaded, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if loaded.Matrix.MasterGainDb != -12 {
		t.Errorf("expected Matrix.MasterGainDb -12, got %v", loaded.Matrix.MasterGainDb)
	}
	if loaded.Meta.Name != "roundtrip" {
		t.Errorf("expected meta name to survive the round trip, got %q", loaded.Meta.Name)
	}
}

func TestFileAutosaveStore_GetMissingFileIsNotAnError(t *testing.T) {
	store := FileAutosaveStore{Path: filepath.Join(t.TempDir(), "nope.rain")}

	data, ok, err := store.Get("slot")
	if err != nil {
		t.Fatalf("unexpected error for a missing autosave file: %v", err)
	}
	if ok || data != nil {
		t.Errorf("expected (nil, false) for a missing file, got (%v, %v)", data, ok)
	}
}

func TestFileAutosaveStore_PutThenGet(t *testing.T) {
	store := FileAutosaveStore{Path: filepath.Join(t.TempDir(), "slot.rain")}

	if err := store.Put("slot", []byte("hello")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, ok, err := store.Get("slot")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || string(data) != "hello" {
		t.Errorf("expected (\"hello\", true), got (%q, %v)", data, ok)
	}
}

// TestAutosaver_MarkUnsavedAndStopWithoutStart exercises the dirty-flag
// bookkeeping without depending on the real 30s ticker cadence: Stop is a
// no-op until Start has run, and MarkUnsaved must not panic or block.
func TestAutosaver_MarkUnsavedAndStopWithoutStart(t *testing.T) {
	store := FileAutosaveStore{Path: filepath.Join(t.TempDir(), "slot.rain")}
	a := NewAutosaver(store, "slot", func() Document { return Document{} })

	a.MarkUnsaved()
	if !a.dirty {
		t.Error("expected MarkUnsaved to set the dirty flag")
	}

	a.Stop() // must not block or panic when Start was never called
}

func TestAutosaver_StartStopDoesNotDeadlock(t *testing.T) {
	store := FileAutosaveStore{Path: filepath.Join(t.TempDir(), "slot.rain")}
	a := NewAutosaver(store, "slot", func() Document { return Document{} })

	a.Start()
	a.MarkUnsaved()
	a.Stop()
}

package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutputManager_DisabledWhenDirEmpty(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if om != nil {
		t.Fatal("expected nil OutputManager when dir is empty")
	}
	// Every method must be a safe no-op on a nil receiver.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Errorf("WriteTelemetry on nil manager: %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 0); err != nil {
		t.Errorf("WritePerf on nil manager: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil manager: %v", err)
	}
}

func TestOutputManager_WritesCSVWithHeaderOnce(t *testing.T) {
	dir := t.TempDir()

	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 60, Collisions: 3}); err != nil {
		t.Fatalf("WriteTelemetry: %v", err)
	}
	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 120, Collisions: 5}); err != nil {
		t.Fatalf("WriteTelemetry: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatalf("reading telemetry.csv: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 1 header + 2 rows, got %d lines: %q", len(lines), string(data))
	}
	if !strings.Contains(lines[0], "window_end_tick") {
		t.Errorf("expected header row to name window_end_tick, got %q", lines[0])
	}
}

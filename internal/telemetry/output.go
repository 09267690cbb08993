package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/rainydesk/engine/internal/config"
)

// OutputManager handles structured run output: a config snapshot plus
// rolling telemetry.csv and perf.csv streams.
type OutputManager struct {
	dir           string
	telemetryFile *os.File
	perfFile      *os.File

	telemetryHeaderWritten bool
	perfHeaderWritten      bool
}

// NewOutputManager initializes the output directory. Returns nil, nil if
// dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	telemetryPath := filepath.Join(dir, "telemetry.csv")
	f, err := os.Create(telemetryPath)
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	om.telemetryFile = f

	perfPath := filepath.Join(dir, "perf.csv")
	f, err = os.Create(perfPath)
	if err != nil {
		om.telemetryFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the active configuration as YAML alongside the run's
// CSV output.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends one WindowStats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}

	records := []WindowStats{stats}
	if !om.telemetryHeaderWritten {
		if err := gocsv.Marshal(records, om.telemetryFile); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		om.telemetryHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.telemetryFile); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf appends one PerfStats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64) error {
	if om == nil {
		return nil
	}

	records := []PerfStatsCSV{stats.ToCSV(windowEnd)}
	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if om.telemetryFile != nil {
		if err := om.telemetryFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

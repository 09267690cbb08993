// Command rainydesk drives the engine headlessly or to the default audio
// output device; window/monitor geometry and particle rendering are a host
// concern the library deliberately stays out of (spec.md §1 "Non-goals").
package main

import (
	"bytes"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	"github.com/rainydesk/engine/internal/audio/texture"
	"github.com/rainydesk/engine/internal/audio/thunder"
	"github.com/rainydesk/engine/internal/config"
	"github.com/rainydesk/engine/internal/geometry"
	"github.com/rainydesk/engine/internal/orchestrator"
	"github.com/rainydesk/engine/internal/telemetry"
)

var (
	configPath  = flag.String("config", "", "Path to a .rain config file overriding the embedded defaults")
	assetsDir   = flag.String("assets", "", "Directory of WAV impulse-response/texture/drone assets (empty: everything falls back to silence)")
	width       = flag.Float64("width", 1920, "Virtual desktop width in px (single-display headless run)")
	height      = flag.Float64("height", 1080, "Virtual desktop height in px")
	speed       = flag.Int("speed", 1, "Simulation ticks per loop iteration")
	headless    = flag.Bool("headless", false, "Run without opening the audio output device (for benchmarking)")
	maxTicks    = flag.Int("max-ticks", 0, "Stop after N ticks (0 = run forever)")
	perfLog     = flag.Bool("perf", false, "Log rolling performance stats every second")
	outputDir   = flag.String("output", "", "Directory to write telemetry.csv/perf.csv/config.yaml into (empty = disabled)")
	logFile     = flag.String("logfile", "", "Write logs to file instead of stdout")
	seedFlag    = flag.Int64("seed", 0, "RNG seed (0 picks a random seed)")
	logWriter   *os.File
)

const tickDt = 1.0 / 60.0

func main() {
	flag.Parse()

	if *logFile != "" {
		var err error
		logWriter, err = os.Create(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log file: %v\n", err)
			os.Exit(1)
		}
		defer logWriter.Close()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logf("config: %v", err)
		os.Exit(1)
	}
	config.Set(cfg)

	seed := *seedFlag
	if seed == 0 {
		seed = rand.Int63()
	}

	displays := []geometry.DisplayInfo{{ID: 0, Width: *width, Height: *height, ScaleFactor: 1}}

	assets := buildAssets(*assetsDir)
	orch := orchestrator.New(*cfg, assets, displays, seed)
	orch.SetDisplays(displays, 0, nil)

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		logf("output: %v", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		logf("output: %v", err)
	}

	perf := telemetry.NewPerfCollector(60)
	stats := telemetry.NewCollector(1.0, tickDt)
	orch.SetCollector(stats)

	if *headless {
		runHeadless(orch, perf, stats, om)
		return
	}

	runLive(orch, perf, stats, om)
}

// buildAssets wires WAV-backed loaders rooted at dir; any load failure is
// tolerated downstream (texture/thunder fall back to silence or another
// manifest entry), so a missing or empty assets directory degrades
// gracefully instead of failing the run.
func buildAssets(dir string) orchestrator.Assets {
	loadWAV := func(name string) (*beep.Buffer, error) {
		data, err := os.ReadFile(filepath.Join(dir, name+".wav"))
		if err != nil {
			return nil, err
		}
		streamer, format, err := wav.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer streamer.Close()
		buf := beep.NewBuffer(format)
		buf.Append(streamer)
		return buf, nil
	}

	loadLoop := func(name string) beep.Streamer {
		buf, err := loadWAV(name)
		if err != nil {
			return beep.Silence(-1)
		}
		return beep.Loop(-1, buf.Streamer(0, buf.Len()))
	}

	return orchestrator.Assets{
		TextureLoader:   texture.AssetLoader(loadWAV),
		TextureRegistry: texture.SurfaceRegistry{},
		ThunderIRLoader: thunder.IRLoader(loadWAV),
		ThunderManifest: thunder.IRManifest{},
		MatrixDroneA:    loadLoop("matrix_drone_a"),
		MatrixDroneB:    loadLoop("matrix_drone_b"),
	}
}

// runLive opens the default audio output device and streams the
// orchestrator's master mix to it in real time, ticking physics on its own
// wall-clock cadence.
func runLive(orch *orchestrator.Orchestrator, perf *telemetry.PerfCollector, stats *telemetry.Collector, om *telemetry.OutputManager) {
	sr := beep.SampleRate(48000)
	if err := speaker.Init(sr, sr.N(time.Millisecond*50)); err != nil {
		logf("speaker: %v", err)
		os.Exit(1)
	}
	speaker.Play(orch)

	logf("rainydesk running (speed=%dx); Ctrl+C to stop", *speed)

	ticker := time.NewTicker(time.Duration(tickDt*1000) * time.Millisecond)
	defer ticker.Stop()

	var tick int64
	for range ticker.C {
		perf.StartTick()
		perf.StartPhase(telemetry.PhasePhysics)
		for i := 0; i < *speed; i++ {
			orch.Tick(tickDt)
			tick++
		}
		perf.StartPhase(telemetry.PhaseDensitySync)
		perf.EndTick()

		flushIfDue(tick, perf, stats, om)

		if *maxTicks > 0 && tick >= int64(*maxTicks) {
			logf("reached max ticks (%d), stopping.", *maxTicks)
			return
		}
	}
}

// runHeadless drives the tick loop without opening an audio device, pulling
// samples from Stream into a discard buffer purely to exercise and time the
// audio-rate path (spec.md §2's Stream contract applies regardless of
// whether a real output device is attached).
func runHeadless(orch *orchestrator.Orchestrator, perf *telemetry.PerfCollector, stats *telemetry.Collector, om *telemetry.OutputManager) {
	logf("Starting headless run...")
	logf("  Speed: %dx, Max ticks: %d", *speed, *maxTicks)
	logf("")

	discard := make([][2]float64, 512)

	startTime := time.Now()
	lastReport := startTime
	reportInterval := 10 * time.Second

	var tick int64
	for {
		if *maxTicks > 0 && tick >= int64(*maxTicks) {
			logf("reached max ticks (%d), stopping.", *maxTicks)
			break
		}

		perf.StartTick()
		perf.StartPhase(telemetry.PhasePhysics)
		for i := 0; i < *speed; i++ {
			orch.Tick(tickDt)
			tick++
		}
		perf.StartPhase(telemetry.PhaseAudioMix)
		orch.Stream(discard)
		perf.EndTick()

		flushIfDue(tick, perf, stats, om)

		if time.Since(lastReport) >= reportInterval {
			elapsed := time.Since(startTime)
			ticksPerSec := float64(tick) / elapsed.Seconds()
			logf("[progress] tick %d | %.0f ticks/sec | elapsed %s", tick, ticksPerSec, elapsed.Round(time.Second))
			lastReport = time.Now()
		}
	}

	elapsed := time.Since(startTime)
	logf("")
	logf("run complete. total ticks: %d, elapsed: %s", tick, elapsed.Round(time.Millisecond))
}

func flushIfDue(tick int64, perf *telemetry.PerfCollector, stats *telemetry.Collector, om *telemetry.OutputManager) {
	if !stats.ShouldFlush(tick) {
		return
	}

	ws := stats.Flush(tick)
	if err := om.WriteTelemetry(ws); err != nil {
		logf("telemetry: %v", err)
	}

	ps := perf.Stats()
	if *perfLog {
		ps.LogStats()
	}
	if err := om.WritePerf(ps, tick); err != nil {
		logf("perf: %v", err)
	}
}

func logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

package matrix

import (
	"sync"

	"github.com/gopxl/beep"

	"github.com/rainydesk/engine/internal/dsp"
)

// Config mirrors spec.md §6's matrix.* configuration surface.
type Config struct {
	MasterGainDb float64
	Transpose    int
	Glitch       GlitchConfig
}

// Module wires the Sequencer, Bass, Drone and glitch/note voices into
// the single beat-quantised digital-rain musical layer (spec.md §4.9).
// It keeps its own performance clock, advanced one sample at a time in
// Stream, the same self-maintained-elapsed-time idiom the thunder
// module uses for its per-strike clocks.
type Module struct {
	mu sync.Mutex

	cfg Config

	seq    *Sequencer
	bass   *Bass
	drone  *Drone
	glitch *GlitchVoice
	note   *NoteVoice

	sampleRate float64
	clockS     float64
	anchored   bool
}

// NewModule constructs a matrix module. droneA/droneB are the two
// looped drone sample sources (spec.md §4.9's A/B crossfade); the host
// decodes and loops the underlying assets.
func NewModule(cfg Config, droneA, droneB beep.Streamer, sampleRate float64, seed int64) *Module {
	m := &Module{
		cfg:        cfg,
		seq:        NewSequencer(),
		bass:       NewBass(sampleRate),
		drone:      NewDrone(droneA, droneB, sampleRate),
		glitch:     NewGlitchVoice(cfg.Glitch, sampleRate, seed),
		note:       NewNoteVoice(sampleRate),
		sampleRate: sampleRate,
	}
	m.seq.SetTranspose(cfg.Transpose)
	m.seq.OnSectionChange(func(from, to Section) {
		if to == SectionMain {
			m.drone.FadeTo(1)
		} else {
			m.drone.FadeTo(0)
		}
	})
	return m
}

func (m *Module) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	m.seq.SetTranspose(cfg.Transpose)
}

// Start anchors the sequencer's beat origin to the module's current
// clock, once, and starts the drone, which begins at full level without
// a fade-in.
func (m *Module) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.anchored {
		return
	}
	m.anchored = true
	m.seq.Anchor(m.clockS)
	m.drone.Start()
}

// TriggerCollision implements the on-beat/off-beat dispatch (spec.md
// §4.9 "Quantisation"): an on-beat collision advances the chord
// sequencer, fires the glitch burst and the chord-advanced note; an
// off-beat collision is silent/visual-only and reports false.
func (m *Module) TriggerCollision() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.anchored || !IsOnBeat(m.clockS) {
		return false
	}
	m.seq.Advance(m.clockS)
	note := m.seq.NextNote(m.clockS)
	m.glitch.MaybeTrigger(m.cfg.Glitch)
	if note != "" {
		m.note.Trigger(NoteFrequency(note))
	}
	return true
}

// CurrentSection reports the section the sequencer currently sits in.
func (m *Module) CurrentSection() Section {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.anchored {
		return SectionMain
	}
	return SectionAt(m.seq.Bar(m.clockS))
}

func (m *Module) Stream(samples [][2]float64) (int, bool) {
	m.mu.Lock()
	anchored := m.anchored
	gainDb := m.cfg.MasterGainDb
	m.mu.Unlock()

	for i := range samples {
		samples[i] = [2]float64{}
	}
	if !anchored {
		return len(samples), true
	}

	dt := 1.0 / m.sampleRate

	droneBuf := make([][2]float64, len(samples))
	m.drone.Stream(droneBuf)
	bassBuf := make([][2]float64, len(samples))
	m.bass.Stream(bassBuf)
	glitchBuf := make([][2]float64, len(samples))
	m.glitch.Stream(glitchBuf)
	noteBuf := make([][2]float64, len(samples))
	m.note.Stream(noteBuf)

	gain := dsp.DbToLinear(gainDb)
	for i := range samples {
		samples[i][0] = (droneBuf[i][0] + bassBuf[i][0] + glitchBuf[i][0] + noteBuf[i][0]) * gain
		samples[i][1] = (droneBuf[i][1] + bassBuf[i][1] + glitchBuf[i][1] + noteBuf[i][1]) * gain

		m.mu.Lock()
		m.clockS += dt
		bar := m.seq.Bar(m.clockS)
		beat := m.seq.BeatInBar(m.clockS)
		m.seq.Advance(m.clockS)
		m.bass.Advance(bar, beat)
		m.mu.Unlock()
	}
	return len(samples), true
}

func (m *Module) Err() error { return nil }

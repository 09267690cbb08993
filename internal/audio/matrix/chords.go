package matrix

// Chord is a named set of notes (MIDI-style note names, e.g. "G3") that
// the arpeggio sequencer cycles through on each on-beat collision
// (spec.md §4.9).
type Chord struct {
	Name  string
	Notes []string
}

// Main is the 4-chord triadic cycle driving bars 0..63.
var Main = []Chord{
	{"Gm", []string{"G3", "Bb3", "D4"}},
	{"Am", []string{"A3", "C4", "E4"}},
	{"Bb", []string{"Bb3", "D4", "F4"}},
	{"C", []string{"C4", "E4", "G4"}},
}

// BridgeTheme is the 8-chord, 8-note up-and-back arpeggio played twice
// over bars 64..79.
var BridgeTheme = []Chord{
	{"Gm7", []string{"G3", "Bb3", "D4", "F4"}},
	{"Cm7", []string{"C4", "Eb4", "G4", "Bb4"}},
	{"Dm7", []string{"D3", "F3", "A3", "C4"}},
	{"Ebmaj7", []string{"Eb3", "G3", "Bb3", "D4"}},
	{"Dm7", []string{"D3", "F3", "A3", "C4"}},
	{"Cm7", []string{"C4", "Eb4", "G4", "Bb4"}},
	{"Gm7", []string{"G3", "Bb3", "D4", "F4"}},
	{"D7", []string{"D3", "Gb3", "A3", "C4"}},
}

// EbUpAndBack is bar 87's standalone up-and-back arpeggio.
var EbUpAndBack = Chord{"Eb", []string{"Eb3", "G3", "Bb3", "G3", "Eb3"}}

// Breakdown is the first two main chords, repeated over bars 88..89.
var Breakdown = Main[:2]

const (
	bpm            = 102
	barsPerCycle   = 90
	bridgeStart    = 64
	bridgeVarStart = 80
	breakdownStart = 88
)

// BeatSeconds is the duration of one quarter-note beat at 102 BPM.
const BeatSeconds = 60.0 / bpm

// BarSeconds is the duration of one 4/4 bar: 4*60/102s (spec.md §8).
const BarSeconds = 4 * BeatSeconds

// CycleSeconds is the full 90-bar cycle duration.
const CycleSeconds = barsPerCycle * BarSeconds

// sixteenthSeconds is the sixteenth-note quantisation grid (~147ms),
// spec.md §4.9's "Quantisation".
const sixteenthSeconds = BeatSeconds / 4

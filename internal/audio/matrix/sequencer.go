// Package matrix implements the beat-quantised digital-rain musical
// layer spec.md §4.9 describes: a drone crossfade, a 90-bar arpeggio
// sequencer in three sections, a per-bar bass state machine, and an
// on-beat glitch voice. Grounded on the teacher's tick-driven
// accumulator scheduling (systems/cells.go), generalized from a fixed
// simulation rate to a musical bar/beat clock.
package matrix

import (
	"math"
	"strings"
)

// Section identifies where the sequencer sits in the 90-bar cycle.
type Section int

const (
	SectionMain Section = iota
	SectionBridge
	SectionBreakdown
)

func (s Section) String() string {
	switch s {
	case SectionBridge:
		return "bridge"
	case SectionBreakdown:
		return "breakdown"
	default:
		return "main"
	}
}

// Sequencer tracks bar/beat position inside the 90-bar cycle and
// returns the next chord note on each on-beat collision.
type Sequencer struct {
	beatOriginTime float64 // captured once, never re-anchored (spec.md §9)
	hasOrigin      bool

	noteIndex int
	lastBar   int
	lastSplit bool

	transposeSemitones int

	onSectionChange func(from, to Section)
	lastSection     Section
}

// NewSequencer constructs an un-anchored sequencer; Anchor captures the
// beat origin on first use.
func NewSequencer() *Sequencer {
	return &Sequencer{lastBar: -1}
}

// Anchor captures beatOriginTime once, at the drone's first sample
// start (spec.md §4.9). Calling it again after the first time is a
// no-op — the origin is never re-anchored.
func (s *Sequencer) Anchor(performanceClockS float64) {
	if s.hasOrigin {
		return
	}
	s.beatOriginTime = performanceClockS
	s.hasOrigin = true
}

// OnSectionChange registers the callback fired at most once per crossed
// section boundary (spec.md §4.9 invariant).
func (s *Sequencer) OnSectionChange(fn func(from, to Section)) { s.onSectionChange = fn }

func (s *Sequencer) elapsed(t float64) float64 {
	e := t - s.beatOriginTime
	if e < 0 {
		e = 0
	}
	cyclePos := math.Mod(e, CycleSeconds)
	return cyclePos
}

// Bar returns floor(((t-origin) mod CYCLE)/BAR), matching spec.md §8's
// testable property exactly.
func (s *Sequencer) Bar(t float64) int {
	return int(math.Floor(s.elapsed(t) / BarSeconds))
}

// BeatInBar returns the fractional beat position within the current bar
// (0..4 for a 4/4 bar).
func (s *Sequencer) BeatInBar(t float64) float64 {
	barStart := float64(s.Bar(t)) * BarSeconds
	return (s.elapsed(t) - barStart) / BeatSeconds
}

// SectionAt reports which of the three sections bar falls in.
func SectionAt(bar int) Section {
	switch {
	case bar < bridgeStart:
		return SectionMain
	case bar < breakdownStart:
		return SectionBridge
	default:
		return SectionBreakdown
	}
}

// IsOnBeat reports whether t falls within ±12ms of a sixteenth-note
// boundary (spec.md §4.9 "Quantisation").
func IsOnBeat(t float64) bool {
	mod := math.Mod(t, sixteenthSeconds)
	if mod < 0 {
		mod += sixteenthSeconds
	}
	const tolerance = 0.012
	return mod <= tolerance || (sixteenthSeconds-mod) <= tolerance
}

// SetTranspose applies a semitone offset to every note this sequencer
// returns.
func (s *Sequencer) SetTranspose(semitones int) { s.transposeSemitones = semitones }

// currentChordForBar implements the chord-selection table in spec.md
// §4.9, including the bridge-variation split bars.
func currentChordForBar(bar int) (Chord, bool /* splitAtBeat3 */) {
	switch {
	case bar < bridgeStart:
		return Main[bar%4], false
	case bar < bridgeVarStart:
		step := (bar - bridgeStart) % len(BridgeTheme)
		return BridgeTheme[step], false
	case bar < 84:
		step := bar - bridgeVarStart
		return BridgeTheme[step], false
	case bar < 87:
		// bars 84..86: split bars. The chord stays BridgeTheme[bar-84] for
		// the whole bar; at beat 3 Advance only restarts the note cycle.
		return BridgeTheme[bar-84], true
	case bar == 87:
		return EbUpAndBack, false
	default:
		return Breakdown[(bar-breakdownStart)%len(Breakdown)], false
	}
}

// Advance updates section-change bookkeeping for time t; callers should
// invoke this once per frame/collision check before GetCurrentChord.
func (s *Sequencer) Advance(t float64) {
	if !s.hasOrigin {
		return
	}
	bar := s.Bar(t)
	section := SectionAt(bar)

	if bar != s.lastBar {
		s.noteIndex = 0
		s.lastSplit = false
	}

	_, split := currentChordForBar(bar)
	if split && s.BeatInBar(t) >= 3 && !s.lastSplit {
		s.noteIndex = 0
		s.lastSplit = true
	}

	if section != s.lastSection && s.lastBar >= 0 {
		if s.onSectionChange != nil {
			s.onSectionChange(s.lastSection, section)
		}
	}

	s.lastBar = bar
	s.lastSection = section
}

// GetCurrentChord returns the chord active at time t (without advancing
// sequencer state — callers should call Advance first).
func (s *Sequencer) GetCurrentChord(t float64) Chord {
	bar := s.Bar(t)
	chord, _ := currentChordForBar(bar)
	return chord
}

// NextNote returns the next note in the current chord's cycle, applying
// the transpose offset, and advances the internal note index.
func (s *Sequencer) NextNote(t float64) string {
	chord := s.GetCurrentChord(t)
	if len(chord.Notes) == 0 {
		return ""
	}
	note := chord.Notes[s.noteIndex%len(chord.Notes)]
	s.noteIndex++
	return TransposeNote(note, s.transposeSemitones)
}

var noteSemitone = map[string]int{
	"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3, "E": 4, "F": 5,
	"F#": 6, "Gb": 6, "G": 7, "G#": 8, "Ab": 8, "A": 9, "A#": 10, "Bb": 10, "B": 11,
}

var semitoneNote = [12]string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B"}

// TransposeNote shifts a note name (e.g. "G3", "Bb4") by k semitones,
// recognising both flats and sharps. Results are spelled from
// semitoneNote, so TransposeNote(·, -k) undoes it exactly for every name
// spelled that way; another spelling of the same pitch (e.g. "A#3")
// comes back in the table's spelling ("Bb3").
func TransposeNote(name string, k int) string {
	letter, octave, ok := splitNote(name)
	if !ok {
		return name
	}
	semi, ok := noteSemitone[letter]
	if !ok {
		return name
	}
	total := octave*12 + semi + k
	newOctave := total / 12
	newSemi := total % 12
	if newSemi < 0 {
		newSemi += 12
		newOctave--
	}
	return semitoneNote[newSemi] + itoa(newOctave)
}

func splitNote(name string) (letter string, octave int, ok bool) {
	i := 0
	for i < len(name) && !isDigit(name[i]) && name[i] != '-' {
		i++
	}
	if i == 0 {
		return "", 0, false
	}
	letter = name[:i]
	rest := name[i:]
	if rest == "" {
		return "", 0, false
	}
	neg := strings.HasPrefix(rest, "-")
	if neg {
		rest = rest[1:]
	}
	n := 0
	for _, c := range rest {
		if c < '0' || c > '9' {
			return "", 0, false
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return letter, n, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [8]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	s := string(buf[pos:])
	if neg {
		return "-" + s
	}
	return s
}

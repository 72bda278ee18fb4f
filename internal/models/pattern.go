package models

import "math"

// maxTempoMicros is the largest value a 24-bit tempo meta event can carry
const maxTempoMicros = 0xFFFFFF

// MinTempo and MaxTempo bound the BPM values a MIDI tempo event can represent.
// MaxTempo still rounds to one microsecond per beat.
const (
	MinTempo = 60_000_000.0 / maxTempoMicros
	MaxTempo = 60_000_000.0 * 2
)

// ValidTempo reports whether bpm encodes to a non-zero 24-bit microseconds-per-beat value
func ValidTempo(bpm float64) bool {
	if math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm <= 0 {
		return false
	}
	micros := math.Round(60_000_000 / bpm)
	return micros >= 1 && micros <= maxTempoMicros
}

// Part identifies which instrumental line a pattern holds
type Part string

const (
	PartMotif     Part = "motif"
	PartBass      Part = "bass"
	PartChords    Part = "chords"
	PartRandomArp Part = "random_arp"
)

// NoteEvent represents a single musical note with timing and pitch information.
// When Rest is true the event is silence and MidiNoteNumber carries no meaning.
type NoteEvent struct {
	MidiNoteNumber int     `json:"midiNoteNumber"`
	Velocity       int     `json:"velocity"`
	StartBeats     float64 `json:"startBeats"`
	DurationBeats  float64 `json:"durationBeats"`
	Rest           bool    `json:"rest,omitempty"`
}

// Pitched builds a sounding note event
func Pitched(pitch, velocity int, duration float64) NoteEvent {
	return NoteEvent{MidiNoteNumber: pitch, Velocity: velocity, DurationBeats: duration}
}

// RestEvent builds a silent event of the given length
func RestEvent(duration float64) NoteEvent {
	return NoteEvent{DurationBeats: duration, Rest: true}
}

// Pitch returns the note number and false for rests
func (e NoteEvent) Pitch() (int, bool) {
	if e.Rest {
		return 0, false
	}
	return e.MidiNoteNumber, true
}

// Pattern is a monophonic sequence of events for one part
type Pattern struct {
	Name    string      `json:"name"`
	Part    Part        `json:"part"`
	Key     string      `json:"key"`
	Tempo   float64     `json:"tempo"`
	Program int         `json:"program"`
	Events  []NoteEvent `json:"events"`
}

// Append adds an event after the last one, filling in its start time
func (p *Pattern) Append(e NoteEvent) {
	e.StartBeats = 0
	if n := len(p.Events); n > 0 {
		last := p.Events[n-1]
		e.StartBeats = last.StartBeats + last.DurationBeats
	}
	p.Events = append(p.Events, e)
}

// LengthBeats is the sum of all event durations
func (p *Pattern) LengthBeats() float64 {
	total := 0.0
	for _, e := range p.Events {
		total += e.DurationBeats
	}
	return total
}

// PatternSet holds the three parts produced by the template engine
type PatternSet struct {
	Motif  Pattern `json:"motif"`
	Bass   Pattern `json:"bass"`
	Chords Pattern `json:"chords"`
}

// Parts returns the patterns in motif, bass, chords order
func (s PatternSet) Parts() []Pattern {
	return []Pattern{s.Motif, s.Bass, s.Chords}
}

// ByPart returns the pattern for the given part
func (s PatternSet) ByPart(part Part) (Pattern, bool) {
	switch part {
	case PartMotif:
		return s.Motif, true
	case PartBass:
		return s.Bass, true
	case PartChords:
		return s.Chords, true
	}
	return Pattern{}, false
}

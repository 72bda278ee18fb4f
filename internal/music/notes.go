package music

import (
	"fmt"
	"strings"
)

// PitchName renders a MIDI pitch number as a note name, C4 = 60
func PitchName(pitch int) string {
	if pitch < 0 || pitch > 127 {
		return fmt.Sprintf("?%d", pitch)
	}
	return fmt.Sprintf("%s%d", tonicNames[pitch%octave], (pitch/octave)-1)
}

// NoteNameToMIDI converts a note name like "E1", "C4", "F#3", "Bb2" to a MIDI note number
// Format: <note><accidental?><octave> where:
//   - note: A-G (case insensitive)
//   - accidental: # (sharp) or b (flat), optional
//   - octave: -1 to 9 (C4 = 60 = middle C)
func NoteNameToMIDI(noteName string) (int, error) {
	if len(noteName) < 2 {
		return 0, fmt.Errorf("note name too short: %s", noteName)
	}

	noteChar := strings.ToUpper(string(noteName[0]))
	noteOffsets := map[string]int{
		"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
	}
	semitone, ok := noteOffsets[noteChar]
	if !ok {
		return 0, fmt.Errorf("invalid note letter: %s", noteChar)
	}

	idx := 1
	switch noteName[idx] {
	case '#':
		semitone++
		idx++
	case 'b':
		semitone--
		idx++
	}

	if idx >= len(noteName) {
		return 0, fmt.Errorf("missing octave in note name: %s", noteName)
	}

	var oct int
	if _, err := fmt.Sscanf(noteName[idx:], "%d", &oct); err != nil {
		return 0, fmt.Errorf("invalid octave in note name %s: %w", noteName, err)
	}

	// (octave + 1) * 12 + semitone gives C-1 = 0, C4 = 60
	midiNote := (oct+1)*octave + semitone
	if midiNote < 0 || midiNote > 127 {
		return 0, fmt.Errorf("note %s is outside the MIDI range", noteName)
	}
	return midiNote, nil
}

// ScaleNames renders every pitch of the scale as a note name
func ScaleNames(s Scale) []string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = PitchName(p)
	}
	return names
}

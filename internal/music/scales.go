package music

import (
	"fmt"
	"strings"
)

// Key names a minor key, e.g. "E minor" or "C# minor"
type Key string

// Scale is an ordered set of MIDI pitch numbers, lowest first
type Scale []int

const (
	// DefaultKey is used for every unknown or missing key
	DefaultKey Key = "C minor"

	minorSuffix  = " minor"
	octave       = 12
	scaleLength  = 7
	lowestTonic  = 57 // A3
	highestTonic = 68 // G#4
)

// Natural minor: whole, half, whole, whole, half, whole, whole
var minorIntervals = [scaleLength]int{0, 2, 3, 5, 7, 8, 10}

var tonicNames = [octave]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var flatToSharp = map[string]string{
	"DB": "C#", "EB": "D#", "GB": "F#", "AB": "G#", "BB": "A#",
	"CB": "B", "FB": "E", "E#": "F", "B#": "C",
}

// scaleTable is built once at init and never written afterwards
var scaleTable = buildScaleTable()

func buildScaleTable() map[Key]Scale {
	table := make(map[Key]Scale, octave)
	for pc, name := range tonicNames {
		tonic := 60 + pc
		if tonic > highestTonic {
			tonic -= octave
		}
		scale := make(Scale, scaleLength)
		for i, interval := range minorIntervals {
			scale[i] = tonic + interval
		}
		table[Key(name+minorSuffix)] = scale
	}
	return table
}

// Keys returns the supported keys in chromatic order starting at C
func Keys() []Key {
	keys := make([]Key, 0, octave)
	for _, name := range tonicNames {
		keys = append(keys, Key(name+minorSuffix))
	}
	return keys
}

// Lookup returns the scale for key, or the DefaultKey scale when the key is not
// a supported minor key. It never fails.
func Lookup(key Key) Scale {
	if scale, ok := scaleTable[key]; ok {
		return scale.Clone()
	}
	return scaleTable[DefaultKey].Clone()
}

// Resolve parses a free-form key string and returns the canonical key and its scale.
// ok is false when the input was not recognized and DefaultKey was substituted.
func Resolve(s string) (Key, Scale, bool) {
	key, ok := ParseKey(s)
	if !ok {
		return DefaultKey, Lookup(DefaultKey), false
	}
	return key, Lookup(key), true
}

// ParseKey normalizes spellings like "eb MINOR" or "D#minor" to "D# minor".
// Only minor keys are accepted.
func ParseKey(s string) (Key, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", false
	}

	lower := strings.ToLower(trimmed)
	if !strings.HasSuffix(lower, "minor") {
		return "", false
	}
	tonic := strings.TrimSpace(trimmed[:len(trimmed)-len("minor")])
	if tonic == "" || len(tonic) > 2 {
		return "", false
	}

	tonic = strings.ToUpper(tonic[:1]) + strings.ToUpper(tonic[1:])
	if sharp, ok := flatToSharp[tonic]; ok {
		tonic = sharp
	}

	key := Key(tonic + minorSuffix)
	if _, ok := scaleTable[key]; !ok {
		return "", false
	}
	return key, true
}

// Tonic returns the tonic note name of the key ("C#" for "C# minor")
func (k Key) Tonic() string {
	return strings.TrimSuffix(string(k), minorSuffix)
}

// Clone returns a copy that callers may modify freely
func (s Scale) Clone() Scale {
	out := make(Scale, len(s))
	copy(out, s)
	return out
}

// Root returns the lowest pitch of the scale
func (s Scale) Root() int {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

// Contains reports whether pitch is one of the scale's pitches (same octave)
func (s Scale) Contains(pitch int) bool {
	for _, p := range s {
		if p == pitch {
			return true
		}
	}
	return false
}

// Degree returns the pitch of a scale degree. Degrees past the last note wrap up
// one octave per scale length and negative degrees wrap down, so Degree(7) on a
// seven-note scale is the root an octave higher.
func (s Scale) Degree(d int) int {
	n := len(s)
	idx := d % n
	shift := d / n
	if idx < 0 {
		idx += n
		shift--
	}
	return s[idx] + shift*octave
}

// Validate checks that the scale is non-empty, strictly increasing and within the
// MIDI range.
func (s Scale) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("scale is empty")
	}
	for i, p := range s {
		if p < 0 || p > 127 {
			return fmt.Errorf("scale pitch %d out of MIDI range", p)
		}
		if i > 0 && p <= s[i-1] {
			return fmt.Errorf("scale is not strictly increasing at index %d", i)
		}
	}
	return nil
}

// Intervals returns the semitone steps between neighbouring pitches, closing the
// octave back to the root as the last step.
func (s Scale) Intervals() []int {
	if len(s) == 0 {
		return nil
	}
	steps := make([]int, 0, len(s))
	for i := 1; i < len(s); i++ {
		steps = append(steps, s[i]-s[i-1])
	}
	steps = append(steps, s[0]+octave-s[len(s)-1])
	return steps
}

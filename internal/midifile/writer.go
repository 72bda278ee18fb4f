// Package midifile converts patterns to and from single-track Standard MIDI Files.
package midifile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/Conceptual-Machines/magda-patterns/internal/models"
)

// TicksPerBeat is the resolution of every file written by this package
const TicksPerBeat = 480

// ErrInvalidPattern is returned (wrapped) when a pattern cannot be serialized
var ErrInvalidPattern = errors.New("invalid pattern")

// RestMode selects how rest events are written
type RestMode string

const (
	// RestGap folds rest time into the delta of the next event
	RestGap RestMode = "gap"
	// RestSilentNote writes a zero velocity note on pitch 0 for every rest
	RestSilentNote RestMode = "silent-note"
)

// ParseRestMode accepts "gap", "silent-note" or an empty string (gap)
func ParseRestMode(s string) (RestMode, error) {
	switch RestMode(s) {
	case "", RestGap:
		return RestGap, nil
	case RestSilentNote:
		return RestSilentNote, nil
	}
	return "", fmt.Errorf("unknown rest mode %q", s)
}

// Options controls serialization
type Options struct {
	RestMode RestMode
	Channel  uint8
}

// DefaultOptions writes rests as gaps on channel 0
func DefaultOptions() Options {
	return Options{RestMode: RestGap}
}

func ticks(beats float64) uint32 {
	return uint32(beats * TicksPerBeat)
}

func validate(p models.Pattern, opts Options) error {
	if !models.ValidTempo(p.Tempo) {
		return fmt.Errorf("%w: tempo %v outside %.2f-%.0f bpm", ErrInvalidPattern, p.Tempo, models.MinTempo, models.MaxTempo)
	}
	if p.Program < 0 || p.Program > 127 {
		return fmt.Errorf("%w: program %d", ErrInvalidPattern, p.Program)
	}
	if opts.Channel > 15 {
		return fmt.Errorf("%w: channel %d", ErrInvalidPattern, opts.Channel)
	}
	for i, e := range p.Events {
		if e.DurationBeats <= 0 {
			return fmt.Errorf("%w: event %d has duration %v", ErrInvalidPattern, i, e.DurationBeats)
		}
		if e.Rest {
			continue
		}
		if e.MidiNoteNumber < 0 || e.MidiNoteNumber > 127 {
			return fmt.Errorf("%w: event %d pitch %d", ErrInvalidPattern, i, e.MidiNoteNumber)
		}
		if e.Velocity < 0 || e.Velocity > 127 {
			return fmt.Errorf("%w: event %d velocity %d", ErrInvalidPattern, i, e.Velocity)
		}
	}
	return nil
}

// Encode builds a single-track file: tempo, program change, then one note on/off pair per event.
func Encode(p models.Pattern, opts Options) (*smf.SMF, error) {
	if err := validate(p, opts); err != nil {
		return nil, err
	}
	mode, err := ParseRestMode(string(opts.RestMode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(TicksPerBeat)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(p.Tempo))
	tr.Add(0, midi.ProgramChange(opts.Channel, uint8(p.Program)))

	var pending uint32
	for _, e := range p.Events {
		length := ticks(e.DurationBeats)
		if e.Rest {
			if mode == RestSilentNote {
				tr.Add(pending, midi.NoteOn(opts.Channel, 0, 0))
				tr.Add(length, midi.NoteOffVelocity(opts.Channel, 0, 0))
				pending = 0
			} else {
				pending += length
			}
			continue
		}
		key, vel := uint8(e.MidiNoteNumber), uint8(e.Velocity)
		tr.Add(pending, midi.NoteOn(opts.Channel, key, vel))
		tr.Add(length, midi.NoteOffVelocity(opts.Channel, key, vel))
		pending = 0
	}
	tr.Close(pending)

	if err := sm.Add(tr); err != nil {
		return nil, fmt.Errorf("error adding track: %w", err)
	}
	return sm, nil
}

// Write encodes p to w
func Write(w io.Writer, p models.Pattern, opts Options) error {
	sm, err := Encode(p, opts)
	if err != nil {
		return err
	}
	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("error writing MIDI data: %w", err)
	}
	return nil
}

// Bytes returns the encoded file contents
func Bytes(p models.Pattern, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, p, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes p to path, creating parent directories as needed.
// Nothing is written when the pattern is invalid.
func WriteFile(path string, p models.Pattern, opts Options) error {
	data, err := Bytes(p, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

// FileName returns the conventional output name for a track's part
func FileName(track string, part models.Part) string {
	return fmt.Sprintf("%s_%s.mid", track, part)
}

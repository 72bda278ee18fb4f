package midifile

import (
	"fmt"
	"io"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/Conceptual-Machines/magda-patterns/internal/models"
)

type openNote struct {
	key   uint8
	vel   uint8
	start uint64
	rest  bool
}

// Decode reads a file produced by Write back into a pattern. Gaps between
// notes come back as rest events, as do silent pitch 0 notes.
func Decode(r io.Reader) (models.Pattern, error) {
	sm, err := smf.ReadFrom(r)
	if err != nil {
		return models.Pattern{}, fmt.Errorf("error reading MIDI data: %w", err)
	}
	mt, ok := sm.TimeFormat.(smf.MetricTicks)
	if !ok || mt.Resolution() == 0 {
		return models.Pattern{}, fmt.Errorf("%w: unsupported time format %v", ErrInvalidPattern, sm.TimeFormat)
	}
	resolution := float64(mt.Resolution())
	beats := func(t uint64) float64 { return float64(t) / resolution }

	var p models.Pattern
	if changes := sm.TempoChanges(); len(changes) > 0 {
		p.Tempo = changes[0].BPM
	}

	for _, tr := range sm.Tracks {
		var abs, cursor uint64
		var open *openNote

		closeNote := func(at uint64) {
			d := beats(at - open.start)
			if open.rest {
				p.Append(models.RestEvent(d))
			} else {
				p.Append(models.Pitched(int(open.key), int(open.vel), d))
			}
			cursor = at
			open = nil
		}

		for _, ev := range tr {
			abs += uint64(ev.Delta)
			msg := []byte(ev.Message)
			if len(msg) < 2 || msg[0] >= 0xF0 {
				continue
			}

			switch msg[0] & 0xF0 {
			case 0xC0:
				p.Program = int(msg[1])
			case 0x90:
				if len(msg) < 3 {
					continue
				}
				key, vel := msg[1], msg[2]
				if open != nil && vel == 0 && key == open.key {
					closeNote(abs)
					continue
				}
				if open != nil {
					return models.Pattern{}, fmt.Errorf("%w: overlapping notes at tick %d", ErrInvalidPattern, abs)
				}
				if abs > cursor {
					p.Append(models.RestEvent(beats(abs - cursor)))
				}
				open = &openNote{key: key, vel: vel, start: abs, rest: vel == 0 && key == 0}
			case 0x80:
				if open == nil || msg[1] != open.key {
					return models.Pattern{}, fmt.Errorf("%w: unmatched note off at tick %d", ErrInvalidPattern, abs)
				}
				closeNote(abs)
			}
		}

		if open != nil {
			return models.Pattern{}, fmt.Errorf("%w: note %d never released", ErrInvalidPattern, open.key)
		}
		if abs > cursor && len(p.Events) > 0 {
			p.Append(models.RestEvent(beats(abs - cursor)))
		}
	}
	return p, nil
}

// ReadFile decodes the pattern stored at path
func ReadFile(path string) (models.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Pattern{}, fmt.Errorf("error opening MIDI file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

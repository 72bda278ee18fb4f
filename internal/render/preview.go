// Package render synthesizes quick audio previews of patterns.
package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"github.com/Conceptual-Machines/magda-patterns/internal/models"
)

// SampleRate of every rendered preview
const SampleRate beep.SampleRate = 44100

const (
	// attack and release ramps, in seconds
	attack  = 0.005
	release = 0.02
	// headroom so a full velocity note does not clip
	gain = 0.5
)

// Format is the WAV format written by this package: 16-bit stereo
var Format = beep.Format{SampleRate: SampleRate, NumChannels: 2, Precision: 2}

// Frequency converts a MIDI note number to Hz (A4 = 69 = 440 Hz)
func Frequency(pitch int) float64 {
	return 440.0 * math.Pow(2, float64(pitch-69)/12.0)
}

// Synthesize renders p as sine tones at the pattern tempo. Rests are silence.
func Synthesize(p models.Pattern) ([][2]float64, error) {
	if p.Tempo <= 0 {
		return nil, fmt.Errorf("cannot render at tempo %v", p.Tempo)
	}
	secondsPerBeat := 60.0 / p.Tempo
	sr := float64(SampleRate)
	total := int(math.Round(p.LengthBeats() * secondsPerBeat * sr))
	buf := make([][2]float64, total)

	for _, e := range p.Events {
		pitch, ok := e.Pitch()
		if !ok {
			continue
		}
		start := int(math.Round(e.StartBeats * secondsPerBeat * sr))
		length := int(math.Round(e.DurationBeats * secondsPerBeat * sr))
		freq := Frequency(pitch)
		amp := gain * float64(e.Velocity) / 127.0
		dur := float64(length) / sr

		for j := 0; j < length && start+j < total; j++ {
			t := float64(j) / sr
			env := 1.0
			if t < attack {
				env = t / attack
			}
			if rem := dur - t; rem < release {
				env = math.Min(env, rem/release)
			}
			sample := math.Sin(2*math.Pi*freq*t) * env * amp
			buf[start+j][0] += sample
			buf[start+j][1] += sample
		}
	}
	return buf, nil
}

// sliceStreamer streams a fixed buffer of stereo samples
type sliceStreamer struct {
	buf [][2]float64
	pos int
}

func (s *sliceStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.buf) {
		return 0, false
	}
	n = copy(samples, s.buf[s.pos:])
	s.pos += n
	return n, true
}

func (s *sliceStreamer) Err() error {
	return nil
}

// WriteWAV synthesizes p and encodes it to w
func WriteWAV(w io.WriteSeeker, p models.Pattern) error {
	samples, err := Synthesize(p)
	if err != nil {
		return err
	}
	if err := wav.Encode(w, &sliceStreamer{buf: samples}, Format); err != nil {
		return fmt.Errorf("error encoding WAV: %w", err)
	}
	return nil
}

// WriteFile writes a WAV preview of p to path
func WriteFile(path string, p models.Pattern) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview file: %w", err)
	}
	defer f.Close()
	return WriteWAV(f, p)
}

// Bytes renders p to an in-memory WAV. The encoder needs to seek, so the
// samples go through a temporary file.
func Bytes(p models.Pattern) ([]byte, error) {
	f, err := os.CreateTemp("", "preview-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := WriteWAV(f, p); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind preview: %w", err)
	}
	return io.ReadAll(f)
}

// FileName returns the preview name matching a pattern file
func FileName(track string, part models.Part) string {
	return fmt.Sprintf("%s_%s.wav", track, part)
}

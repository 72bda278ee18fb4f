package midifile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-patterns/internal/models"
)

func pattern(tempo float64, events ...models.NoteEvent) models.Pattern {
	p := models.Pattern{Tempo: tempo, Program: 1}
	for _, e := range events {
		p.Append(e)
	}
	return p
}

func TestBytes_SingleNote(t *testing.T) {
	data, err := Bytes(pattern(128, models.Pitched(60, 80, 0.25)), DefaultOptions())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("MThd")))
	// 480 ticks per quarter note
	assert.True(t, bytes.Contains(data, []byte{0x01, 0xE0, 'M', 'T', 'r', 'k'}))
	// 60000000 / 128 = 468750 microseconds per beat
	assert.True(t, bytes.Contains(data, []byte{0xFF, 0x51, 0x03, 0x07, 0x27, 0x0E}))
	assert.True(t, bytes.Contains(data, []byte{0x00, 0xC0, 0x01}))
	assert.True(t, bytes.Contains(data, []byte{0x00, 0x90, 0x3C, 0x50}))
	// Note off 120 ticks later keeps the note on velocity
	assert.True(t, bytes.Contains(data, []byte{0x78, 0x80, 0x3C, 0x50}))
	assert.True(t, bytes.HasSuffix(data, []byte{0x00, 0xFF, 0x2F, 0x00}))
}

func TestBytes_RestModes(t *testing.T) {
	p := pattern(128,
		models.Pitched(60, 80, 0.25),
		models.RestEvent(0.5),
		models.Pitched(62, 80, 0.25),
	)

	t.Run("gap", func(t *testing.T) {
		data, err := Bytes(p, DefaultOptions())
		require.NoError(t, err)
		// 240 tick rest folded into the next note on delta
		assert.True(t, bytes.Contains(data, []byte{0x81, 0x70, 0x90, 0x3E, 0x50}))
		assert.False(t, bytes.Contains(data, []byte{0x90, 0x00, 0x00}))
	})

	t.Run("silent-note", func(t *testing.T) {
		data, err := Bytes(p, Options{RestMode: RestSilentNote})
		require.NoError(t, err)
		assert.True(t, bytes.Contains(data, []byte{0x00, 0x90, 0x00, 0x00}))
		assert.True(t, bytes.Contains(data, []byte{0x81, 0x70, 0x80, 0x00, 0x00}))
		assert.True(t, bytes.Contains(data, []byte{0x00, 0x90, 0x3E, 0x50}))
	})
}

func TestBytes_TrailingRestExtendsTrack(t *testing.T) {
	data, err := Bytes(pattern(128, models.Pitched(36, 80, 0.25), models.RestEvent(0.25)), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(data, []byte{0x78, 0xFF, 0x2F, 0x00}))
}

func TestBytes_EmptyPattern(t *testing.T) {
	data, err := Bytes(pattern(120), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("MThd")))
	assert.False(t, bytes.Contains(data, []byte{0x90}))
}

func TestEncode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    models.Pattern
		opts Options
	}{
		{"zero tempo", pattern(0, models.Pitched(60, 80, 1)), DefaultOptions()},
		{"tempo too slow for 24 bits", pattern(1, models.Pitched(60, 80, 1)), DefaultOptions()},
		{"tempo rounds to zero", pattern(1e9, models.Pitched(60, 80, 1)), DefaultOptions()},
		{"pitch too high", pattern(120, models.Pitched(128, 80, 1)), DefaultOptions()},
		{"negative pitch", pattern(120, models.Pitched(-1, 80, 1)), DefaultOptions()},
		{"velocity too high", pattern(120, models.Pitched(60, 200, 1)), DefaultOptions()},
		{"zero duration", pattern(120, models.Pitched(60, 80, 0)), DefaultOptions()},
		{"zero rest", pattern(120, models.RestEvent(0)), DefaultOptions()},
		{"bad program", models.Pattern{Tempo: 120, Program: 300}, DefaultOptions()},
		{"bad channel", pattern(120), Options{Channel: 16}},
		{"bad rest mode", pattern(120), Options{RestMode: "drop"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.p, tt.opts)
			assert.ErrorIs(t, err, ErrInvalidPattern)
		})
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	p := pattern(120,
		models.Pitched(60, 80, 0.125),
		models.Pitched(63, 70, 0.25),
		models.RestEvent(0.0625),
		models.Pitched(67, 90, 1),
	)

	for _, mode := range []RestMode{RestGap, RestSilentNote} {
		t.Run(string(mode), func(t *testing.T) {
			data, err := Bytes(p, Options{RestMode: mode})
			require.NoError(t, err)

			got, err := Decode(bytes.NewReader(data))
			require.NoError(t, err)

			assert.InDelta(t, 120.0, got.Tempo, 1e-6)
			assert.Equal(t, 1, got.Program)
			assert.Equal(t, p.Events, got.Events)
		})
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not a midi file")))
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", FileName("duvet", models.PartMotif))

	p := pattern(128, models.Pitched(61, 80, 0.125), models.Pitched(64, 80, 0.125))
	require.NoError(t, WriteFile(path, p, DefaultOptions()))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, p.Events, got.Events)
	assert.Equal(t, "duvet_motif.mid", filepath.Base(path))
}

func TestWriteFile_InvalidWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mid")
	err := WriteFile(path, pattern(128, models.Pitched(200, 80, 1)), DefaultOptions())
	require.ErrorIs(t, err, ErrInvalidPattern)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestParseRestMode(t *testing.T) {
	mode, err := ParseRestMode("")
	require.NoError(t, err)
	assert.Equal(t, RestGap, mode)

	mode, err = ParseRestMode("silent-note")
	require.NoError(t, err)
	assert.Equal(t, RestSilentNote, mode)

	_, err = ParseRestMode("skip")
	assert.Error(t, err)
}

package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-patterns/internal/models"
)

func testPattern() models.Pattern {
	p := models.Pattern{Tempo: 120}
	p.Append(models.Pitched(69, 127, 0.5))
	p.Append(models.RestEvent(0.5))
	p.Append(models.Pitched(60, 80, 1))
	return p
}

func TestFrequency(t *testing.T) {
	assert.InDelta(t, 440.0, Frequency(69), 1e-9)
	assert.InDelta(t, 880.0, Frequency(81), 1e-9)
	assert.InDelta(t, 261.6256, Frequency(60), 1e-3)
}

func TestSynthesize(t *testing.T) {
	buf, err := Synthesize(testPattern())
	require.NoError(t, err)

	// Two beats at 120 BPM is one second
	require.Len(t, buf, 44100)

	// The rest spans 0.25s..0.5s
	for i := 11025; i < 22050; i++ {
		assert.Equal(t, [2]float64{0, 0}, buf[i])
	}

	peak := 0.0
	for _, s := range buf {
		assert.Equal(t, s[0], s[1])
		assert.LessOrEqual(t, s[0], 1.0)
		assert.GreaterOrEqual(t, s[0], -1.0)
		if s[0] > peak {
			peak = s[0]
		}
	}
	assert.Greater(t, peak, 0.4)
}

func TestSynthesize_InvalidTempo(t *testing.T) {
	_, err := Synthesize(models.Pattern{})
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", FileName("duvet", models.PartBass))
	require.NoError(t, WriteFile(path, testPattern()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	stream, format, err := wav.Decode(f)
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, SampleRate, format.SampleRate)
	assert.Equal(t, 2, format.NumChannels)
	assert.Equal(t, 44100, stream.Len())
	assert.Equal(t, "duvet_bass.wav", filepath.Base(path))
}

func TestBytes(t *testing.T) {
	data, err := Bytes(testPattern())
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	// 44100 frames of 16-bit stereo after the header
	assert.Greater(t, len(data), 44100*4)
}

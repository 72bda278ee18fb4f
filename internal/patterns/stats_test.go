package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-patterns/internal/models"
)

func TestSummarize(t *testing.T) {
	var p models.Pattern
	p.Append(models.Pitched(60, 70, 1))
	p.Append(models.RestEvent(1))
	p.Append(models.Pitched(67, 90, 2))

	s := Summarize(p)
	assert.Equal(t, 2, s.NoteCount)
	assert.Equal(t, 1, s.RestCount)
	assert.InDelta(t, 4.0, s.TotalBeats, 1e-9)
	assert.InDelta(t, 1.0, s.Bars, 1e-9)
	assert.InDelta(t, 80.0, s.MeanVelocity, 1e-9)
	assert.InDelta(t, 10.0, s.VelocityStdDev, 1e-9)
	assert.Equal(t, 60, s.LowestPitch)
	assert.Equal(t, 67, s.HighestPitch)
}

func TestSummarize_TechnoBass(t *testing.T) {
	set, err := Generate(cMinor, 128)
	require.NoError(t, err)

	s := Summarize(set.Bass)
	assert.Equal(t, 2, s.NoteCount)
	assert.Equal(t, 2, s.RestCount)
	assert.Equal(t, 0.0, s.VelocityStdDev)
	assert.Equal(t, 36, s.LowestPitch)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(models.Pattern{}))
}

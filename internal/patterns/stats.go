package patterns

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Conceptual-Machines/magda-patterns/internal/models"
)

const beatsPerBar = 4.0

// Stats summarizes a pattern for logs, API responses and the history table
type Stats struct {
	NoteCount      int     `json:"note_count"`
	RestCount      int     `json:"rest_count"`
	TotalBeats     float64 `json:"total_beats"`
	Bars           float64 `json:"bars"`
	MeanVelocity   float64 `json:"mean_velocity"`
	VelocityStdDev float64 `json:"velocity_std_dev"`
	LowestPitch    int     `json:"lowest_pitch"`
	HighestPitch   int     `json:"highest_pitch"`
}

// Summarize computes Stats over the sounding notes and rests of p
func Summarize(p models.Pattern) Stats {
	durations := make([]float64, 0, len(p.Events))
	velocities := make([]float64, 0, len(p.Events))
	pitches := make([]float64, 0, len(p.Events))

	var s Stats
	for _, e := range p.Events {
		durations = append(durations, e.DurationBeats)
		pitch, ok := e.Pitch()
		if !ok {
			s.RestCount++
			continue
		}
		s.NoteCount++
		velocities = append(velocities, float64(e.Velocity))
		pitches = append(pitches, float64(pitch))
	}

	s.TotalBeats = floats.Sum(durations)
	s.Bars = s.TotalBeats / beatsPerBar

	if len(velocities) > 0 {
		s.MeanVelocity, s.VelocityStdDev = stat.PopMeanStdDev(velocities, nil)
		s.LowestPitch = int(floats.Min(pitches))
		s.HighestPitch = int(floats.Max(pitches))
	}
	return s
}

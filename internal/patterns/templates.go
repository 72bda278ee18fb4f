package patterns

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Conceptual-Machines/magda-patterns/internal/models"
	"github.com/Conceptual-Machines/magda-patterns/internal/music"
)

// ErrInvalidArgument is returned (wrapped) for inputs outside a generator's contract
var ErrInvalidArgument = errors.New("invalid argument")

const (
	// DefaultTempo is used when no tempo estimate is available
	DefaultTempo = 128.0
	// DefaultVelocity is the fixed velocity of template notes
	DefaultVelocity = 80
	// DefaultProgram is the General MIDI program written to every file
	DefaultProgram = 1
	// DefaultTemplate names the template used by Generate
	DefaultTemplate = "techno"

	shortStep = 0.125
	bassStep  = 0.25
	chordStep = 1.0
)

// Step is one slot of a template: a scale degree shifted by whole octaves, or a rest
type Step struct {
	Degree   int
	Octave   int
	Duration float64
	Rest     bool
}

// Template defines the fixed steps for each part
type Template struct {
	Name   string
	Motif  []Step
	Bass   []Step
	Chords []Step
}

func deg(d int, duration float64) Step { return Step{Degree: d, Duration: duration} }

func rest(duration float64) Step { return Step{Duration: duration, Rest: true} }

// Root two octaves down
func sub(duration float64) Step { return Step{Degree: 0, Octave: -2, Duration: duration} }

var templates = map[string]Template{
	// Fast arpeggio lead, offbeat root bass, sustained i-iv chord walk
	"techno": {
		Name: "techno",
		Motif: []Step{
			deg(0, shortStep), deg(2, shortStep), deg(4, shortStep), deg(2, shortStep),
			deg(0, shortStep), deg(3, shortStep), deg(4, shortStep), deg(2, shortStep),
		},
		Bass: []Step{
			sub(bassStep), rest(bassStep), sub(bassStep), rest(bassStep),
		},
		Chords: []Step{
			deg(0, chordStep), deg(2, chordStep), deg(4, chordStep),
			deg(3, chordStep), deg(5, chordStep),
			{Degree: 7, Octave: -1, Duration: chordStep},
		},
	},
	// Gapped arpeggio, pushed bass, i-iv-i chord walk
	"offbeat": {
		Name: "offbeat",
		Motif: []Step{
			deg(0, shortStep), deg(2, shortStep), deg(4, shortStep), rest(shortStep),
			deg(0, shortStep), deg(3, shortStep), deg(4, shortStep), rest(shortStep),
		},
		Bass: []Step{
			rest(shortStep), sub(shortStep), rest(bassStep), sub(bassStep), rest(bassStep),
		},
		Chords: []Step{
			deg(0, chordStep), deg(2, chordStep), deg(4, chordStep),
			deg(3, chordStep), deg(5, chordStep), deg(0, chordStep),
		},
	},
}

// TemplateByName returns a template by name
func TemplateByName(name string) (Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: unknown template %q", ErrInvalidArgument, name)
	}
	return tmpl, nil
}

// Templates returns the available template names, sorted
func Templates() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate builds motif, bass and chords from the default template.
// Tempo is attached to every pattern and never alters durations.
func Generate(scale music.Scale, tempo float64) (models.PatternSet, error) {
	return GenerateWith(templates[DefaultTemplate], scale, tempo)
}

// GenerateWith builds the three parts of tmpl over scale
func GenerateWith(tmpl Template, scale music.Scale, tempo float64) (models.PatternSet, error) {
	if err := scale.Validate(); err != nil {
		return models.PatternSet{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	tempo, err := NormalizeTempo(tempo)
	if err != nil {
		return models.PatternSet{}, err
	}

	motif, err := realize(tmpl.Motif, scale)
	if err != nil {
		return models.PatternSet{}, fmt.Errorf("template %s motif: %w", tmpl.Name, err)
	}
	bass, err := realize(tmpl.Bass, scale)
	if err != nil {
		return models.PatternSet{}, fmt.Errorf("template %s bass: %w", tmpl.Name, err)
	}
	chords, err := realize(tmpl.Chords, scale)
	if err != nil {
		return models.PatternSet{}, fmt.Errorf("template %s chords: %w", tmpl.Name, err)
	}

	motif.Part, bass.Part, chords.Part = models.PartMotif, models.PartBass, models.PartChords
	set := models.PatternSet{Motif: motif, Bass: bass, Chords: chords}
	for _, p := range []*models.Pattern{&set.Motif, &set.Bass, &set.Chords} {
		p.Name = string(p.Part)
		p.Tempo = tempo
		p.Program = DefaultProgram
	}
	return set, nil
}

func realize(steps []Step, scale music.Scale) (models.Pattern, error) {
	var p models.Pattern
	for i, s := range steps {
		if s.Duration <= 0 {
			return models.Pattern{}, fmt.Errorf("%w: step %d has duration %v", ErrInvalidArgument, i, s.Duration)
		}
		if s.Rest {
			p.Append(models.RestEvent(s.Duration))
			continue
		}
		pitch := scale.Degree(s.Degree) + s.Octave*12
		if pitch < 0 || pitch > 127 {
			return models.Pattern{}, fmt.Errorf("%w: step %d pitch %d outside MIDI range", ErrInvalidArgument, i, pitch)
		}
		p.Append(models.Pitched(pitch, DefaultVelocity, s.Duration))
	}
	return p, nil
}

// NormalizeTempo maps a missing (zero) tempo to DefaultTempo and rejects
// tempos a MIDI tempo event cannot hold.
func NormalizeTempo(tempo float64) (float64, error) {
	if tempo == 0 {
		return DefaultTempo, nil
	}
	if !models.ValidTempo(tempo) {
		return 0, fmt.Errorf("%w: tempo %v outside %.2f-%.0f bpm", ErrInvalidArgument, tempo, models.MinTempo, models.MaxTempo)
	}
	return tempo, nil
}

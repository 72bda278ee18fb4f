package patterns

import (
	"fmt"
	"math/rand"

	"github.com/Conceptual-Machines/magda-patterns/internal/models"
	"github.com/Conceptual-Machines/magda-patterns/internal/music"
)

const (
	// DefaultRandomLength is the number of sampled steps of a random arpeggio
	DefaultRandomLength = 32
	// MaxRandomLength caps the number of sampled steps per pattern
	MaxRandomLength = 4096

	defaultMinVelocity     = 60
	defaultMaxVelocity     = 90
	defaultRestProbability = 0.2
	defaultRestDuration    = 0.0625
)

// DefaultDurations are the note lengths the random generator picks from, in beats
var DefaultDurations = []float64{0.0625, 0.125, 0.25}

// RandomOptions tunes the random arpeggio generator. Zero fields take the defaults.
type RandomOptions struct {
	Length          int
	Durations       []float64
	MinVelocity     int
	MaxVelocity     int
	FixedVelocity   int
	RestProbability *float64
	RestDuration    float64
}

// DefaultRandomOptions returns the options matching the classic random arp
func DefaultRandomOptions() RandomOptions {
	return RandomOptions{Length: DefaultRandomLength}
}

func (o RandomOptions) withDefaults() RandomOptions {
	if len(o.Durations) == 0 {
		o.Durations = DefaultDurations
	}
	if o.MinVelocity == 0 && o.MaxVelocity == 0 {
		o.MinVelocity, o.MaxVelocity = defaultMinVelocity, defaultMaxVelocity
	}
	if o.RestProbability == nil {
		p := defaultRestProbability
		o.RestProbability = &p
	}
	if o.RestDuration == 0 {
		o.RestDuration = defaultRestDuration
	}
	return o
}

func (o RandomOptions) validate() error {
	if o.Length <= 0 || o.Length > MaxRandomLength {
		return fmt.Errorf("%w: length must be in 1-%d, got %d", ErrInvalidArgument, MaxRandomLength, o.Length)
	}
	for _, d := range o.Durations {
		if d <= 0 {
			return fmt.Errorf("%w: duration %v must be positive", ErrInvalidArgument, d)
		}
	}
	if o.FixedVelocity < 0 || o.FixedVelocity > 127 {
		return fmt.Errorf("%w: fixed velocity %d outside 0-127", ErrInvalidArgument, o.FixedVelocity)
	}
	if o.FixedVelocity == 0 {
		if o.MinVelocity < 1 || o.MaxVelocity > 127 || o.MinVelocity > o.MaxVelocity {
			return fmt.Errorf("%w: velocity range [%d,%d]", ErrInvalidArgument, o.MinVelocity, o.MaxVelocity)
		}
	}
	if p := *o.RestProbability; p < 0 || p > 1 {
		return fmt.Errorf("%w: rest probability %v outside [0,1]", ErrInvalidArgument, p)
	}
	if o.RestDuration <= 0 {
		return fmt.Errorf("%w: rest duration %v", ErrInvalidArgument, o.RestDuration)
	}
	return nil
}

// Random samples an arpeggio over scale. Every step independently draws a pitch from
// the scale, a duration from opts.Durations and a velocity; after each step a short
// rest is inserted with opts.RestProbability. The result has between Length and
// 2*Length events. The same rng seed always yields the same pattern.
func Random(rng *rand.Rand, scale music.Scale, tempo float64, opts RandomOptions) (models.Pattern, error) {
	if rng == nil {
		return models.Pattern{}, fmt.Errorf("%w: nil random source", ErrInvalidArgument)
	}
	if err := scale.Validate(); err != nil {
		return models.Pattern{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	tempo, err := NormalizeTempo(tempo)
	if err != nil {
		return models.Pattern{}, err
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return models.Pattern{}, err
	}

	p := models.Pattern{
		Name:    string(models.PartRandomArp),
		Part:    models.PartRandomArp,
		Tempo:   tempo,
		Program: DefaultProgram,
		Events:  make([]models.NoteEvent, 0, opts.Length+opts.Length/4),
	}

	for i := 0; i < opts.Length; i++ {
		pitch := scale[rng.Intn(len(scale))]
		duration := opts.Durations[rng.Intn(len(opts.Durations))]
		velocity := opts.FixedVelocity
		if velocity == 0 {
			velocity = opts.MinVelocity + rng.Intn(opts.MaxVelocity-opts.MinVelocity+1)
		}
		p.Append(models.Pitched(pitch, velocity, duration))

		if rng.Float64() < *opts.RestProbability {
			p.Append(models.RestEvent(opts.RestDuration))
		}
	}
	return p, nil
}

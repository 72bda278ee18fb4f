package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Conceptual-Machines/magda-patterns/internal/analysis"
	"github.com/Conceptual-Machines/magda-patterns/internal/logger"
	"github.com/Conceptual-Machines/magda-patterns/internal/metrics"
	"github.com/Conceptual-Machines/magda-patterns/internal/midifile"
	"github.com/Conceptual-Machines/magda-patterns/internal/models"
	"github.com/Conceptual-Machines/magda-patterns/internal/patterns"
	"github.com/Conceptual-Machines/magda-patterns/internal/render"
	"github.com/Conceptual-Machines/magda-patterns/internal/storage"
	"github.com/Conceptual-Machines/magda-patterns/pkg/embedded"
)

const (
	ModeTemplate = "template"
	ModeRandom   = "random"

	// DefaultTrack names output when a request has no track
	DefaultTrack = "pattern"
)

// AnalysisLookup finds stored analysis for a track
type AnalysisLookup interface {
	Get(ctx context.Context, track string) (models.AnalysisResult, error)
}

// GeneratorOptions controls serialization and output of every generated part
type GeneratorOptions struct {
	RestMode midifile.RestMode
	Program  int
	Preview  bool
}

// DefaultGeneratorOptions writes gap rests with the default program and no preview
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{RestMode: midifile.RestGap, Program: patterns.DefaultProgram}
}

// Deps are the optional collaborators of GenerationService. Nil fields disable
// the matching feature.
type Deps struct {
	Results  analysis.Results
	Store    AnalysisLookup
	Manifest embedded.Manifest
	Exporter storage.Exporter
	History  HistoryRecorder
	Metrics  *metrics.Recorder
}

// GenerationService resolves analysis, runs a generator and publishes the result
type GenerationService struct {
	deps Deps
	opts GeneratorOptions
	now  func() time.Time
}

func NewGenerationService(deps Deps, opts GeneratorOptions) *GenerationService {
	if deps.Results == nil {
		deps.Results = analysis.Results{}
	}
	return &GenerationService{deps: deps, opts: opts, now: time.Now}
}

// TemplateRequest asks for the three template parts of one track
type TemplateRequest struct {
	Track    string
	Key      string
	Tempo    float64
	Template string
	Export   bool
}

// RandomRequest asks for a random arpeggio. A nil Seed picks one from the clock.
type RandomRequest struct {
	Track         string
	Key           string
	Tempo         float64
	Length        int
	Seed          *int64
	FixedVelocity int
	Export        bool
}

// PartOutput is one generated part with its encoded file
type PartOutput struct {
	Pattern    models.Pattern `json:"pattern"`
	Stats      patterns.Stats `json:"stats"`
	MIDI       []byte         `json:"-"`
	ExportURI  string         `json:"export_uri,omitempty"`
	PreviewURI string         `json:"preview_uri,omitempty"`
}

// Result is everything produced for one request
type Result struct {
	Track      string              `json:"track"`
	Resolution analysis.Resolution `json:"resolution"`
	Template   string              `json:"template,omitempty"`
	Seed       *int64              `json:"seed,omitempty"`
	Parts      []PartOutput        `json:"parts"`
}

// Part returns the output for part
func (r *Result) Part(part models.Part) (*PartOutput, bool) {
	for i := range r.Parts {
		if r.Parts[i].Pattern.Part == part {
			return &r.Parts[i], true
		}
	}
	return nil, false
}

// Resolve determines tempo and key for track. Explicit key and tempo win over
// stored analysis, then the analysis file, then the manifest key and the defaults.
func (s *GenerationService) Resolve(ctx context.Context, track, key string, tempo float64) (analysis.Resolution, error) {
	if _, err := patterns.NormalizeTempo(tempo); err != nil {
		return analysis.Resolution{}, err
	}

	entry, ok := s.lookup(ctx, track)
	if !ok {
		entry = s.deps.Results[track]
	}
	if key != "" {
		entry.Key = key
	}
	if tempo > 0 {
		entry.Tempo = tempo
	}

	res := analysis.Results{track: entry}.Resolve(track, s.deps.Manifest.Key(track))
	if res.Fallback {
		s.deps.Metrics.RecordKeyFallback(track)
	}
	return res, nil
}

func (s *GenerationService) lookup(ctx context.Context, track string) (models.AnalysisResult, bool) {
	if s.deps.Store == nil || track == "" {
		return models.AnalysisResult{}, false
	}
	result, err := s.deps.Store.Get(ctx, track)
	if err != nil {
		if !errors.Is(err, analysis.ErrNotFound) {
			logger.Warn("Analysis store lookup failed, using file results", logger.Fields{"track": track, "error": err.Error()})
		}
		return models.AnalysisResult{}, false
	}
	return result, true
}

// GenerateTemplate builds motif, bass and chords for a track
func (s *GenerationService) GenerateTemplate(ctx context.Context, req TemplateRequest) (*Result, error) {
	start := s.now()
	track := trackName(req.Track)

	name := req.Template
	if name == "" {
		name = patterns.DefaultTemplate
	}
	tmpl, err := patterns.TemplateByName(name)
	if err != nil {
		return nil, err
	}

	res, err := s.Resolve(ctx, req.Track, req.Key, req.Tempo)
	if err != nil {
		return nil, err
	}

	set, err := patterns.GenerateWith(tmpl, res.Scale, res.Tempo)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", track, err)
	}

	result := &Result{Track: track, Resolution: res, Template: tmpl.Name}
	for _, p := range set.Parts() {
		out, err := s.finish(ctx, ModeTemplate, track, result, p, req.Export, start)
		if err != nil {
			return nil, err
		}
		result.Parts = append(result.Parts, out)
	}
	return result, nil
}

// GenerateRandom builds a seeded random arpeggio for a track
func (s *GenerationService) GenerateRandom(ctx context.Context, req RandomRequest) (*Result, error) {
	start := s.now()
	track := trackName(req.Track)

	seed := start.UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	res, err := s.Resolve(ctx, req.Track, req.Key, req.Tempo)
	if err != nil {
		return nil, err
	}

	opts := patterns.DefaultRandomOptions()
	if req.Length != 0 {
		opts.Length = req.Length
	}
	opts.FixedVelocity = req.FixedVelocity

	p, err := patterns.Random(rand.New(rand.NewSource(seed)), res.Scale, res.Tempo, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{Track: track, Resolution: res, Seed: &seed}
	out, err := s.finish(ctx, ModeRandom, track, result, p, req.Export, start)
	if err != nil {
		return nil, err
	}
	result.Parts = append(result.Parts, out)
	return result, nil
}

func (s *GenerationService) finish(ctx context.Context, mode, track string, result *Result, p models.Pattern, export bool, start time.Time) (PartOutput, error) {
	p.Name = fmt.Sprintf("%s_%s", track, p.Part)
	p.Key = string(result.Resolution.Key)
	p.Program = s.opts.Program

	out := PartOutput{Pattern: p, Stats: patterns.Summarize(p)}
	fields := logger.Fields{
		"mode":  mode,
		"key":   p.Key,
		"tempo": p.Tempo,
		"notes": out.Stats.NoteCount,
		"rests": out.Stats.RestCount,
		"beats": out.Stats.TotalBeats,
	}

	data, err := midifile.Bytes(p, midifile.Options{RestMode: s.opts.RestMode})
	if err != nil {
		s.deps.Metrics.RecordGeneration(ctx, mode, string(p.Part), 0, s.now().Sub(start), false)
		return PartOutput{}, fmt.Errorf("failed to encode %s: %w", p.Name, err)
	}
	out.MIDI = data

	if export && s.deps.Exporter != nil {
		uri, err := s.deps.Exporter.Export(ctx, midifile.FileName(track, p.Part), data)
		if err != nil {
			s.deps.Metrics.RecordGeneration(ctx, mode, string(p.Part), 0, s.now().Sub(start), false)
			return PartOutput{}, fmt.Errorf("failed to export %s: %w", p.Name, err)
		}
		out.ExportURI = uri
		fields["export_uri"] = uri

		if s.opts.Preview {
			wav, err := render.Bytes(p)
			if err != nil {
				return PartOutput{}, fmt.Errorf("failed to render preview for %s: %w", p.Name, err)
			}
			if out.PreviewURI, err = s.deps.Exporter.Export(ctx, render.FileName(track, p.Part), wav); err != nil {
				return PartOutput{}, fmt.Errorf("failed to export preview for %s: %w", p.Name, err)
			}
		}
	}

	if s.deps.History != nil {
		rec := &models.GenerationRecord{
			CreatedAt:  s.now(),
			Track:      track,
			Key:        p.Key,
			Tempo:      p.Tempo,
			Part:       string(p.Part),
			Template:   result.Template,
			Seed:       result.Seed,
			NoteCount:  out.Stats.NoteCount,
			RestCount:  out.Stats.RestCount,
			TotalBeats: out.Stats.TotalBeats,
			ExportURI:  out.ExportURI,
		}
		if err := s.deps.History.Record(ctx, rec); err != nil {
			logger.Error("Failed to record generation", err, logger.Fields{"track": track, "part": string(p.Part)})
		}
	}

	elapsed := s.now().Sub(start)
	logger.LogGeneration(ctx, track, string(p.Part), elapsed, fields)
	s.deps.Metrics.RecordGeneration(ctx, mode, string(p.Part), out.Stats.NoteCount, elapsed, true)
	return out, nil
}

func trackName(track string) string {
	if track == "" {
		return DefaultTrack
	}
	return track
}

// Package analysis loads the tempo and key estimates produced for reference tracks.
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/Conceptual-Machines/magda-patterns/internal/logger"
	"github.com/Conceptual-Machines/magda-patterns/internal/models"
	"github.com/Conceptual-Machines/magda-patterns/internal/music"
	"github.com/Conceptual-Machines/magda-patterns/internal/patterns"
)

// Results maps a track name to its analysis
type Results map[string]models.AnalysisResult

// Source says where a resolved value came from
type Source string

const (
	SourceAnalysis Source = "analysis"
	SourceManifest Source = "manifest"
	SourceDefault  Source = "default"
)

// Resolution is the tempo and scale to generate with for one track
type Resolution struct {
	Track       string      `json:"track"`
	Tempo       float64     `json:"tempo"`
	Key         music.Key   `json:"key"`
	Scale       music.Scale `json:"scale"`
	TempoSource Source      `json:"tempo_source"`
	KeySource   Source      `json:"key_source"`
	// Fallback is set when a key was given but not recognized
	Fallback bool `json:"fallback"`
}

// Parse decodes the analysis JSON document
func Parse(r io.Reader) (Results, error) {
	results := Results{}
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to parse analysis results: %w", err)
	}
	return results, nil
}

// LoadFile reads analysis results from path. A missing file is not an error:
// it yields empty results so every track falls back to defaults.
func LoadFile(path string) (Results, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Analysis results not found, using defaults", logger.Fields{"path": path})
		return Results{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open analysis results: %w", err)
	}
	defer f.Close()

	results, err := Parse(f)
	if err != nil {
		return nil, err
	}
	logger.Debug("Analysis results loaded", logger.Fields{"path": path, "tracks": len(results)})
	return results, nil
}

// Tracks returns the analyzed track names, sorted
func (r Results) Tracks() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks the tempo and key for track. Tempo falls back to
// patterns.DefaultTempo; the key falls back to fallbackKey and then music.DefaultKey.
// An unrecognized key string resolves to the default scale with a warning.
func (r Results) Resolve(track, fallbackKey string) Resolution {
	res := Resolution{Track: track, Tempo: patterns.DefaultTempo, TempoSource: SourceDefault}

	result, ok := r[track]
	if ok && result.Tempo > 0 {
		res.Tempo = result.Tempo
		res.TempoSource = SourceAnalysis
	} else {
		logger.Debug("No tempo estimate, using default", logger.Fields{"track": track, "tempo": res.Tempo})
	}

	keyName, source := "", SourceDefault
	switch {
	case ok && result.Key != "":
		keyName, source = result.Key, SourceAnalysis
	case fallbackKey != "":
		keyName, source = fallbackKey, SourceManifest
	}

	if keyName == "" {
		res.Key, res.Scale, res.KeySource = music.DefaultKey, music.Lookup(music.DefaultKey), SourceDefault
		return res
	}

	key, scale, known := music.Resolve(keyName)
	res.Key, res.Scale, res.KeySource = key, scale, source
	if !known {
		logger.Warn("Unknown key, using default scale", logger.Fields{"track": track, "key": keyName, "default": string(music.DefaultKey)})
		res.KeySource = SourceDefault
		res.Fallback = true
	}
	return res
}

package embedded

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Default track manifest
//
//go:embed data/tracks.json
var TracksJSON []byte

// Track is one manifest entry: a reference track name and its expected key
type Track struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Manifest is an ordered list of tracks to generate for
type Manifest []Track

// DefaultManifest returns the built-in track list
func DefaultManifest() Manifest {
	m, err := parse(TracksJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded tracks.json: %v", err))
	}
	return m
}

// ReadManifest decodes a manifest in the tracks.json format
func ReadManifest(r io.Reader) (Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return parse(data)
}

// LoadManifest reads a manifest file, or returns the default one when path is empty
func LoadManifest(path string) (Manifest, error) {
	if path == "" {
		return DefaultManifest(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()
	return ReadManifest(f)
}

func parse(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	for i, t := range m {
		if t.Name == "" {
			return nil, fmt.Errorf("manifest entry %d has no name", i)
		}
	}
	return m, nil
}

// Key returns the manifest key for a track, or "" when the track is not listed
func (m Manifest) Key(name string) string {
	for _, t := range m {
		if t.Name == name {
			return t.Key
		}
	}
	return ""
}

// Names lists the track names in manifest order
func (m Manifest) Names() []string {
	names := make([]string, len(m))
	for i, t := range m {
		names[i] = t.Name
	}
	return names
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-patterns/internal/analysis"
	"github.com/Conceptual-Machines/magda-patterns/internal/config"
	"github.com/Conceptual-Machines/magda-patterns/internal/midifile"
	"github.com/Conceptual-Machines/magda-patterns/internal/patterns"
	"github.com/Conceptual-Machines/magda-patterns/internal/services"
	"github.com/Conceptual-Machines/magda-patterns/pkg/embedded"
)

func setupTestRouter(t *testing.T, withStore bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	results := analysis.Results{"duvet": {Tempo: 117, Key: "C# minor"}}
	var store *analysis.Store
	if withStore {
		var err error
		store, err = analysis.OpenStore(filepath.Join(t.TempDir(), "analysis.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
	}

	deps := services.Deps{Results: results, Manifest: embedded.DefaultManifest()}
	if store != nil {
		deps.Store = store
	}

	return SetupRouter(Dependencies{
		Store:      store,
		Results:    results,
		Generation: services.NewGenerationService(deps, services.DefaultGeneratorOptions()),
		History:    services.NewHistoryService(nil),
	}, &config.Config{AuthMode: "none"}, "test")
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type patternResponse struct {
	Track      string `json:"track"`
	Template   string `json:"template"`
	Seed       *int64 `json:"seed"`
	Resolution struct {
		Key      string  `json:"key"`
		Tempo    float64 `json:"tempo"`
		Fallback bool    `json:"fallback"`
	} `json:"resolution"`
	Parts []struct {
		Pattern struct {
			Part   string `json:"part"`
			Events []struct {
				MidiNoteNumber int     `json:"midiNoteNumber"`
				DurationBeats  float64 `json:"durationBeats"`
				Rest           bool    `json:"rest"`
			} `json:"events"`
		} `json:"pattern"`
		Stats struct {
			NoteCount int `json:"note_count"`
		} `json:"stats"`
	} `json:"parts"`
}

func TestHealth(t *testing.T) {
	w := do(t, setupTestRouter(t, false), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"disabled"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetrics(t *testing.T) {
	w := do(t, setupTestRouter(t, false), http.MethodGet, "/api/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"test"`)
	assert.Contains(t, w.Body.String(), `"techno"`)
}

func TestScales(t *testing.T) {
	r := setupTestRouter(t, false)

	w := do(t, r, http.MethodGet, "/api/v1/scales", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Scales []struct {
			Key   string `json:"key"`
			Notes []int  `json:"notes"`
		} `json:"scales"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Scales, 12)

	w = do(t, r, http.MethodGet, "/api/v1/scales/"+url.PathEscape("A minor"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var one struct {
		Key      string `json:"key"`
		Notes    []int  `json:"notes"`
		Fallback bool   `json:"fallback"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	assert.Equal(t, []int{57, 59, 60, 62, 64, 65, 67}, one.Notes)
	assert.False(t, one.Fallback)

	w = do(t, r, http.MethodGet, "/api/v1/scales/"+url.PathEscape("F major"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	assert.True(t, one.Fallback)
	assert.Equal(t, "C minor", one.Key)
}

func TestTemplates(t *testing.T) {
	w := do(t, setupTestRouter(t, false), http.MethodGet, "/api/v1/templates", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"offbeat"`)
	assert.Contains(t, w.Body.String(), `"motif_steps":8`)
}

func TestTemplatePattern_JSON(t *testing.T) {
	w := do(t, setupTestRouter(t, false), http.MethodPost, "/api/v1/patterns/template", gin.H{"track": "cyberia_layer_2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp patternResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "C minor", resp.Resolution.Key)
	assert.Equal(t, 128.0, resp.Resolution.Tempo)
	require.Len(t, resp.Parts, 3)
	assert.Len(t, resp.Parts[0].Pattern.Events, 8)
	assert.Len(t, resp.Parts[1].Pattern.Events, 4)
	assert.Len(t, resp.Parts[2].Pattern.Events, 6)
	assert.True(t, resp.Parts[1].Pattern.Events[1].Rest)
	for _, e := range resp.Parts[0].Pattern.Events {
		assert.Equal(t, 0.125, e.DurationBeats)
	}
}

func TestTemplatePattern_AnalysisTempo(t *testing.T) {
	w := do(t, setupTestRouter(t, false), http.MethodPost, "/api/v1/patterns/template", gin.H{"track": "duvet"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp patternResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 117.0, resp.Resolution.Tempo)
	assert.Equal(t, "C# minor", resp.Resolution.Key)
}

func TestTemplatePattern_UnknownKeyFallsBack(t *testing.T) {
	w := do(t, setupTestRouter(t, false), http.MethodPost, "/api/v1/patterns/template", gin.H{"key": "H minor"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp patternResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Resolution.Fallback)
	assert.Equal(t, "C minor", resp.Resolution.Key)
}

func TestTemplatePattern_MIDI(t *testing.T) {
	r := setupTestRouter(t, false)

	w := do(t, r, http.MethodPost, "/api/v1/patterns/template", gin.H{"track": "duvet", "format": "midi", "part": "chords"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/midi", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "duvet_chords.mid")

	p, err := midifile.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Len(t, p.Events, 6)
	assert.Equal(t, 61, p.Events[0].MidiNoteNumber)

	w = do(t, r, http.MethodPost, "/api/v1/patterns/template", gin.H{"format": "midi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTemplatePattern_BadRequests(t *testing.T) {
	r := setupTestRouter(t, false)

	tests := []struct {
		name string
		body interface{}
	}{
		{"negative tempo", gin.H{"tempo": -1}},
		{"tempo too slow for MIDI", gin.H{"tempo": 1}},
		{"unknown template", gin.H{"template": "polka"}},
		{"unknown format", gin.H{"format": "xml"}},
		{"wrong type", gin.H{"tempo": "fast"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/patterns/template", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRandomPattern(t *testing.T) {
	r := setupTestRouter(t, false)
	body := gin.H{"track": "big_in_japan", "seed": 99, "length": 12}

	first := do(t, r, http.MethodPost, "/api/v1/patterns/random", body)
	require.Equal(t, http.StatusOK, first.Code)
	second := do(t, r, http.MethodPost, "/api/v1/patterns/random", body)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b patternResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.Parts, b.Parts)
	assert.Equal(t, "99", first.Header().Get("X-Pattern-Seed"))
	require.Len(t, a.Parts, 1)
	assert.Equal(t, 12, a.Parts[0].Stats.NoteCount)
	assert.Equal(t, "A minor", a.Resolution.Key)
}

func TestRandomPattern_MIDIAndErrors(t *testing.T) {
	r := setupTestRouter(t, false)

	w := do(t, r, http.MethodPost, "/api/v1/patterns/random", gin.H{"format": "midi"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/midi", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Pattern-Seed"))

	for _, body := range []gin.H{
		{"length": -1},
		{"length": patterns.MaxRandomLength + 1},
		{"tempo": 1},
	} {
		w = do(t, r, http.MethodPost, "/api/v1/patterns/random", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
	}
}

func TestAnalysis_FileOnly(t *testing.T) {
	r := setupTestRouter(t, false)

	w := do(t, r, http.MethodGet, "/api/v1/analysis/duvet", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"file"`)

	w = do(t, r, http.MethodGet, "/api/v1/analysis/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPut, "/api/v1/analysis/duvet", gin.H{"tempo": 120})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAnalysis_Store(t *testing.T) {
	r := setupTestRouter(t, true)

	w := do(t, r, http.MethodPut, "/api/v1/analysis/big_in_japan", gin.H{"tempo": 124.5, "key": "eb minor"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"key":"D# minor"`)

	w = do(t, r, http.MethodGet, "/api/v1/analysis/big_in_japan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"store"`)

	w = do(t, r, http.MethodGet, "/api/v1/analysis", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tracks":["big_in_japan","duvet"]`)

	// Stored analysis feeds generation
	w = do(t, r, http.MethodPost, "/api/v1/patterns/template", gin.H{"track": "big_in_japan"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp patternResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "D# minor", resp.Resolution.Key)
	assert.Equal(t, 124.5, resp.Resolution.Tempo)

	w = do(t, r, http.MethodPut, "/api/v1/analysis/x", gin.H{"key": "F major"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, http.MethodPut, "/api/v1/analysis/x", gin.H{"tempo": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerations_NoDatabase(t *testing.T) {
	w := do(t, setupTestRouter(t, false), http.MethodGet, "/api/v1/generations?limit=5", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGatewayModeRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter(Dependencies{
		Generation: services.NewGenerationService(services.Deps{}, services.DefaultGeneratorOptions()),
		History:    services.NewHistoryService(nil),
	}, &config.Config{AuthMode: "gateway"}, "test")

	w := do(t, r, http.MethodGet, "/api/v1/templates", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Health stays public
	w = do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

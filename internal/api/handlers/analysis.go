package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-patterns/internal/analysis"
	"github.com/Conceptual-Machines/magda-patterns/internal/logger"
	"github.com/Conceptual-Machines/magda-patterns/internal/models"
	"github.com/Conceptual-Machines/magda-patterns/internal/music"
)

// AnalysisHandler serves analysis results from the SQLite store, falling back
// to the results file loaded at startup.
type AnalysisHandler struct {
	store   *analysis.Store
	results analysis.Results
}

func NewAnalysisHandler(store *analysis.Store, results analysis.Results) *AnalysisHandler {
	if results == nil {
		results = analysis.Results{}
	}
	return &AnalysisHandler{store: store, results: results}
}

type PutAnalysisRequest struct {
	Tempo float64 `json:"tempo"`
	Key   string  `json:"key"`
}

// List returns every known analysis; stored entries override the file
func (h *AnalysisHandler) List(c *gin.Context) {
	merged := analysis.Results{}
	for track, r := range h.results {
		merged[track] = r
	}

	if h.store != nil {
		stored, err := h.store.All(c.Request.Context())
		if err != nil {
			respondError(c, "Failed to list analysis results", err)
			return
		}
		for track, r := range stored {
			merged[track] = r
		}
	}

	c.JSON(http.StatusOK, gin.H{"results": merged, "tracks": merged.Tracks()})
}

// Get returns the analysis of one track
func (h *AnalysisHandler) Get(c *gin.Context) {
	track := c.Param("track")

	if h.store != nil {
		result, err := h.store.Get(c.Request.Context(), track)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"track": track, "result": result, "source": "store"})
			return
		}
		if !errors.Is(err, analysis.ErrNotFound) {
			respondError(c, "Failed to load analysis", err)
			return
		}
	}

	if result, ok := h.results[track]; ok {
		c.JSON(http.StatusOK, gin.H{"track": track, "result": result, "source": "file"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "No analysis for track", "track": track})
}

// Put stores the analysis of one track
func (h *AnalysisHandler) Put(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis store is not configured"})
		return
	}

	var req PutAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Tempo < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tempo must not be negative"})
		return
	}

	key := req.Key
	if key != "" {
		parsed, ok := music.ParseKey(key)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown key. Expected a minor key such as \"A minor\""})
			return
		}
		key = string(parsed)
	}

	track := c.Param("track")
	result := models.AnalysisResult{Tempo: req.Tempo, Key: key}
	if err := h.store.Put(c.Request.Context(), track, result); err != nil {
		respondError(c, "Failed to save analysis", err)
		return
	}

	logger.Info("Analysis saved", logger.WithContext(c).Merge(logger.Fields{"track": track, "key": key, "tempo": req.Tempo}))
	c.JSON(http.StatusOK, gin.H{"track": track, "result": result})
}

package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-patterns/internal/music"
	"github.com/Conceptual-Machines/magda-patterns/internal/patterns"
)

const bytesPerMB = 1 << 20

// MetricsHandler reports process state and the generator catalogue
type MetricsHandler struct {
	started time.Time
	version string
}

func NewMetricsHandler(version string) *MetricsHandler {
	return &MetricsHandler{started: time.Now(), version: version}
}

type runtimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"num_goroutine"`
	HeapMB     uint64 `json:"mem_alloc_mb"`
	TotalMB    uint64 `json:"mem_total_mb"`
	GCRuns     uint32 `json:"num_gc"`
}

type catalogueStats struct {
	APIVersion string   `json:"version"`
	Templates  []string `json:"templates"`
	Keys       int      `json:"keys"`
	Parts      []string `json:"parts"`
}

type metricsResponse struct {
	Status    string         `json:"status"`
	Uptime    string         `json:"uptime"`
	Timestamp string         `json:"timestamp"`
	Version   string         `json:"version"`
	StartTime string         `json:"start_time"`
	System    runtimeStats   `json:"system"`
	API       catalogueStats `json:"api"`
}

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := time.Now()
	c.JSON(http.StatusOK, metricsResponse{
		Status:    "healthy",
		Uptime:    now.Sub(h.started).Round(10 * time.Millisecond).String(),
		Timestamp: now.UTC().Format(time.RFC3339),
		Version:   h.version,
		StartTime: h.started.UTC().Format(time.RFC3339),
		System: runtimeStats{
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			HeapMB:     mem.Alloc / bytesPerMB,
			TotalMB:    mem.TotalAlloc / bytesPerMB,
			GCRuns:     mem.NumGC,
		},
		API: catalogueStats{
			APIVersion: apiVersion,
			Templates:  patterns.Templates(),
			Keys:       len(music.Keys()),
			Parts:      []string{"motif", "bass", "chords", "random_arp"},
		},
	})
}

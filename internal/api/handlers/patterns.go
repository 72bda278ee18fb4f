package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-patterns/internal/logger"
	"github.com/Conceptual-Machines/magda-patterns/internal/midifile"
	"github.com/Conceptual-Machines/magda-patterns/internal/models"
	"github.com/Conceptual-Machines/magda-patterns/internal/services"
)

type PatternHandler struct {
	svc *services.GenerationService
}

func NewPatternHandler(svc *services.GenerationService) *PatternHandler {
	return &PatternHandler{svc: svc}
}

type TemplatePatternRequest struct {
	Track    string  `json:"track"`
	Key      string  `json:"key"`
	Tempo    float64 `json:"tempo"`
	Template string  `json:"template"`
	Format   string  `json:"format"` // "json" (default) or "midi"
	Part     string  `json:"part"`   // required for midi: motif, bass or chords
	Export   bool    `json:"export"`
}

// RandomPatternRequest.Length defaults to 32 and may not exceed patterns.MaxRandomLength;
// Tempo must fit a MIDI tempo event (about 3.58 bpm and up).
type RandomPatternRequest struct {
	Track         string  `json:"track"`
	Key           string  `json:"key"`
	Tempo         float64 `json:"tempo"`
	Length        int     `json:"length"`
	Seed          *int64  `json:"seed"`
	FixedVelocity int     `json:"fixed_velocity"`
	Format        string  `json:"format"`
	Export        bool    `json:"export"`
}

func validFormat(format string) bool {
	return format == "" || format == formatJSON || format == formatMIDI
}

// Template generates motif, bass and chords from a named template
func (h *PatternHandler) Template(c *gin.Context) {
	var req TemplatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validFormat(req.Format) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid format. Allowed: json, midi"})
		return
	}

	part := models.Part(req.Part)
	if req.Format == formatMIDI {
		if _, ok := (models.PatternSet{}).ByPart(part); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "part is required for midi output. Allowed: motif, bass, chords"})
			return
		}
	}

	result, err := h.svc.GenerateTemplate(c.Request.Context(), services.TemplateRequest{
		Track:    req.Track,
		Key:      req.Key,
		Tempo:    req.Tempo,
		Template: req.Template,
		Export:   req.Export,
	})
	if err != nil {
		respondError(c, "Failed to generate patterns", err)
		return
	}

	if req.Format == formatMIDI {
		out, _ := result.Part(part)
		sendMIDI(c, result.Track, out)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Random generates a seeded random arpeggio. The seed used is echoed back so
// the same pattern can be requested again.
func (h *PatternHandler) Random(c *gin.Context) {
	var req RandomPatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validFormat(req.Format) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid format. Allowed: json, midi"})
		return
	}

	result, err := h.svc.GenerateRandom(c.Request.Context(), services.RandomRequest{
		Track:         req.Track,
		Key:           req.Key,
		Tempo:         req.Tempo,
		Length:        req.Length,
		Seed:          req.Seed,
		FixedVelocity: req.FixedVelocity,
		Export:        req.Export,
	})
	if err != nil {
		respondError(c, "Failed to generate random pattern", err)
		return
	}

	c.Header(seedHeader, strconv.FormatInt(*result.Seed, 10))
	logger.Debug("Random pattern seed", logger.WithContext(c).Merge(logger.Fields{"seed": *result.Seed}))

	if req.Format == formatMIDI {
		out, _ := result.Part(models.PartRandomArp)
		sendMIDI(c, result.Track, out)
		return
	}
	c.JSON(http.StatusOK, result)
}

func sendMIDI(c *gin.Context, track string, out *services.PartOutput) {
	if out == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Pattern part missing from result"})
		return
	}
	name := midifile.FileName(track, out.Pattern.Part)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentTypeMIDI, out.MIDI)
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-patterns/internal/services"
)

type GenerationsHandler struct {
	history *services.HistoryService
}

func NewGenerationsHandler(history *services.HistoryService) *GenerationsHandler {
	return &GenerationsHandler{history: history}
}

// List returns recent generations, newest first
func (h *GenerationsHandler) List(c *gin.Context) {
	if !h.history.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Generation history requires DATABASE_URL"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	records, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, "Failed to list generations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"generations": records,
		"limit":       services.ClampLimit(limit),
	})
}

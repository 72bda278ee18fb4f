package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-patterns/internal/analysis"
)

const healthCheckTimeout = 2 * time.Second

type HealthHandler struct {
	db    *gorm.DB
	store *analysis.Store
}

func NewHealthHandler(db *gorm.DB, store *analysis.Store) *HealthHandler {
	return &HealthHandler{db: db, store: store}
}

// HealthCheck returns the health status of the API and its optional backends
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "healthy"
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "unreachable"
		}
	}

	storeStatus := "disabled"
	if h.store != nil {
		storeStatus = "enabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"database":       dbStatus,
		"analysis_store": storeStatus,
	})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-patterns/internal/logger"
	"github.com/Conceptual-Machines/magda-patterns/internal/patterns"
)

// respondError maps generator argument errors to 400 and everything else to 500
func respondError(c *gin.Context, msg string, err error) {
	if errors.Is(err, patterns.ErrInvalidArgument) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logger.Error(msg, err, logger.WithContext(c))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":      msg,
		"request_id": c.GetString("request_id"),
	})
}

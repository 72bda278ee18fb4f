package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-patterns/internal/logger"
	"github.com/Conceptual-Machines/magda-patterns/internal/music"
)

type ScaleResponse struct {
	Key       music.Key   `json:"key"`
	Requested string      `json:"requested,omitempty"`
	Tonic     string      `json:"tonic"`
	Notes     music.Scale `json:"notes"`
	Names     []string    `json:"names"`
	Intervals []int       `json:"intervals"`
	Fallback  bool        `json:"fallback"`
}

func scaleResponse(key music.Key, scale music.Scale) ScaleResponse {
	return ScaleResponse{
		Key:       key,
		Tonic:     key.Tonic(),
		Notes:     scale,
		Names:     music.ScaleNames(scale),
		Intervals: scale.Intervals(),
	}
}

// ListScales returns the whole scale table
func ListScales(c *gin.Context) {
	keys := music.Keys()
	scales := make([]ScaleResponse, 0, len(keys))
	for _, key := range keys {
		scales = append(scales, scaleResponse(key, music.Lookup(key)))
	}
	c.JSON(http.StatusOK, gin.H{"scales": scales, "default_key": music.DefaultKey})
}

// GetScale looks up one key. Unknown keys answer with the default scale and fallback=true.
func GetScale(c *gin.Context) {
	requested := c.Param("key")
	key, scale, ok := music.Resolve(requested)
	if !ok {
		logger.Warn("Unknown key requested, using default scale", logger.WithContext(c).Merge(logger.Fields{"key": requested}))
	}

	resp := scaleResponse(key, scale)
	resp.Requested = requested
	resp.Fallback = !ok
	c.JSON(http.StatusOK, resp)
}

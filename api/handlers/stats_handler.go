package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/internal/domain"
)

// StatsSource provides aggregated download history
type StatsSource interface {
	Stats() (*domain.DownloadStats, error)
}

// StatsHandler serves download statistics
type StatsHandler struct {
	source StatsSource
	logger *zap.Logger
}

// NewStatsHandler creates a new stats handler. A nil source means history is disabled.
func NewStatsHandler(source StatsSource, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		source: source,
		logger: logger,
	}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	if h.source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "download history is disabled"})
		return
	}

	stats, err := h.source.Stats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

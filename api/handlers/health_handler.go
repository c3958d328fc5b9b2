package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mediagrab/internal/app"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler reports liveness and readiness
type HealthHandler struct {
	janitor   *app.Janitor
	outputDir string
	started   time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(janitor *app.Janitor, outputDir string) *HealthHandler {
	return &HealthHandler{
		janitor:   janitor,
		outputDir: outputDir,
		started:   time.Now(),
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Cleanup       bool   `json:"cleanup_running"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Cleanup:       h.janitor.IsRunning(),
	})
}

// Ready handles GET /ready: the janitor must be running and the output directory present
func (h *HealthHandler) Ready(c *gin.Context) {
	reason := ""
	if !h.janitor.IsRunning() {
		reason = "cleanup not running"
	} else if info, err := os.Stat(h.outputDir); err != nil || !info.IsDir() {
		reason = "output directory unavailable"
	}

	if reason != "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": reason})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/internal/app"
	"github.com/yourusername/mediagrab/internal/domain"
	"github.com/yourusername/mediagrab/internal/infrastructure"
)

// DownloadHandler handles metadata, synchronous download and file serving requests
type DownloadHandler struct {
	downloadMgr *app.DownloadManager
	recorder    app.Recorder
	janitor     *app.Janitor
	resolver    *infrastructure.OutputResolver
	logger      *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(downloadMgr *app.DownloadManager, recorder app.Recorder, janitor *app.Janitor, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		downloadMgr: downloadMgr,
		recorder:    recorder,
		janitor:     janitor,
		resolver:    infrastructure.NewOutputResolver(),
		logger:      logger,
	}
}

// InfoRequest represents a metadata request
type InfoRequest struct {
	URL string `json:"url"`
}

// Info handles POST /api/info
func (h *DownloadHandler) Info(c *gin.Context) {
	var req InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	info, err := h.downloadMgr.Probe(c.Request.Context(), req.URL)
	if err != nil {
		h.logger.Warn("Video info failed", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}

// Download handles GET /download. The file is sent as an attachment and removed afterwards.
func (h *DownloadHandler) Download(c *gin.Context) {
	if c.Query("url") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}
	req, err := streamRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	historyID := h.recorder.Started(req.URL, nil, req.Mode, callerOf(c))

	// a disconnecting client does not stop the download
	ctx := context.WithoutCancel(c.Request.Context())
	result, _, err := h.downloadMgr.Acquire(ctx, req, nil)
	if err != nil {
		h.recorder.Failed(historyID, err)
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	h.recorder.Completed(historyID)

	h.logger.Info("Serving file", zap.String("path", result.FilePath))
	c.FileAttachment(result.FilePath, result.Filename)
	h.janitor.RemoveFile(result.FilePath)
}

// ServeFile handles GET /api/files/:id, sending the file a streamed download produced
func (h *DownloadHandler) ServeFile(c *gin.Context) {
	id := c.Param("id")
	if !domain.ValidSessionID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	resolution, err := h.resolver.Resolve(domain.Session{ID: id}, h.downloadMgr.OutputDir())
	if err != nil {
		if errors.Is(err, domain.ErrOutputMissing) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		h.logger.Error("Failed to resolve file", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.FileAttachment(resolution.Result.FilePath, resolution.Result.Filename)
	h.janitor.RemoveFile(resolution.Result.FilePath)

	if resolution.Ambiguous() {
		if _, err := h.resolver.Purge(domain.Session{ID: id}, h.downloadMgr.OutputDir()); err != nil {
			h.logger.Warn("Failed to remove extra session files", zap.String("id", id), zap.Error(err))
		}
	}
}

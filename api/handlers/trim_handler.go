package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/internal/app"
)

// multipartOverhead leaves room for the form fields around the uploaded file
const multipartOverhead = 1 << 20

// TrimHandler handles audio trimming uploads
type TrimHandler struct {
	trimmer *app.Trimmer
	janitor *app.Janitor
	logger  *zap.Logger
}

// NewTrimHandler creates a new trim handler
func NewTrimHandler(trimmer *app.Trimmer, janitor *app.Janitor, logger *zap.Logger) *TrimHandler {
	return &TrimHandler{
		trimmer: trimmer,
		janitor: janitor,
		logger:  logger,
	}
}

// Trim handles POST /trimmer/trim with multipart fields audio, start and end (seconds)
func (h *TrimHandler) Trim(c *gin.Context) {
	maxSize := h.trimmer.MaxUploadSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)

	file, err := c.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No audio file uploaded"})
		return
	}
	if file.Size > maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}
	if !app.IsAllowedUpload(file.Filename, file.Header.Get("Content-Type")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Only audio files are allowed."})
		return
	}

	start, startErr := strconv.ParseFloat(c.PostForm("start"), 64)
	end, endErr := strconv.ParseFloat(c.PostForm("end"), 64)
	if startErr != nil || endErr != nil || !app.ValidTrimRange(start, end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start or end time"})
		return
	}

	uploadPath := h.trimmer.UploadPath(file.Filename)
	if err := c.SaveUploadedFile(file, uploadPath); err != nil {
		h.logger.Error("Failed to save upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save upload"})
		return
	}
	defer h.janitor.RemoveFile(uploadPath)

	output, err := h.trimmer.Trim(c.Request.Context(), uploadPath, start, end)
	if err != nil {
		h.logger.Error("Trim error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer h.janitor.RemoveFile(output)

	c.FileAttachment(output, app.TrimmedFilename(file.Filename))
}

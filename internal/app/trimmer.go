package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/internal/domain"
	"github.com/yourusername/mediagrab/internal/infrastructure"
)

// ErrInvalidTrimRange is returned when start/end do not describe a forward range
var ErrInvalidTrimRange = errors.New("invalid start or end time")

var (
	allowedAudioTypes = map[string]bool{
		"audio/mpeg": true, "audio/mp3": true,
		"audio/wav": true, "audio/wave": true, "audio/x-wav": true,
		"audio/ogg": true,
		"audio/mp4": true, "audio/m4a": true, "audio/x-m4a": true,
	}
	allowedAudioExtensions = map[string]bool{
		".mp3": true, ".wav": true, ".ogg": true, ".m4a": true, ".aac": true,
	}
)

// Trimmer cuts a time range out of an uploaded audio file with ffmpeg
type Trimmer struct {
	runner    *infrastructure.ProcessRunner
	config    *domain.TrimmerConfig
	outputDir string
	logger    *zap.Logger
}

// NewTrimmer creates a new audio trimmer writing into outputDir
func NewTrimmer(config *domain.TrimmerConfig, outputDir string, runner *infrastructure.ProcessRunner, logger *zap.Logger) *Trimmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trimmer{
		runner:    runner,
		config:    config,
		outputDir: outputDir,
		logger:    logger,
	}
}

// MaxUploadSize returns the largest accepted upload in bytes
func (t *Trimmer) MaxUploadSize() int64 {
	return t.config.MaxUploadSize
}

// IsAllowedUpload accepts audio MIME types or known audio extensions
func IsAllowedUpload(filename, mimeType string) bool {
	if allowedAudioTypes[strings.ToLower(mimeType)] {
		return true
	}
	return allowedAudioExtensions[strings.ToLower(filepath.Ext(filename))]
}

// UploadPath returns a fresh path in the output directory for an uploaded file
func (t *Trimmer) UploadPath(originalName string) string {
	return filepath.Join(t.outputDir, "upload-"+uuid.NewString()+strings.ToLower(filepath.Ext(originalName)))
}

// TrimmedFilename is the download name offered for a trimmed upload
func TrimmedFilename(originalName string) string {
	base := filepath.Base(originalName)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_trimmed.mp3"
}

// Trim encodes [start, end) seconds of input to MP3 and returns the output path.
// The caller owns both the input and the output file.
func (t *Trimmer) Trim(ctx context.Context, input string, start, end float64) (string, error) {
	if !ValidTrimRange(start, end) {
		return "", fmt.Errorf("%w: start=%g end=%g", ErrInvalidTrimRange, start, end)
	}

	output := filepath.Join(t.outputDir, "trimmed-"+uuid.NewString()+".mp3")
	args := []string{
		"-y",
		"-ss", formatSeconds(start),
		"-i", input,
		"-t", formatSeconds(end - start),
		"-vn",
		"-acodec", "libmp3lame",
		"-b:a", t.config.AudioBitrate,
		output,
	}

	var lastLine string
	result, err := t.runner.Run(ctx, infrastructure.ProcessSpec{
		Binary: t.config.FFmpegBinary,
		Args:   args,
		OnStderr: func(line string) {
			if strings.TrimSpace(line) != "" {
				lastLine = strings.TrimSpace(line)
			}
		},
	})
	if err != nil {
		os.Remove(output)
		return "", fmt.Errorf("failed to trim audio: %w", err)
	}
	if result.ExitCode != 0 {
		os.Remove(output)
		t.logger.Warn("ffmpeg failed", zap.Int("exit_code", result.ExitCode), zap.String("stderr", result.Stderr))
		return "", fmt.Errorf("failed to trim audio: ffmpeg exited with code %d: %s", result.ExitCode, lastLine)
	}

	t.logger.Info("Trimmed audio",
		zap.String("output", output),
		zap.Float64("start", start),
		zap.Float64("end", end),
		zap.Duration("took", result.Duration))
	return output, nil
}

// ValidTrimRange reports whether [start, end) is a finite, non-empty range starting at or after 0
func ValidTrimRange(start, end float64) bool {
	for _, v := range []float64{start, end} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return start >= 0 && end > start
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

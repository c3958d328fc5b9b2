package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/internal/domain"
	"github.com/yourusername/mediagrab/internal/infrastructure"
)

// acquisition states, used in logs
const (
	stateStarting  = "starting"
	stateRunning   = "running"
	stateSucceeded = "succeeded"
	stateFailed    = "failed"
)

// ytdlpInfo is the subset of yt-dlp's --dump-json output we read
type ytdlpInfo struct {
	Title          string `json:"title"`
	Thumbnail      string `json:"thumbnail"`
	DurationString string `json:"duration_string"`
	Uploader       string `json:"uploader"`
}

// DownloadManager drives yt-dlp for metadata probes and downloads. It implements domain.MediaAcquirer.
// Each call owns its own session and process; the output directory is the only shared state.
type DownloadManager struct {
	runner     *infrastructure.ProcessRunner
	builder    *infrastructure.YTDLPCommandBuilder
	extractor  domain.ProgressExtractor
	resolver   *infrastructure.OutputResolver
	config     *domain.YTDLPConfig
	outputDir  string
	logger     *zap.Logger
	newSession func() domain.Session
}

// NewDownloadManager creates a new download manager writing into outputDir
func NewDownloadManager(
	config *domain.YTDLPConfig,
	outputDir string,
	runner *infrastructure.ProcessRunner,
	logger *zap.Logger,
) *DownloadManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadManager{
		runner:     runner,
		builder:    infrastructure.NewYTDLPCommandBuilder(config),
		extractor:  infrastructure.YTDLPProgressExtractor{},
		resolver:   infrastructure.NewOutputResolver(),
		config:     config,
		outputDir:  outputDir,
		logger:     logger,
		newSession: domain.NewSession,
	}
}

// OutputDir returns the directory downloads are written to
func (dm *DownloadManager) OutputDir() string {
	return dm.outputDir
}

// Probe fetches the media's metadata without downloading it
func (dm *DownloadManager) Probe(ctx context.Context, url string) (*domain.VideoMetadata, error) {
	if err := (domain.AcquisitionRequest{URL: url, Mode: domain.ModeMetadata}).Validate(); err != nil {
		return nil, err
	}

	probeCtx, cancel := context.WithTimeout(ctx, dm.config.MetadataTimeout)
	defer cancel()

	log := dm.logger.With(zap.String("url", url))
	log.Debug("Fetching video info")

	result, err := dm.runner.Run(probeCtx, infrastructure.ProcessSpec{
		Binary:        dm.builder.Binary(),
		Args:          dm.builder.ProbeArgs(url),
		CaptureStdout: true,
		OnStderr: func(line string) {
			log.Debug("yt-dlp stderr", zap.String("line", line))
		},
	})
	if err != nil {
		if ctx.Err() == nil && errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", domain.ErrMetadataFetchFailed, dm.config.MetadataTimeout)
		}
		return nil, err
	}

	if result.ExitCode != 0 {
		log.Warn("Video info fetch failed",
			zap.Int("exit_code", result.ExitCode),
			zap.String("stderr", result.Stderr))
		return nil, &domain.ProcessError{
			Kind:     domain.ErrMetadataFetchFailed,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	var info ytdlpInfo
	if err := json.NewDecoder(bytes.NewReader(result.Stdout)).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMetadataParseFailed, err)
	}

	return &domain.VideoMetadata{
		Title:     info.Title,
		Thumbnail: info.Thumbnail,
		Duration:  info.DurationString,
		Uploader:  info.Uploader,
	}, nil
}

// Acquire downloads the media into a fresh session and returns the produced file.
// onProgress may be nil; it is called from the process output goroutine.
// On failure or cancellation the session's files are removed.
func (dm *DownloadManager) Acquire(
	ctx context.Context,
	req domain.AcquisitionRequest,
	onProgress domain.ProgressFunc,
) (*domain.DownloadResult, domain.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.Session{}, err
	}
	if !req.Mode.IsDownload() {
		return nil, domain.Session{}, fmt.Errorf("%w: mode %s does not download", domain.ErrInvalidRequest, req.Mode)
	}

	session := dm.newSession()
	log := dm.logger.With(
		zap.String("session", session.ID),
		zap.String("url", req.URL),
		zap.String("format", string(req.Mode)))

	log.Info("Download state", zap.String("state", stateStarting))

	spec := infrastructure.ProcessSpec{
		Binary: dm.builder.Binary(),
		Args:   dm.builder.DownloadArgs(session, dm.outputDir, req.Mode, req.URL),
		OnStdout: func(line string) {
			if percent, ok := dm.extractor.Extract(line); ok && onProgress != nil {
				onProgress(percent)
			}
		},
		OnStderr: func(line string) {
			log.Debug("yt-dlp stderr", zap.String("line", line))
		},
	}

	log.Info("Download state", zap.String("state", stateRunning))
	result, err := dm.runner.Run(ctx, spec)
	if err != nil {
		dm.fail(log, session, err)
		return nil, session, err
	}

	if result.ExitCode != 0 {
		err := &domain.ProcessError{
			Kind:     domain.ErrDownloadFailed,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
		dm.fail(log, session, err)
		return nil, session, err
	}

	resolution, err := dm.resolver.Resolve(session, dm.outputDir)
	if err != nil {
		dm.fail(log, session, err)
		return nil, session, err
	}

	// ownership passes to the caller now; restart the janitor's age clock
	now := time.Now()
	if err := os.Chtimes(resolution.Result.FilePath, now, now); err != nil {
		log.Warn("Failed to reset file times", zap.String("file", resolution.Result.FilePath), zap.Error(err))
	}

	if resolution.Ambiguous() {
		log.Warn("Ambiguous download output",
			zap.Error(fmt.Errorf("%w: using %s", domain.ErrAmbiguousOutput, resolution.Result.Filename)),
			zap.Strings("candidates", resolution.Candidates))
	}

	log.Info("Download state",
		zap.String("state", stateSucceeded),
		zap.String("file", resolution.Result.FilePath),
		zap.Duration("duration", result.Duration))

	return &resolution.Result, session, nil
}

// fail logs the failed state and removes whatever the session left behind
func (dm *DownloadManager) fail(log *zap.Logger, session domain.Session, err error) {
	log.Warn("Download state", zap.String("state", stateFailed), zap.Error(err))

	if errors.Is(err, domain.ErrSpawnFailed) {
		return
	}
	removed, purgeErr := dm.resolver.Purge(session, dm.outputDir)
	if purgeErr != nil {
		log.Warn("Failed to remove session files", zap.Error(purgeErr))
		return
	}
	if removed > 0 {
		log.Debug("Removed session files", zap.Int("count", removed))
	}
}

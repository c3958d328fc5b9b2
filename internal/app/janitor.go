package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/internal/domain"
)

// Janitor removes stale files from the shared output directory. Served files are removed
// right after transfer; the janitor catches what abandoned streams and crashed runs leave behind.
type Janitor struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewJanitor creates a new janitor for the configured output directory
func NewJanitor(config *domain.DownloadConfig, logger *zap.Logger) *Janitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{
		dir:      config.OutputDir,
		maxAge:   config.CleanupAge,
		interval: config.CleanupInterval,
		logger:   logger,
		now:      time.Now,
	}
}

// EnsureDir creates the output directory if it does not exist
func (j *Janitor) EnsureDir() error {
	if err := os.MkdirAll(j.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Sweep removes regular files older than the cleanup age and returns how many were removed.
// A zero cleanup age disables sweeping.
func (j *Janitor) Sweep() (int, error) {
	if j.maxAge <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read output directory: %w", err)
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed concurrently
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed++
		j.logger.Info("Cleaned up old file", zap.String("file", entry.Name()), zap.Time("modified", info.ModTime()))
	}

	return removed, errors.Join(errs...)
}

// RemoveFile deletes a served or abandoned file. Failures are logged, not returned.
func (j *Janitor) RemoveFile(path string) {
	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			j.logger.Warn("Failed to clean up file", zap.String("path", path), zap.Error(err))
		}
		return
	}
	j.logger.Debug("Cleaned up file", zap.String("path", path))
}

// Start sweeps once and then on every cleanup interval until Stop or ctx ends.
// A zero interval disables the periodic sweep.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return fmt.Errorf("janitor already running")
	}
	j.running = true
	j.stopChan = make(chan struct{})
	j.mu.Unlock()

	j.sweepAndLog()

	if j.interval > 0 {
		j.wg.Add(1)
		go j.loop(ctx)
	}
	return nil
}

// Stop stops the periodic sweep and waits for it to exit
func (j *Janitor) Stop() error {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return fmt.Errorf("janitor not running")
	}
	j.running = false
	close(j.stopChan)
	j.mu.Unlock()

	j.wg.Wait()
	return nil
}

// IsRunning returns whether the janitor is running
func (j *Janitor) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *Janitor) loop(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Debug("Janitor stopped", zap.String("reason", "context_cancelled"))
			return
		case <-j.stopChan:
			j.logger.Debug("Janitor stopped", zap.String("reason", "stop_signal"))
			return
		case <-ticker.C:
			j.sweepAndLog()
		}
	}
}

func (j *Janitor) sweepAndLog() {
	removed, err := j.Sweep()
	if err != nil {
		j.logger.Error("Cleanup error", zap.Error(err))
	}
	if removed > 0 {
		j.logger.Info("Cleanup finished", zap.Int("removed", removed))
	}
}

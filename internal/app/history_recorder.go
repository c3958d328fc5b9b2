package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/internal/domain"
)

// Recorder receives the start and outcome of every download request.
// Recording is best-effort: implementations never fail the download.
type Recorder interface {
	Started(url string, info *domain.VideoMetadata, format domain.Mode, caller domain.Caller) uint
	Completed(id uint)
	Failed(id uint, err error)
}

// HistoryRecorder persists download requests through a HistoryRepository
type HistoryRecorder struct {
	repo   domain.HistoryRepository
	logger *zap.Logger
}

// NewHistoryRecorder creates a new history recorder
func NewHistoryRecorder(repo domain.HistoryRepository, logger *zap.Logger) *HistoryRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryRecorder{repo: repo, logger: logger}
}

// Started stores a new entry and returns its ID, or 0 if it could not be stored
func (r *HistoryRecorder) Started(url string, info *domain.VideoMetadata, format domain.Mode, caller domain.Caller) uint {
	entry := domain.NewDownloadLog(url, info, format, caller)
	if err := r.repo.Create(entry); err != nil {
		r.logger.Error("Failed to record download start", zap.String("url", url), zap.Error(err))
		return 0
	}
	return entry.ID
}

// Completed marks the entry as completed
func (r *HistoryRecorder) Completed(id uint) {
	if id == 0 {
		return
	}
	if err := r.repo.MarkCompleted(id); err != nil {
		r.logger.Error("Failed to record download completion", zap.Uint("id", id), zap.Error(err))
	}
}

// Failed marks the entry as failed with err's message
func (r *HistoryRecorder) Failed(id uint, err error) {
	if id == 0 {
		return
	}
	message := "unknown error"
	if err != nil {
		message = err.Error()
	}
	if markErr := r.repo.MarkFailed(id, message); markErr != nil {
		r.logger.Error("Failed to record download failure", zap.Uint("id", id), zap.Error(markErr))
	}
}

// Stats returns the aggregated history as of now
func (r *HistoryRecorder) Stats() (*domain.DownloadStats, error) {
	return r.repo.GetStats(time.Now())
}

// NopRecorder discards everything; used when history is disabled
type NopRecorder struct{}

func (NopRecorder) Started(string, *domain.VideoMetadata, domain.Mode, domain.Caller) uint { return 0 }
func (NopRecorder) Completed(uint)                                                         {}
func (NopRecorder) Failed(uint, error)                                                     {}

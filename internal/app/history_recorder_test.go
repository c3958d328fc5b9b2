package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/mediagrab/internal/domain"
)

// mockHistoryRepo implements domain.HistoryRepository for testing
type mockHistoryRepo struct {
	entries   []*domain.DownloadLog
	createErr error
	markErr   error
}

func (m *mockHistoryRepo) Create(entry *domain.DownloadLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	entry.ID = uint(len(m.entries))
	return nil
}

func (m *mockHistoryRepo) MarkCompleted(id uint) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.entries[id-1].Status = domain.HistoryCompleted
	return nil
}

func (m *mockHistoryRepo) MarkFailed(id uint, message string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.entries[id-1].Status = domain.HistoryFailed
	m.entries[id-1].ErrorMessage = message
	return nil
}

func (m *mockHistoryRepo) FindByID(id uint) (*domain.DownloadLog, error) {
	return m.entries[id-1], nil
}

func (m *mockHistoryRepo) GetStats(now time.Time) (*domain.DownloadStats, error) {
	return &domain.DownloadStats{Totals: domain.StatsTotals{TotalDownloads: int64(len(m.entries))}}, nil
}

func TestHistoryRecorder_Lifecycle(t *testing.T) {
	repo := &mockHistoryRepo{}
	recorder := NewHistoryRecorder(repo, nil)
	caller := domain.Caller{IPAddress: "10.0.0.1", UserAgent: "test"}

	ok := recorder.Started("https://example.com/a", &domain.VideoMetadata{Title: "A"}, domain.ModeAudio, caller)
	bad := recorder.Started("https://example.com/b", nil, domain.ModeVideo, caller)
	recorder.Completed(ok)
	recorder.Failed(bad, errors.New("ERROR: Unsupported URL"))

	assert.Equal(t, domain.HistoryCompleted, repo.entries[0].Status)
	assert.Equal(t, "A", repo.entries[0].VideoTitle)
	assert.Equal(t, "10.0.0.1", repo.entries[0].IPAddress)
	assert.Equal(t, domain.HistoryFailed, repo.entries[1].Status)
	assert.Equal(t, "ERROR: Unsupported URL", repo.entries[1].ErrorMessage)

	stats, err := recorder.Stats()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), stats.Totals.TotalDownloads)
}

func TestHistoryRecorder_StoreFailuresAreSwallowed(t *testing.T) {
	repo := &mockHistoryRepo{createErr: errors.New("disk full")}
	recorder := NewHistoryRecorder(repo, nil)

	id := recorder.Started("https://example.com/a", nil, domain.ModeAudio, domain.Caller{})
	assert.Zero(t, id)

	// unrecorded IDs are ignored
	recorder.Completed(id)
	recorder.Failed(id, errors.New("boom"))

	repo.createErr = nil
	repo.markErr = errors.New("locked")
	id = recorder.Started("https://example.com/b", nil, domain.ModeAudio, domain.Caller{})
	recorder.Completed(id)
	assert.Equal(t, domain.HistoryStarted, repo.entries[0].Status)
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	assert.Zero(t, r.Started("https://example.com", nil, domain.ModeVideo, domain.Caller{}))
	r.Completed(1)
	r.Failed(1, errors.New("x"))
}

package infrastructure

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/mediagrab/internal/domain"
)

func setupTestRepo(t *testing.T) *SQLiteHistoryRepository {
	t.Helper()
	repo, err := NewSQLiteHistoryRepository(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createLog(t *testing.T, repo *SQLiteHistoryRepository, title string, format domain.Mode, ip string, createdAt time.Time) *domain.DownloadLog {
	t.Helper()
	entry := domain.NewDownloadLog("https://example.com/"+title, &domain.VideoMetadata{Title: title, Uploader: "uploader"}, format, domain.Caller{IPAddress: ip})
	entry.CreatedAt = createdAt
	require.NoError(t, repo.Create(entry))
	return entry
}

func TestSQLiteHistoryRepository_Lifecycle(t *testing.T) {
	repo := setupTestRepo(t)

	entry := domain.NewDownloadLog("https://example.com/v", &domain.VideoMetadata{Title: "Clip", Uploader: "Me", Duration: "1:00"}, domain.ModeVideo, domain.Caller{IPAddress: "10.0.0.1", UserAgent: "curl/8"})
	require.NoError(t, repo.Create(entry))
	require.NotZero(t, entry.ID)

	found, err := repo.FindByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryStarted, found.Status)
	assert.Equal(t, "Clip", found.VideoTitle)
	assert.Equal(t, "curl/8", found.UserAgent)
	assert.Nil(t, found.CompletedAt)

	require.NoError(t, repo.MarkCompleted(entry.ID))
	found, err = repo.FindByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryCompleted, found.Status)
	assert.NotNil(t, found.CompletedAt)

	second := domain.NewDownloadLog("https://example.com/x", nil, domain.ModeAudio, domain.Caller{})
	require.NoError(t, repo.Create(second))
	require.NoError(t, repo.MarkFailed(second.ID, "ERROR: Unsupported URL"))
	found, err = repo.FindByID(second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryFailed, found.Status)
	assert.Equal(t, "ERROR: Unsupported URL", found.ErrorMessage)
}

func TestSQLiteHistoryRepository_MarkUnknownID(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.MarkCompleted(999)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_, err = repo.FindByID(999)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestSQLiteHistoryRepository_GetStats(t *testing.T) {
	repo := setupTestRepo(t)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	a := createLog(t, repo, "Alpha", domain.ModeVideo, "10.0.0.1", now.Add(-1*time.Hour))
	createLog(t, repo, "Alpha", domain.ModeAudio, "10.0.0.2", now.Add(-2*time.Hour))
	b := createLog(t, repo, "Beta", domain.ModeVideo, "10.0.0.1", now.AddDate(0, 0, -1))
	createLog(t, repo, "Gamma", domain.ModeAudio, "", now.AddDate(0, 0, -40))

	require.NoError(t, repo.MarkCompleted(a.ID))
	require.NoError(t, repo.MarkFailed(b.ID, "boom"))

	stats, err := repo.GetStats(now)
	require.NoError(t, err)

	assert.Equal(t, domain.StatsTotals{
		TotalDownloads: 4,
		VideoDownloads: 2,
		AudioDownloads: 2,
		Successful:     1,
		Failed:         1,
		UniqueUsers:    2,
	}, stats.Totals)
	assert.Equal(t, domain.StatsToday{Downloads: 2, UniqueUsers: 2}, stats.Today)

	require.Len(t, stats.RecentDownloads, 4)
	assert.Equal(t, "Alpha", stats.RecentDownloads[0].VideoTitle)
	assert.Equal(t, domain.ModeVideo, stats.RecentDownloads[0].Format)
	assert.Equal(t, "Gamma", stats.RecentDownloads[3].VideoTitle)

	require.Len(t, stats.TopVideos, 3)
	assert.Equal(t, domain.TopVideo{VideoTitle: "Alpha", VideoUploader: "uploader", DownloadCount: 2}, stats.TopVideos[0])

	assert.Equal(t, []domain.DailyCount{
		{Date: "2026-10-15", Downloads: 1},
		{Date: "2026-10-16", Downloads: 2},
	}, stats.DailyTrend)
}

func TestSQLiteHistoryRepository_GetStatsEmpty(t *testing.T) {
	repo := setupTestRepo(t)

	stats, err := repo.GetStats(time.Now())
	require.NoError(t, err)

	assert.Zero(t, stats.Totals.TotalDownloads)
	assert.NotNil(t, stats.RecentDownloads)
	assert.NotNil(t, stats.TopVideos)
	assert.NotNil(t, stats.DailyTrend)
}

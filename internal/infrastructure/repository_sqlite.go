package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/mediagrab/internal/domain"
)

// SQLiteHistoryRepository implements HistoryRepository using SQLite.
// Timestamps are stored in UTC and bucketed into calendar days in Go, in the caller's location.
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository opens (creating if needed) the history database at dbPath
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.DownloadLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// Create stores a new entry and assigns its ID
func (r *SQLiteHistoryRepository) Create(entry *domain.DownloadLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	return r.db.Create(entry).Error
}

// MarkCompleted records a successful download
func (r *SQLiteHistoryRepository) MarkCompleted(id uint) error {
	return r.update(id, map[string]interface{}{
		"status":       domain.HistoryCompleted,
		"completed_at": time.Now().UTC(),
	})
}

// MarkFailed records a failed download with its error message
func (r *SQLiteHistoryRepository) MarkFailed(id uint, message string) error {
	return r.update(id, map[string]interface{}{
		"status":        domain.HistoryFailed,
		"error_message": message,
	})
}

func (r *SQLiteHistoryRepository) update(id uint, fields map[string]interface{}) error {
	result := r.db.Model(&domain.DownloadLog{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("download log %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// FindByID finds an entry by ID
func (r *SQLiteHistoryRepository) FindByID(id uint) (*domain.DownloadLog, error) {
	var entry domain.DownloadLog
	if err := r.db.First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetStats aggregates the history. "Today" and the daily trend use now's location.
func (r *SQLiteHistoryRepository) GetStats(now time.Time) (*domain.DownloadStats, error) {
	stats := &domain.DownloadStats{
		RecentDownloads: []domain.RecentDownload{},
		TopVideos:       []domain.TopVideo{},
		DailyTrend:      []domain.DailyCount{},
	}

	// Get totals
	if err := r.db.Model(&domain.DownloadLog{}).
		Select(`COUNT(*) AS total_downloads,
			COALESCE(SUM(CASE WHEN format = ? THEN 1 ELSE 0 END), 0) AS video_downloads,
			COALESCE(SUM(CASE WHEN format = ? THEN 1 ELSE 0 END), 0) AS audio_downloads,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS successful,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS failed,
			COUNT(DISTINCT NULLIF(ip_address, '')) AS unique_users`,
			domain.ModeVideo, domain.ModeAudio, domain.HistoryCompleted, domain.HistoryFailed).
		Scan(&stats.Totals).Error; err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// Get today's counters
	if err := r.db.Model(&domain.DownloadLog{}).
		Select("COUNT(*) AS downloads, COUNT(DISTINCT NULLIF(ip_address, '')) AS unique_users").
		Where("created_at >= ? AND created_at < ?", dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC()).
		Scan(&stats.Today).Error; err != nil {
		return nil, fmt.Errorf("failed to query today: %w", err)
	}

	if err := r.db.Model(&domain.DownloadLog{}).
		Select("video_title, video_uploader, format, status, ip_address, created_at").
		Order("created_at DESC, id DESC").
		Limit(domain.RecentDownloadsLimit).
		Scan(&stats.RecentDownloads).Error; err != nil {
		return nil, fmt.Errorf("failed to query recent downloads: %w", err)
	}

	if err := r.db.Model(&domain.DownloadLog{}).
		Select("video_title, video_uploader, COUNT(*) AS download_count").
		Where("video_title <> ''").
		Group("video_title, video_uploader").
		Order("download_count DESC, video_title ASC").
		Limit(domain.TopVideosLimit).
		Scan(&stats.TopVideos).Error; err != nil {
		return nil, fmt.Errorf("failed to query top videos: %w", err)
	}

	trend, err := r.dailyTrend(dayStart)
	if err != nil {
		return nil, err
	}
	stats.DailyTrend = trend

	return stats, nil
}

// dailyTrend counts downloads per calendar day over the trend window ending on dayStart's day.
// Days without downloads are omitted.
func (r *SQLiteHistoryRepository) dailyTrend(dayStart time.Time) ([]domain.DailyCount, error) {
	windowStart := dayStart.AddDate(0, 0, -(domain.DailyTrendDays - 1))

	var timestamps []time.Time
	if err := r.db.Model(&domain.DownloadLog{}).
		Where("created_at >= ?", windowStart.UTC()).
		Pluck("created_at", &timestamps).Error; err != nil {
		return nil, fmt.Errorf("failed to query daily trend: %w", err)
	}

	counts := make(map[string]int64)
	for _, ts := range timestamps {
		counts[ts.In(dayStart.Location()).Format("2006-01-02")]++
	}

	trend := make([]domain.DailyCount, 0, len(counts))
	for date, n := range counts {
		trend = append(trend, domain.DailyCount{Date: date, Downloads: n})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Date < trend[j].Date })
	return trend, nil
}

// Close closes the database connection
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package domain

import (
	"time"
)

// HistoryStatus represents the outcome recorded for a download request
type HistoryStatus string

const (
	HistoryStarted   HistoryStatus = "started"
	HistoryCompleted HistoryStatus = "completed"
	HistoryFailed    HistoryStatus = "failed"
)

// DownloadLog is one persisted download request
type DownloadLog struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	VideoURL      string        `json:"video_url" gorm:"not null"`
	VideoTitle    string        `json:"video_title,omitempty"`
	VideoUploader string        `json:"video_uploader,omitempty"`
	VideoDuration string        `json:"video_duration,omitempty"`
	Format        Mode          `json:"format" gorm:"not null;index"`
	Status        HistoryStatus `json:"status" gorm:"not null;default:started;index"`
	ErrorMessage  string        `json:"error_message,omitempty" gorm:"type:text"`
	IPAddress     string        `json:"ip_address,omitempty" gorm:"index"`
	UserAgent     string        `json:"user_agent,omitempty"`
	CreatedAt     time.Time     `json:"created_at" gorm:"autoCreateTime;index"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (DownloadLog) TableName() string {
	return "download_logs"
}

// NewDownloadLog creates a history entry for a request that is about to start
func NewDownloadLog(url string, info *VideoMetadata, format Mode, caller Caller) *DownloadLog {
	entry := &DownloadLog{
		VideoURL:  url,
		Format:    format,
		Status:    HistoryStarted,
		IPAddress: caller.IPAddress,
		UserAgent: caller.UserAgent,
		CreatedAt: time.Now(),
	}
	if info != nil {
		entry.VideoTitle = info.Title
		entry.VideoUploader = info.Uploader
		entry.VideoDuration = info.Duration
	}
	return entry
}

// HistoryRepository defines persistence for download history
type HistoryRepository interface {
	// Create stores a new entry and assigns its ID
	Create(entry *DownloadLog) error

	// MarkCompleted records a successful download
	MarkCompleted(id uint) error

	// MarkFailed records a failed download with its error message
	MarkFailed(id uint, message string) error

	// FindByID finds an entry by ID
	FindByID(id uint) (*DownloadLog, error)

	// GetStats aggregates history relative to now
	GetStats(now time.Time) (*DownloadStats, error)
}

// DownloadStats aggregates the download history
type DownloadStats struct {
	Totals          StatsTotals      `json:"totals"`
	Today           StatsToday       `json:"today"`
	RecentDownloads []RecentDownload `json:"recentDownloads"`
	TopVideos       []TopVideo       `json:"topVideos"`
	DailyTrend      []DailyCount     `json:"dailyTrend"`
}

// StatsTotals holds all-time counters
type StatsTotals struct {
	TotalDownloads int64 `json:"total_downloads"`
	VideoDownloads int64 `json:"video_downloads"`
	AudioDownloads int64 `json:"audio_downloads"`
	Successful     int64 `json:"successful"`
	Failed         int64 `json:"failed"`
	UniqueUsers    int64 `json:"unique_users"`
}

// StatsToday holds counters for the current day
type StatsToday struct {
	Downloads   int64 `json:"downloads"`
	UniqueUsers int64 `json:"unique_users"`
}

// RecentDownload is a row of the recent downloads list
type RecentDownload struct {
	VideoTitle    string        `json:"video_title"`
	VideoUploader string        `json:"video_uploader"`
	Format        Mode          `json:"format"`
	Status        HistoryStatus `json:"status"`
	IPAddress     string        `json:"ip_address"`
	CreatedAt     time.Time     `json:"created_at"`
}

// TopVideo is a row of the most downloaded titles list
type TopVideo struct {
	VideoTitle    string `json:"video_title"`
	VideoUploader string `json:"video_uploader"`
	DownloadCount int64  `json:"download_count"`
}

// DailyCount is the number of downloads on one calendar day
type DailyCount struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Downloads int64  `json:"downloads"`
}

// Stats window sizes
const (
	RecentDownloadsLimit = 20
	TopVideosLimit       = 10
	DailyTrendDays       = 30
)

package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Mode selects what an acquisition produces
type Mode string

const (
	ModeMetadata Mode = "metadata" // Metadata probe only
	ModeVideo    Mode = "video"    // Video recoded to a fixed container
	ModeAudio    Mode = "audio"    // Audio extracted to a fixed encoding
)

// ParseFormat maps the user-facing format parameter to a download mode.
// Anything other than "audio" downloads video.
func ParseFormat(format string) Mode {
	if strings.EqualFold(strings.TrimSpace(format), string(ModeAudio)) {
		return ModeAudio
	}
	return ModeVideo
}

// IsDownload reports whether the mode produces a file
func (m Mode) IsDownload() bool {
	return m == ModeVideo || m == ModeAudio
}

// AcquisitionRequest is the immutable input to one acquisition
type AcquisitionRequest struct {
	URL  string
	Mode Mode
}

// Validate checks that the request carries an absolute http(s) URL and a known mode
func (r AcquisitionRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidRequest)
	}
	u, err := url.Parse(r.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: invalid URL: %s", ErrInvalidRequest, r.URL)
	}
	switch r.Mode {
	case ModeMetadata, ModeVideo, ModeAudio:
		return nil
	default:
		return fmt.Errorf("%w: invalid mode: %s", ErrInvalidRequest, r.Mode)
	}
}

// VideoMetadata is the subset of the downloader's JSON dump exposed to callers
type VideoMetadata struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Duration  string `json:"duration"`
	Uploader  string `json:"uploader"`
}

// DownloadResult is a produced file handed to the caller, who becomes responsible for deleting it
type DownloadResult struct {
	FilePath string `json:"file_path"`
	Filename string `json:"filename"`
}

// Caller identifies who requested an acquisition, for history records
type Caller struct {
	IPAddress string
	UserAgent string
}

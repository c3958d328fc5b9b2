package domain

import "context"

// ProgressFunc receives a percentage-complete signal in [0, 100]
type ProgressFunc func(percent float64)

// ProgressExtractor turns one line of downloader output into a percentage.
// Implementations are stateless per line.
type ProgressExtractor interface {
	Extract(line string) (float64, bool)
}

// MediaAcquirer fetches metadata and media for a URL
type MediaAcquirer interface {
	// Probe fetches the media's metadata without downloading it
	Probe(ctx context.Context, url string) (*VideoMetadata, error)

	// Acquire downloads the media and reports progress through onProgress
	Acquire(ctx context.Context, req AcquisitionRequest, onProgress ProgressFunc) (*DownloadResult, Session, error)
}

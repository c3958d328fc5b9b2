package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Acquisition failure kinds. Every error returned by the orchestrator wraps exactly one of these.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrSpawnFailed         = errors.New("failed to start downloader")
	ErrMetadataFetchFailed = errors.New("failed to fetch video info")
	ErrMetadataParseFailed = errors.New("failed to parse video info")
	ErrDownloadFailed      = errors.New("download failed")
	ErrOutputMissing       = errors.New("download completed but file not found")
	ErrAmbiguousOutput     = errors.New("download produced more than one file")
	ErrCancelled           = errors.New("acquisition cancelled")
)

// ProcessError reports a downloader run that exited with a nonzero status
type ProcessError struct {
	Kind     error // ErrMetadataFetchFailed or ErrDownloadFailed
	ExitCode int
	Stderr   string
}

// Error returns the captured stderr verbatim, falling back to the kind's message
func (e *ProcessError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("process exited with code %d", e.ExitCode)
}

// Unwrap exposes the failure kind to errors.Is
func (e *ProcessError) Unwrap() error {
	return e.Kind
}

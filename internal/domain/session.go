package domain

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session scopes the files of one download inside the shared output directory.
// Its ID is used only as a filename prefix and is never reused.
type Session struct {
	ID        string
	CreatedAt time.Time
}

// NewSession creates a session with a 128-bit random identifier
func NewSession() Session {
	id := uuid.New()
	return Session{
		ID:        strings.ReplaceAll(id.String(), "-", ""),
		CreatedAt: time.Now(),
	}
}

// Prefix returns the filename prefix every output of this session carries
func (s Session) Prefix() string {
	return s.ID + "_"
}

// OutputTemplate returns the downloader output pattern for this session.
// The title and extension are filled in by the downloader itself.
func (s Session) OutputTemplate(outputDir string) string {
	return filepath.Join(outputDir, s.Prefix()+"%(title)s.%(ext)s")
}

// ValidSessionID reports whether id is a plain alphanumeric token
func ValidSessionID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum {
			return false
		}
	}
	return true
}

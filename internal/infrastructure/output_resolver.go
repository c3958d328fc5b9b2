package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yourusername/mediagrab/internal/domain"
)

// in-flight artifacts yt-dlp leaves next to the final file
var partialSuffixes = []string{".part", ".ytdl", ".temp", ".tmp"}

// Resolution is the outcome of locating a session's output
type Resolution struct {
	Result     domain.DownloadResult
	Candidates []string // every matching file name, sorted
}

// Ambiguous reports whether more than one file matched the session
func (r *Resolution) Ambiguous() bool {
	return len(r.Candidates) > 1
}

// OutputResolver locates the file a finished download produced. The downloader picks the final
// name and extension itself, so the only stable handle is the session prefix.
type OutputResolver struct{}

// NewOutputResolver creates a new output resolver
func NewOutputResolver() *OutputResolver {
	return &OutputResolver{}
}

// Resolve scans outputDir for the session's files. No match fails with domain.ErrOutputMissing;
// several matches resolve to the lexicographically first and are reported through Candidates.
func (r *OutputResolver) Resolve(session domain.Session, outputDir string) (*Resolution, error) {
	candidates, err := r.matches(session, outputDir)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no file with prefix %s in %s", domain.ErrOutputMissing, session.Prefix(), outputDir)
	}

	name := candidates[0]
	return &Resolution{
		Result: domain.DownloadResult{
			FilePath: filepath.Join(outputDir, name),
			Filename: strings.TrimPrefix(name, session.Prefix()),
		},
		Candidates: candidates,
	}, nil
}

// Purge removes every file carrying the session prefix, including partial downloads.
// It returns the number of files removed.
func (r *OutputResolver) Purge(session domain.Session, outputDir string) (int, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read output directory: %w", err)
	}

	removed := 0
	var lastErr error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), session.Prefix()) {
			continue
		}
		if err := os.Remove(filepath.Join(outputDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			lastErr = err
			continue
		}
		removed++
	}
	return removed, lastErr
}

// matches lists the finished files of a session in lexicographic order
func (r *OutputResolver) matches(session domain.Session, outputDir string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, session.Prefix()) || isPartialFile(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// isPartialFile checks if a file is an unfinished download artifact
func isPartialFile(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

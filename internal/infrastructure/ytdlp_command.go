package infrastructure

import (
	"net/url"
	"os"
	"strings"

	"github.com/yourusername/mediagrab/internal/domain"
)

// YTDLPCommandBuilder builds yt-dlp argument vectors.
// exec.Command passes args directly to the process, so no shell quoting is applied.
type YTDLPCommandBuilder struct {
	config *domain.YTDLPConfig
}

// NewYTDLPCommandBuilder creates a new command builder
func NewYTDLPCommandBuilder(config *domain.YTDLPConfig) *YTDLPCommandBuilder {
	return &YTDLPCommandBuilder{config: config}
}

// Binary returns the yt-dlp executable to run
func (b *YTDLPCommandBuilder) Binary() string {
	return b.config.Binary
}

// ProbeArgs builds the metadata-only invocation; yt-dlp prints one JSON object on stdout
func (b *YTDLPCommandBuilder) ProbeArgs(mediaURL string) []string {
	args := []string{"--dump-json", "--no-playlist"}
	args = b.appendCookies(args, mediaURL)
	return append(args, mediaURL)
}

// DownloadArgs builds the full download invocation for a session
func (b *YTDLPCommandBuilder) DownloadArgs(session domain.Session, outputDir string, mode domain.Mode, mediaURL string) []string {
	args := []string{
		"-o", session.OutputTemplate(outputDir),
		"--no-playlist",
		"--restrict-filenames",
		"--newline",  // one progress update per line
		"--no-mtime", // mtime stays the local write time
	}

	if mode == domain.ModeAudio {
		args = append(args, "-x", "--audio-format", b.config.AudioFormat, "--audio-quality", b.config.AudioQuality)
	} else {
		args = append(args, "--recode-video", b.config.VideoContainer)
	}

	args = b.appendCookies(args, mediaURL)
	return append(args, mediaURL)
}

// CookieFileFor returns the cookie file configured for the URL's site, or "" when none
// is configured or the file does not exist. The most specific matching domain wins.
func (b *YTDLPCommandBuilder) CookieFileFor(mediaURL string) string {
	if len(b.config.CookieFiles) == 0 {
		return ""
	}

	u, err := url.Parse(mediaURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())

	bestDomain := ""
	bestFile := ""
	for domainName, file := range b.config.CookieFiles {
		d := strings.ToLower(strings.TrimPrefix(domainName, "."))
		if d == "" || file == "" {
			continue
		}
		if host != d && !strings.HasSuffix(host, "."+d) {
			continue
		}
		if len(d) > len(bestDomain) || (len(d) == len(bestDomain) && d < bestDomain) {
			bestDomain = d
			bestFile = file
		}
	}

	if bestFile == "" || !fileExists(bestFile) {
		return ""
	}
	return bestFile
}

func (b *YTDLPCommandBuilder) appendCookies(args []string, mediaURL string) []string {
	if cookieFile := b.CookieFileFor(mediaURL); cookieFile != "" {
		args = append(args, "--cookies", cookieFile)
	}
	return args
}

// fileExists checks if a regular file exists
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple path",
			input:    "/tmp/simple/path",
			expected: "/tmp/simple/path",
		},
		{
			name:     "path with spaces",
			input:    "/tmp/path with spaces",
			expected: "'/tmp/path with spaces'",
		},
		{
			name:     "path with single quote",
			input:    "/tmp/path'with'quote",
			expected: "'/tmp/path'\"'\"'with'\"'\"'quote'",
		},
		{
			name:     "output template",
			input:    "/tmp/out/abc_%(title)s.%(ext)s",
			expected: "'/tmp/out/abc_%(title)s.%(ext)s'",
		},
		{
			name:     "url with query",
			input:    "https://example.com/watch?v=abc&t=10",
			expected: "'https://example.com/watch?v=abc&t=10'",
		},
		{
			name:     "path with backtick",
			input:    "/tmp/path`with`backtick",
			expected: "'/tmp/path`with`backtick'",
		},
		{
			name:     "flag",
			input:    "--restrict-filenames",
			expected: "--restrict-filenames",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscape(tt.input))
		})
	}
}

func TestShellEscapeCommand(t *testing.T) {
	result := ShellEscapeCommand("yt-dlp", "-o", "/tmp/my dir/s_%(title)s.%(ext)s", "--newline", "https://example.com/v")

	assert.Equal(t, "yt-dlp -o '/tmp/my dir/s_%(title)s.%(ext)s' --newline https://example.com/v", result)
	assert.Equal(t, "yt-dlp", ShellEscapeCommand("yt-dlp"))
	assert.Equal(t, "'/opt/my tools/yt-dlp' --version", ShellEscapeCommand("/opt/my tools/yt-dlp", "--version"))
}

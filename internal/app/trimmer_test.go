package app

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mediagrab/internal/domain"
	"github.com/yourusername/mediagrab/internal/infrastructure"
)

// newTestTrimmer runs body as ffmpeg; $args holds the arguments and $out the last one
func newTestTrimmer(t *testing.T, body string) (*Trimmer, string) {
	t.Helper()
	script := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(script, []byte(`#!/bin/sh
args="$*"
for out in "$@"; do :; done
`+body+"\n"), 0755))

	config := domain.DefaultConfig().Trimmer
	config.FFmpegBinary = script
	outputDir := t.TempDir()
	return NewTrimmer(&config, outputDir, infrastructure.NewProcessRunner(nil), nil), outputDir
}

func TestTrimmer_Trim(t *testing.T) {
	trimmer, outputDir := newTestTrimmer(t, `case "$args" in
  *"-ss 1.5 -i /tmp/in.mp3 -t 8.5 -vn -acodec libmp3lame -b:a 192k"*) echo "mp3" > "$out" ;;
  *) echo "unexpected args: $args" >&2; exit 1 ;;
esac`)

	output, err := trimmer.Trim(context.Background(), "/tmp/in.mp3", 1.5, 10)

	require.NoError(t, err)
	assert.Equal(t, outputDir, filepath.Dir(output))
	assert.True(t, strings.HasPrefix(filepath.Base(output), "trimmed-"))
	assert.Equal(t, ".mp3", filepath.Ext(output))
	_, err = os.Stat(output)
	assert.NoError(t, err)
}

func TestTrimmer_InvalidRange(t *testing.T) {
	trimmer, _ := newTestTrimmer(t, `exit 0`)

	for _, r := range [][2]float64{{-1, 5}, {5, 5}, {6, 5}, {math.NaN(), 5}, {0, math.NaN()}, {0, math.Inf(1)}, {math.Inf(-1), 5}} {
		_, err := trimmer.Trim(context.Background(), "/tmp/in.mp3", r[0], r[1])
		assert.True(t, errors.Is(err, ErrInvalidTrimRange), "range %v", r)
	}
}

func TestTrimmer_FFmpegFailure(t *testing.T) {
	trimmer, outputDir := newTestTrimmer(t, `echo "partial" > "$out"
echo "ffmpeg version 6.0" >&2
echo "/tmp/in.mp3: Invalid data found when processing input" >&2
exit 1`)

	_, err := trimmer.Trim(context.Background(), "/tmp/in.mp3", 0, 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid data found when processing input")
	assert.Empty(t, listDir(t, outputDir))
}

func TestIsAllowedUpload(t *testing.T) {
	assert.True(t, IsAllowedUpload("song.bin", "audio/mpeg"))
	assert.True(t, IsAllowedUpload("song.AAC", "application/octet-stream"))
	assert.True(t, IsAllowedUpload("song.m4a", ""))
	assert.False(t, IsAllowedUpload("movie.mp4", "video/mp4"))
	assert.False(t, IsAllowedUpload("notes.txt", "text/plain"))
}

func TestTrimmedFilename(t *testing.T) {
	assert.Equal(t, "My Song_trimmed.mp3", TrimmedFilename("My Song.wav"))
	assert.Equal(t, "track_trimmed.mp3", TrimmedFilename("/some/dir/track.mp3"))
	assert.Equal(t, "noext_trimmed.mp3", TrimmedFilename("noext"))
}

func TestTrimmer_UploadPath(t *testing.T) {
	trimmer, outputDir := newTestTrimmer(t, `exit 0`)

	a := trimmer.UploadPath("Song.MP3")
	b := trimmer.UploadPath("Song.MP3")

	assert.NotEqual(t, a, b)
	assert.Equal(t, outputDir, filepath.Dir(a))
	assert.True(t, strings.HasPrefix(filepath.Base(a), "upload-"))
	assert.Equal(t, ".mp3", filepath.Ext(a))
}

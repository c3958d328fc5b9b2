package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mediagrab/internal/domain"
)

func TestLoadConfig_FromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8088
download:
  output_dir: ~/media
  cleanup_age: 30m
ytdlp:
  binary: /usr/local/bin/yt-dlp
  cookie_files:
    youtube.com: $HOME/cookies/youtube.txt
history:
  enabled: false
`), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, filepath.Join(home, "media"), config.Download.OutputDir)
	assert.Equal(t, 30*time.Minute, config.Download.CleanupAge)
	assert.Equal(t, 10*time.Minute, config.Download.CleanupInterval)
	assert.Equal(t, "/usr/local/bin/yt-dlp", config.YTDLP.Binary)
	assert.Equal(t, filepath.Join(home, "cookies", "youtube.txt"), config.YTDLP.CookieFiles["youtube.com"])
	assert.False(t, config.History.Enabled)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MEDIAGRAB_SERVER_PORT", "9099")
	t.Setenv("MEDIAGRAB_YTDLP_BINARY", "/opt/yt-dlp")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8088\n"), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9099, config.Server.Port)
	assert.Equal(t, "/opt/yt-dlp", config.YTDLP.Binary)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		yaml string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"empty binary", "ytdlp:\n  binary: \"\"\n"},
		{"zero upload size", "trimmer:\n  max_upload_size: 0\n"},
		{"history without path", "history:\n  enabled: true\n  database_path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	config := domain.DefaultConfig()
	config.Server.Port = 4000
	config.Download.OutputDir = "/srv/media"
	config.Download.CleanupAge = 2 * time.Hour
	config.YTDLP.CookieFiles = map[string]string{"vimeo.com": "/srv/cookies/vimeo.txt"}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4000, loaded.Server.Port)
	assert.Equal(t, "/srv/media", loaded.Download.OutputDir)
	assert.Equal(t, 2*time.Hour, loaded.Download.CleanupAge)
	assert.Equal(t, "/srv/cookies/vimeo.txt", loaded.YTDLP.CookieFiles["vimeo.com"])
	assert.Equal(t, config.YTDLP.MetadataTimeout, loaded.YTDLP.MetadataTimeout)
}

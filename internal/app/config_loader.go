package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/mediagrab/internal/domain"
)

// EnvPrefix is the prefix for environment overrides, e.g. MEDIAGRAB_SERVER_PORT
const EnvPrefix = "MEDIAGRAB"

// keyDelimiter replaces viper's default "." so cookie_files keys like "youtube.com" stay intact
const keyDelimiter = "::"

func newViper() *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigType("yaml")
	return v
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.mediagrab")
		v.AddConfigPath("/etc/mediagrab")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnvKeys registers every scalar key so AutomaticEnv also applies when no config file sets it
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.host", "server.port",
		"download.output_dir", "download.cleanup_age", "download.cleanup_interval",
		"ytdlp.binary", "ytdlp.audio_format", "ytdlp.audio_quality", "ytdlp.video_container", "ytdlp.metadata_timeout",
		"trimmer.ffmpeg_binary", "trimmer.max_upload_size", "trimmer.audio_bitrate",
		"history.enabled", "history.database_path",
		"logging.level", "logging.format", "logging.output_path",
	} {
		_ = v.BindEnv(strings.ReplaceAll(key, ".", keyDelimiter))
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.OutputDir = expandPath(config.Download.OutputDir)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)

	for site, file := range config.YTDLP.CookieFiles {
		config.YTDLP.CookieFiles[site] = expandPath(file)
	}

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.OutputDir == "" {
		return fmt.Errorf("download output directory not configured")
	}

	if config.Download.CleanupAge < 0 || config.Download.CleanupInterval < 0 {
		return fmt.Errorf("cleanup durations cannot be negative")
	}

	if config.YTDLP.Binary == "" {
		return fmt.Errorf("yt-dlp binary not configured")
	}

	if config.YTDLP.MetadataTimeout <= 0 {
		return fmt.Errorf("metadata timeout must be positive")
	}

	if config.Trimmer.MaxUploadSize <= 0 {
		return fmt.Errorf("trimmer max upload size must be positive")
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.YTDLP.CookieFiles == nil {
		config.YTDLP.CookieFiles = map[string]string{}
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := newViper()
	set := func(key string, value interface{}) {
		v.Set(strings.ReplaceAll(key, ".", keyDelimiter), value)
	}

	set("server.host", config.Server.Host)
	set("server.port", config.Server.Port)
	set("download.output_dir", config.Download.OutputDir)
	set("download.cleanup_age", config.Download.CleanupAge.String())
	set("download.cleanup_interval", config.Download.CleanupInterval.String())
	set("ytdlp.binary", config.YTDLP.Binary)
	set("ytdlp.audio_format", config.YTDLP.AudioFormat)
	set("ytdlp.audio_quality", config.YTDLP.AudioQuality)
	set("ytdlp.video_container", config.YTDLP.VideoContainer)
	set("ytdlp.metadata_timeout", config.YTDLP.MetadataTimeout.String())
	set("ytdlp.cookie_files", config.YTDLP.CookieFiles)
	set("trimmer.ffmpeg_binary", config.Trimmer.FFmpegBinary)
	set("trimmer.max_upload_size", config.Trimmer.MaxUploadSize)
	set("trimmer.audio_bitrate", config.Trimmer.AudioBitrate)
	set("history.enabled", config.History.Enabled)
	set("history.database_path", config.History.DatabasePath)
	set("logging.level", config.Logging.Level)
	set("logging.format", config.Logging.Format)
	set("logging.output_path", config.Logging.OutputPath)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Download DownloadConfig `mapstructure:"download"`
	YTDLP    YTDLPConfig    `mapstructure:"ytdlp"`
	Trimmer  TrimmerConfig  `mapstructure:"trimmer"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains settings for the shared output directory
type DownloadConfig struct {
	OutputDir       string        `mapstructure:"output_dir"`
	CleanupAge      time.Duration `mapstructure:"cleanup_age"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// YTDLPConfig contains settings for the external downloader
type YTDLPConfig struct {
	Binary          string        `mapstructure:"binary"`
	AudioFormat     string        `mapstructure:"audio_format"`
	AudioQuality    string        `mapstructure:"audio_quality"`
	VideoContainer  string        `mapstructure:"video_container"`
	MetadataTimeout time.Duration `mapstructure:"metadata_timeout"`
	// CookieFiles maps a site domain (e.g. "youtube.com") to a Netscape cookie file.
	CookieFiles map[string]string `mapstructure:"cookie_files"`
}

// TrimmerConfig contains settings for the audio trimmer
type TrimmerConfig struct {
	FFmpegBinary  string `mapstructure:"ffmpeg_binary"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
	AudioBitrate  string `mapstructure:"audio_bitrate"`
}

// HistoryConfig contains settings for the download history store
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 3000,
		},
		Download: DownloadConfig{
			OutputDir:       "$HOME/.mediagrab/downloads",
			CleanupAge:      time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		YTDLP: YTDLPConfig{
			Binary:          "yt-dlp",
			AudioFormat:     "mp3",
			AudioQuality:    "0",
			VideoContainer:  "mp4",
			MetadataTimeout: 60 * time.Second,
			CookieFiles:     map[string]string{},
		},
		Trimmer: TrimmerConfig{
			FFmpegBinary:  "ffmpeg",
			MaxUploadSize: 100 * 1024 * 1024,
			AudioBitrate:  "192k",
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.mediagrab/history.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}

// Package config builds the immutable settings value handed to the pipeline
// at construction. Precedence: defaults, then environment, then an optional
// YAML file, then command-line flags (applied by the caller).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Bitrates lists the supported MP3 bitrates in kbps.
var Bitrates = []int{128, 192, 320}

// Settings holds application configuration.
type Settings struct {
	OutputDir       string
	FFmpegPath      string
	DownloadTimeout time.Duration // wall-clock budget for resolve+download
	ConnectTimeout  time.Duration
	MaxRetries      int
	DefaultBitrate  int
	Proxy           string
	ProxyFile       string
	LogLevel        string
	LogDir          string
}

// Default returns the built-in settings.
func Default() Settings {
	out := "./output"
	if home, err := os.UserHomeDir(); err == nil {
		out = filepath.Join(home, "Downloads")
	}
	return Settings{
		OutputDir:       out,
		FFmpegPath:      "ffmpeg",
		DownloadTimeout: 300 * time.Second,
		ConnectTimeout:  30 * time.Second,
		MaxRetries:      3,
		DefaultBitrate:  192,
		LogLevel:        "info",
		LogDir:          "logs",
	}
}

// FromEnv overlays environment variables on the defaults.
func FromEnv() Settings {
	s := Default()
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		s.OutputDir = v
	}
	if v := os.Getenv("FFMPEG_PATH"); v != "" {
		s.FFmpegPath = v
	}
	if v := os.Getenv("DOWNLOAD_TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			s.DownloadTimeout = time.Duration(sec) * time.Second
		}
	}
	if v := os.Getenv("CONNECTION_TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			s.ConnectTimeout = time.Duration(sec) * time.Second
		}
	}
	if v := os.Getenv("PROXY"); v != "" {
		s.Proxy = v
	}
	if v := os.Getenv("PROXY_FILE"); v != "" {
		s.ProxyFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		s.LogDir = v
	}
	if v := os.Getenv("DEFAULT_BITRATE"); v != "" {
		if b, err := strconv.Atoi(v); err == nil && ValidBitrate(b) {
			s.DefaultBitrate = b
		}
	}
	return s
}

type fileSettings struct {
	OutputDir       string `yaml:"output_dir"`
	FFmpegPath      string `yaml:"ffmpeg_path"`
	DownloadTimeout int    `yaml:"download_timeout"` // seconds
	ConnectTimeout  int    `yaml:"connection_timeout"`
	MaxRetries      int    `yaml:"max_retries"`
	DefaultBitrate  int    `yaml:"default_bitrate"`
	Proxy           string `yaml:"proxy"`
	ProxyFile       string `yaml:"proxy_file"`
	LogLevel        string `yaml:"log_level"`
	LogDir          string `yaml:"log_dir"`
}

// MergeFile overlays values from a YAML config file. Absent keys keep their
// current values.
func (s Settings) MergeFile(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	var fs fileSettings
	if err := yaml.Unmarshal(raw, &fs); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	if fs.OutputDir != "" {
		s.OutputDir = fs.OutputDir
	}
	if fs.FFmpegPath != "" {
		s.FFmpegPath = fs.FFmpegPath
	}
	if fs.DownloadTimeout > 0 {
		s.DownloadTimeout = time.Duration(fs.DownloadTimeout) * time.Second
	}
	if fs.ConnectTimeout > 0 {
		s.ConnectTimeout = time.Duration(fs.ConnectTimeout) * time.Second
	}
	if fs.MaxRetries > 0 {
		s.MaxRetries = fs.MaxRetries
	}
	if fs.DefaultBitrate != 0 {
		if !ValidBitrate(fs.DefaultBitrate) {
			return s, fmt.Errorf("config %s: unsupported bitrate %d", path, fs.DefaultBitrate)
		}
		s.DefaultBitrate = fs.DefaultBitrate
	}
	if fs.Proxy != "" {
		s.Proxy = fs.Proxy
	}
	if fs.ProxyFile != "" {
		s.ProxyFile = fs.ProxyFile
	}
	if fs.LogLevel != "" {
		s.LogLevel = fs.LogLevel
	}
	if fs.LogDir != "" {
		s.LogDir = fs.LogDir
	}
	return s, nil
}

// ValidBitrate reports whether b is one of the supported bitrates.
func ValidBitrate(b int) bool {
	for _, v := range Bitrates {
		if v == b {
			return true
		}
	}
	return false
}

// Bitrate returns b when supported, the configured default otherwise.
func (s Settings) Bitrate(b int) int {
	if ValidBitrate(b) {
		return b
	}
	return s.DefaultBitrate
}

package cli

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Kirillka645/yotubemp3/internal/config"
	"github.com/Kirillka645/yotubemp3/internal/types"
)

func TestParseDefaults(t *testing.T) {
	cfg := config.Default()
	opts, err := Parse([]string{"https://youtu.be/dQw4w9WgXcQ"}, cfg, io.Discard)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if opts.URL != "https://youtu.be/dQw4w9WgXcQ" {
		t.Fatalf("URL = %q", opts.URL)
	}
	if opts.Bitrate != cfg.DefaultBitrate {
		t.Fatalf("Bitrate = %d want config default %d", opts.Bitrate, cfg.DefaultBitrate)
	}
	if opts.OutputDir != cfg.OutputDir {
		t.Fatalf("OutputDir = %q want %q", opts.OutputDir, cfg.OutputDir)
	}
	if opts.NoTags || opts.Normalize || opts.Verbose {
		t.Fatalf("boolean flags should default off: %+v", opts)
	}
}

func TestParseAllFlags(t *testing.T) {
	args := []string{
		"-b", "320",
		"-o", "/tmp/music",
		"-p", "socks5://127.0.0.1:1080",
		"--proxy-file", "proxies.txt",
		"--timeout", "120",
		"--max-retries", "5",
		"--normalize",
		"--no-metadata",
		"--ffmpeg-path", "/opt/ffmpeg",
		"-v",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}
	opts, err := Parse(args, config.Default(), io.Discard)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if opts.Bitrate != 320 || opts.OutputDir != "/tmp/music" || opts.Proxy != "socks5://127.0.0.1:1080" {
		t.Fatalf("opts = %+v", opts)
	}
	if opts.ProxyFile != "proxies.txt" || opts.TimeoutSec != 120 || opts.MaxRetries != 5 {
		t.Fatalf("opts = %+v", opts)
	}
	if !opts.Normalize || !opts.NoTags || !opts.Verbose || opts.FFmpegPath != "/opt/ffmpeg" {
		t.Fatalf("opts = %+v", opts)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no URL", []string{}},
		{"two URLs", []string{"https://youtu.be/aaaaaaaaaaa", "https://youtu.be/bbbbbbbbbbb"}},
		{"bad bitrate", []string{"-b", "256", "https://youtu.be/dQw4w9WgXcQ"}},
		{"zero timeout", []string{"--timeout", "0", "https://youtu.be/dQw4w9WgXcQ"}},
		{"zero retries", []string{"--max-retries", "0", "https://youtu.be/dQw4w9WgXcQ"}},
		{"unknown flag", []string{"--frobnicate", "https://youtu.be/dQw4w9WgXcQ"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args, config.Default(), io.Discard)
			if !errors.Is(err, types.ErrInvalidInput) {
				t.Fatalf("Parse(%v) error = %v, want ErrInvalidInput", tt.args, err)
			}
		})
	}
}

func TestParseVersionNeedsNoURL(t *testing.T) {
	opts, err := Parse([]string{"--version"}, config.Default(), io.Discard)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !opts.Version {
		t.Fatal("Version flag not set")
	}
}

func TestParseHelp(t *testing.T) {
	var buf strings.Builder
	opts, err := Parse([]string{"--help"}, config.Default(), &buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !opts.Help {
		t.Fatal("Help flag not set")
	}
	if !strings.Contains(buf.String(), "Usage: yotubemp3") {
		t.Fatalf("usage text missing: %q", buf.String())
	}
}

func TestApplyOverlaysSettings(t *testing.T) {
	cfg := config.Default()
	opts, err := Parse([]string{"-b", "128", "--timeout", "60", "--max-retries", "7", "-v", "https://youtu.be/dQw4w9WgXcQ"}, cfg, io.Discard)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got := Apply(opts, cfg)
	if got.DefaultBitrate != 128 {
		t.Fatalf("DefaultBitrate = %d", got.DefaultBitrate)
	}
	if got.DownloadTimeout != 60*time.Second {
		t.Fatalf("DownloadTimeout = %v", got.DownloadTimeout)
	}
	if got.MaxRetries != 7 {
		t.Fatalf("MaxRetries = %d", got.MaxRetries)
	}
	if got.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, verbose should raise it", got.LogLevel)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	s := Default()
	if s.DefaultBitrate != 192 {
		t.Fatalf("DefaultBitrate = %d want 192", s.DefaultBitrate)
	}
	if s.DownloadTimeout != 300*time.Second {
		t.Fatalf("DownloadTimeout = %v want 300s", s.DownloadTimeout)
	}
	if s.MaxRetries != 3 {
		t.Fatalf("MaxRetries = %d want 3", s.MaxRetries)
	}
	if s.FFmpegPath != "ffmpeg" {
		t.Fatalf("FFmpegPath = %q want ffmpeg", s.FFmpegPath)
	}
}

func TestFromEnvOverlay(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/tmp/music")
	t.Setenv("DOWNLOAD_TIMEOUT", "45")
	t.Setenv("DEFAULT_BITRATE", "320")
	t.Setenv("PROXY", "http://10.0.0.1:8080")

	s := FromEnv()
	if s.OutputDir != "/tmp/music" {
		t.Fatalf("OutputDir = %q", s.OutputDir)
	}
	if s.DownloadTimeout != 45*time.Second {
		t.Fatalf("DownloadTimeout = %v", s.DownloadTimeout)
	}
	if s.DefaultBitrate != 320 {
		t.Fatalf("DefaultBitrate = %d", s.DefaultBitrate)
	}
	if s.Proxy != "http://10.0.0.1:8080" {
		t.Fatalf("Proxy = %q", s.Proxy)
	}
}

func TestFromEnvRejectsBadBitrate(t *testing.T) {
	t.Setenv("DEFAULT_BITRATE", "999")
	s := FromEnv()
	if s.DefaultBitrate != 192 {
		t.Fatalf("DefaultBitrate = %d want default 192", s.DefaultBitrate)
	}
}

func TestMergeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "output_dir: /srv/audio\ndefault_bitrate: 128\nmax_retries: 5\nproxy_file: /etc/proxies.txt\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := Default().MergeFile(path)
	if err != nil {
		t.Fatalf("MergeFile() error = %v", err)
	}
	if s.OutputDir != "/srv/audio" {
		t.Fatalf("OutputDir = %q", s.OutputDir)
	}
	if s.DefaultBitrate != 128 {
		t.Fatalf("DefaultBitrate = %d", s.DefaultBitrate)
	}
	if s.MaxRetries != 5 {
		t.Fatalf("MaxRetries = %d", s.MaxRetries)
	}
	if s.ProxyFile != "/etc/proxies.txt" {
		t.Fatalf("ProxyFile = %q", s.ProxyFile)
	}
	// untouched keys keep defaults
	if s.FFmpegPath != "ffmpeg" {
		t.Fatalf("FFmpegPath = %q", s.FFmpegPath)
	}
}

func TestMergeFileRejectsBadBitrate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("default_bitrate: 256\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Default().MergeFile(path); err == nil {
		t.Fatal("MergeFile() accepted unsupported bitrate")
	}
}

func TestValidBitrate(t *testing.T) {
	tests := []struct {
		bitrate int
		want    bool
	}{
		{128, true}, {192, true}, {320, true},
		{0, false}, {96, false}, {256, false}, {-192, false},
	}
	for _, tt := range tests {
		if got := ValidBitrate(tt.bitrate); got != tt.want {
			t.Fatalf("ValidBitrate(%d) = %v want %v", tt.bitrate, got, tt.want)
		}
	}
}

func TestBitrateFallback(t *testing.T) {
	s := Default()
	if got := s.Bitrate(320); got != 320 {
		t.Fatalf("Bitrate(320) = %d", got)
	}
	if got := s.Bitrate(999); got != 192 {
		t.Fatalf("Bitrate(999) = %d want default", got)
	}
}

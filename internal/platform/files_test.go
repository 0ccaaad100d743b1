package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "clean", in: "My Track", want: "My Track"},
		{name: "separators", in: `a/b\c`, want: "a_b_c"},
		{name: "reserved", in: `who? "why" <how>`, want: "who_ _why_ _how_"},
		{name: "control chars", in: "tab\there", want: "tabhere"},
		{name: "whitespace trimmed", in: "  padded  ", want: "padded"},
		{name: "empty", in: "", want: "unknown"},
		{name: "only invalid", in: "???", want: "___"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Fatalf("%s: SanitizeFilename(%q) = %q want %q", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilenameLength(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := SanitizeFilename(long)
	if len(got) > 255 {
		t.Fatalf("sanitized length = %d", len(got))
	}
	if strings.HasSuffix(got, " ") {
		t.Fatalf("sanitized name has trailing space: %q", got)
	}
}

func TestOutputFilename(t *testing.T) {
	got := OutputFilename("Never Gonna Give You Up", 320)
	want := "Never Gonna Give You Up_320kbps.mp3"
	if got != want {
		t.Fatalf("OutputFilename() = %q want %q", got, want)
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")

	if got := UniquePath(path); got != path {
		t.Fatalf("UniquePath() = %q want %q for missing file", got, path)
	}

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got := UniquePath(path)
	want := filepath.Join(dir, "track_1.mp3")
	if got != want {
		t.Fatalf("UniquePath() = %q want %q", got, want)
	}

	if err := os.WriteFile(want, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if got := UniquePath(path); got != filepath.Join(dir, "track_2.mp3") {
		t.Fatalf("UniquePath() second collision = %q", got)
	}
}

func TestMoveFileReplacesDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "new.mp3")
	dst := filepath.Join(dir, "old.mp3")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile() error = %v", err)
	}
	raw, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(raw) != "new" {
		t.Fatalf("destination = %q want %q", raw, "new")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present after move: %v", err)
	}
}

func TestMoveFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := MoveFile(filepath.Join(dir, "absent"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("MoveFile() succeeded with missing source")
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{int64(3.5 * 1024 * 1024 * 1024), "3.50 GB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.size); got != tt.want {
			t.Fatalf("FormatSize(%d) = %q want %q", tt.size, got, tt.want)
		}
	}
}

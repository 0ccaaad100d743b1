// Package platform provides filesystem helpers for output file naming.
package platform

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const maxFilenameLength = 255

// SanitizeFilename strips characters that are unsafe on common filesystems
// and trims the result to a usable length.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('_')
		case r < 32:
			// drop control characters
		default:
			b.WriteRune(r)
		}
	}
	result := strings.TrimSpace(b.String())

	if len(result) > maxFilenameLength {
		result = result[:maxFilenameLength]
		// prefer cutting at a word boundary when one is close enough
		if i := strings.LastIndex(result, " "); i > maxFilenameLength*8/10 {
			result = result[:i]
		}
		result = strings.TrimSpace(result)
	}
	if result == "" {
		result = "unknown"
	}
	return result
}

// OutputFilename builds "<sanitized title>_<bitrate>kbps.mp3".
func OutputFilename(title string, bitrate int) string {
	return fmt.Sprintf("%s_%dkbps.mp3", SanitizeFilename(title), bitrate)
}

// EnsureDir creates the directory (and parents) when missing.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// UniquePath appends _1, _2, ... before the extension until the path does
// not exist.
func UniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// MoveFile moves src over dst, replacing dst when it exists. Falls back to
// copy-and-delete when src and dst are on different filesystems.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

// FileSize returns the size of the named file in bytes.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// FormatSize renders a byte count as a human-readable string.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	value := float64(size)
	for _, suffix := range []string{"KB", "MB", "GB", "TB"} {
		value /= unit
		if value < unit {
			return fmt.Sprintf("%.2f %s", value, suffix)
		}
	}
	return fmt.Sprintf("%.2f PB", value/unit)
}

package media

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Kirillka645/yotubemp3/internal/types"
)

var (
	videoIDPattern  = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)
	watchURLPattern = regexp.MustCompile(`(?:[?&]v=|/shorts/|/embed/|youtu\.be/)([0-9A-Za-z_-]{11})`)
	hostPattern     = regexp.MustCompile(`^https?://(www\.|m\.)?(youtube\.com|youtu\.be)/`)
)

// ExtractVideoID accepts either a raw video ID or common YouTube URL shapes.
func ExtractVideoID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", types.ErrInvalidInput
	}
	if videoIDPattern.MatchString(s) {
		return s, nil
	}
	m := watchURLPattern.FindStringSubmatch(s)
	if len(m) == 2 {
		return m[1], nil
	}
	return "", types.ErrInvalidInput
}

// ValidateURL checks that raw is a YouTube URL pointing at a single video.
// It runs before any network call; a rejection here keeps the pipeline idle.
func ValidateURL(raw string) error {
	s := strings.TrimSpace(raw)
	if s == "" || !hostPattern.MatchString(s) {
		return fmt.Errorf("%w: not a YouTube URL: %q", types.ErrInvalidInput, raw)
	}
	if _, err := ExtractVideoID(s); err != nil {
		return fmt.Errorf("%w: no video ID in %q", types.ErrInvalidInput, raw)
	}
	return nil
}

// NormalizeURL canonicalizes any accepted URL shape to the watch form.
func NormalizeURL(raw string) string {
	id, err := ExtractVideoID(raw)
	if err != nil {
		return raw
	}
	return "https://www.youtube.com/watch?v=" + id
}

package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kirillka645/yotubemp3/internal/types"
)

// Extraction engine failures arrive as exit codes plus free-form stderr
// text. classifyEngineError maps them onto the pipeline error taxonomy so
// the orchestrator can decide whether proxy rotation could help.
func classifyEngineError(err error, stderr string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: extraction engine timed out", types.ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	s := strings.ToLower(err.Error() + "\n" + stderr)
	switch {
	case containsAny(s,
		"video unavailable",
		"private video",
		"this video is not available",
		"has been removed",
		"account associated with this video has been terminated",
		"unsupported url",
		"is not a valid url",
		"age-restricted",
		"members-only",
	):
		return fmt.Errorf("%w: %s", types.ErrSourceUnavailable, firstLine(s))
	case containsAny(s,
		"429",
		"too many requests",
		"rate-limit",
		"rate limit",
		"sign in to confirm you're not a bot",
		"sign in to confirm you’re not a bot",
	):
		return fmt.Errorf("%w: %s", types.ErrRateLimited, firstLine(s))
	default:
		// connection resets, proxy errors, DNS failures and anything the
		// engine did not explain; worth a rotated retry either way
		return fmt.Errorf("%w: %s", types.ErrNetwork, firstLine(s))
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

package types

import "errors"

var (
	// ErrInvalidInput indicates malformed input (bad URL or flags).
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable indicates the URL does not resolve to playable
	// content (deleted, private, unsupported).
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNetwork indicates a connection or proxy failure. Retryable via
	// proxy rotation.
	ErrNetwork = errors.New("network failure")

	// ErrRateLimited indicates the platform throttled the request.
	// Retryable via proxy rotation.
	ErrRateLimited = errors.New("rate limited")

	// ErrConversion indicates the transcoding binary failed or is missing.
	ErrConversion = errors.New("conversion failed")

	// ErrTag indicates the metadata write was rejected. Non-fatal unless
	// configured otherwise.
	ErrTag = errors.New("tag write failed")

	// ErrProxyExhausted indicates every configured proxy failed within the
	// current run.
	ErrProxyExhausted = errors.New("proxy pool exhausted")

	// ErrTimeout indicates the retry loop exceeded its wall-clock budget.
	ErrTimeout = errors.New("download deadline exceeded")
)

// Retryable reports whether the pipeline may retry the failed stage with a
// rotated proxy. Only network-class failures qualify; everything else would
// fail identically on the next attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrRateLimited)
}

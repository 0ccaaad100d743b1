// Package pipeline sequences proxy selection, extraction, transcoding and
// tagging for one download, applying retry-with-rotation on network-class
// failures.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/Kirillka645/yotubemp3/internal/config"
	"github.com/Kirillka645/yotubemp3/internal/media"
	"github.com/Kirillka645/yotubemp3/internal/platform"
	"github.com/Kirillka645/yotubemp3/internal/proxy"
	"github.com/Kirillka645/yotubemp3/internal/types"
)

// State names one pipeline stage.
type State string

const (
	StateIdle        State = "idle"
	StateResolving   State = "resolving"
	StateDownloading State = "downloading"
	StateConverting  State = "converting"
	StateTagging     State = "tagging"
	StateRetryWait   State = "retry_wait"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Policy bounds the retry-with-rotation loop.
type Policy struct {
	// MaxAttempts is the total number of resolve/download attempts.
	MaxAttempts int
	// Timeout is the wall-clock budget for the resolve/download loop.
	Timeout time.Duration
	// RetryWait is the pause before re-entering Resolving.
	RetryWait time.Duration
}

// DefaultPolicy mirrors the documented defaults: 3 attempts, 300s budget.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Timeout:     300 * time.Second,
		RetryWait:   2 * time.Second,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	if p.RetryWait <= 0 {
		p.RetryWait = d.RetryWait
	}
	return p
}

// Observer receives pipeline events. All callbacks run on the pipeline
// goroutine.
type Observer interface {
	StateChanged(from, to State)
	Resolved(meta types.TrackMetadata)
	Progress(p types.DownloadProgress)
}

type nopObserver struct{}

func (nopObserver) StateChanged(State, State)       {}
func (nopObserver) Resolved(types.TrackMetadata)    {}
func (nopObserver) Progress(types.DownloadProgress) {}

// Config assembles an Orchestrator.
type Config struct {
	Policy    Policy
	Pool      *proxy.Pool     // may be empty; direct connection is used then
	Checker   *proxy.Checker  // optional pre-use health probe
	Extractor media.Extractor // required
	Converter media.Converter // required
	Tagger    media.Tagger    // required unless requests disable tagging
	Observer  Observer        // optional
	Logger    log.Interface   // optional
	TagFatal  bool            // escalate tag failures from warning to error
}

// Orchestrator drives one download through the pipeline states. It is
// single-use per Run call and runs everything on the caller's goroutine.
type Orchestrator struct {
	policy    Policy
	pool      *proxy.Pool
	checker   *proxy.Checker
	extractor media.Extractor
	converter media.Converter
	tagger    media.Tagger
	observer  Observer
	logger    log.Interface
	tagFatal  bool

	state State
}

// Outcome reports a finished run.
type Outcome struct {
	OutputPath string
	Metadata   *types.TrackMetadata
	Attempts   int
}

// New builds an orchestrator from cfg, applying defaults for optional
// collaborators.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		policy:    cfg.Policy.withDefaults(),
		pool:      cfg.Pool,
		checker:   cfg.Checker,
		extractor: cfg.Extractor,
		converter: cfg.Converter,
		tagger:    cfg.Tagger,
		observer:  cfg.Observer,
		logger:    cfg.Logger,
		tagFatal:  cfg.TagFatal,
		state:     StateIdle,
	}
	if o.pool == nil {
		o.pool = proxy.NewPool()
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	if o.logger == nil {
		o.logger = log.Log
	}
	return o
}

// State returns the current pipeline state.
func (o *Orchestrator) State() State { return o.state }

// Run executes the pipeline for req. It returns a taxonomy error (see
// internal/types) on failure; the CLI maps those to exit codes.
func (o *Orchestrator) Run(ctx context.Context, req types.DownloadRequest) (*Outcome, error) {
	// Idle: reject bad input before any network traffic.
	if err := media.ValidateURL(req.URL); err != nil {
		return nil, o.fail(err)
	}
	if !config.ValidBitrate(req.Bitrate) {
		return nil, o.fail(fmt.Errorf("%w: unsupported bitrate %d", types.ErrInvalidInput, req.Bitrate))
	}
	if err := platform.EnsureDir(req.OutputDir); err != nil {
		return nil, o.fail(fmt.Errorf("%w: output directory: %v", types.ErrInvalidInput, err))
	}

	staging, err := os.MkdirTemp("", "yotubemp3-*")
	if err != nil {
		return nil, o.fail(fmt.Errorf("%w: staging directory: %v", types.ErrConversion, err))
	}
	defer os.RemoveAll(staging)

	attemptID := uuid.NewString()[:8]
	logger := o.logger.WithField("attempt_group", attemptID)

	deadline := time.Now().Add(o.policy.Timeout)
	loopCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	meta, audioPath, attempts, err := o.fetchLoop(loopCtx, logger, req, staging, deadline)
	if err != nil {
		return nil, o.fail(err)
	}

	// Converting: staging stream -> MP3 at the requested bitrate.
	o.transition(StateConverting)
	outPath := platform.UniquePath(filepath.Join(req.OutputDir, platform.OutputFilename(meta.Title, req.Bitrate)))
	if err := o.converter.Transcode(ctx, audioPath, outPath, req.Bitrate); err != nil {
		return nil, o.fail(err)
	}
	logger.WithField("path", outPath).Info("transcode complete")

	if req.Normalize {
		normalized := filepath.Join(staging, "normalized.mp3")
		if err := o.converter.Normalize(ctx, outPath, normalized, req.Bitrate); err != nil {
			logger.WithError(err).Warn("loudness normalization failed; keeping unnormalized file")
		} else if err := platform.MoveFile(normalized, outPath); err != nil {
			return nil, o.fail(fmt.Errorf("%w: replace with normalized file: %v", types.ErrConversion, err))
		}
	}

	// Tagging: failures keep the converted file and degrade to a warning
	// unless configured fatal.
	if req.TagMetadata {
		o.transition(StateTagging)
		if err := o.tagger.Tag(outPath, *meta); err != nil {
			if o.tagFatal {
				return nil, o.fail(err)
			}
			logger.WithError(err).Warn("metadata write failed; keeping untagged file")
		}
	}

	o.transition(StateDone)
	return &Outcome{OutputPath: outPath, Metadata: meta, Attempts: attempts}, nil
}

// fetchLoop runs Resolving/Downloading with retry-with-rotation. Exactly one
// proxy is active per attempt; rotation happens only between attempts.
func (o *Orchestrator) fetchLoop(
	ctx context.Context,
	logger log.Interface,
	req types.DownloadRequest,
	staging string,
	deadline time.Time,
) (*types.TrackMetadata, string, int, error) {
	exclude := map[string]struct{}{}

	var active *proxy.Endpoint
	if o.pool.HasProxies() {
		var ok bool
		active, ok = o.nextProxy(ctx, exclude)
		if !ok {
			return nil, "", 0, fmt.Errorf("%w: no healthy endpoint to start with", types.ErrProxyExhausted)
		}
	}

	attempts := 0
	for {
		attempts++
		attemptLog := logger.WithField("attempt", attempts)
		if active != nil {
			attemptLog = attemptLog.WithField("proxy", active.Redacted())
		}

		o.transition(StateResolving)
		meta, _, err := o.extractor.Resolve(ctx, req.URL, proxyString(active))
		if err == nil {
			o.observer.Resolved(*meta)
			attemptLog.WithField("title", meta.Title).Info("resolved video info")

			o.transition(StateDownloading)
			audioPath, fetchErr := o.extractor.FetchAudio(ctx, req.URL, staging, proxyString(active), o.observer.Progress)
			if fetchErr == nil {
				attemptLog.WithField("path", audioPath).Info("audio stream downloaded")
				return meta, audioPath, attempts, nil
			}
			err = fetchErr
		}

		if !types.Retryable(err) {
			return nil, "", attempts, err
		}
		attemptLog.WithError(err).Warn("attempt failed")

		// Rotation: retire the active proxy before picking a replacement.
		if active != nil {
			o.pool.MarkFailed(active)
			exclude[active.Raw] = struct{}{}
			active = nil
		}

		if time.Now().After(deadline) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, "", attempts, fmt.Errorf("%w after %d attempt(s)", types.ErrTimeout, attempts)
		}
		if ctx.Err() != nil {
			return nil, "", attempts, ctx.Err()
		}
		if attempts >= o.policy.MaxAttempts {
			if o.pool.HasProxies() {
				return nil, "", attempts, fmt.Errorf("%w: retry budget spent after %d attempt(s): %v", types.ErrProxyExhausted, attempts, err)
			}
			return nil, "", attempts, fmt.Errorf("retry budget spent after %d attempt(s): %w", attempts, err)
		}

		if o.pool.HasProxies() {
			next, ok := o.nextProxy(ctx, exclude)
			if !ok {
				return nil, "", attempts, fmt.Errorf("%w after %d attempt(s)", types.ErrProxyExhausted, attempts)
			}
			active = next
		}

		o.transition(StateRetryWait)
		if err := wait(ctx, o.policy.RetryWait); err != nil {
			return nil, "", attempts, fmt.Errorf("%w during retry wait", types.ErrTimeout)
		}
	}
}

// nextProxy walks the pool for a candidate, probing each one when a checker
// is configured. Probed failures are marked on the pool immediately.
func (o *Orchestrator) nextProxy(ctx context.Context, exclude map[string]struct{}) (*proxy.Endpoint, bool) {
	for {
		candidate, ok := o.pool.Next(exclude)
		if !ok {
			return nil, false
		}
		if o.checker == nil || o.checker.Test(ctx, candidate) {
			return candidate, true
		}
		o.logger.WithField("proxy", candidate.Redacted()).Warn("proxy failed health probe")
		o.pool.MarkFailed(candidate)
		exclude[candidate.Raw] = struct{}{}
	}
}

func (o *Orchestrator) transition(to State) {
	from := o.state
	if from == to {
		return
	}
	o.state = to
	o.observer.StateChanged(from, to)
}

func (o *Orchestrator) fail(err error) error {
	o.transition(StateFailed)
	o.logger.WithError(err).Error("pipeline failed")
	return err
}

func proxyString(e *proxy.Endpoint) string {
	if e == nil {
		return ""
	}
	return e.Raw
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

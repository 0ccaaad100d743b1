// Command yotubemp3 downloads a YouTube video's audio track and converts it
// to a tagged MP3 file, rotating through proxies on network failures.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-colorable"

	"github.com/Kirillka645/yotubemp3/internal/cli"
	"github.com/Kirillka645/yotubemp3/internal/config"
	"github.com/Kirillka645/yotubemp3/internal/logging"
	"github.com/Kirillka645/yotubemp3/internal/media"
	"github.com/Kirillka645/yotubemp3/internal/pipeline"
	"github.com/Kirillka645/yotubemp3/internal/proxy"
	"github.com/Kirillka645/yotubemp3/internal/types"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	out := colorable.NewColorableStdout()
	errOut := colorable.NewColorableStderr()
	render := cli.NewRenderer(out, errOut)

	cfg := config.FromEnv()

	opts, err := cli.Parse(args, cfg, errOut)
	if err != nil {
		render.Errorf("%v", err)
		return exitCode(err)
	}
	if opts.Help {
		return 0
	}
	if opts.Version {
		render.Infof("yotubemp3 %s", version)
		return 0
	}
	if opts.ConfigFile != "" {
		merged, err := cfg.MergeFile(opts.ConfigFile)
		if err != nil {
			render.Errorf("config file: %v", err)
			return exitCode(fmt.Errorf("%w: %v", types.ErrInvalidInput, err))
		}
		cfg = merged
		// Re-parse so flags win over file values.
		opts, err = cli.Parse(args, cfg, errOut)
		if err != nil {
			render.Errorf("%v", err)
			return exitCode(err)
		}
	}
	cfg = cli.Apply(opts, cfg)

	runID := uuid.NewString()[:8]
	logger, closeLogs, err := logging.Setup(logging.Options{
		Verbose: opts.Verbose,
		Dir:     cfg.LogDir,
		RunID:   runID,
	})
	if err != nil {
		render.Errorf("logging: %v", err)
		return exitCode(fmt.Errorf("%w: %v", types.ErrInvalidInput, err))
	}
	defer closeLogs()

	if err := media.ValidateURL(opts.URL); err != nil {
		render.Errorf("%v", err)
		return exitCode(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor := media.NewYTDLPExtractor(logger)

	if opts.ListFormats {
		return listFormats(ctx, render, extractor, opts.URL, cfg.Proxy)
	}

	converter := media.NewFFmpegConverter(cfg.FFmpegPath, logger)
	if !converter.Available() {
		render.Errorf("ffmpeg not found at %q", cfg.FFmpegPath)
		render.Warnf("install it via your package manager, e.g. `apt install ffmpeg` or `brew install ffmpeg`,")
		render.Warnf("or point --ffmpeg-path (or FFMPEG_PATH) at the binary")
		return exitCode(types.ErrConversion)
	}
	if opts.Verbose {
		render.FFmpegInfo(converter.Version())
	}

	pool := proxy.NewPool()
	if cfg.Proxy != "" {
		if err := pool.Add(cfg.Proxy); err != nil {
			render.Errorf("%v", err)
			return exitCode(err)
		}
	}
	if cfg.ProxyFile != "" {
		added, err := pool.LoadFile(cfg.ProxyFile)
		if err != nil {
			render.Errorf("proxy file: %v", err)
			return exitCode(fmt.Errorf("%w: %v", types.ErrInvalidInput, err))
		}
		logger.WithField("count", added).Debug("proxies loaded from file")
	}
	render.ProxyInfo(pool.Len())

	var checker *proxy.Checker
	if pool.HasProxies() {
		checker = &proxy.Checker{Timeout: cfg.ConnectTimeout}
	}

	observer := &renderObserver{render: render, bitrate: opts.Bitrate}
	orchestrator := pipeline.New(pipeline.Config{
		Policy: pipeline.Policy{
			MaxAttempts: cfg.MaxRetries,
			Timeout:     cfg.DownloadTimeout,
			RetryWait:   2 * time.Second,
		},
		Pool:      pool,
		Checker:   checker,
		Extractor: extractor,
		Converter: converter,
		Tagger:    media.ID3Tagger{},
		Observer:  observer,
		Logger:    logger,
	})

	outcome, err := orchestrator.Run(ctx, types.DownloadRequest{
		URL:         opts.URL,
		Bitrate:     opts.Bitrate,
		OutputDir:   cfg.OutputDir,
		TagMetadata: !opts.NoTags,
		Normalize:   opts.Normalize,
	})
	if err != nil {
		observer.endDownload()
		render.Errorf("%v", err)
		return exitCode(err)
	}

	render.Complete(outcome.OutputPath, outcome.Attempts)
	return 0
}

// listFormats resolves the video once (directly, outside the retry pipeline)
// and prints its audio formats.
func listFormats(ctx context.Context, render *cli.Renderer, extractor media.Extractor, url, proxyURL string) int {
	meta, formats, err := extractor.Resolve(ctx, url, proxyURL)
	if err != nil {
		render.Errorf("%v", err)
		return exitCode(err)
	}
	render.VideoInfo(*meta)
	render.Section("Audio formats")

	audio := make([]types.FormatInfo, 0, len(formats))
	for _, f := range formats {
		if f.AudioOnly() {
			audio = append(audio, f)
		}
	}
	if len(audio) == 0 {
		audio = formats
	}
	render.FormatTable(audio)
	return 0
}

// renderObserver bridges pipeline events onto the terminal renderer.
type renderObserver struct {
	render      *cli.Renderer
	bitrate     int
	downloading bool
}

func (r *renderObserver) StateChanged(_, to pipeline.State) {
	switch to {
	case pipeline.StateResolving:
		r.render.Section("Resolving video info")
	case pipeline.StateDownloading:
		r.render.DownloadStart(r.bitrate)
		r.downloading = true
	case pipeline.StateConverting:
		r.endDownload()
		r.render.Section("Converting to MP3")
	case pipeline.StateTagging:
		r.render.Section("Writing tags")
	case pipeline.StateRetryWait:
		r.endDownload()
		r.render.Warnf("attempt failed, rotating proxy and retrying")
	}
}

func (r *renderObserver) Resolved(meta types.TrackMetadata) {
	r.render.VideoInfo(meta)
}

func (r *renderObserver) Progress(p types.DownloadProgress) {
	r.render.Progress(p)
}

func (r *renderObserver) endDownload() {
	if r.downloading {
		r.render.EndProgress()
		r.downloading = false
	}
}

// exitCode maps taxonomy errors onto documented process exit codes.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, types.ErrInvalidInput):
		return 1
	case errors.Is(err, types.ErrSourceUnavailable):
		return 2
	case errors.Is(err, types.ErrProxyExhausted):
		return 5
	case errors.Is(err, types.ErrTimeout),
		errors.Is(err, types.ErrNetwork),
		errors.Is(err, types.ErrRateLimited),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return 3
	case errors.Is(err, types.ErrConversion), errors.Is(err, types.ErrTag):
		return 4
	default:
		return 1
	}
}

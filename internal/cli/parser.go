package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/Kirillka645/yotubemp3/internal/config"
	"github.com/Kirillka645/yotubemp3/internal/types"
)

// Options holds all command-line options.
type Options struct {
	// Input
	URL string

	// General
	Help    bool
	Version bool // --version

	// Audio
	Bitrate   int    // -b, --bitrate
	Normalize bool   // --normalize
	NoTags    bool   // --no-metadata
	OutputDir string // -o, --output

	// Network
	Proxy      string // -p, --proxy
	ProxyFile  string // --proxy-file
	TimeoutSec int    // --timeout
	MaxRetries int    // --max-retries

	// Tools / Config
	FFmpegPath string // --ffmpeg-path
	ConfigFile string // --config

	// Verbosity / Inspection
	Verbose     bool // -v, --verbose
	ListFormats bool // --list-formats
}

// Parse reads args (without the program name) into Options. Usage and flag
// errors are written to errOut. Flag defaults come from cfg so that env and
// config-file values show up in --help and survive when a flag is omitted.
func Parse(args []string, cfg config.Settings, errOut io.Writer) (Options, error) {
	opts := Options{}

	fs := pflag.NewFlagSet("yotubemp3", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.SortFlags = false

	fs.IntVarP(&opts.Bitrate, "bitrate", "b", cfg.DefaultBitrate, "Audio bitrate in kbps (128, 192 or 320)")
	fs.StringVarP(&opts.OutputDir, "output", "o", cfg.OutputDir, "Output directory for the MP3 file")
	fs.StringVarP(&opts.Proxy, "proxy", "p", cfg.Proxy, "Proxy URL (http, https or socks5)")
	fs.StringVar(&opts.ProxyFile, "proxy-file", cfg.ProxyFile, "File with one proxy URL per line")
	fs.IntVar(&opts.TimeoutSec, "timeout", int(cfg.DownloadTimeout/time.Second), "Overall download timeout in seconds")
	fs.IntVar(&opts.MaxRetries, "max-retries", cfg.MaxRetries, "Attempts before giving up on network errors")
	fs.BoolVar(&opts.Normalize, "normalize", false, "Apply loudness normalization to the result")
	fs.BoolVar(&opts.NoTags, "no-metadata", false, "Skip writing ID3 tags")
	fs.StringVar(&opts.FFmpegPath, "ffmpeg-path", cfg.FFmpegPath, "Path to the ffmpeg binary")
	fs.StringVar(&opts.ConfigFile, "config", "", "YAML config file")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", false, "Print debugging information")
	fs.BoolVar(&opts.ListFormats, "list-formats", false, "List available audio formats and exit")
	fs.BoolVar(&opts.Version, "version", false, "Print version and exit")
	fs.BoolVarP(&opts.Help, "help", "h", false, "Show this help")

	fs.Usage = func() {
		fmt.Fprintf(errOut, "Usage: yotubemp3 [OPTIONS] URL\n\nOptions:\n%s", fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			opts.Help = true
			return opts, nil
		}
		return opts, fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}
	if opts.Help {
		fs.Usage()
		return opts, nil
	}

	rest := fs.Args()
	if opts.Version {
		return opts, nil
	}
	switch len(rest) {
	case 0:
		fs.Usage()
		return opts, fmt.Errorf("%w: a video URL is required", types.ErrInvalidInput)
	case 1:
		opts.URL = strings.TrimSpace(rest[0])
	default:
		return opts, fmt.Errorf("%w: expected exactly one URL, got %d", types.ErrInvalidInput, len(rest))
	}

	if !config.ValidBitrate(opts.Bitrate) {
		return opts, fmt.Errorf("%w: unsupported bitrate %d (choose 128, 192 or 320)", types.ErrInvalidInput, opts.Bitrate)
	}
	if opts.TimeoutSec <= 0 {
		return opts, fmt.Errorf("%w: timeout must be positive", types.ErrInvalidInput)
	}
	if opts.MaxRetries <= 0 {
		return opts, fmt.Errorf("%w: max-retries must be positive", types.ErrInvalidInput)
	}
	return opts, nil
}

// Apply overlays parsed flags onto cfg and returns the effective settings.
func Apply(opts Options, cfg config.Settings) config.Settings {
	cfg.DefaultBitrate = opts.Bitrate
	cfg.OutputDir = opts.OutputDir
	cfg.Proxy = opts.Proxy
	cfg.ProxyFile = opts.ProxyFile
	cfg.FFmpegPath = opts.FFmpegPath
	cfg.DownloadTimeout = time.Duration(opts.TimeoutSec) * time.Second
	cfg.MaxRetries = opts.MaxRetries
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg
}

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/apex/log"

	"github.com/Kirillka645/yotubemp3/internal/types"
)

const defaultConvertTimeout = 10 * time.Minute

// Converter turns a downloaded audio stream into an MP3 file.
type Converter interface {
	Available() bool
	Version() string
	Transcode(ctx context.Context, inPath, outPath string, bitrate int) error
	Normalize(ctx context.Context, inPath, outPath string, bitrate int) error
}

// FFmpegConverter implements Converter by invoking the ffmpeg binary.
type FFmpegConverter struct {
	Path    string
	Logger  log.Interface
	Timeout time.Duration // per invocation; the subprocess is killed on expiry
}

// NewFFmpegConverter returns a converter using the given ffmpeg binary.
// An empty path means "ffmpeg" resolved via PATH.
func NewFFmpegConverter(path string, logger log.Interface) *FFmpegConverter {
	if path == "" {
		path = "ffmpeg"
	}
	if logger == nil {
		logger = log.Log
	}
	return &FFmpegConverter{Path: path, Logger: logger}
}

// Available checks that the ffmpeg binary is executable.
func (c *FFmpegConverter) Available() bool {
	_, err := exec.LookPath(c.Path)
	return err == nil
}

// Version returns the first line of `ffmpeg -version`, or "" when
// unavailable.
func (c *FFmpegConverter) Version() string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, c.Path, "-version").Output()
	if err != nil {
		return ""
	}
	line := string(out)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// Transcode converts inPath to an MP3 at the requested bitrate. A failed
// run removes any partial output; transcoding is not resumable.
func (c *FFmpegConverter) Transcode(ctx context.Context, inPath, outPath string, bitrate int) error {
	args := transcodeArgs(inPath, outPath, bitrate)
	if err := c.run(ctx, args); err != nil {
		os.Remove(outPath)
		return err
	}
	return nil
}

// Normalize rewrites inPath to outPath with loudness normalization applied.
// The re-encode keeps the requested bitrate.
func (c *FFmpegConverter) Normalize(ctx context.Context, inPath, outPath string, bitrate int) error {
	args := normalizeArgs(inPath, outPath, bitrate)
	if err := c.run(ctx, args); err != nil {
		os.Remove(outPath)
		return err
	}
	return nil
}

func (c *FFmpegConverter) run(ctx context.Context, args []string) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultConvertTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.Logger.Debugf("running %s %s", c.Path, shellescape.QuoteCommand(args))

	cmd := exec.CommandContext(ctx, c.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: ffmpeg not found at %q", types.ErrConversion, c.Path)
		}
		detail := firstLine(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("%w: %s", types.ErrConversion, detail)
	}
	return nil
}

func transcodeArgs(inPath, outPath string, bitrate int) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-nostdin",
		"-i", inPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-ar", "44100",
		"-b:a", fmt.Sprintf("%dk", bitrate),
		outPath,
	}
}

func normalizeArgs(inPath, outPath string, bitrate int) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-nostdin",
		"-i", inPath,
		"-af", "loudnorm=I=-14:TP=-1.5:LRA=11",
		"-acodec", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", bitrate),
		outPath,
	}
}

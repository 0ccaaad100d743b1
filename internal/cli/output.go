package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/Kirillka645/yotubemp3/internal/platform"
	"github.com/Kirillka645/yotubemp3/internal/types"
)

const progressBarWidth = 30

// Renderer writes user-facing output. All status text goes to Out; errors
// and warnings go to Err so that piping stdout stays clean.
type Renderer struct {
	Out io.Writer
	Err io.Writer

	header  *color.Color
	success *color.Color
	failure *color.Color
	warning *color.Color
	accent  *color.Color
}

// NewRenderer builds a renderer over the given writers.
func NewRenderer(out, err io.Writer) *Renderer {
	return &Renderer{
		Out:     out,
		Err:     err,
		header:  color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
		warning: color.New(color.FgYellow),
		accent:  color.New(color.FgWhite, color.Bold),
	}
}

// Section prints a stage header.
func (r *Renderer) Section(title string) {
	r.header.Fprintf(r.Out, "==> %s\n", title)
}

func (r *Renderer) Successf(format string, args ...interface{}) {
	r.success.Fprintf(r.Out, "✓ "+format+"\n", args...)
}

func (r *Renderer) Errorf(format string, args ...interface{}) {
	r.failure.Fprintf(r.Err, "✗ "+format+"\n", args...)
}

func (r *Renderer) Warnf(format string, args ...interface{}) {
	r.warning.Fprintf(r.Err, "! "+format+"\n", args...)
}

func (r *Renderer) Infof(format string, args ...interface{}) {
	fmt.Fprintf(r.Out, format+"\n", args...)
}

// VideoInfo prints the resolved track summary.
func (r *Renderer) VideoInfo(meta types.TrackMetadata) {
	r.Section("Video")
	r.accent.Fprintf(r.Out, "  %s\n", meta.Title)
	if meta.Artist != "" {
		fmt.Fprintf(r.Out, "  Uploader: %s\n", meta.Artist)
	}
	if meta.Duration > 0 {
		fmt.Fprintf(r.Out, "  Duration: %s\n", meta.DurationString())
	}
	if meta.ViewCount > 0 {
		fmt.Fprintf(r.Out, "  Views:    %d\n", meta.ViewCount)
	}
}

// DownloadStart announces the download stage with the chosen bitrate.
func (r *Renderer) DownloadStart(bitrate int) {
	r.Section(fmt.Sprintf("Downloading audio (%d kbps MP3)", bitrate))
}

// Progress redraws the in-place progress bar. Call Progress with a final
// 100%% update before printing anything else, then Infof("") to end the line.
func (r *Renderer) Progress(p types.DownloadProgress) {
	fmt.Fprintf(r.Out, "\r  %s %5.1f%%  %s  ETA %s",
		renderProgressBar(p.Percent, progressBarWidth),
		p.Percent,
		FormatRate(p.Rate),
		formatETA(p.ETA),
	)
}

// EndProgress terminates the progress line.
func (r *Renderer) EndProgress() {
	fmt.Fprintln(r.Out)
}

// FormatTable prints the available audio formats, best first.
func (r *Renderer) FormatTable(formats []types.FormatInfo) {
	table := tablewriter.NewWriter(r.Out)
	table.SetHeader([]string{"ID", "Ext", "Codec", "Bitrate", "Note"})
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, f := range formats {
		bitrate := ""
		if f.ABR > 0 {
			bitrate = fmt.Sprintf("%.0fk", f.ABR)
		}
		table.Append([]string{f.ID, f.Ext, f.ACodec, bitrate, f.Note})
	}
	table.Render()
}

// Complete prints the final success block with the output path and size.
func (r *Renderer) Complete(path string, attempts int) {
	r.Successf("Saved %s", path)
	if size, err := platform.FileSize(path); err == nil {
		fmt.Fprintf(r.Out, "  Size: %s\n", platform.FormatSize(size))
	}
	if attempts > 1 {
		fmt.Fprintf(r.Out, "  Attempts: %d\n", attempts)
	}
}

// FFmpegInfo reports the converter in use.
func (r *Renderer) FFmpegInfo(version string) {
	if version == "" {
		return
	}
	fmt.Fprintf(r.Out, "  Using %s\n", version)
}

// ProxyInfo reports how many proxies were loaded.
func (r *Renderer) ProxyInfo(count int) {
	if count == 0 {
		return
	}
	fmt.Fprintf(r.Out, "  Proxies loaded: %d\n", count)
}

func renderProgressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// FormatRate renders bytes-per-second in a human unit, "--" when unknown.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "   --   "
	}
	return fmt.Sprintf("%s/s", platform.FormatSize(int64(bytesPerSec)))
}

func formatETA(eta time.Duration) string {
	if eta <= 0 {
		return "--:--"
	}
	secs := int(eta.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

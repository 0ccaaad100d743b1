package types

import (
	"fmt"
	"time"
)

// TrackMetadata describes the audio track derived from the platform's video
// info. It is attached to the output file at the final pipeline stage.
type TrackMetadata struct {
	Title     string
	Artist    string // uploader/channel
	Album     string
	Comment   string
	Duration  int // seconds
	ViewCount int64
	Thumbnail string
	SourceURL string
}

// DurationString renders the duration as m:ss, or h:mm:ss above one hour.
func (m TrackMetadata) DurationString() string {
	hours := m.Duration / 3600
	minutes := (m.Duration % 3600) / 60
	seconds := m.Duration % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatInfo is a normalized view of one stream format reported by the
// extraction engine. Shown by --list-formats only.
type FormatInfo struct {
	ID     string
	Ext    string
	Note   string
	ACodec string
	VCodec string
	ABR    float64 // average audio bitrate, kbps
}

// AudioOnly reports whether the format carries audio without video.
func (f FormatInfo) AudioOnly() bool {
	return (f.VCodec == "none" || f.VCodec == "") && f.ACodec != "none" && f.ACodec != ""
}

// DownloadRequest is the immutable description of one download job as
// constructed from CLI input.
type DownloadRequest struct {
	URL         string
	Bitrate     int // kbps, one of 128/192/320
	OutputDir   string
	TagMetadata bool
	Normalize   bool
}

// DownloadProgress is a transient snapshot produced during the download
// stage. Snapshots follow the extraction engine's own reporting cadence and
// are consumed by the CLI renderer, never stored.
type DownloadProgress struct {
	Filename string
	Percent  float64
	Rate     float64 // bytes per second, 0 when unknown
	ETA      time.Duration
}

// Package media adapts the two external collaborators: the yt-dlp
// extraction engine (metadata + audio stream) and the ffmpeg transcoding
// binary, plus ID3 tagging of the finished file.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/lrstanley/go-ytdlp"

	"github.com/Kirillka645/yotubemp3/internal/types"
)

// ProgressFunc consumes download progress snapshots. Delivery is
// best-effort and follows the engine's own reporting cadence.
type ProgressFunc func(types.DownloadProgress)

// Extractor resolves a video URL into metadata and fetches its audio
// stream.
type Extractor interface {
	Resolve(ctx context.Context, rawURL, proxy string) (*types.TrackMetadata, []types.FormatInfo, error)
	FetchAudio(ctx context.Context, rawURL, destDir, proxy string, progress ProgressFunc) (string, error)
}

// YTDLPExtractor delegates to the yt-dlp engine via go-ytdlp. The engine is
// treated as a black box; only its JSON output and exit status are
// interpreted.
type YTDLPExtractor struct {
	Logger log.Interface

	// ProgressInterval throttles engine progress callbacks. Defaults to
	// 500ms.
	ProgressInterval time.Duration
}

// NewYTDLPExtractor returns an extractor logging through logger.
func NewYTDLPExtractor(logger log.Interface) *YTDLPExtractor {
	if logger == nil {
		logger = log.Log
	}
	return &YTDLPExtractor{Logger: logger}
}

// engineInfo mirrors the subset of yt-dlp -J output this tool reads.
type engineInfo struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Uploader   string         `json:"uploader"`
	Duration   float64        `json:"duration"`
	Thumbnail  string         `json:"thumbnail"`
	ViewCount  int64          `json:"view_count"`
	WebpageURL string         `json:"webpage_url"`
	Formats    []engineFormat `json:"formats"`
}

type engineFormat struct {
	FormatID   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	FormatNote string  `json:"format_note"`
	ACodec     string  `json:"acodec"`
	VCodec     string  `json:"vcodec"`
	ABR        float64 `json:"abr"`
}

// Resolve asks the engine for video info without downloading anything.
func (e *YTDLPExtractor) Resolve(ctx context.Context, rawURL, proxy string) (*types.TrackMetadata, []types.FormatInfo, error) {
	dl := ytdlp.New().
		DumpSingleJSON().
		SkipDownload().
		NoPlaylist()
	if proxy != "" {
		dl = dl.Proxy(proxy)
	}

	e.Logger.WithField("url", rawURL).Debug("resolving video info")
	res, err := dl.Run(ctx, rawURL)
	if err != nil {
		return nil, nil, classifyEngineError(err, resultStderr(res))
	}

	var info engineInfo
	if err := json.Unmarshal([]byte(res.Stdout), &info); err != nil {
		return nil, nil, fmt.Errorf("%w: malformed engine output: %v", types.ErrSourceUnavailable, err)
	}

	meta := &types.TrackMetadata{
		Title:     info.Title,
		Artist:    info.Uploader,
		Album:     "YouTube",
		Comment:   "Downloaded from " + info.WebpageURL,
		Duration:  int(info.Duration),
		ViewCount: info.ViewCount,
		Thumbnail: info.Thumbnail,
		SourceURL: info.WebpageURL,
	}
	if meta.Title == "" {
		meta.Title = info.ID
	}

	formats := make([]types.FormatInfo, 0, len(info.Formats))
	for _, f := range info.Formats {
		formats = append(formats, types.FormatInfo{
			ID:     f.FormatID,
			Ext:    f.Ext,
			Note:   f.FormatNote,
			ACodec: f.ACodec,
			VCodec: f.VCodec,
			ABR:    f.ABR,
		})
	}
	return meta, formats, nil
}

// FetchAudio downloads the best audio-only stream into destDir and returns
// the path of the downloaded file. The stream is kept in its source
// container; transcoding is a separate stage.
func (e *YTDLPExtractor) FetchAudio(ctx context.Context, rawURL, destDir, proxy string, progress ProgressFunc) (string, error) {
	dl := ytdlp.New().
		Format("bestaudio/best").
		NoPlaylist().
		ForceOverwrites().
		RestrictFilenames().
		Output(filepath.Join(destDir, "%(id)s.%(ext)s"))
	if proxy != "" {
		dl = dl.Proxy(proxy)
	}

	if progress != nil {
		interval := e.ProgressInterval
		if interval <= 0 {
			interval = 500 * time.Millisecond
		}
		dl.ProgressFunc(interval, func(update ytdlp.ProgressUpdate) {
			progress(progressSnapshot(update))
		})
	}

	e.Logger.WithField("url", rawURL).Debug("fetching audio stream")
	res, err := dl.Run(ctx, rawURL)
	if err != nil {
		return "", classifyEngineError(err, resultStderr(res))
	}

	path, err := downloadedPath(res, destDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrNetwork, err)
	}
	return path, nil
}

func progressSnapshot(update ytdlp.ProgressUpdate) types.DownloadProgress {
	p := types.DownloadProgress{}
	if update.TotalBytes > 0 {
		p.Percent = float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
	}
	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started).Seconds(); elapsed > 0 {
			p.Rate = float64(update.DownloadedBytes) / elapsed
		}
	}
	p.ETA = update.ETA()
	if update.Info != nil && update.Info.Filename != nil {
		p.Filename = filepath.Base(*update.Info.Filename)
	}
	return p
}

// downloadedPath locates the file the engine wrote: preferably from its
// extracted info, falling back to a scan of the staging directory.
func downloadedPath(res *ytdlp.Result, destDir string) (string, error) {
	if res != nil {
		if infos, err := res.GetExtractedInfo(); err == nil {
			for _, info := range infos {
				if info.Filename != nil && *info.Filename != "" {
					if _, statErr := os.Stat(*info.Filename); statErr == nil {
						return *info.Filename, nil
					}
				}
			}
		}
	}

	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", err
	}
	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(destDir, entry.Name())
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("engine reported success but wrote no file to %s", destDir)
	}
	return newest, nil
}

func resultStderr(res *ytdlp.Result) string {
	if res == nil {
		return ""
	}
	return res.Stderr
}

// Package downloader fetches source metadata and writes selected streams to
// disk. Two extractors exist: a native YouTube client and a yt-dlp subprocess.
package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"tubemerge/internal/model"
	"tubemerge/internal/progress"
	"tubemerge/internal/util"
)

// Extractor kinds accepted by New.
const (
	KindYouTube = "youtube"
	KindYTDLP   = "ytdlp"
)

// ProgressFunc receives per-stream download progress. JobID and Track are
// filled in by the caller.
type ProgressFunc func(progress.Update)

// Extractor resolves a URL into a stream catalog and downloads individual
// streams from it.
type Extractor interface {
	// Fetch returns metadata and the stream catalog for rawURL.
	Fetch(ctx context.Context, rawURL string) (model.Source, error)
	// Download writes the stream identified by streamID to path.
	// onProgress may be nil.
	Download(ctx context.Context, src model.Source, streamID, path string, onProgress ProgressFunc) error
}

// Options configures New.
type Options struct {
	DownloaderPath string // yt-dlp binary, required for KindYTDLP
	Runner         util.CmdRunner
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// New builds the extractor named by kind.
func New(kind string, opts Options) (Extractor, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	switch kind {
	case "", KindYouTube:
		return NewYouTube(opts.HTTPClient, opts.Logger), nil
	case KindYTDLP:
		if opts.DownloaderPath == "" {
			return nil, fmt.Errorf("extractor %q: downloader path is required", kind)
		}
		runner := opts.Runner
		if runner == nil {
			runner = util.NewDefaultRunner(opts.Logger)
		}
		return NewYTDLP(opts.DownloaderPath, runner, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", kind)
	}
}

func emit(fn ProgressFunc, u progress.Update) {
	if fn != nil {
		fn(u)
	}
}

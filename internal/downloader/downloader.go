package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"tubemerge/internal/model"
	"tubemerge/internal/util"
	"tubemerge/internal/util/bitrate"
)

// YTDLP extracts streams by shelling out to yt-dlp.
type YTDLP struct {
	path   string
	runner util.CmdRunner
	logger *slog.Logger
}

// NewYTDLP returns an extractor driving the yt-dlp binary at path.
func NewYTDLP(path string, runner util.CmdRunner, logger *slog.Logger) *YTDLP {
	return &YTDLP{path: path, runner: runner, logger: logger}
}

func (y *YTDLP) Fetch(ctx context.Context, rawURL string) (model.Source, error) {
	info, err := y.fetchMetadata(ctx, rawURL)
	if err != nil {
		return model.Source{}, err
	}
	author := info.Uploader
	if author == "" {
		author = info.Channel
	}
	return model.Source{
		ID:          info.ID,
		URL:         rawURL,
		Title:       info.Title,
		Author:      author,
		Thumbnail:   info.Thumbnail,
		DurationSec: int(math.Round(info.Duration)),
		Catalog:     catalogFromYTDLP(info.Formats),
	}, nil
}

func (y *YTDLP) Download(ctx context.Context, src model.Source, streamID, path string, onProgress ProgressFunc) error {
	args := []string{
		"-f", streamID,
		"-o", path,
		"--no-playlist",
		"--no-part",
		"--newline",
		"--force-overwrites",
		src.URL,
	}
	res, err := y.runner.Run(ctx, util.CmdSpec{
		Path: y.path,
		Args: args,
		StdoutLine: func(line string) {
			if u, ok := ParseProgress(line); ok {
				emit(onProgress, u)
			}
		},
	})
	if err != nil {
		_ = util.RemoveIfExists(path)
		if msg := lastErrorLine(res.Stderr); msg != "" {
			return fmt.Errorf("yt-dlp: %s: %w", msg, err)
		}
		return fmt.Errorf("yt-dlp: %w", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return fmt.Errorf("yt-dlp finished but %s is missing: %w", path, statErr)
	}
	return nil
}

func (y *YTDLP) fetchMetadata(ctx context.Context, rawURL string) (YTDLPInfo, error) {
	args := []string{
		"-J",
		"--no-playlist",
		"--no-warnings",
		rawURL,
	}
	res, runErr := y.runner.Run(ctx, util.CmdSpec{
		Path:          y.path,
		Args:          args,
		CaptureStdout: true,
	})
	if runErr != nil && len(res.Stdout) == 0 {
		if msg := lastErrorLine(res.Stderr); msg != "" {
			return YTDLPInfo{}, errors.New(msg)
		}
		return YTDLPInfo{}, fmt.Errorf("metadata fetch failed: %w", runErr)
	}

	// Extractors occasionally print non-JSON lines to stdout; take the last
	// line that decodes into an object with an id.
	data := strings.TrimSpace(string(res.Stdout))
	var info YTDLPInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil || info.ID == "" {
		lastErr := err
		if lastErr == nil {
			lastErr = errors.New("metadata has no id")
		}
		lines := strings.Split(data, "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			line := strings.TrimSpace(lines[i])
			if line == "" {
				continue
			}
			var tmp YTDLPInfo
			if json.Unmarshal([]byte(line), &tmp) == nil && tmp.ID != "" {
				info = tmp
				lastErr = nil
				break
			}
		}
		if lastErr != nil {
			return YTDLPInfo{}, fmt.Errorf("parse metadata JSON: %w", lastErr)
		}
	}
	return info, nil
}

func catalogFromYTDLP(formats []YTDLPFormat) model.Catalog {
	var cat model.Catalog
	for _, f := range formats {
		switch {
		case f.hasVideo():
			res := ""
			if f.Height > 0 {
				res = strconv.Itoa(f.Height) + "p"
			}
			cat.Video = append(cat.Video, model.VideoStream{
				ID:            f.FormatID,
				Container:     f.Ext,
				Resolution:    res,
				VideoOnly:     !f.hasAudio(),
				ContentLength: f.size(),
			})
		case f.hasAudio():
			rate := f.ABR
			if rate == 0 {
				rate = f.TBR
			}
			cat.Audio = append(cat.Audio, model.AudioStream{
				ID:            f.FormatID,
				Container:     audioContainer(f.Ext),
				Bitrate:       bitrate.FormatKbps(int(math.Round(rate * 1000))),
				Language:      f.Language,
				ContentLength: f.size(),
			})
		}
	}
	return cat
}

// audioContainer maps audio-only extensions to the container they live in.
func audioContainer(ext string) string {
	switch strings.ToLower(ext) {
	case "m4a", "mp4a":
		return "mp4"
	case "weba", "opus":
		return "webm"
	default:
		return ext
	}
}

func lastErrorLine(stderr []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); strings.HasPrefix(l, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(l, "ERROR:"))
		}
	}
	return ""
}

var _ Extractor = (*YTDLP)(nil)

package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"

	"tubemerge/internal/model"
	"tubemerge/internal/util/bitrate"
)

// YouTube extracts streams with the native kkdai/youtube client.
type YouTube struct {
	client *youtube.Client
	logger *slog.Logger
}

// NewYouTube returns a YouTube extractor. A nil httpClient uses http.DefaultClient.
func NewYouTube(httpClient *http.Client, logger *slog.Logger) *YouTube {
	return &YouTube{
		client: &youtube.Client{HTTPClient: httpClient},
		logger: logger,
	}
}

func (y *YouTube) Fetch(ctx context.Context, rawURL string) (model.Source, error) {
	video, err := y.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return model.Source{}, describeYouTubeError(err)
	}

	src := model.Source{
		ID:          video.ID,
		URL:         rawURL,
		Title:       video.Title,
		Author:      video.Author,
		DurationSec: int(video.Duration.Seconds()),
		Catalog:     catalogFromFormats(video.Formats),
		Handle:      video,
	}
	if n := len(video.Thumbnails); n > 0 {
		// Thumbnails are listed smallest first.
		src.Thumbnail = video.Thumbnails[n-1].URL
	}
	return src, nil
}

func (y *YouTube) Download(ctx context.Context, src model.Source, streamID, path string, onProgress ProgressFunc) error {
	video, ok := src.Handle.(*youtube.Video)
	if !ok || video == nil {
		v, err := y.client.GetVideoContext(ctx, src.URL)
		if err != nil {
			return describeYouTubeError(err)
		}
		video = v
	}

	format := findFormat(video.Formats, streamID)
	if format == nil {
		return fmt.Errorf("stream %s not offered by %s", streamID, video.ID)
	}

	stream, size, err := y.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := newCountingWriter(f, size, onProgress)
	_, copyErr := w.ReadFrom(stream)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return err
	}
	w.finish()

	y.logger.Debug("stream downloaded", "video", video.ID, "stream", streamID, "bytes", w.done)
	return nil
}

// catalogFromFormats maps adaptive and progressive formats to the catalog.
// Formats whose MIME type is neither video/* nor audio/* are skipped.
func catalogFromFormats(formats youtube.FormatList) model.Catalog {
	var cat model.Catalog
	for i := range formats {
		f := &formats[i]
		kind, container := splitMime(f.MimeType)
		switch {
		case kind == "video":
			cat.Video = append(cat.Video, model.VideoStream{
				ID:            formatID(f),
				Container:     container,
				Resolution:    resolutionLabel(f),
				VideoOnly:     f.AudioChannels == 0,
				ContentLength: int64(f.ContentLength),
			})
		case kind == "audio":
			cat.Audio = append(cat.Audio, model.AudioStream{
				ID:            formatID(f),
				Container:     container,
				Bitrate:       bitrate.FormatKbps(formatBitrate(f)),
				Language:      trackLanguage(f),
				ContentLength: int64(f.ContentLength),
			})
		}
	}
	return cat
}

// formatID is the itag, suffixed with the audio track id when present.
// Multi-language videos repeat the same itag once per track.
func formatID(f *youtube.Format) string {
	id := strconv.Itoa(f.ItagNo)
	if lang := trackLanguage(f); lang != "" {
		id += ":" + lang
	}
	return id
}

func findFormat(formats youtube.FormatList, id string) *youtube.Format {
	for i := range formats {
		if formatID(&formats[i]) == id {
			return &formats[i]
		}
	}
	return nil
}

func trackLanguage(f *youtube.Format) string {
	if f.AudioTrack == nil {
		return ""
	}
	return f.AudioTrack.ID
}

func resolutionLabel(f *youtube.Format) string {
	if f.Height > 0 {
		return strconv.Itoa(f.Height) + "p"
	}
	return f.QualityLabel
}

func formatBitrate(f *youtube.Format) int {
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return f.Bitrate
}

// splitMime turns `video/mp4; codecs="avc1.64001F"` into ("video", "mp4").
func splitMime(mime string) (kind, container string) {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	kind, container, ok := strings.Cut(mime, "/")
	if !ok {
		return "", ""
	}
	return kind, container
}

func describeYouTubeError(err error) error {
	switch {
	case errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return fmt.Errorf("video is not publicly available: %w", err)
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return fmt.Errorf("invalid video URL: %w", err)
	}
	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return fmt.Errorf("video is not playable: %w", err)
	}
	return err
}

// Compile-time check.
var _ Extractor = (*YouTube)(nil)

package downloader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/kkdai/youtube/v2"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCatalogFromFormats(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Height: 360, AudioChannels: 2, QualityLabel: "360p"},
		{ItagNo: 299, MimeType: `video/mp4; codecs="avc1.64002a"`, Height: 1080, QualityLabel: "1080p60", ContentLength: 5000},
		{ItagNo: 248, MimeType: `video/webm; codecs="vp9"`, Height: 1080},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AverageBitrate: 129472, Bitrate: 130000, AudioChannels: 2},
		{ItagNo: 139, MimeType: `audio/mp4; codecs="mp4a.40.5"`, Bitrate: 48000, AudioChannels: 2},
		{ItagNo: 0, MimeType: "text/vtt"},
	}

	cat := catalogFromFormats(formats)

	if len(cat.Video) != 3 {
		t.Fatalf("video streams = %d, want 3", len(cat.Video))
	}
	if v := cat.Video[0]; v.VideoOnly || v.ID != "18" {
		t.Errorf("progressive stream = %+v", v)
	}
	if v := cat.Video[1]; !v.VideoOnly || v.Resolution != "1080p" || v.Container != "mp4" || v.ContentLength != 5000 {
		t.Errorf("adaptive stream = %+v", v)
	}
	if v := cat.Video[2]; v.Container != "webm" {
		t.Errorf("webm stream = %+v", v)
	}

	if len(cat.Audio) != 2 {
		t.Fatalf("audio streams = %d, want 2", len(cat.Audio))
	}
	if a := cat.Audio[0]; a.Bitrate != "129kbps" || a.Language != "" || a.ID != "140" {
		t.Errorf("audio[0] = %+v", a)
	}
	if a := cat.Audio[1]; a.Bitrate != "48kbps" {
		t.Errorf("audio[1] falls back to Bitrate: %+v", a)
	}

	if f := findFormat(formats, "299"); f == nil || f.ItagNo != 299 {
		t.Errorf("findFormat(299) = %v", f)
	}
	if f := findFormat(formats, "999"); f != nil {
		t.Errorf("findFormat(999) = %v, want nil", f)
	}
}

func TestSplitMime(t *testing.T) {
	tests := []struct {
		mime, kind, container string
	}{
		{mime: `video/mp4; codecs="avc1"`, kind: "video", container: "mp4"},
		{mime: "Audio/WebM", kind: "audio", container: "webm"},
		{mime: "garbage", kind: "", container: ""},
	}
	for _, tt := range tests {
		kind, container := splitMime(tt.mime)
		if kind != tt.kind || container != tt.container {
			t.Errorf("splitMime(%q) = (%q, %q), want (%q, %q)", tt.mime, kind, container, tt.kind, tt.container)
		}
	}
}

func TestDescribeYouTubeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "private", err: youtube.ErrVideoPrivate, want: "not publicly available"},
		{name: "login", err: fmt.Errorf("wrapped: %w", youtube.ErrLoginRequired), want: "not publicly available"},
		{name: "bad id", err: youtube.ErrInvalidCharactersInVideoID, want: "invalid video URL"},
		{name: "other", err: errors.New("dial tcp: timeout"), want: "dial tcp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeYouTubeError(tt.err)
			if !strings.Contains(got.Error(), tt.want) {
				t.Errorf("describeYouTubeError(%v) = %q, want it to contain %q", tt.err, got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("cause lost: %v", got)
			}
		})
	}
}

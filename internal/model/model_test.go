package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseResolution(t *testing.T) {
	tests := []struct {
		label      string
		wantHeight int
		wantValid  bool
	}{
		{label: "1080p", wantHeight: 1080, wantValid: true},
		{label: "720p", wantHeight: 720, wantValid: true},
		{label: "144p", wantHeight: 144, wantValid: true},
		{label: "1080p60", wantHeight: 1080, wantValid: true},
		{label: "2160", wantHeight: 2160, wantValid: true},
		{label: "hd", wantValid: false},
		{label: "p720", wantValid: false},
		{label: "", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got := ParseResolution(tt.label)
			if got.Valid != tt.wantValid {
				t.Errorf("ParseResolution(%q).Valid = %v, want %v", tt.label, got.Valid, tt.wantValid)
			}
			if got.Height != tt.wantHeight {
				t.Errorf("ParseResolution(%q).Height = %d, want %d", tt.label, got.Height, tt.wantHeight)
			}
			if got.Label != tt.label {
				t.Errorf("ParseResolution(%q).Label = %q", tt.label, got.Label)
			}
		})
	}
}

func TestResolutionLess(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "numeric ascending", a: "720p", b: "1080p", want: true},
		{name: "numeric descending", a: "1080p", b: "720p", want: false},
		{name: "equal", a: "720p", b: "720p", want: false},
		{name: "invalid below numeric", a: "audio", b: "144p", want: true},
		{name: "numeric above invalid", a: "144p", b: "audio", want: false},
		{name: "two invalid", a: "x", b: "y", want: false},
		// Lexical order would put "720p" above "1080p".
		{name: "not lexical", a: "1080p", b: "720p", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResolution(tt.a).Less(ParseResolution(tt.b))
			if got != tt.want {
				t.Errorf("%q.Less(%q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestErrorCategories(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name     string
		err      error
		category error
	}{
		{name: "extraction", err: &ExtractionError{URL: "https://x", Err: cause}, category: ErrExtraction},
		{name: "no stream", err: &NoSuitableStreamError{Kind: "video", Container: "mp4"}, category: ErrNoSuitableStream},
		{name: "download", err: &DownloadError{StreamID: "137", Path: "/tmp/v", Err: cause}, category: ErrStreamDownload},
		{name: "merge", err: &MergeError{ExitCode: 1, Err: cause}, category: ErrMerge},
		{name: "configuration", err: &ConfigurationError{Key: "ffmpeg_path", Err: cause}, category: ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !errors.Is(wrapped, tt.category) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.category)
			}
			if errors.Is(wrapped, ErrMerge) && tt.category != ErrMerge {
				t.Errorf("%v unexpectedly matches ErrMerge", wrapped)
			}
		})
	}
}

func TestMergeErrorMessage(t *testing.T) {
	err := &MergeError{ExitCode: 1, Output: "ffmpeg version 6\nInput #0...\nInvalid data found when processing input\n"}
	want := "ffmpeg exited with code 1: Invalid data found when processing input"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &MergeError{ExitCode: 255}
	if bare.Error() != "ffmpeg exited with code 255" {
		t.Errorf("Error() = %q", bare.Error())
	}

	publish := &MergeError{Err: errors.New("rename a.part.mp4: permission denied")}
	if publish.Error() != "merge: rename a.part.mp4: permission denied" {
		t.Errorf("Error() = %q", publish.Error())
	}
}

func TestCleanupWarningUnwrap(t *testing.T) {
	cause := errors.New("permission denied")
	w := CleanupWarning{Path: "/out/a.mp4", Err: cause}
	if !errors.Is(w, cause) {
		t.Errorf("CleanupWarning should unwrap to its cause")
	}
	if w.Error() != "cleanup /out/a.mp4: permission denied" {
		t.Errorf("Error() = %q", w.Error())
	}
}

package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Typed errors below match these through errors.Is.
var (
	// ErrExtraction is returned when the source URL is invalid, unreachable or not public.
	ErrExtraction = errors.New("extraction failed")

	// ErrNoSuitableStream is returned when the catalog lacks a usable video-only or audio-only stream.
	ErrNoSuitableStream = errors.New("no suitable stream")

	// ErrStreamDownload is returned when a selected stream cannot be written to scratch.
	ErrStreamDownload = errors.New("stream download failed")

	// ErrMerge is returned when the muxing process exits non-zero.
	ErrMerge = errors.New("merge failed")

	// ErrConfiguration is returned at startup when a required binary or setting cannot be resolved.
	ErrConfiguration = errors.New("configuration error")
)

// ExtractionError wraps a failure from the extraction collaborator.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	if e.URL != "" {
		return "extract [" + e.URL + "]: " + e.Err.Error()
	}
	return "extract: " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// NoSuitableStreamError names which stream kind could not be selected.
type NoSuitableStreamError struct {
	Kind      string // "video" or "audio"
	Container string
}

func (e *NoSuitableStreamError) Error() string {
	return fmt.Sprintf("no %s-only stream in %s container", e.Kind, e.Container)
}

func (e *NoSuitableStreamError) Is(target error) bool { return target == ErrNoSuitableStream }

// DownloadError wraps an I/O failure while writing a stream to scratch.
type DownloadError struct {
	StreamID string
	Path     string
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download stream %s to %s: %v", e.StreamID, e.Path, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

func (e *DownloadError) Is(target error) bool { return target == ErrStreamDownload }

// MergeError reports a failed muxing run.
type MergeError struct {
	ExitCode int
	Output   string // Captured stderr, trimmed.
	Err      error
}

func (e *MergeError) Error() string {
	if e.ExitCode == 0 && e.Err != nil {
		return "merge: " + e.Err.Error()
	}
	msg := fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	if out := lastLine(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *MergeError) Unwrap() error { return e.Err }

func (e *MergeError) Is(target error) bool { return target == ErrMerge }

// ConfigurationError is raised once at startup, never per request.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	return "config " + e.Key + ": " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// CleanupWarning records a failed deletion of a scratch or stale file.
// It is logged, never returned to callers.
type CleanupWarning struct {
	Path string
	Err  error
}

func (w CleanupWarning) Error() string {
	return "cleanup " + w.Path + ": " + w.Err.Error()
}

func (w CleanupWarning) Unwrap() error { return w.Err }

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindFFmpegPrefersConfiguredPath(t *testing.T) {
	dir := t.TempDir()
	bundled := filepath.Join(dir, "ffmpeg-bundled")
	if err := os.WriteFile(bundled, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := FindFFmpeg(bundled)
	if err != nil {
		t.Fatalf("FindFFmpeg: %v", err)
	}
	if got != bundled {
		t.Errorf("FindFFmpeg = %q, want %q", got, bundled)
	}
}

func TestFindFFmpegFallsBackToPath(t *testing.T) {
	dir := t.TempDir()
	onPath := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(onPath, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	got, err := FindFFmpeg(filepath.Join(dir, "bin", "ffmpeg.exe"))
	if err != nil {
		t.Fatalf("FindFFmpeg: %v", err)
	}
	if got != onPath {
		t.Errorf("FindFFmpeg = %q, want %q", got, onPath)
	}
}

func TestFindFFmpegMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if _, err := FindFFmpeg("/nonexistent/ffmpeg"); err == nil {
		t.Errorf("expected error when ffmpeg cannot be resolved")
	}
}

func TestFindDownloaderCustomMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if _, err := FindDownloader("/nonexistent/yt-dlp"); err == nil {
		t.Errorf("expected error for missing custom downloader")
	}
	if _, err := FindDownloader(""); err == nil {
		t.Errorf("expected error when PATH has no downloader")
	}
}

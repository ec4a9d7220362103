package deps

import (
	"fmt"
	"os"
	"os/exec"
)

// FindDownloader returns the path to yt-dlp or youtube-dl.
// If customPath is non-empty, it tries that path or looks it up in PATH.
func FindDownloader(customPath string) (string, error) {
	if customPath != "" {
		if p, ok := resolve(customPath); ok {
			return p, nil
		}
		return "", fmt.Errorf("could not find downloader at %q", customPath)
	}
	for _, name := range []string{"yt-dlp", "youtube-dl"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("could not find yt-dlp or youtube-dl in PATH")
}

// FindFFmpeg returns the ffmpeg binary to use. A configured (bundled) path is
// tried first; when it is missing the plain name "ffmpeg" is looked up in PATH.
func FindFFmpeg(configured string) (string, error) {
	if configured != "" {
		if p, ok := resolve(configured); ok {
			return p, nil
		}
	}
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return p, nil
	}
	if configured != "" {
		return "", fmt.Errorf("could not find ffmpeg at %q or in PATH", configured)
	}
	return "", fmt.Errorf("could not find ffmpeg in PATH")
}

func resolve(path string) (string, bool) {
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		return path, true
	}
	if p, err := exec.LookPath(path); err == nil {
		return p, true
	}
	return "", false
}

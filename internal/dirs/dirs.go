// Package dirs resolves per-user directories for config, media and locks.
package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "tubemerge"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

type kind struct {
	xdgEnv   string
	linux    []string // relative to $HOME
	darwin   []string // relative to $HOME
	fallback func() (string, error)
}

var (
	configKind = kind{"XDG_CONFIG_HOME", []string{".config"}, []string{"Library", "Application Support"}, os.UserConfigDir}
	dataKind   = kind{"XDG_DATA_HOME", []string{".local", "share"}, []string{"Library", "Application Support"}, os.UserConfigDir}
	cacheKind  = kind{"XDG_CACHE_HOME", []string{".cache"}, []string{"Library", "Caches"}, os.UserCacheDir}
)

func (k kind) dir() (string, error) {
	switch runtime.GOOS {
	case "linux", "darwin":
		if runtime.GOOS == "linux" {
			if xdg := os.Getenv(k.xdgEnv); xdg != "" {
				return filepath.Join(xdg, appName), nil
			}
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		rel := k.linux
		if runtime.GOOS == "darwin" {
			rel = k.darwin
		}
		return filepath.Join(append(append([]string{home}, rel...), appName)...), nil
	default:
		base, err := k.fallback()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, appName), nil
	}
}

// ConfigDir returns the app's configuration directory.
// - Linux: $XDG_CONFIG_HOME/tubemerge or ~/.config/tubemerge
// - macOS: ~/Library/Application Support/tubemerge
// - Windows: os.UserConfigDir()/tubemerge
func ConfigDir() (string, error) { return configKind.dir() }

// DataDir returns the app's data directory.
// - Linux: $XDG_DATA_HOME/tubemerge or ~/.local/share/tubemerge
func DataDir() (string, error) { return dataKind.dir() }

// CacheDir returns the app's cache directory. Lock files live here.
// - Linux: $XDG_CACHE_HOME/tubemerge or ~/.cache/tubemerge
func CacheDir() (string, error) { return cacheKind.dir() }

// DefaultOutputDir is where merged files land when out_dir is unset.
func DefaultOutputDir() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "media"), nil
}

// MergeLockPath is the cross-process lock used in shared scratch mode.
func MergeLockPath() (string, error) {
	c, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(c, "merge.lock"), nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

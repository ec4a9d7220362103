// Package retention prunes stale files from the output directory.
package retention

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tubemerge/internal/logging"
	"tubemerge/internal/model"
)

// DefaultWindow is how long a file may stay in the output directory.
const DefaultWindow = 7200 * time.Second

// Report summarizes one sweep. It is informational only.
type Report struct {
	Removed  int
	Kept     int
	Skipped  int // in-flight or inside the grace margin
	Warnings []model.CleanupWarning
}

// Options configures a Sweeper.
type Options struct {
	Dir      string
	Window   time.Duration // defaults to DefaultWindow
	Grace    time.Duration // files modified this recently are never removed
	InFlight *InFlight
	Logger   *slog.Logger
	Now      func() time.Time
}

// Sweeper deletes regular files directly inside Dir whose modification time
// is older than now minus Window. Subdirectories are not descended into.
type Sweeper struct {
	opts Options
}

// New returns a Sweeper with defaults applied.
func New(opts Options) *Sweeper {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Logger = logging.Component(opts.Logger, "retention")
	return &Sweeper{opts: opts}
}

// Sweep runs once with no grace margin and no in-flight registry.
func Sweep(dir string, window time.Duration) Report {
	return New(Options{Dir: dir, Window: window}).Sweep()
}

// Sweep scans the directory once. A missing directory is not an error.
// Individual failures are logged and recorded in the report; the scan
// continues with the next file.
func (s *Sweeper) Sweep() Report {
	var rep Report
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.warn(&rep, s.opts.Dir, err)
		}
		return rep
	}

	now := s.opts.Now()
	cutoff := now.Add(-s.opts.Window)
	graceCutoff := now.Add(-s.opts.Grace)

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(s.opts.Dir, entry.Name())

		if s.opts.InFlight.Contains(path) {
			rep.Skipped++
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.warn(&rep, path, err)
			}
			continue
		}
		mod := info.ModTime()
		if s.opts.Grace > 0 && mod.After(graceCutoff) {
			rep.Skipped++
			continue
		}
		if !mod.Before(cutoff) {
			rep.Kept++
			continue
		}
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			s.warn(&rep, path, err)
			continue
		}
		rep.Removed++
		s.opts.Logger.Debug("stale file removed", "path", path, "age", now.Sub(mod).Round(time.Second))
	}

	if rep.Removed > 0 || len(rep.Warnings) > 0 {
		s.opts.Logger.Info("sweep finished",
			"dir", s.opts.Dir,
			"removed", rep.Removed,
			"kept", rep.Kept,
			"skipped", rep.Skipped,
			"failed", len(rep.Warnings),
		)
	}
	return rep
}

func (s *Sweeper) warn(rep *Report, path string, err error) {
	w := model.CleanupWarning{Path: path, Err: err}
	rep.Warnings = append(rep.Warnings, w)
	s.opts.Logger.Warn("cleanup failed; file remains", "path", path, "error", err)
}

// InFlight tracks scratch and output paths owned by running merges so the
// sweeper leaves them alone. The zero value is ready to use; a nil *InFlight
// tracks nothing.
type InFlight struct {
	mu    sync.Mutex
	paths map[string]int
}

// Track registers paths and returns a func that releases them.
func (f *InFlight) Track(paths ...string) (release func()) {
	if f == nil {
		return func() {}
	}
	f.mu.Lock()
	if f.paths == nil {
		f.paths = make(map[string]int)
	}
	for _, p := range paths {
		f.paths[clean(p)]++
	}
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			for _, p := range paths {
				k := clean(p)
				if f.paths[k] <= 1 {
					delete(f.paths, k)
				} else {
					f.paths[k]--
				}
			}
		})
	}
}

// Contains reports whether path is currently tracked.
func (f *InFlight) Contains(path string) bool {
	if f == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paths[clean(path)] > 0
}

func clean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

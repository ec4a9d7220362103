// Package pipeline orchestrates the info and download-and-merge workflows.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tubemerge/internal/config"
	"tubemerge/internal/downloader"
	"tubemerge/internal/encoder"
	"tubemerge/internal/logging"
	"tubemerge/internal/model"
	"tubemerge/internal/progress"
	"tubemerge/internal/retention"
	"tubemerge/internal/selector"
	"tubemerge/internal/util"
)

// lockRetry is how often a shared-mode merge polls the file lock.
const lockRetry = 200 * time.Millisecond

// Service orchestrates fetch → select → download → merge → cleanup.
type Service struct {
	cfg       config.Config
	prefs     selector.Preferences
	extractor downloader.Extractor
	runner    util.CmdRunner
	reporter  progress.Reporter
	logger    *slog.Logger
	sweeper   *retention.Sweeper
	inflight  *retention.InFlight
	lockPath  string
	newID     func() string

	shared chan struct{} // in-process gate for shared scratch mode
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the settings used for selection, naming, paths and timeouts.
func WithConfig(c config.Config) Option {
	return func(s *Service) {
		s.cfg = c
	}
}

// WithExtractor sets the extraction collaborator.
func WithExtractor(e downloader.Extractor) Option {
	return func(s *Service) {
		s.extractor = e
	}
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithReporter attaches a progress reporter (used by TUI).
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithSweeper sets the retention sweeper run before every merge. Its
// in-flight registry is shared with the service.
func WithSweeper(sw *retention.Sweeper, inflight *retention.InFlight) Option {
	return func(s *Service) {
		s.sweeper = sw
		s.inflight = inflight
	}
}

// WithLockPath sets the cross-process lock file used in shared scratch mode.
func WithLockPath(p string) Option {
	return func(s *Service) {
		s.lockPath = p
	}
}

// WithIDFunc overrides job id generation.
func WithIDFunc(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// NewService constructs a new Service with the provided options.
// It applies sensible defaults for missing components.
func NewService(opts ...Option) *Service {
	s := &Service{shared: make(chan struct{}, 1)}
	for _, o := range opts {
		o(s)
	}
	s.logger = logging.Component(s.logger, "pipeline")
	if s.runner == nil {
		s.runner = util.NewDefaultRunner(s.logger)
	}
	if s.reporter == nil {
		s.reporter = progress.Nop{}
	}
	if s.inflight == nil {
		s.inflight = &retention.InFlight{}
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	if s.cfg.Container == "" {
		s.cfg.Container = "mp4"
	}
	if s.cfg.AudioCodec == "" {
		s.cfg.AudioCodec = encoder.DefaultAudioCodec
	}
	if s.cfg.Scratch == "" {
		s.cfg.Scratch = config.ScratchPerRequest
	}
	s.prefs = selector.NewPreferences(s.cfg.PreferredLanguage)
	return s
}

// Reporting returns a copy of s that reports to rp. The copy shares the
// extractor, sweeper, in-flight registry and shared-scratch gate with s.
func (s *Service) Reporting(rp progress.Reporter) *Service {
	c := *s
	if rp == nil {
		rp = progress.Nop{}
	}
	c.reporter = rp
	return &c
}

// Info returns metadata and the available resolutions for rawURL.
func (s *Service) Info(ctx context.Context, rawURL string) (model.VideoInfo, error) {
	src, err := s.fetch(ctx, rawURL)
	if err != nil {
		s.logger.Warn("info failed", "url", rawURL, "error", err)
		return model.VideoInfo{}, err
	}
	return model.VideoInfo{
		Title:       src.Title,
		Thumbnail:   src.Thumbnail,
		Author:      src.Author,
		Length:      src.DurationSec,
		Resolutions: selector.AvailableResolutions(src.Catalog, s.cfg.Container),
		URL:         rawURL,
	}, nil
}

// Plan fetches rawURL and reports which streams would be merged into which
// file, without downloading anything.
func (s *Service) Plan(ctx context.Context, rawURL, resolution string) (Plan, error) {
	src, err := s.fetch(ctx, rawURL)
	if err != nil {
		return Plan{}, err
	}
	return s.planFor(src, resolution)
}

// DownloadAndMerge produces one merged file for rawURL at (or near) the
// requested resolution. Stale files are swept first. Scratch files are
// removed on every path; cleanup failures are logged, never returned.
func (s *Service) DownloadAndMerge(ctx context.Context, rawURL, resolution string) (model.MergeArtifact, error) {
	jobID := s.newID()
	log := s.logger.With("job", jobID, "url", rawURL, "resolution", resolution)

	art, err := s.downloadAndMerge(ctx, jobID, log, rawURL, resolution)
	if err != nil {
		log.Error("download failed", "error", err)
		s.reporter.Update(progress.Update{JobID: jobID, Stage: progress.StageError, Percent: -1, Message: err.Error()})
		s.reporter.Result(progress.Result{JobID: jobID, Err: err})
		return model.MergeArtifact{}, err
	}

	log.Info("merge complete", "file", art.Filename, "size", humanize.Bytes(uint64(art.Bytes)))
	s.reporter.Update(progress.Update{
		JobID:   jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Saved: %s (%s)", art.Filename, humanize.Bytes(uint64(art.Bytes))),
	})
	s.reporter.Result(progress.Result{
		JobID:      jobID,
		Title:      art.Title,
		OutputPath: art.Path,
		URL:        art.URL,
		Bytes:      art.Bytes,
	})
	return art, nil
}

func (s *Service) downloadAndMerge(ctx context.Context, jobID string, log *slog.Logger, rawURL, resolution string) (model.MergeArtifact, error) {
	if s.sweeper != nil {
		s.sweeper.Sweep()
	}
	if err := util.EnsureDir(s.cfg.OutDir); err != nil {
		return model.MergeArtifact{}, &model.DownloadError{Path: s.cfg.OutDir, Err: err}
	}

	s.reporter.Update(progress.Update{JobID: jobID, Stage: progress.StageMetadata, Percent: -1, Message: "Fetching metadata"})
	src, err := s.fetch(ctx, rawURL)
	if err != nil {
		return model.MergeArtifact{}, err
	}
	plan, err := s.planFor(src, resolution)
	if err != nil {
		return model.MergeArtifact{}, err
	}
	if plan.Fallback() {
		log.Info("requested resolution unavailable; using highest", "selected", plan.Selection.Video.Resolution)
	}
	log.Debug("streams selected",
		"video", plan.Selection.Video.ID,
		"audio", plan.Selection.Audio.ID,
		"audio_lang", plan.Selection.Audio.Language,
		"audio_bitrate", plan.Selection.Audio.Bitrate,
	)

	if s.cfg.Scratch == config.ScratchShared {
		unlock, err := s.acquireShared(ctx)
		if err != nil {
			return model.MergeArtifact{}, &model.DownloadError{Path: s.lockPath, Err: err}
		}
		defer unlock()
	}

	scratch := scratchFiles(s.cfg.Scratch, s.cfg.OutDir, s.cfg.Container, jobID)
	part := partialOutput(plan.OutputPath, jobID)
	release := s.inflight.Track(scratch.Video, scratch.Audio, part)
	defer release()
	defer s.removeScratch(log, scratch)

	if err := s.downloadStreams(ctx, jobID, src, plan.Selection, scratch); err != nil {
		return model.MergeArtifact{}, err
	}

	// A client going away must not interrupt a running mux.
	mergeCtx, cancel := withTimeout(context.WithoutCancel(ctx), s.cfg.MergeTimeout)
	defer cancel()

	s.reporter.Update(progress.Update{JobID: jobID, Stage: progress.StageMerging, Percent: -1, Message: "Merging"})
	size, err := encoder.Merge(mergeCtx, scratch, part, encoder.Options{
		FFmpegPath:  s.cfg.FFmpegPath,
		AudioCodec:  s.cfg.AudioCodec,
		Runner:      s.runner,
		Reporter:    s.reporter,
		JobID:       jobID,
		DurationSec: float64(src.DurationSec),
	})
	if err != nil {
		return model.MergeArtifact{}, err
	}
	// Concurrent merges of the same title share plan.OutputPath; only a
	// complete file is ever moved there.
	if err := os.Rename(part, plan.OutputPath); err != nil {
		if rmErr := util.RemoveIfExists(part); rmErr != nil {
			log.Warn("partial output cleanup failed", "path", part, "error", rmErr)
		}
		return model.MergeArtifact{}, &model.MergeError{Err: fmt.Errorf("publish output: %w", err)}
	}

	return model.MergeArtifact{
		Filename:   plan.Filename,
		Path:       plan.OutputPath,
		URL:        plan.URL,
		Title:      src.Title,
		Resolution: plan.Selection.Video.Resolution,
		Bytes:      size,
	}, nil
}

func (s *Service) fetch(ctx context.Context, rawURL string) (model.Source, error) {
	if s.extractor == nil {
		return model.Source{}, &model.ExtractionError{URL: rawURL, Err: errors.New("no extractor configured")}
	}
	_, u, err := util.ParseSourceURL(rawURL)
	if err != nil {
		return model.Source{}, &model.ExtractionError{URL: rawURL, Err: err}
	}

	fctx, cancel := withTimeout(ctx, s.cfg.ExtractTimeout)
	defer cancel()
	src, err := s.extractor.Fetch(fctx, u.String())
	if err != nil {
		return model.Source{}, &model.ExtractionError{URL: rawURL, Err: err}
	}
	return src, nil
}

func (s *Service) downloadStreams(ctx context.Context, jobID string, src model.Source, sel model.Selection, files model.ScratchFiles) error {
	dctx, cancel := withTimeout(ctx, s.cfg.DownloadTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(dctx)
	for _, job := range []struct {
		track, id, path string
	}{
		{"video", sel.Video.ID, files.Video},
		{"audio", sel.Audio.ID, files.Audio},
	} {
		job := job
		g.Go(func() error {
			onProgress := func(u progress.Update) {
				u.JobID = jobID
				u.Track = job.track
				s.reporter.Update(u)
			}
			if err := s.extractor.Download(gctx, src, job.id, job.path, onProgress); err != nil {
				return &model.DownloadError{StreamID: job.id, Path: job.path, Err: err}
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) removeScratch(log *slog.Logger, files model.ScratchFiles) {
	for _, p := range []string{files.Video, files.Audio} {
		if err := util.RemoveIfExists(p); err != nil {
			w := model.CleanupWarning{Path: p, Err: err}
			log.Warn("scratch cleanup failed", "path", w.Path, "error", w.Err)
		}
	}
}

// acquireShared serializes merges that share fixed scratch names, within
// this process and across processes using the same lock file.
func (s *Service) acquireShared(ctx context.Context) (func(), error) {
	select {
	case s.shared <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.lockPath == "" {
		return func() { <-s.shared }, nil
	}

	if err := util.EnsureDir(filepath.Dir(s.lockPath)); err != nil {
		<-s.shared
		return nil, err
	}
	fl := flock.New(s.lockPath)
	ok, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil || !ok {
		<-s.shared
		if err == nil {
			err = errors.New("merge lock not acquired")
		}
		return nil, fmt.Errorf("lock %s: %w", s.lockPath, err)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("merge lock release failed", "path", s.lockPath, "error", err)
		}
		<-s.shared
	}, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"tubemerge/internal/config"
	"tubemerge/internal/dirs"
	"tubemerge/internal/downloader"
	"tubemerge/internal/logging"
	"tubemerge/internal/model"
	"tubemerge/internal/pipeline"
	"tubemerge/internal/progress"
	"tubemerge/internal/retention"
	"tubemerge/internal/util/deps"
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
}

// preRun loads configuration and builds the logger. Commands that touch the
// pipeline install it as PreRunE.
func (a *app) preRun(cmd *cobra.Command, _ []string) error {
	if err := config.Init(a.v, cmd.Flags(), a.cfgFile); err != nil {
		return &ExitError{Code: ExitMissingDep, Err: err}
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return &ExitError{Code: ExitMissingDep, Err: err}
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	a.logger = logger
	return nil
}

// resolve locates ffmpeg and, for the ytdlp extractor, yt-dlp.
func (a *app) resolve() error {
	cfg, err := config.Resolve(a.cfg)
	if err != nil {
		return &ExitError{Code: ExitMissingDep, Err: err}
	}
	a.cfg = cfg
	a.logger.Debug("binaries resolved", "ffmpeg", cfg.FFmpegPath, "extractor", cfg.Extractor, "dl_binary", cfg.DownloaderPath)
	return nil
}

// resolveExtractor resolves only what metadata lookups need.
func (a *app) resolveExtractor() error {
	if a.cfg.Extractor != downloader.KindYTDLP {
		return nil
	}
	dl, err := deps.FindDownloader(a.cfg.DownloaderPath)
	if err != nil {
		return &ExitError{Code: ExitMissingDep, Err: &model.ConfigurationError{Key: "dl_binary", Err: err}}
	}
	a.cfg.DownloaderPath = dl
	return nil
}

func (a *app) newSweeper(inflight *retention.InFlight) *retention.Sweeper {
	return retention.New(retention.Options{
		Dir:      a.cfg.OutDir,
		Window:   a.cfg.Retention,
		Grace:    a.cfg.SweepGrace,
		InFlight: inflight,
		Logger:   a.logger,
	})
}

// newService wires the extractor, sweeper and merge lock into a pipeline.
func (a *app) newService(rep progress.Reporter) (*pipeline.Service, error) {
	ex, err := downloader.New(a.cfg.Extractor, downloader.Options{
		DownloaderPath: a.cfg.DownloaderPath,
		Logger:         logging.Component(a.logger, "extractor"),
	})
	if err != nil {
		return nil, &ExitError{Code: ExitMissingDep, Err: err}
	}

	opts := []pipeline.Option{
		pipeline.WithConfig(a.cfg),
		pipeline.WithExtractor(ex),
		pipeline.WithLogger(a.logger),
		pipeline.WithReporter(rep),
	}
	inflight := &retention.InFlight{}
	opts = append(opts, pipeline.WithSweeper(a.newSweeper(inflight), inflight))
	if lock, err := dirs.MergeLockPath(); err == nil {
		opts = append(opts, pipeline.WithLockPath(lock))
	}
	return pipeline.NewService(opts...), nil
}

// logToFile redirects logging to a file in the cache dir while a TUI owns
// the terminal. The returned func closes the file.
func (a *app) logToFile() func() {
	dir, err := dirs.CacheDir()
	if err == nil {
		err = dirs.Ensure(dir)
	}
	if err != nil {
		a.logger = logging.NewNop()
		return func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, dirs.AppName()+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		a.logger = logging.NewNop()
		return func() {}
	}
	if l, err := logging.New(logging.Options{Level: a.cfg.LogLevel, Format: a.cfg.LogFormat, Output: f}); err == nil {
		a.logger = l
	}
	return func() { _ = f.Close() }
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

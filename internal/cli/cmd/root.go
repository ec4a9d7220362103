package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tubemerge/internal/model"
)

const (
	ExitOK            = 0
	ExitCLIError      = 1
	ExitMissingDep    = 2
	ExitDownloadError = 3
	ExitMergeError    = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitCodeFor maps a pipeline error to a process exit code.
func exitCodeFor(err error) int {
	var ee *ExitError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ee):
		return ee.Code
	case errors.Is(err, model.ErrConfiguration):
		return ExitMissingDep
	case errors.Is(err, model.ErrMerge):
		return ExitMergeError
	case errors.Is(err, model.ErrExtraction),
		errors.Is(err, model.ErrNoSuitableStream),
		errors.Is(err, model.ErrStreamDownload):
		return ExitDownloadError
	default:
		return ExitCLIError
	}
}

// asExit wraps err with the exit code its category maps to.
func asExit(err error) error {
	if err == nil {
		return nil
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee
	}
	return &ExitError{Code: exitCodeFor(err), Err: err}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "tubemerge",
		Short:         "Fetch a video's best streams and merge them into one file",
		Long:          "tubemerge looks up a video, picks the best video-only stream at the requested resolution and the best audio track (preferring your language), downloads both and muxes them with ffmpeg. It runs as an HTTP service or from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Config file (default: config.{yaml,toml,json} in the user config dir)")
	pf.StringP("out-dir", "o", "", "Output directory for merged files")
	pf.BoolP("verbose", "v", false, "Debug logging, including subprocess output")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text or json")
	pf.String("extractor", "", "Stream extractor: youtube or ytdlp")
	pf.String("dl-binary", "", "Path to yt-dlp (ytdlp extractor only)")
	pf.String("ffmpeg", "", "Path to ffmpeg (default: bundled bin/ffmpeg, then PATH)")
	pf.String("language", "", "Preferred audio language code, e.g. pt")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newInfoCmd(a))
	root.AddCommand(newDownloadCmd(a))
	root.AddCommand(newPlanCmd(a))
	root.AddCommand(newSweepCmd(a))
	root.AddCommand(newDoctorCmd(a))
	root.AddCommand(newCompletionCmd())

	return root
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}

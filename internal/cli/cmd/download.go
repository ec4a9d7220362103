package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tubemerge/internal/api"
	"tubemerge/internal/progress"
	"tubemerge/internal/ui"
	"tubemerge/internal/util"
)

func newDownloadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "download <url>...",
		Aliases: []string{"dl"},
		Short:   "Download and merge one or more videos",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolution, _ := cmd.Flags().GetString("resolution")
			noUI, _ := cmd.Flags().GetBool("no-ui")
			return runDownload(cmd, a, args, strings.TrimSpace(resolution), noUI)
		},
	}
	cmd.Flags().StringP("resolution", "r", api.DefaultResolution, "Requested resolution; the highest available is used when missing")
	cmd.Flags().Bool("no-ui", false, "Disable TUI; use plain textual output")
	cmd.Flags().IntP("jobs", "j", 0, "Max concurrent merges in TUI (default 1)")
	return cmd
}

func runDownload(cmd *cobra.Command, a *app, urls []string, resolution string, noUI bool) error {
	for _, raw := range urls {
		if _, _, err := util.ParseSourceURL(raw); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
	}
	if resolution == "" {
		resolution = api.DefaultResolution
	}
	if err := a.resolve(); err != nil {
		return err
	}

	if !noUI && isTerminal(cmd.OutOrStdout()) {
		return downloadTUI(cmd.Context(), a, urls, resolution)
	}

	svc, err := a.newService(progress.Nop{})
	if err != nil {
		return err
	}
	for _, rawURL := range urls {
		art, err := svc.DownloadAndMerge(cmd.Context(), rawURL, resolution)
		if err != nil {
			return asExit(fmt.Errorf("%s: %w", rawURL, err))
		}
		printf(cmd, "Saved: %s (%s)\n", art.Path, humanize.Bytes(uint64(art.Bytes)))
	}
	return nil
}

func downloadTUI(ctx context.Context, a *app, urls []string, resolution string) error {
	closeLog := a.logToFile()
	defer closeLog()

	svc, err := a.newService(progress.Nop{})
	if err != nil {
		return err
	}

	var (
		mu    sync.Mutex
		first error
	)
	download := func(ctx context.Context, rawURL string, rep progress.Reporter) error {
		_, err := svc.Reporting(rep).DownloadAndMerge(ctx, rawURL, resolution)
		if err != nil {
			mu.Lock()
			if first == nil {
				first = err
			}
			mu.Unlock()
		}
		return err
	}

	runErr := ui.Run(ctx, urls, ui.Options{Jobs: a.cfg.Jobs, Download: download})
	mu.Lock()
	defer mu.Unlock()
	if first != nil {
		if runErr == nil {
			runErr = first
		}
		return &ExitError{Code: exitCodeFor(first), Err: runErr}
	}
	if runErr != nil {
		return &ExitError{Code: ExitCLIError, Err: runErr}
	}
	return nil
}

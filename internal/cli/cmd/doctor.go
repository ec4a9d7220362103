package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"tubemerge/internal/downloader"
	"tubemerge/internal/util/deps"
)

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "doctor",
		Short:   "Diagnose external dependencies (ffmpeg, yt-dlp) and settings",
		Args:    cobra.NoArgs,
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var problems []error
			rows := [][]string{}

			if ff, err := deps.FindFFmpeg(a.cfg.FFmpegPath); err != nil {
				problems = append(problems, err)
				rows = append(rows, []string{"ffmpeg", "missing: " + err.Error()})
			} else {
				rows = append(rows, []string{"ffmpeg", ff})
			}

			dl, err := deps.FindDownloader(a.cfg.DownloaderPath)
			switch {
			case err == nil:
				rows = append(rows, []string{"yt-dlp", dl})
			case a.cfg.Extractor == downloader.KindYTDLP:
				problems = append(problems, err)
				rows = append(rows, []string{"yt-dlp", "missing: " + err.Error()})
			default:
				rows = append(rows, []string{"yt-dlp", "not found (optional)"})
			}

			rows = append(rows,
				[]string{"extractor", a.cfg.Extractor},
				[]string{"out dir", a.cfg.OutDir},
				[]string{"public base", a.cfg.PublicBaseURL},
				[]string{"retention", a.cfg.Retention.String()},
				[]string{"scratch", a.cfg.Scratch},
				[]string{"language", a.cfg.PreferredLanguage},
			)
			if used := a.v.ConfigFileUsed(); used != "" {
				rows = append(rows, []string{"config", used})
			}
			printf(cmd, "%s\n", renderTable([]string{"Check", "Result"}, rows, nil))

			if len(problems) > 0 {
				return &ExitError{Code: ExitMissingDep, Err: errors.Join(problems...)}
			}
			return nil
		},
	}
}

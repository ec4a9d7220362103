package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tubemerge/internal/api"
	"tubemerge/internal/model"
	"tubemerge/internal/pipeline"
	"tubemerge/internal/progress"
)

func newPlanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plan <url>...",
		Short:   "Show which streams would be merged into which file, without downloading",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolution, _ := cmd.Flags().GetString("resolution")
			if err := a.resolveExtractor(); err != nil {
				return err
			}
			svc, err := a.newService(progress.Nop{})
			if err != nil {
				return err
			}
			for _, rawURL := range args {
				p, err := svc.Plan(cmd.Context(), rawURL, resolution)
				if err != nil {
					return asExit(fmt.Errorf("%s: %w", rawURL, err))
				}
				printf(cmd, "%s\n", renderPlan(p))
			}
			return nil
		},
	}
	cmd.Flags().StringP("resolution", "r", api.DefaultResolution, "Requested resolution")
	return cmd
}

func renderPlan(p pipeline.Plan) string {
	v, au := p.Selection.Video, p.Selection.Audio
	video := fmt.Sprintf("%s %s (%s)", v.Resolution, v.Container, v.ID)
	if p.Fallback() {
		video += fmt.Sprintf(", requested %s unavailable", p.Requested)
	}
	audio := fmt.Sprintf("%s %s (%s)", au.Bitrate, au.Container, au.ID)
	if au.Language != "" {
		audio += " lang=" + au.Language
	}

	rows := [][]string{
		{"Title", p.Source.Title},
		{"Video", video},
		{"Audio", audio},
		{"Estimated size", estimatedSize(v, au)},
		{"Output", p.OutputPath},
		{"Public URL", p.URL},
	}
	return renderTable([]string{"Plan", p.Source.URL}, rows, nil)
}

func estimatedSize(v model.VideoStream, a model.AudioStream) string {
	if v.ContentLength <= 0 || a.ContentLength <= 0 {
		return "unknown"
	}
	return "~" + humanize.Bytes(uint64(v.ContentLength+a.ContentLength))
}

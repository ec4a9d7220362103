package cmd

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tubemerge/internal/progress"
)

func newInfoCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "info <url>",
		Short:   "Show title, author, length and available resolutions",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.resolveExtractor(); err != nil {
				return err
			}
			svc, err := a.newService(progress.Nop{})
			if err != nil {
				return err
			}
			info, err := svc.Info(cmd.Context(), args[0])
			if err != nil {
				return asExit(err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			resolutions := strings.Join(info.Resolutions, ", ")
			if resolutions == "" {
				resolutions = "none in " + a.cfg.Container
			}
			rows := [][]string{
				{"Title", info.Title},
				{"Author", info.Author},
				{"Length", (time.Duration(info.Length) * time.Second).String()},
				{"Resolutions", resolutions},
				{"Thumbnail", info.Thumbnail},
				{"URL", info.URL},
			}
			printf(cmd, "%s\n", renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the info as JSON")
	return cmd
}

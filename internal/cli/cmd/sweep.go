package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "sweep",
		Short:   "Delete merged files older than the retention window",
		Args:    cobra.NoArgs,
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep := a.newSweeper(nil).Sweep()
			rows := [][]string{
				{"removed", strconv.Itoa(rep.Removed)},
				{"kept", strconv.Itoa(rep.Kept)},
				{"skipped", strconv.Itoa(rep.Skipped)},
			}
			printf(cmd, "%s\n%s\n", a.cfg.OutDir, renderTable([]string{"Files", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			for _, w := range rep.Warnings {
				printf(cmd, "warning: %v\n", w)
			}
			return nil
		},
	}
}

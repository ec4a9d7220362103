// Package ui renders concurrent merge jobs as a bubbletea TUI.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Run launches the TUI for urls and blocks until every job has finished or
// the user quits. It returns an error listing failed jobs.
func Run(ctx context.Context, urls []string, opts Options) error {
	if opts.Download == nil {
		return errors.New("ui: no download function")
	}
	m := NewModel(ctx, urls, opts)
	defer m.cancel()

	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		if failed := fm.failures(); len(failed) > 0 {
			return fmt.Errorf("%d job(s) failed:\n%s", len(failed), strings.Join(failed, "\n"))
		}
	}
	return nil
}

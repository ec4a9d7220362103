package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"tubemerge/internal/progress"
)

func (m Model) viewHeader() string {
	done, total := 0, len(m.jobOrder)
	for _, id := range m.jobOrder {
		if m.jobs[id].done {
			done++
		}
	}
	title := m.styles.Title.Render("tubemerge")
	sub := m.styles.Subtitle.Render(fmt.Sprintf("Jobs: %d/%d done • q: quit", done, total))
	return title + "\n" + sub
}

func (m Model) viewJobs() string {
	var b strings.Builder
	for _, id := range m.jobOrder {
		b.WriteString(m.viewJob(m.jobs[id]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewJob(js *jobState) string {
	stageStyle := m.styles.JobInfo
	switch js.stage {
	case progress.StageMetadata:
		stageStyle = m.styles.StageMeta
	case progress.StageDownloading:
		stageStyle = m.styles.StageDL
	case progress.StageMerging:
		stageStyle = m.styles.StageMerge
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageError:
		stageStyle = m.styles.Error
	}

	label := js.url
	if js.title != "" {
		label = js.title
	}
	lines := []string{fmt.Sprintf("%s  %s", m.styles.JobTitle.Render(truncate(label, 48)), stageStyle.Render(string(js.stage)))}

	switch {
	case js.done && js.err == nil:
		lines = append(lines, m.styles.Success.Render("✓ done"))
	case js.err != nil:
		lines = append(lines, m.styles.Error.Render("✗ error"))
	case js.stage == progress.StageDownloading:
		lines = append(lines, m.viewTrack(trackVideo, js.tracks[trackVideo]), m.viewTrack(trackAudio, js.tracks[trackAudio]))
	case js.stage == progress.StageMerging && js.percent >= 0:
		lines = append(lines, fmt.Sprintf("%s %5.1f%%", js.bar.ViewAs(js.percent/100.0), js.percent))
	default:
		lines = append(lines, m.styles.Spinner.Render(js.spinner.View())+" "+m.styles.Faint.Render("waiting"))
	}

	lines = append(lines, m.styles.JobInfo.Render(js.status))
	return m.styles.Box.Render(strings.Join(lines, "\n"))
}

func (m Model) viewTrack(name string, ts *trackState) string {
	label := m.styles.Track.Render(name)
	if ts.percent < 0 {
		if ts.bytes > 0 {
			return label + " " + m.styles.Faint.Render(humanize.Bytes(uint64(ts.bytes)))
		}
		return label + " " + m.styles.Faint.Render("…")
	}
	line := fmt.Sprintf("%s %s %5.1f%%", label, ts.bar.ViewAs(ts.percent/100.0), ts.percent)
	if ts.total > 0 {
		line += " " + m.styles.Faint.Render(humanize.Bytes(uint64(ts.total)))
	}
	if ts.speed != "" {
		line += " " + m.styles.Faint.Render(ts.speed)
	}
	return line
}

func (m Model) viewSummary() string {
	var completed []string
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		if js.done && js.err == nil && js.outputPath != "" {
			completed = append(completed, fmt.Sprintf("%s (%s)", js.outputPath, humanize.Bytes(uint64(js.bytes))))
		}
	}
	if len(completed) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("✓ Completed Files:"))
	b.WriteString("\n")
	for _, line := range completed {
		b.WriteString(m.styles.Success.Render("  • " + line))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}

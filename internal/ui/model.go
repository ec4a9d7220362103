package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"tubemerge/internal/progress"
)

// DownloadFunc runs one merge for rawURL, reporting progress to rep. It is
// expected to emit exactly one Result through rep.
type DownloadFunc func(ctx context.Context, rawURL string, rep progress.Reporter) error

// Options configure the TUI.
type Options struct {
	Jobs     int // max concurrent merges
	Download DownloadFunc
}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	urls     []string
	opts     Options
	jobOrder []string
	jobs     map[string]*jobState

	width, height int
	styles        Styles

	// Fed by the per-job reporters.
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, urls []string, opts Options) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	jobs := make(map[string]*jobState, len(urls))
	order := make([]string, 0, len(urls))
	for i, u := range urls {
		id := toID(i)
		jobs[id] = newJobState(id, u, sty)
		order = append(order, id)
	}
	if opts.Jobs <= 0 {
		opts.Jobs = 1
	}

	return Model{
		ctx:      c,
		cancel:   cancel,
		urls:     urls,
		opts:     opts,
		jobs:     jobs,
		jobOrder: order,
		styles:   sty,
		eventCh:  make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.jobOrder)+2)
	for _, id := range m.jobOrder {
		cmds = append(cmds, m.jobs[id].spinner.Tick)
	}
	cmds = append(cmds, m.listenEventsCmd(), m.dispatchCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resizeBars()

	case jobUpdateMsg, jobLogMsg, jobResultMsg:
		m.handleEvent(msg)
		return m, m.listenEventsCmd()

	case allDoneMsg:
		m.drainEvents()
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		var c tea.Cmd
		js.spinner, c = js.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	out := m.viewHeader() + "\n\n" + m.viewJobs()
	if summary := m.viewSummary(); summary != "" {
		out += "\n" + summary
	}
	return out
}

func (m Model) handleEvent(msg tea.Msg) {
	switch msg := msg.(type) {
	case jobUpdateMsg:
		if js, ok := m.jobs[msg.U.JobID]; ok {
			js.apply(msg.U)
		}
	case jobLogMsg:
		if js, ok := m.jobs[msg.L.JobID]; ok {
			js.appendLog(strings.TrimRight(msg.L.Line, "\r\n"))
		}
	case jobResultMsg:
		if js, ok := m.jobs[msg.R.JobID]; ok {
			js.finish(msg.R)
		}
	}
}

// drainEvents applies events still buffered when the last job returned.
func (m Model) drainEvents() {
	for {
		select {
		case msg := <-m.eventCh:
			m.handleEvent(msg)
		default:
			return
		}
	}
}

func (m Model) resizeBars() {
	w := m.width - 24
	if w < 10 {
		w = 10
	}
	if w > 60 {
		w = 60
	}
	for _, js := range m.jobs {
		js.bar.Width = w
		for _, ts := range js.tracks {
			ts.bar.Width = w
		}
	}
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

// dispatchCmd runs every job with at most opts.Jobs in flight and reports
// allDoneMsg once the last one returns.
func (m Model) dispatchCmd() tea.Cmd {
	return func() tea.Msg {
		g, ctx := errgroup.WithContext(m.ctx)
		g.SetLimit(m.opts.Jobs)
		for i, id := range m.jobOrder {
			id := id
			rawURL := m.urls[i]
			g.Go(func() error {
				rep := jobReporter{ctx: ctx, id: id, ch: m.eventCh}
				if err := m.opts.Download(ctx, rawURL, rep); err != nil {
					// Normally already reported; finish ignores duplicates.
					rep.Result(progress.Result{JobID: id, Err: err})
				}
				return nil
			})
		}
		_ = g.Wait()
		return allDoneMsg{}
	}
}

// jobReporter forwards events for one job into the program, stamping them
// with the TUI job id.
type jobReporter struct {
	ctx context.Context
	id  string
	ch  chan<- tea.Msg
}

func (r jobReporter) Update(u progress.Update) {
	u.JobID = r.id
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.send(jobUpdateMsg{U: u})
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r jobReporter) Log(l progress.Log) {
	l.JobID = r.id
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r jobReporter) Result(res progress.Result) {
	res.JobID = r.id
	r.send(jobResultMsg{R: res})
}

func (r jobReporter) send(msg tea.Msg) {
	select {
	case r.ch <- msg:
	case <-r.ctx.Done():
	}
}

// failures lists the jobs that ended in error.
func (m Model) failures() []string {
	var failed []string
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		if js.err != nil {
			failed = append(failed, fmt.Sprintf("- %s: %s", js.url, js.err))
		}
	}
	return failed
}

func toID(i int) string {
	return "job-" + strconv.Itoa(i)
}

package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"tubemerge/internal/progress"
)

// Track names reported while the two streams download.
const (
	trackVideo = "video"
	trackAudio = "audio"
)

type trackState struct {
	percent float64 // -1 means unknown
	bytes   int64
	total   int64
	speed   string
	bar     bubblesprogress.Model
}

type jobState struct {
	id     string
	url    string
	stage  progress.Stage
	status string
	err    error
	done   bool

	title      string
	outputPath string
	publicURL  string
	bytes      int64
	percent    float64 // merge percent; -1 means unknown

	tracks  map[string]*trackState
	spinner spinner.Model
	bar     bubblesprogress.Model

	// Recent stderr lines, kept small.
	logsRing []string
}

func newBar() bubblesprogress.Model {
	return bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(32),
	)
}

func newJobState(id, url string, styles Styles) *jobState {
	sp := spinner.New()
	sp.Style = styles.Spinner
	return &jobState{
		id:      id,
		url:     url,
		stage:   progress.StageQueued,
		status:  "Queued",
		percent: -1,
		tracks: map[string]*trackState{
			trackVideo: {percent: -1, bar: newBar()},
			trackAudio: {percent: -1, bar: newBar()},
		},
		spinner: sp,
		bar:     newBar(),
	}
}

// apply folds one progress update into the job.
func (js *jobState) apply(u progress.Update) {
	if js.done {
		return
	}
	js.stage = u.Stage
	if u.Message != "" {
		js.status = u.Message
	}

	if ts, ok := js.tracks[u.Track]; ok && u.Stage == progress.StageDownloading {
		ts.percent = u.Percent
		if u.Bytes != nil {
			ts.bytes = *u.Bytes
		}
		if u.Total != nil {
			ts.total = *u.Total
		}
		if u.Speed != nil {
			ts.speed = *u.Speed
		}
		return
	}
	js.percent = u.Percent
}

// finish records the terminal result. Later results for the same job are ignored.
func (js *jobState) finish(r progress.Result) bool {
	if js.done {
		return false
	}
	js.done = true
	js.err = r.Err
	if r.Err != nil {
		js.stage = progress.StageError
		js.status = r.Err.Error()
		js.percent = -1
		return true
	}
	js.stage = progress.StageCompleted
	js.percent = 100
	js.title = r.Title
	js.outputPath = r.OutputPath
	js.publicURL = r.URL
	js.bytes = r.Bytes
	return true
}

func (js *jobState) appendLog(line string) {
	const maxLogs = 200
	if len(js.logsRing) >= maxLogs {
		js.logsRing = js.logsRing[1:]
	}
	js.logsRing = append(js.logsRing, line)
}

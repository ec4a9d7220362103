package encoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"tubemerge/internal/model"
	"tubemerge/internal/progress"
	"tubemerge/internal/util"
)

type fakeRunner struct {
	spec util.CmdSpec
	run  func(spec util.CmdSpec) (util.CmdResult, error)
}

func (f *fakeRunner) Run(_ context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	f.spec = spec
	return f.run(spec)
}

type recordingReporter struct {
	updates []progress.Update
	logs    []progress.Log
}

func (r *recordingReporter) Update(u progress.Update) { r.updates = append(r.updates, u) }
func (r *recordingReporter) Log(l progress.Log)       { r.logs = append(r.logs, l) }
func (r *recordingReporter) Result(progress.Result)   {}

func TestMergeSuccess(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "Clip_720p.mp4")
	files := model.ScratchFiles{Video: filepath.Join(dir, "v.mp4"), Audio: filepath.Join(dir, "a.mp4")}

	runner := &fakeRunner{run: func(spec util.CmdSpec) (util.CmdResult, error) {
		spec.StdoutLine("out_time_us=5000000")
		spec.StdoutLine("progress=continue")
		spec.StderrLine("Stream mapping:")
		return util.CmdResult{}, os.WriteFile(spec.Args[len(spec.Args)-1], []byte("merged!"), 0o644)
	}}
	rep := &recordingReporter{}

	size, err := Merge(context.Background(), files, out, Options{
		FFmpegPath:  "ffmpeg",
		Runner:      runner,
		Reporter:    rep,
		JobID:       "j1",
		DurationSec: 10,
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if size != int64(len("merged!")) {
		t.Errorf("size = %d", size)
	}
	if runner.spec.Path != "ffmpeg" {
		t.Errorf("Path = %q", runner.spec.Path)
	}
	if len(rep.updates) != 1 || rep.updates[0].Percent != 50 || rep.updates[0].JobID != "j1" {
		t.Errorf("updates = %+v", rep.updates)
	}
	if len(rep.logs) != 1 || rep.logs[0].Stream != progress.StreamStderr {
		t.Errorf("logs = %+v", rep.logs)
	}
}

func TestMergeFailureRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "Clip_720p.mp4")

	runner := &fakeRunner{run: func(spec util.CmdSpec) (util.CmdResult, error) {
		_ = os.WriteFile(out, []byte("half"), 0o644)
		return util.CmdResult{
			Code:   1,
			Stderr: []byte("ffmpeg version 6.1\nv.mp4: Invalid data found when processing input\n"),
		}, errors.New("command failed (exit 1)")
	}}

	_, err := Merge(context.Background(), model.ScratchFiles{Video: "v.mp4", Audio: "a.mp4"}, out, Options{
		FFmpegPath: "ffmpeg",
		Runner:     runner,
	})

	var me *model.MergeError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want *model.MergeError", err)
	}
	if me.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", me.ExitCode)
	}
	if !strings.Contains(me.Error(), "Invalid data found") {
		t.Errorf("Error() = %q", me.Error())
	}
	if !errors.Is(err, model.ErrMerge) {
		t.Errorf("errors.Is(ErrMerge) = false")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("partial output not removed: %v", statErr)
	}
	if slices.Contains(runner.spec.Args, "-progress") {
		t.Errorf("progress flags added without a reporter: %v", runner.spec.Args)
	}
}

func TestMergeRequiresPaths(t *testing.T) {
	if _, err := Merge(context.Background(), model.ScratchFiles{}, "out.mp4", Options{}); err == nil {
		t.Errorf("expected error without ffmpeg path")
	}
	if _, err := Merge(context.Background(), model.ScratchFiles{}, "", Options{FFmpegPath: "ffmpeg"}); err == nil {
		t.Errorf("expected error without output path")
	}
}

func TestTail(t *testing.T) {
	long := strings.Repeat("x", 10) + "\n" + strings.Repeat("y", 5)
	if got := tail(long, 8); got != "yyyyy" {
		t.Errorf("tail = %q, want %q", got, "yyyyy")
	}
	if got := tail("  short \n", 100); got != "short" {
		t.Errorf("tail = %q", got)
	}
}

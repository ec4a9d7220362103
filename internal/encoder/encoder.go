package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tubemerge/internal/model"
	"tubemerge/internal/progress"
	"tubemerge/internal/util"
)

// maxCapturedOutput bounds the ffmpeg stderr kept on a MergeError.
const maxCapturedOutput = 4096

// Options control ffmpeg execution.
type Options struct {
	FFmpegPath  string
	AudioCodec  string
	Runner      util.CmdRunner
	Reporter    progress.Reporter // optional; enables -progress parsing
	JobID       string
	DurationSec float64 // used for percent; 0 if unknown
}

// Merge muxes files.Video and files.Audio into outputPath and returns the
// size of the result. A non-zero ffmpeg exit yields *model.MergeError and any
// partial output is removed. Merge never retries.
func Merge(ctx context.Context, files model.ScratchFiles, outputPath string, opts Options) (int64, error) {
	if opts.FFmpegPath == "" {
		return 0, errors.New("ffmpeg path is required")
	}
	if outputPath == "" {
		return 0, errors.New("output path is required")
	}
	if err := util.EnsureDir(filepath.Dir(outputPath)); err != nil {
		return 0, fmt.Errorf("ensure output dir: %w", err)
	}

	runner := opts.Runner
	if runner == nil {
		runner = util.NewDefaultRunner(nil)
	}

	spec := util.CmdSpec{
		Path: opts.FFmpegPath,
		Args: BuildMergeArgs(files.Video, files.Audio, outputPath, opts.AudioCodec, opts.Reporter != nil),
	}
	if opts.Reporter != nil {
		var ps ProgressState
		spec.StdoutLine = func(line string) {
			if u, ok := ps.UpdateFromLine(line, opts.JobID, opts.DurationSec); ok {
				opts.Reporter.Update(u)
			}
		}
		spec.StderrLine = func(line string) {
			opts.Reporter.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStderr, Line: line})
		}
	}

	res, runErr := runner.Run(ctx, spec)
	if runErr != nil {
		_ = util.RemoveIfExists(outputPath)
		code := res.Code
		if code == 0 {
			code = -1
		}
		return 0, &model.MergeError{
			ExitCode: code,
			Output:   tail(string(res.Stderr), maxCapturedOutput),
			Err:      runErr,
		}
	}

	fi, err := os.Stat(outputPath)
	if err != nil {
		return 0, &model.MergeError{ExitCode: 0, Err: fmt.Errorf("stat output: %w", err)}
	}
	return fi.Size(), nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	s = s[len(s)-n:]
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

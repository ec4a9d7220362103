package downloader

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"tubemerge/internal/progress"
)

// ParseProgress parses a yt-dlp "[download]" progress line.
// ok is false for any other output.
func ParseProgress(line string) (u progress.Update, ok bool) {
	// yt-dlp outputs lines like: [download]  45.2% of 10.00MiB at  1.50MiB/s ETA 00:04
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[download]") {
		return progress.Update{}, false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(line, "[download]"))

	// Parse percent
	var percent float64 = -1
	if idx := strings.Index(rest, "%"); idx != -1 {
		pctStr := strings.TrimSpace(rest[:idx])
		if p, err := strconv.ParseFloat(pctStr, 64); err == nil {
			percent = p
		}
	}

	// Parse speed (e.g., "at 1.50MiB/s")
	var speed *string
	if idx := strings.Index(rest, " at "); idx != -1 {
		if fields := strings.Fields(rest[idx+4:]); len(fields) > 0 && fields[0] != "Unknown" {
			s := fields[0]
			speed = &s
		}
	}

	// Parse ETA (e.g., "ETA 00:04")
	var eta *time.Duration
	if idx := strings.Index(rest, "ETA "); idx != -1 {
		etaStr := strings.TrimSpace(rest[idx+4:])
		if idx2 := strings.Index(etaStr, " "); idx2 != -1 {
			etaStr = etaStr[:idx2]
		}
		if d, err := parseETA(etaStr); err == nil {
			eta = &d
		}
	}

	return progress.Update{
		Stage:   progress.StageDownloading,
		Percent: percent,
		Speed:   speed,
		ETA:     eta,
		Message: "Downloading",
	}, true
}

// parseETA parses duration strings like "00:04", "01:23:45" or "45".
func parseETA(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid ETA %q", s)
	}
	var d time.Duration
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid ETA %q: %w", s, err)
		}
		d = d*60 + time.Duration(n)
	}
	return d * time.Second, nil
}

// countingWriter reports bytes written through it, at most every
// reportEvery, plus once on finish.
type countingWriter struct {
	w     io.Writer
	total int64
	done  int64
	fn    ProgressFunc
	last  time.Time
	start time.Time
}

const reportEvery = 250 * time.Millisecond

func newCountingWriter(w io.Writer, total int64, fn ProgressFunc) *countingWriter {
	now := time.Now()
	return &countingWriter{w: w, total: total, fn: fn, start: now, last: now}
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.done += int64(n)
	if c.fn != nil && time.Since(c.last) >= reportEvery {
		c.last = time.Now()
		c.report()
	}
	return n, err
}

// ReadFrom copies r through Write so progress is observed.
func (c *countingWriter) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, 256*1024)
	return io.CopyBuffer(struct{ io.Writer }{c}, r, buf)
}

func (c *countingWriter) finish() {
	if c.fn != nil {
		c.report()
	}
}

func (c *countingWriter) report() {
	done := c.done
	u := progress.Update{
		Stage:   progress.StageDownloading,
		Percent: progress.Percent(done, c.total),
		Bytes:   &done,
		Message: "Downloading",
	}
	if c.total > 0 {
		total := c.total
		u.Total = &total
	}
	if elapsed := time.Since(c.start).Seconds(); elapsed > 0 && done > 0 {
		rate := float64(done) / elapsed
		speed := humanize.Bytes(uint64(rate)) + "/s"
		u.Speed = &speed
		if c.total > done {
			eta := time.Duration(float64(c.total-done)/rate) * time.Second
			u.ETA = &eta
		}
	}
	c.fn(u)
}

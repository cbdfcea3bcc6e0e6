// Package progress renders per-batch encode progress: a progress bar on
// terminals, sampled debug logs everywhere else.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"slideshow/models"
)

// Tracker follows one encode.
type Tracker interface {
	Update(p *models.EncodingProgress)
	Finish(err error)
}

// Display creates a Tracker for each encode.
type Display struct {
	writer  io.Writer
	useBar  bool
	logger  *slog.Logger
	percent float64
}

// New returns a Display writing bars to w when enabled is set and w is a
// terminal. Otherwise progress is logged at debug level, once per
// logEvery percent.
func New(w io.Writer, enabled bool, logger *slog.Logger) *Display {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Display{
		writer:  w,
		useBar:  enabled && IsTerminal(w),
		logger:  logger,
		percent: logEvery,
	}
}

const logEvery = 10.0

// UsesBar reports whether trackers render a progress bar.
func (d *Display) UsesBar() bool {
	return d.useBar
}

// Start begins tracking an encode of totalFrames frames.
func (d *Display) Start(label string, totalFrames int64) Tracker {
	if d.useBar {
		return newBarTracker(d.writer, label, totalFrames)
	}
	return &logTracker{
		logger:  d.logger,
		label:   label,
		sampler: newSampler(d.percent),
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type barTracker struct {
	bar *progressbar.ProgressBar
}

func newBarTracker(w io.Writer, label string, totalFrames int64) *barTracker {
	bar := progressbar.NewOptions64(totalFrames,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
	return &barTracker{bar: bar}
}

func (t *barTracker) Update(p *models.EncodingProgress) {
	_ = t.bar.Set64(p.Frame)
}

func (t *barTracker) Finish(err error) {
	if err != nil {
		_ = t.bar.Exit()
		return
	}
	_ = t.bar.Finish()
}

type logTracker struct {
	logger  *slog.Logger
	label   string
	sampler *sampler
}

func (t *logTracker) Update(p *models.EncodingProgress) {
	if !t.sampler.shouldLog(p.Progress) {
		return
	}
	t.logger.Debug("encoding progress",
		slog.String("segment", t.label),
		slog.String("status", p.FormatSummary()),
	)
}

func (t *logTracker) Finish(error) {}

// sampler suppresses repetitive progress updates, letting one through each
// time percent crosses into a new bucket.
type sampler struct {
	bucketSize float64
	lastBucket int
}

func newSampler(bucketSize float64) *sampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &sampler{bucketSize: bucketSize, lastBucket: -1}
}

func (s *sampler) shouldLog(percent float64) bool {
	if percent < 0 {
		return false
	}
	bucket := int(min(percent, 100) / s.bucketSize)
	if bucket <= s.lastBucket {
		return false
	}
	s.lastBucket = bucket
	return true
}

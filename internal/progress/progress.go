package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/panbanda/deadroute/pkg/analyzer"
)

// Tracker wraps a progress bar for template processing.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	out   io.Writer

	mu  sync.Mutex
	max int
}

// Option configures a Tracker.
type Option func(*settings)

type settings struct {
	out io.Writer
}

// WithWriter sends the bar and finish messages to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		s.out = w
	}
}

func resolve(opts []Option) settings {
	s := settings{out: os.Stderr}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewSpinner creates a spinner for operations with unknown total count,
// such as listing a git tree.
func NewSpinner(label string, opts ...Option) *Tracker {
	s := resolve(opts)
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(s.out),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, label: label, out: s.out, max: -1}
}

// NewTracker creates a progress bar with the given label and total count.
// The total may grow later through Update.
func NewTracker(label string, total int, opts ...Option) *Tracker {
	s := resolve(opts)
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label, out: s.out, max: total}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	t.bar.Add(1)
}

// Update moves the bar to current of total, growing the bar when a later
// batch raises the total. Safe for concurrent use.
func (t *Tracker) Update(current, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if total > t.max {
		t.bar.ChangeMax(total)
		t.max = total
	}
	_ = t.bar.Set(current)
}

// Func adapts the tracker to the analyzer's progress callback.
func (t *Tracker) Func() analyzer.ProgressFunc {
	return func(current, total int, _ string) {
		t.Update(current, total)
	}
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	t.bar.Finish()
	t.bar.Clear()
}

// FinishSkipped clears the bar and prints a skip message.
func (t *Tracker) FinishSkipped(reason string) {
	t.bar.Finish()
	t.bar.Clear()
	fmt.Fprintf(t.out, "  %s skipped (%s)\n", t.label, reason)
}

// FinishError clears the bar and prints an error message.
func (t *Tracker) FinishError(err error) {
	t.bar.Finish()
	t.bar.Clear()
	fmt.Fprintf(t.out, "  %s error: %v\n", t.label, err)
}

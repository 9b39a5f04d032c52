package output

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

type progressConfig struct {
	quiet bool
	out   io.Writer
}

type ProgressOption func(*progressConfig)

func ProgressWithQuiet(quiet bool) ProgressOption {
	return func(c *progressConfig) { c.quiet = quiet }
}

func ProgressWithOutput(w io.Writer) ProgressOption {
	return func(c *progressConfig) { c.out = w }
}

// activity is the part shared by spinners and byte bars. A nil bar means
// output is suppressed.
type activity struct {
	bar     *progressbar.ProgressBar
	started time.Time
}

// newActivity builds a bar of total units, or a spinner when total is
// unknown (-1). Progress always goes to stderr unless redirected.
func newActivity(total int64, description string, opts []ProgressOption, extra ...progressbar.Option) activity {
	c := progressConfig{out: os.Stderr}
	for _, opt := range opts {
		opt(&c)
	}
	a := activity{started: time.Now()}
	if c.quiet {
		return a
	}

	base := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
	}
	a.bar = progressbar.NewOptions64(total, append(base, extra...)...)
	return a
}

func (a *activity) Finish() {
	if a.bar != nil {
		_ = a.bar.Finish()
	}
}

func (a *activity) Duration() time.Duration {
	return time.Since(a.started)
}

// Spinner shows work of unknown length with a changing description.
type Spinner struct {
	activity
}

func NewSpinner(description string, opts ...ProgressOption) *Spinner {
	return &Spinner{newActivity(-1, description, opts, progressbar.OptionSpinnerType(14))}
}

func (s *Spinner) Update(description string) {
	if s.bar == nil {
		return
	}
	s.bar.Describe(description)
	_ = s.bar.Add(1)
}

// ByteProgress is an io.Writer that advances a byte bar. Tee an upload
// through it.
type ByteProgress struct {
	activity
	written int64
}

func NewByteProgress(total int64, description string, opts ...ProgressOption) *ByteProgress {
	if total <= 0 {
		total = -1
	}
	return &ByteProgress{activity: newActivity(total, description, opts,
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[cyan]█[reset]",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
	)}
}

func (p *ByteProgress) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.bar != nil {
		_ = p.bar.Add(len(b))
	}
	return len(b), nil
}

func (p *ByteProgress) Written() int64 {
	return p.written
}

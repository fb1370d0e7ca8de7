// Package progress provides progress reporting for long-running CLI
// operations: a generic Reporter for single operations (scans, bulk
// writes) and an mpb-based RunUI that renders one live row per task
// while a run executes.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter is the interface for reporting progress of a single
// operation. Commands hold a Reporter so silent and interactive modes
// share one code path.
type Reporter interface {
	// Start begins a new operation. A non-positive total renders an
	// indeterminate spinner instead of a bar.
	Start(total int64, description string)
	Update(current int64)
	Finish()
	Error(err error)
	SetDescription(desc string)
}

// CLIProgress implements Reporter on a terminal using progressbar.
// Set Bytes before Start to format counts as byte sizes.
type CLIProgress struct {
	Bytes bool

	out io.Writer
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a progress reporter writing to stderr.
func NewCLIProgress() *CLIProgress {
	return &CLIProgress{out: os.Stderr}
}

// NewCLIProgressTo creates a progress reporter writing to w.
func NewCLIProgressTo(w io.Writer) *CLIProgress {
	return &CLIProgress{out: w}
}

// Start initializes the bar with a total and description.
func (p *CLIProgress) Start(total int64, description string) {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100 * time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.out, "\n")
		}),
	}
	if total > 0 {
		opts = append(opts, progressbar.OptionSetRenderBlankState(true))
	} else {
		total = -1
		opts = append(opts, progressbar.OptionShowCount())
	}
	if p.Bytes {
		opts = append(opts, progressbar.OptionShowBytes(true))
	}
	p.bar = progressbar.NewOptions64(total, opts...)
}

// Update moves the bar to an absolute position.
func (p *CLIProgress) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish completes the bar and releases the line.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error prints a failure below the bar.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		fmt.Fprintf(p.out, "\nError: %v\n", err)
	}
}

// SetDescription replaces the label while running.
func (p *CLIProgress) SetDescription(desc string) {
	if p.bar != nil {
		p.bar.Describe(desc)
	}
}

// NoOpProgress is a Reporter that does nothing, for quiet and
// machine-readable output modes.
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

func (p *NoOpProgress) Start(total int64, description string) {}
func (p *NoOpProgress) Update(current int64)                  {}
func (p *NoOpProgress) Finish()                               {}
func (p *NoOpProgress) Error(err error)                       {}
func (p *NoOpProgress) SetDescription(desc string)            {}

// ProgressReader wraps an io.Reader and reports the cumulative number
// of bytes read to a Reporter.
type ProgressReader struct {
	reader   io.Reader
	reporter Reporter
	current  int64
}

// NewProgressReader creates a progress-reporting reader. The caller
// is expected to have called reporter.Start with the expected total.
func NewProgressReader(reader io.Reader, reporter Reporter) *ProgressReader {
	return &ProgressReader{
		reader:   reader,
		reporter: reporter,
	}
}

// Read implements io.Reader, forwarding the running byte count.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)
	pr.reporter.Update(pr.current)
	return n, err
}

package progress

import (
	"io"
	"time"
)

// RunProgress renders live task state for one run. The mpb-backed
// RunUI implements it for interactive terminals; NoOpRun keeps the
// launch path unchanged when output is suppressed.
type RunProgress interface {
	// TaskStarted adds a live row for a task that began executing
	// and returns the handle used to finish it.
	TaskStarted(id int, inputPath string) TaskBarHandle

	// Wait blocks until every task row has been completed or aborted.
	Wait()

	// Writer returns a sink that prints above the live rows without
	// corrupting them. Returns stderr when not on a terminal.
	Writer() io.Writer

	// IsTerminal reports whether live rows are actually rendered.
	IsTerminal() bool
}

// TaskBarHandle is the per-task handle returned by TaskStarted.
type TaskBarHandle interface {
	// Complete finishes the row: a ✓ summary line on success, a ✗
	// line with the failure reason otherwise.
	Complete(outputPath string, took time.Duration, err error)
}

// NoOpRun is a RunProgress that renders nothing.
type NoOpRun struct{}

// NewNoOpRun creates a run renderer that discards everything.
func NewNoOpRun() *NoOpRun {
	return &NoOpRun{}
}

func (*NoOpRun) TaskStarted(id int, inputPath string) TaskBarHandle { return noOpTaskBar{} }
func (*NoOpRun) Wait()                                              {}
func (*NoOpRun) Writer() io.Writer                                  { return io.Discard }
func (*NoOpRun) IsTerminal() bool                                   { return false }

type noOpTaskBar struct{}

func (noOpTaskBar) Complete(outputPath string, took time.Duration, err error) {}

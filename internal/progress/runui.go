package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/veldtlabs/fsdrill/internal/constants"
)

// RunUI renders one live row per task using mpb. A row appears when
// its task starts, spins while the task runs, and collapses into a
// ✓/✗ summary line when it finishes. On a non-terminal it degrades to
// plain start and finish lines on stderr.
type RunUI struct {
	progress   *mpb.Progress
	isTerminal bool
	totalTasks int
	completed  int32
	failed     int32
}

// TaskBar is the live row for a single running task.
type TaskBar struct {
	bar       *mpb.Bar
	ui        *RunUI
	id        int
	inputPath string
	started   time.Time
}

// NewRunUI creates a run renderer expecting totalTasks task rows.
func NewRunUI(totalTasks int) *RunUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		// Enable ANSI escape sequences on Windows for proper rendering
		enableANSIOnWindows(os.Stderr)

		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(constants.ProgressRefreshRate),
			mpb.WithWidth(64),
		)
	} else {
		// Non-TTY: no live rows, plain text only
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &RunUI{
		progress:   p,
		isTerminal: isTerminal,
		totalTasks: totalTasks,
	}
}

// TaskStarted adds a spinner row for a task that began executing.
func (u *RunUI) TaskStarted(id int, inputPath string) TaskBarHandle {
	tb := &TaskBar{
		ui:        u,
		id:        id,
		inputPath: inputPath,
		started:   time.Now(),
	}

	if u.isTerminal {
		label := fmt.Sprintf("[%d/%d] %s", id, u.totalTasks, truncatePath(inputPath, 2))
		tb.bar = u.progress.New(1,
			mpb.SpinnerStyle(),
			mpb.PrependDecorators(
				decor.Name(label, decor.WCSyncSpaceR),
			),
			mpb.AppendDecorators(
				decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(os.Stderr, "Task [%d/%d] started: %s\n",
			id, u.totalTasks, truncatePath(inputPath, 2))
	}

	return tb
}

// Complete collapses the row into a summary line. A nil err counts
// the task as completed, anything else as failed.
func (t *TaskBar) Complete(outputPath string, took time.Duration, err error) {
	if err == nil {
		if t.bar != nil {
			// Mark done, trigger BarRemoveOnComplete
			t.bar.SetTotal(1, true)
		}
		atomic.AddInt32(&t.ui.completed, 1)

		t.ui.write(fmt.Sprintf("✓ task %d  %s → %s (%s)\n",
			t.id,
			truncatePath(t.inputPath, 2),
			truncatePath(outputPath, 2),
			took.Round(time.Millisecond)))
		return
	}

	if t.bar != nil {
		// A frozen spinner has nothing to show; the ✗ line carries the failure
		t.bar.Abort(true)
	}
	atomic.AddInt32(&t.ui.failed, 1)

	t.ui.write(fmt.Sprintf("✗ task %d  %s: %v\n",
		t.id, truncatePath(t.inputPath, 2), err))
}

// write prints a line above the live rows. Writing through mpb's
// writer avoids corrupting the redraw cycle.
func (u *RunUI) write(msg string) {
	if u.isTerminal && u.progress != nil {
		u.progress.Write([]byte(msg))
		return
	}
	fmt.Fprint(os.Stderr, msg)
}

// Wait blocks until all task rows have completed or aborted.
func (u *RunUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Writer returns an io.Writer that safely prints above the live rows.
func (u *RunUI) Writer() io.Writer {
	if u.progress != nil && u.isTerminal {
		return u.progress
	}
	return os.Stderr
}

// IsTerminal returns whether live rows are rendered.
func (u *RunUI) IsTerminal() bool {
	return u.isTerminal
}

// Completed returns the number of tasks reported successful so far.
func (u *RunUI) Completed() int {
	return int(atomic.LoadInt32(&u.completed))
}

// Failed returns the number of tasks reported failed so far.
func (u *RunUI) Failed() int {
	return int(atomic.LoadInt32(&u.failed))
}

// truncatePath truncates a file path to show only the last N components
// Example: truncatePath("/a/b/c/d/file.txt", 3) → "…/c/d/file.txt"
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	relevant := parts[len(parts)-maxComponents:]
	return "…/" + strings.Join(relevant, "/")
}

// enableANSIOnWindows enables Virtual Terminal processing on Windows
// so ANSI escape sequences render. No-op elsewhere.
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}

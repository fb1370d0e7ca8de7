// Package runner launches file-copy workloads: a run is a batch of
// tasks, each reading one input file, applying a transform, and writing
// one output file in its own goroutine. Task failures are recorded on
// the task itself and never affect siblings or the caller.
package runner

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Status is a task's lifecycle state.
type Status string

const (
	TaskPending   Status = "pending"
	TaskRunning   Status = "running"
	TaskCompleted Status = "completed"
	TaskFailed    Status = "failed"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

func (s Status) String() string { return string(s) }

// Transform maps a task's input bytes to its output bytes.
type Transform func(input []byte) ([]byte, error)

// Identity returns the input unchanged. It is the default transform.
func Identity(input []byte) ([]byte, error) {
	return input, nil
}

// FileTask is one unit of work: read the input file, transform, write
// the output file. State transitions are one-way; once terminal the
// task never changes again.
type FileTask struct {
	mu sync.RWMutex

	id         int
	inputPath  string
	outputPath string

	status     Status
	reason     string
	startedAt  time.Time
	finishedAt time.Time
}

func newFileTask(id int, inputPath, outputPath string) *FileTask {
	return &FileTask{
		id:         id,
		inputPath:  inputPath,
		outputPath: outputPath,
		status:     TaskPending,
	}
}

// ID returns the task's run-unique identifier.
func (t *FileTask) ID() int { return t.id }

// InputPath returns the task's input file path.
func (t *FileTask) InputPath() string { return t.inputPath }

// OutputPath returns the task's output file path.
func (t *FileTask) OutputPath() string { return t.outputPath }

// Execute runs the task to a terminal state. Errors from reading,
// transforming or writing are recorded on the task, not returned; a
// task that is not pending is left untouched.
func (t *FileTask) Execute(transform Transform) {
	if transform == nil {
		transform = Identity
	}
	if !t.begin() {
		return
	}

	input, err := os.ReadFile(t.inputPath)
	if err != nil {
		t.fail(fmt.Sprintf("read input: %v", err))
		return
	}
	output, err := transform(input)
	if err != nil {
		t.fail(fmt.Sprintf("transform: %v", err))
		return
	}
	if err := os.WriteFile(t.outputPath, output, 0644); err != nil {
		t.fail(fmt.Sprintf("write output: %v", err))
		return
	}

	t.complete()
}

func (t *FileTask) begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != TaskPending {
		return false
	}
	t.status = TaskRunning
	t.startedAt = time.Now()
	return true
}

func (t *FileTask) fail(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return
	}
	t.status = TaskFailed
	t.reason = reason
	t.finishedAt = time.Now()
}

func (t *FileTask) complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return
	}
	t.status = TaskCompleted
	t.finishedAt = time.Now()
}

// TaskSnapshot is a point-in-time value copy of a task's state, safe to
// hold and read after the run has moved on.
type TaskSnapshot struct {
	ID         int       `json:"id"`
	InputPath  string    `json:"input_path"`
	OutputPath string    `json:"output_path"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is the task's elapsed execution time: zero before it starts,
// live while it runs, fixed once finished.
func (s TaskSnapshot) Duration() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Snapshot returns the task's current state as a value copy.
func (t *FileTask) Snapshot() TaskSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TaskSnapshot{
		ID:         t.id,
		InputPath:  t.inputPath,
		OutputPath: t.outputPath,
		Status:     t.status,
		Error:      t.reason,
		StartedAt:  t.startedAt,
		FinishedAt: t.finishedAt,
	}
}

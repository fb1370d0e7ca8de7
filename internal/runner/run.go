package runner

import (
	"context"
	"sync"
	"time"
)

// RunStats counts a run's tasks by status.
type RunStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// ThreadRun is the handle for one launched batch. The task list is
// fixed at creation: exactly the requested count, IDs 1..N in order.
type ThreadRun struct {
	id        string
	dir       string
	requested int
	startedAt time.Time
	tasks     []*FileTask

	wg   sync.WaitGroup
	done chan struct{}

	mu         sync.Mutex
	finishedAt time.Time
}

func newThreadRun(id, dir string, tasks []*FileTask) *ThreadRun {
	return &ThreadRun{
		id:        id,
		dir:       dir,
		requested: len(tasks),
		startedAt: time.Now(),
		tasks:     tasks,
		done:      make(chan struct{}),
	}
}

// ID returns the run's identifier.
func (r *ThreadRun) ID() string { return r.id }

// Dir returns the run's directory under the workspace.
func (r *ThreadRun) Dir() string { return r.dir }

// RequestedCount returns the task count the run was started with.
func (r *ThreadRun) RequestedCount() int { return r.requested }

// StartedAt returns when the run was created.
func (r *ThreadRun) StartedAt() time.Time { return r.startedAt }

// FinishedAt returns when the last task finished, or the zero time
// while tasks are still running.
func (r *ThreadRun) FinishedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishedAt
}

// Snapshots returns value copies of every task, ordered by ID. Safe to
// call at any time, including while tasks execute; two calls with no
// intervening execution return identical results.
func (r *ThreadRun) Snapshots() []TaskSnapshot {
	snaps := make([]TaskSnapshot, len(r.tasks))
	for i, t := range r.tasks {
		snaps[i] = t.Snapshot()
	}
	return snaps
}

// Stats counts tasks by status.
func (r *ThreadRun) Stats() RunStats {
	stats := RunStats{Total: len(r.tasks)}
	for _, t := range r.tasks {
		switch t.Snapshot().Status {
		case TaskPending:
			stats.Pending++
		case TaskRunning:
			stats.Running++
		case TaskCompleted:
			stats.Completed++
		case TaskFailed:
			stats.Failed++
		}
	}
	return stats
}

// Done returns a channel closed once every task has finished.
func (r *ThreadRun) Done() <-chan struct{} { return r.done }

// Finished reports whether every task has finished.
func (r *ThreadRun) Finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until every task has finished or ctx is done. Cancelling
// the context abandons the wait only; tasks always run to completion.
func (r *ThreadRun) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish stamps the completion time and releases Done waiters. Called
// exactly once, after the last task finishes.
func (r *ThreadRun) finish() {
	r.mu.Lock()
	r.finishedAt = time.Now()
	r.mu.Unlock()
	close(r.done)
}

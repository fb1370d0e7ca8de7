package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/veldtlabs/fsdrill/internal/constants"
	"github.com/veldtlabs/fsdrill/internal/events"
	"github.com/veldtlabs/fsdrill/internal/logging"
)

// ErrInvalidConfiguration indicates a launch request that cannot
// produce a run, such as a non-positive task count.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Seeder produces the content a task's input file is pre-populated
// with when the file does not exist yet.
type Seeder func(taskID int) []byte

func defaultSeed(taskID int) []byte {
	return []byte(fmt.Sprintf("Data from thread %d\n", taskID))
}

// ThreadRunner launches runs in a workspace directory. Each run gets
// its own subdirectory, so concurrent runs never share files.
//
// Configure transform and seeder before the first Start; the runner
// does not guard its own setters.
type ThreadRunner struct {
	workspace string
	bus       *events.EventBus
	log       *logging.Logger

	transform Transform
	seeder    Seeder
}

// New creates a runner rooted at workspace. The bus may be nil when no
// one listens; a nil logger falls back to the console logger.
func New(workspace string, bus *events.EventBus, log *logging.Logger) *ThreadRunner {
	if log == nil {
		log = logging.NewDefaultLogger()
	}
	return &ThreadRunner{
		workspace: workspace,
		bus:       bus,
		log:       log,
		transform: Identity,
		seeder:    defaultSeed,
	}
}

// SetTransform replaces the per-task transform. Nil restores Identity.
func (r *ThreadRunner) SetTransform(fn Transform) {
	if fn == nil {
		fn = Identity
	}
	r.transform = fn
}

// SetSeeder replaces the input seeder. Nil restores the default.
func (r *ThreadRunner) SetSeeder(fn Seeder) {
	if fn == nil {
		fn = defaultSeed
	}
	r.seeder = fn
}

// Start launches count tasks and returns the run handle immediately;
// it never blocks on task completion. Tasks get IDs 1..count with
// input/output files named by ID inside a fresh run directory, inputs
// seeded on disk (existing files kept) before the first task launches.
// One goroutine runs each task; there is no pool, no retry and no
// cancellation. A non-positive count creates nothing and returns an
// error wrapping ErrInvalidConfiguration.
func (r *ThreadRunner) Start(count int) (*ThreadRun, error) {
	if count <= 0 {
		return nil, fmt.Errorf("task count must be positive, got %d: %w", count, ErrInvalidConfiguration)
	}

	runID := uuid.NewString()
	dir := filepath.Join(r.workspace, constants.RunDirPrefix+runID[:constants.RunIDLength])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	tasks := make([]*FileTask, count)
	for i := range tasks {
		id := i + 1
		input := filepath.Join(dir, taskFileName(constants.TaskInputPrefix, id))
		output := filepath.Join(dir, taskFileName(constants.TaskOutputPrefix, id))
		tasks[i] = newFileTask(id, input, output)
	}

	// Inputs exist on disk before any task launches.
	for _, t := range tasks {
		if _, err := os.Stat(t.inputPath); err == nil {
			continue
		}
		if err := os.WriteFile(t.inputPath, r.seeder(t.id), 0644); err != nil {
			r.log.Warn().Err(err).Str("path", t.inputPath).Msg("failed to seed task input")
		}
	}

	run := newThreadRun(runID, dir, tasks)

	r.log.Info().
		Str("run_id", run.id).
		Str("dir", dir).
		Int("tasks", count).
		Msg("starting run")
	r.publish(&events.RunStartedEvent{
		BaseEvent: base(events.EventRunStarted),
		RunID:     run.id,
		Dir:       dir,
		TaskCount: count,
	})

	run.wg.Add(count)
	for _, t := range tasks {
		go r.runTask(run, t)
	}
	go r.watchCompletion(run)

	return run, nil
}

func (r *ThreadRunner) runTask(run *ThreadRun, t *FileTask) {
	defer run.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			t.fail(fmt.Sprintf("panic: %v", rec))
			r.finishTask(run, t)
		}
	}()

	r.publish(&events.TaskStartedEvent{
		BaseEvent:  base(events.EventTaskStarted),
		RunID:      run.id,
		TaskID:     t.id,
		InputPath:  t.inputPath,
		OutputPath: t.outputPath,
	})

	t.Execute(r.transform)
	r.finishTask(run, t)
}

func (r *ThreadRunner) finishTask(run *ThreadRun, t *FileTask) {
	snap := t.Snapshot()
	failed := snap.Status == TaskFailed
	if failed {
		r.log.Warn().
			Str("run_id", run.id).
			Int("task_id", t.id).
			Str("reason", snap.Error).
			Msg("task failed")
	} else {
		r.log.Debug().
			Str("run_id", run.id).
			Int("task_id", t.id).
			Dur("took", snap.Duration()).
			Msg("task completed")
	}
	r.publish(&events.TaskFinishedEvent{
		BaseEvent:  base(events.EventTaskFinished),
		RunID:      run.id,
		TaskID:     t.id,
		OutputPath: t.outputPath,
		Failed:     failed,
		Error:      snap.Error,
		Duration:   snap.Duration(),
	})
}

func (r *ThreadRunner) watchCompletion(run *ThreadRun) {
	run.wg.Wait()
	run.finish()

	stats := run.Stats()
	took := run.FinishedAt().Sub(run.startedAt)
	r.log.Info().
		Str("run_id", run.id).
		Int("completed", stats.Completed).
		Int("failed", stats.Failed).
		Dur("took", took).
		Msg("run finished")
	r.publish(&events.RunFinishedEvent{
		BaseEvent: base(events.EventRunFinished),
		RunID:     run.id,
		Completed: stats.Completed,
		Failed:    stats.Failed,
		Duration:  took,
	})
}

func (r *ThreadRunner) publish(e events.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}

func base(t events.EventType) events.BaseEvent {
	return events.BaseEvent{EventType: t, Time: time.Now()}
}

func taskFileName(prefix string, id int) string {
	return fmt.Sprintf("%s%d%s", prefix, id, constants.TaskFileExt)
}

package runner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTaskStartsPending(t *testing.T) {
	task := newFileTask(1, "in.txt", "out.txt")

	snap := task.Snapshot()
	if snap.Status != TaskPending {
		t.Errorf("status = %s, want pending", snap.Status)
	}
	if !snap.StartedAt.IsZero() || !snap.FinishedAt.IsZero() {
		t.Errorf("fresh task has timestamps: %+v", snap)
	}
	if snap.Duration() != 0 {
		t.Errorf("Duration = %v, want 0", snap.Duration())
	}
}

func TestTaskExecuteIdentity(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	output := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(input, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}

	task := newFileTask(1, input, output)
	task.Execute(nil)

	snap := task.Snapshot()
	if snap.Status != TaskCompleted {
		t.Fatalf("status = %s (%s), want completed", snap.Status, snap.Error)
	}
	if snap.Error != "" {
		t.Errorf("Error = %q, want empty", snap.Error)
	}
	if snap.StartedAt.IsZero() || snap.FinishedAt.IsZero() {
		t.Errorf("timestamps not recorded: %+v", snap)
	}
	if snap.FinishedAt.Before(snap.StartedAt) {
		t.Errorf("finished %v before started %v", snap.FinishedAt, snap.StartedAt)
	}

	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("output = %q, want %q", got, "payload")
	}
}

func TestTaskMissingInputFails(t *testing.T) {
	dir := t.TempDir()
	task := newFileTask(1, filepath.Join(dir, "absent.txt"), filepath.Join(dir, "out.txt"))

	task.Execute(nil)

	snap := task.Snapshot()
	if snap.Status != TaskFailed {
		t.Fatalf("status = %s, want failed", snap.Status)
	}
	if !strings.Contains(snap.Error, "read input") {
		t.Errorf("Error = %q, want read-input reason", snap.Error)
	}
	if snap.FinishedAt.IsZero() {
		t.Error("failed task has no finish timestamp")
	}
	if _, err := os.Stat(task.outputPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output written despite failure: %v", err)
	}
}

func TestTaskTransformErrorFails(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(input, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	task := newFileTask(1, input, filepath.Join(dir, "out.txt"))
	task.Execute(func([]byte) ([]byte, error) { return nil, errors.New("boom") })

	snap := task.Snapshot()
	if snap.Status != TaskFailed {
		t.Fatalf("status = %s, want failed", snap.Status)
	}
	if !strings.Contains(snap.Error, "transform") || !strings.Contains(snap.Error, "boom") {
		t.Errorf("Error = %q", snap.Error)
	}
}

func TestTaskTerminalStateIsImmutable(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(input, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	task := newFileTask(1, input, filepath.Join(dir, "out.txt"))
	task.Execute(nil)
	first := task.Snapshot()
	if first.Status != TaskCompleted {
		t.Fatalf("status = %s", first.Status)
	}

	// Re-execution and late transitions are no-ops.
	task.Execute(func([]byte) ([]byte, error) { return nil, errors.New("late") })
	task.fail("late failure")
	task.complete()

	second := task.Snapshot()
	if second != first {
		t.Errorf("terminal task changed:\nbefore %+v\nafter  %+v", first, second)
	}
}

func TestTaskFailureLeavesSiblingAlone(t *testing.T) {
	dir := t.TempDir()
	goodInput := filepath.Join(dir, "in2.txt")
	if err := os.WriteFile(goodInput, []byte("second task data"), 0644); err != nil {
		t.Fatal(err)
	}

	broken := newFileTask(1, filepath.Join(dir, "gone.txt"), filepath.Join(dir, "out1.txt"))
	healthy := newFileTask(2, goodInput, filepath.Join(dir, "out2.txt"))

	done := make(chan struct{}, 2)
	go func() { broken.Execute(nil); done <- struct{}{} }()
	go func() { healthy.Execute(nil); done <- struct{}{} }()
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("tasks did not finish")
		}
	}

	if got := broken.Snapshot().Status; got != TaskFailed {
		t.Errorf("broken task = %s, want failed", got)
	}
	sibling := healthy.Snapshot()
	if sibling.Status != TaskCompleted {
		t.Errorf("healthy task = %s (%s), want completed", sibling.Status, sibling.Error)
	}
	out, err := os.ReadFile(healthy.outputPath)
	if err != nil {
		t.Fatalf("read sibling output: %v", err)
	}
	if string(out) != "second task data" {
		t.Errorf("sibling output = %q", out)
	}
}

func TestSnapshotDuration(t *testing.T) {
	snap := TaskSnapshot{
		StartedAt:  time.Now().Add(-3 * time.Second),
		FinishedAt: time.Now().Add(-1 * time.Second),
	}
	got := snap.Duration()
	if got < 1900*time.Millisecond || got > 2100*time.Millisecond {
		t.Errorf("Duration = %v, want ~2s", got)
	}

	running := TaskSnapshot{StartedAt: time.Now().Add(-time.Second)}
	if running.Duration() < 900*time.Millisecond {
		t.Errorf("running Duration = %v, want at least ~1s", running.Duration())
	}
}

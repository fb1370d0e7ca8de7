// Package cli provides the launch command.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/veldtlabs/fsdrill/internal/constants"
	"github.com/veldtlabs/fsdrill/internal/diskspace"
	"github.com/veldtlabs/fsdrill/internal/events"
	"github.com/veldtlabs/fsdrill/internal/notify"
	"github.com/veldtlabs/fsdrill/internal/progress"
	"github.com/veldtlabs/fsdrill/internal/runner"
	"github.com/veldtlabs/fsdrill/internal/script"
	"github.com/veldtlabs/fsdrill/internal/vdisk"
)

// newLaunchCmd creates the 'launch' command.
func newLaunchCmd() *cobra.Command {
	var (
		taskCount  int
		scriptMode bool
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Start a run of concurrent file tasks",
		Long: `Launch a run of concurrent file tasks.

Every task gets its own thread_input_<id>.txt seeded on disk before
anything starts, then a goroutine reads it, transforms it, and writes
thread_output_<id>.txt. The default transform copies the input through
unchanged. With --script each input holds a command script that runs
against the shared virtual disk, and the output captures the result
line of every command.

A failing task never stops its siblings; the run always finishes and
the final table shows each task's outcome.

Examples:
  # Run with the configured default task count
  fsdrill launch

  # Run 8 copy tasks
  fsdrill launch --tasks 8

  # Run script tasks against the virtual disk
  fsdrill launch --tasks 3 --script

  # Machine-readable results
  fsdrill launch -n 4 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			ctx := GetContext()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ws, err := resolveWorkspace(cfg)
			if err != nil {
				return err
			}

			count := taskCount
			if count == 0 {
				count = cfg.Runner.DefaultTasks
			}
			// Typo protection for interactive use; non-positive counts
			// flow through so the runner's own validation answers.
			if count > constants.MaxTaskCount {
				return fmt.Errorf("--tasks must be at most %d, got %d", constants.MaxTaskCount, count)
			}

			bus := events.NewEventBus(constants.EventBusDefaultBuffer)
			r := runner.New(ws, bus, logger)

			if scriptMode || cfg.Runner.ScriptMode {
				disk, err := vdisk.Open(vdisk.Options{
					Dir:          ws,
					DataFile:     cfg.Disk.DataFile,
					MetadataFile: cfg.Disk.MetadataFile,
					Capacity:     cfg.Disk.Capacity,
				})
				if err != nil {
					// The space error already names the paths and sizes.
					if diskspace.IsInsufficientSpaceError(err) {
						return err
					}
					return fmt.Errorf("failed to open virtual disk: %w", err)
				}
				defer disk.Close()

				interp := script.NewInterpreter(disk)
				r.SetTransform(interp.Transform)
				r.SetSeeder(func(taskID int) []byte {
					return []byte(script.DefaultScript(taskID))
				})
			}

			var ui progress.RunProgress = progress.NewRunUI(count)
			if outputJSON || quiet {
				ui = progress.NewNoOpRun()
			}

			ch := bus.SubscribeAll()
			runCh := make(chan *runner.ThreadRun, 1)
			uiDone := make(chan struct{})
			go driveRunUI(ui, ch, runCh, uiDone)

			run, err := r.Start(count)
			runCh <- run
			if err != nil {
				bus.Close()
				<-uiDone
				return err
			}

			interrupted := false
			if err := run.Wait(ctx); err != nil {
				interrupted = true
				fmt.Fprintln(os.Stderr, "\nInterrupted: reporting current task states. Tasks are never cancelled mid-flight.")
			}

			bus.Close()
			<-uiDone
			ui.Wait()

			snaps := run.Snapshots()
			stats := run.Stats()
			took := run.FinishedAt().Sub(run.StartedAt())
			if run.FinishedAt().IsZero() {
				took = time.Since(run.StartedAt())
			}

			if outputJSON {
				data, err := json.MarshalIndent(snaps, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal snapshots: %w", err)
				}
				fmt.Println(string(data))
			} else if !quiet {
				printRunTable(run, snaps)
				fmt.Printf("\n%d completed, %d failed of %d task(s) in %s\n",
					stats.Completed, stats.Failed, stats.Total, took.Round(time.Millisecond))
			}

			if !interrupted {
				notifier := notify.NewNotifier(&notify.Config{
					Enabled:    cfg.Notifications.Enabled,
					OnComplete: cfg.Notifications.OnComplete,
					OnFailure:  cfg.Notifications.OnFailure,
				}, logger)
				if stats.Failed > 0 {
					notifier.RunFailed(run.Dir(), stats.Failed, stats.Total, firstFailure(snaps))
				} else {
					notifier.RunComplete(run.Dir(), stats.Completed, took)
				}
			}

			if interrupted {
				return fmt.Errorf("interrupted before the run finished")
			}
			if stats.Failed > 0 {
				return fmt.Errorf("%d of %d task(s) failed", stats.Failed, stats.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&taskCount, "tasks", "n", 0, "Number of tasks to launch (0 = default_tasks from config)")
	cmd.Flags().BoolVar(&scriptMode, "script", false, "Run command scripts against the virtual disk")
	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Print final task snapshots as JSON")

	return cmd
}

// driveRunUI consumes run events and keeps the live task rows current.
// When the bus closes it settles any rows whose finish event was
// dropped, so ui.Wait can never hang on a live bar.
func driveRunUI(ui progress.RunProgress, ch <-chan events.Event, runCh <-chan *runner.ThreadRun, done chan<- struct{}) {
	defer close(done)

	bars := make(map[int]progress.TaskBarHandle)
	for ev := range ch {
		switch e := ev.(type) {
		case *events.TaskStartedEvent:
			bars[e.TaskID] = ui.TaskStarted(e.TaskID, e.InputPath)
		case *events.TaskFinishedEvent:
			bar, ok := bars[e.TaskID]
			if !ok {
				continue
			}
			delete(bars, e.TaskID)
			var taskErr error
			if e.Failed {
				taskErr = errors.New(e.Error)
			}
			bar.Complete(e.OutputPath, e.Duration, taskErr)
		}
	}

	run := <-runCh
	if run == nil || len(bars) == 0 {
		return
	}
	snaps := run.Snapshots()
	for id, bar := range bars {
		if id < 1 || id > len(snaps) {
			continue
		}
		snap := snaps[id-1]
		switch snap.Status {
		case runner.TaskCompleted:
			bar.Complete(snap.OutputPath, snap.Duration(), nil)
		case runner.TaskFailed:
			bar.Complete(snap.OutputPath, snap.Duration(), errors.New(snap.Error))
		default:
			bar.Complete(snap.OutputPath, snap.Duration(), errors.New("interrupted"))
		}
	}
}

// printRunTable renders the final status of every task in a run.
func printRunTable(run *runner.ThreadRun, snaps []runner.TaskSnapshot) {
	fmt.Printf("\nRun %s\n", run.ID())
	fmt.Printf("Directory: %s\n\n", run.Dir())

	inW, outW := len("INPUT"), len("OUTPUT")
	for _, s := range snaps {
		if n := len(filepath.Base(s.InputPath)); n > inW {
			inW = n
		}
		if n := len(filepath.Base(s.OutputPath)); n > outW {
			outW = n
		}
	}

	fmt.Printf("  %4s  %-9s  %-*s  %-*s  %s\n", "ID", "STATUS", inW, "INPUT", outW, "OUTPUT", "DURATION")
	for _, s := range snaps {
		line := fmt.Sprintf("  %4d  %-9s  %-*s  %-*s  %8s",
			s.ID, s.Status, inW, filepath.Base(s.InputPath), outW, filepath.Base(s.OutputPath),
			s.Duration().Round(time.Millisecond))
		if s.Error != "" {
			line += "  " + s.Error
		}
		fmt.Println(line)
	}
}

// firstFailure returns the first recorded task error, for the
// notification body.
func firstFailure(snaps []runner.TaskSnapshot) string {
	for _, s := range snaps {
		if s.Error != "" {
			return s.Error
		}
	}
	return ""
}

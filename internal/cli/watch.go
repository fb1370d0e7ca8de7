// Package cli provides the workspace watch command.
package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/veldtlabs/fsdrill/internal/constants"
	"github.com/veldtlabs/fsdrill/internal/events"
	"github.com/veldtlabs/fsdrill/internal/localfs"
)

// newFSWatchCmd creates the 'fs watch' command.
func newFSWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Watch directories and report batched changes",
		Long: `Watch one or more workspace directories for file changes. Rapid
changes are debounced into batches, one report per window per root.
Runs until interrupted.

Examples:
  # Watch the workspace
  fsdrill fs watch

  # Watch two run directories with a longer batching window
  fsdrill fs watch run-1a2b3c4d run-5e6f7a8b --debounce 2s`,
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

			roots := args
			if len(roots) == 0 {
				roots = []string{ws}
			}

			bus := events.NewEventBus(constants.EventBusDefaultBuffer)
			defer bus.Close()
			ch := bus.Subscribe(events.EventFSChanged)

			watcher, err := localfs.NewWatcher(func(root string, changed []string) {
				bus.Publish(&events.FSChangedEvent{
					BaseEvent: events.BaseEvent{EventType: events.EventFSChanged, Time: time.Now()},
					Root:      root,
					Paths:     changed,
				})
			})
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer watcher.Stop()
			watcher.SetDebounce(debounce)

			for _, r := range roots {
				abs, err := fsPath(ws, r)
				if err != nil {
					return err
				}
				if err := watcher.AddRoot(abs); err != nil {
					return err
				}
				fmt.Printf("Watching %s\n", abs)
			}
			watcher.Start(ctx)

			logger.Info().Int("roots", len(roots)).Dur("debounce", debounce).Msg("watching for changes")
			fmt.Println("Press Ctrl+C to stop.")

			for {
				select {
				case <-ctx.Done():
					fmt.Println("\nStopped watching.")
					return nil
				case ev := <-ch:
					batch, ok := ev.(*events.FSChangedEvent)
					if !ok {
						continue
					}
					printChangeBatch(batch)
				}
			}
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", constants.WatchDebounce, "Window for batching rapid changes")

	return cmd
}

// printChangeBatch renders one debounced batch of changes.
func printChangeBatch(batch *events.FSChangedEvent) {
	fmt.Printf("[%s] %d change%s under %s\n",
		batch.Time.Format("15:04:05"), len(batch.Paths), plural(len(batch.Paths), "", "s"), batch.Root)
	for _, p := range batch.Paths {
		rel, err := filepath.Rel(batch.Root, p)
		if err != nil {
			rel = p
		}
		fmt.Printf("  %s\n", rel)
	}
}

// Package cli provides the workspace snapshot command.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/veldtlabs/fsdrill/internal/localfs"
	"github.com/veldtlabs/fsdrill/internal/memmap"
	"github.com/veldtlabs/fsdrill/internal/progress"
	"github.com/veldtlabs/fsdrill/internal/util/filter"
)

// largestShown bounds the "largest files" section of the default view.
const largestShown = 10

// newFSMapCmd creates the 'fs map' command.
func newFSMapCmd() *cobra.Command {
	var (
		outputPath  string
		showAll     bool
		showHidden  bool
		workers     int
		includeStr  string
		excludeStr  string
		searchTerms []string
	)

	cmd := &cobra.Command{
		Use:   "map [path]",
		Short: "Snapshot a directory tree with sizes and totals",
		Long: `Take a point-in-time snapshot of a directory tree: every entry with
its size and kind, plus totals and host disk statistics. Top-level
subtrees are scanned concurrently.

Examples:
  # Snapshot the workspace
  fsdrill fs map

  # Snapshot a run directory, listing every entry
  fsdrill fs map run-1a2b3c4d --all

  # Export for later comparison
  fsdrill fs map --output snapshot.json
  fsdrill fs map --output snapshot.yaml

  # Only task outputs, skipping logs
  fsdrill fs map --include 'run-*/thread_output_*' --exclude '*.log'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ws, err := resolveWorkspace(cfg)
			if err != nil {
				return err
			}

			root := ws
			if len(args) == 1 {
				if root, err = fsPath(ws, args[0]); err != nil {
					return err
				}
			}

			scanWorkers := workers
			if scanWorkers == 0 {
				scanWorkers = cfg.Scan.Workers
			}

			// Plain globs filter by name; ** patterns need the
			// path-aware matcher.
			flt := filter.Config{
				Exclude: filter.ParsePatternList(excludeStr),
				Search:  searchTerms,
			}
			for _, p := range filter.ParsePatternList(includeStr) {
				if strings.Contains(p, "**") {
					flt.PathInclude = append(flt.PathInclude, p)
				} else {
					flt.Include = append(flt.Include, p)
				}
			}

			var rep progress.Reporter = progress.NewNoOpProgress()
			if term.IsTerminal(int(os.Stderr.Fd())) && !quiet {
				rep = progress.NewCLIProgress()
			}
			rep.Start(-1, "Scanning "+root)

			opts := memmap.Options{
				IncludeHidden: showHidden || cfg.Scan.IncludeHidden,
				Workers:       scanWorkers,
				Progress:      func(scanned int64) { rep.Update(scanned) },
			}
			if !flt.Empty() {
				opts.Match = flt.Matches
			}

			snap, err := memmap.Scan(GetContext(), root, opts)
			rep.Finish()
			if err != nil {
				return err
			}

			if outputPath != "" {
				if err := memmap.Export(snap, outputPath); err != nil {
					return err
				}
				fmt.Printf("✓ Snapshot of %s written to %s (%d entries)\n",
					snap.Root, outputPath, len(snap.Entries))
				return nil
			}

			printSnapshot(snap, showAll)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the snapshot to a .json or .yaml file instead of rendering it")
	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "List every entry instead of the largest files")
	cmd.Flags().BoolVar(&showHidden, "hidden", false, "Include hidden entries")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent scan workers (0 = workers from config)")
	cmd.Flags().StringVar(&includeStr, "include", "", "Only include files matching these comma-separated glob patterns (** matches across directories)")
	cmd.Flags().StringVar(&excludeStr, "exclude", "", "Exclude files matching these comma-separated glob patterns")
	cmd.Flags().StringSliceVar(&searchTerms, "find", nil, "Only include files whose path contains every given term")

	return cmd
}

// printSnapshot renders totals plus either the largest files or, with
// all set, every entry in path order.
func printSnapshot(snap *memmap.Snapshot, all bool) {
	fmt.Printf("Snapshot of %s (taken %s)\n\n", snap.Root, snap.TakenAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Files:       %d\n", snap.TotalFiles)
	fmt.Printf("  Directories: %d\n", snap.TotalDirs)
	fmt.Printf("  Total size:  %s\n", humanize.Bytes(uint64(snap.TotalBytes)))
	if snap.Disk.TotalBytes > 0 {
		fmt.Printf("  Host disk:   %s available of %s\n",
			humanize.Bytes(uint64(snap.Disk.AvailableBytes)),
			humanize.Bytes(uint64(snap.Disk.TotalBytes)))
	}

	if len(snap.Entries) == 0 {
		return
	}

	if all {
		fmt.Printf("\nEntries:\n")
		pathW := 0
		for _, e := range snap.Entries {
			if len(e.Path) > pathW {
				pathW = len(e.Path)
			}
		}
		for _, e := range snap.Entries {
			size := "-"
			if e.Kind != localfs.KindDir {
				size = humanize.Bytes(uint64(e.Size))
			}
			fmt.Printf("  %-*s  %-8s  %10s\n", pathW, e.Path, e.Kind, size)
		}
		return
	}

	files := make([]memmap.Entry, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		if e.Kind != localfs.KindDir {
			files = append(files, e)
		}
	}
	if len(files) == 0 {
		return
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Size != files[j].Size {
			return files[i].Size > files[j].Size
		}
		return files[i].Path < files[j].Path
	})
	if len(files) > largestShown {
		files = files[:largestShown]
	}

	fmt.Printf("\nLargest files:\n")
	for _, e := range files {
		fmt.Printf("  %10s  %s\n", humanize.Bytes(uint64(e.Size)), e.Path)
	}
}

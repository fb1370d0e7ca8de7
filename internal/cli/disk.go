// Package cli provides virtual disk commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/veldtlabs/fsdrill/internal/config"
	"github.com/veldtlabs/fsdrill/internal/constants"
	"github.com/veldtlabs/fsdrill/internal/progress"
	"github.com/veldtlabs/fsdrill/internal/vdisk"
)

// newDiskCmd creates the 'disk' command group.
func newDiskCmd() *cobra.Command {
	diskCmd := &cobra.Command{
		Use:   "disk",
		Short: "Virtual disk operations",
		Long: `Commands for the virtual disk: a byte-addressed data file plus a
JSON metadata document living in the workspace. Files get contiguous
extents from a best-fit allocator; names are unique across the whole
disk regardless of directory.

The backing file names and capacity come from the [disk] config
section.`,
	}

	diskCmd.AddCommand(newDiskInitCmd())
	diskCmd.AddCommand(newDiskCreateCmd())
	diskCmd.AddCommand(newDiskMkdirCmd())
	diskCmd.AddCommand(newDiskDeleteCmd())
	diskCmd.AddCommand(newDiskMoveCmd())
	diskCmd.AddCommand(newDiskWriteCmd())
	diskCmd.AddCommand(newDiskReadCmd())
	diskCmd.AddCommand(newDiskTruncateCmd())
	diskCmd.AddCommand(newDiskListCmd())
	diskCmd.AddCommand(newDiskMapCmd())

	return diskCmd
}

// openDisk opens the workspace's virtual disk using the [disk] config.
func openDisk(cfg *config.Config) (*vdisk.Disk, error) {
	ws, err := resolveWorkspace(cfg)
	if err != nil {
		return nil, err
	}
	return vdisk.Open(vdisk.Options{
		Dir:          ws,
		DataFile:     cfg.Disk.DataFile,
		MetadataFile: cfg.Disk.MetadataFile,
		Capacity:     cfg.Disk.Capacity,
	})
}

// newDiskInitCmd creates the 'disk init' command.
func newDiskInitCmd() *cobra.Command {
	var capacity int64

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or open the workspace's virtual disk",
		Long: `Create the virtual disk backing files in the workspace, or open the
existing ones. An existing disk keeps its recorded capacity; --capacity
only sizes a fresh disk.

Examples:
  # Default capacity from config
  fsdrill disk init

  # A fresh 64 KiB disk
  fsdrill disk init --capacity 65536`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if capacity > 0 {
				if capacity < constants.DiskMinCapacity || capacity > constants.DiskMaxCapacity {
					return fmt.Errorf("--capacity must be between %d and %d bytes, got %d",
						constants.DiskMinCapacity, constants.DiskMaxCapacity, capacity)
				}
				cfg.Disk.Capacity = capacity
			}

			d, err := openDisk(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			m, err := d.MemoryMap()
			if err != nil {
				return err
			}

			ws, _ := resolveWorkspace(cfg)
			fmt.Printf("✓ Virtual disk ready at %s\n", ws)
			fmt.Printf("  Backing:  %s + %s\n", cfg.Disk.DataFile, cfg.Disk.MetadataFile)
			fmt.Printf("  Capacity: %s\n", humanize.Bytes(uint64(m.TotalSize)))
			fmt.Printf("  In use:   %s (%d file%s)\n",
				humanize.Bytes(uint64(m.UsedSize)), len(m.Files), plural(len(m.Files), "", "s"))
			if capacity > 0 && m.TotalSize != capacity {
				fmt.Printf("  Note: existing disk found, keeping its recorded capacity\n")
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&capacity, "capacity", 0, "Capacity in bytes for a fresh disk (0 = capacity from config)")

	return cmd
}

// newDiskCreateCmd creates the 'disk create' command.
func newDiskCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty file on the virtual disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := openDisk(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Create(args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Created %s\n", args[0])
			return nil
		},
	}

	return cmd
}

// newDiskMkdirCmd creates the 'disk mkdir' command.
func newDiskMkdirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a directory on the virtual disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := openDisk(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Mkdir(args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Created directory %s\n", args[0])
			return nil
		},
	}

	return cmd
}

// newDiskDeleteCmd creates the 'disk delete' command.
func newDiskDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a file from the virtual disk",
		Long: `Delete a virtual disk file and release its extent. Open files
cannot be deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := openDisk(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted %s\n", args[0])
			return nil
		},
	}

	return cmd
}

// newDiskMoveCmd creates the 'disk move' command.
func newDiskMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <name> <dir>",
		Short: "Move a virtual disk file to another directory",
		Long: `Move a file into a directory on the virtual disk. Missing
directories along the target path are created. Only the directory
membership changes; the file's extent stays where it is.

Examples:
  fsdrill disk move report.txt /archive
  fsdrill disk move report.txt archive/2026`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := openDisk(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Move(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("✓ Moved %s → %s\n", args[0], args[1])
			return nil
		},
	}

	return cmd
}

// newDiskWriteCmd creates the 'disk write' command.
func newDiskWriteCmd() *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "write <name> [text...]",
		Short: "Append text to a virtual disk file",
		Long: `Open a virtual disk file in write mode, append to it, and close it.
The file is created if it does not exist. Content comes from the
arguments or, with --from, from a host file.

Examples:
  fsdrill disk write notes.txt "first line"
  fsdrill disk write blob.bin --from ./seed.dat`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if fromFile == "" && len(args) < 2 {
				return fmt.Errorf("provide text arguments or --from <file>")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := openDisk(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			var text string
			if fromFile != "" {
				text, err = readHostFile(fromFile)
				if err != nil {
					return err
				}
			} else {
				text = strings.Join(args[1:], " ")
			}

			f, err := d.OpenFile(name, vdisk.ModeWrite)
			if err != nil {
				return err
			}
			if err := f.Write(text); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Printf("✓ Wrote %s to %s\n", humanize.Bytes(uint64(len(text))), name)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFile, "from", "", "Read the content from a host file")

	return cmd
}

// readHostFile reads a host file with byte progress on a terminal.
func readHostFile(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return "", err
	}

	var rep progress.Reporter = progress.NewNoOpProgress()
	if term.IsTerminal(int(os.Stderr.Fd())) && !quiet {
		cli := progress.NewCLIProgress()
		cli.Bytes = true
		rep = cli
	}
	rep.Start(info.Size(), "Reading "+path)

	data, err := io.ReadAll(progress.NewProgressReader(fh, rep))
	rep.Finish()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// newDiskReadCmd creates the 'disk read' command.
func newDiskReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <name>",
		Short: "Print a virtual disk file's contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := openDisk(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			f, err := d.OpenFile(args[0], vdisk.ModeRead)
			if err != nil {
				return err
			}
			content := f.Read()
			f.Close()

			fmt.Print(content)
			if !strings.HasSuffix(content, "\n") {
				fmt.Println()
			}
			return nil
		},
	}

	return cmd
}

// newDiskTruncateCmd creates the 'disk truncate' command.
func newDiskTruncateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "truncate <name> <size>",
		Short: "Shrink a virtual disk file to at most size bytes",
		Long: `Truncate a virtual disk file to at most size bytes, releasing the
freed tail back to the allocator. A file already at or below the size
is left alone.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid size %q: %w", args[1], err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := openDisk(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			// Probe in read mode first: write mode would create a
			// missing file instead of reporting it.
			probe, err := d.OpenFile(args[0], vdisk.ModeRead)
			if err != nil {
				return err
			}
			probe.Close()

			f, err := d.OpenFile(args[0], vdisk.ModeWrite)
			if err != nil {
				return err
			}
			if err := f.Truncate(size); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Printf("✓ Truncated %s to at most %s\n", args[0], humanize.Bytes(uint64(size)))
			return nil
		},
	}

	return cmd
}

// newDiskListCmd creates the 'disk list' command.
func newDiskListCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "List a virtual disk directory",
		Long: `List a virtual disk directory, subdirectories first, in creation
order. Without an argument the root is listed.

Examples:
  fsdrill disk list
  fsdrill disk list /archive`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := openDisk(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			if len(args) == 1 {
				if err := d.Chdir(args[0]); err != nil {
					return err
				}
			}

			entries, err := d.ListDirectory()
			if err != nil {
				return err
			}

			if outputJSON {
				data, err := json.MarshalIndent(entries, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			if len(entries) == 0 {
				fmt.Printf("%s is empty\n", d.CurrentPath())
				return nil
			}

			fmt.Printf("%s: %d entr%s\n\n", d.CurrentPath(), len(entries), plural(len(entries), "y", "ies"))
			for _, e := range entries {
				if e.IsDir {
					fmt.Printf("  %-32s  %10s\n", e.Name+"/", "-")
					continue
				}
				fmt.Printf("  %-32s  %10s\n", e.Name, humanize.Bytes(uint64(e.Size)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Output as JSON")

	return cmd
}

// newDiskMapCmd creates the 'disk map' command.
func newDiskMapCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Render the virtual disk's allocation map",
		Long: `Render the virtual disk's allocation map: every file extent by
start offset, the free blocks between them, and which files are open.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := openDisk(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			m, err := d.MemoryMap()
			if err != nil {
				return err
			}

			if outputJSON {
				data, err := json.MarshalIndent(m, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			printDiskMap(m)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Output as JSON")

	return cmd
}

// printDiskMap renders an allocation map for humans.
func printDiskMap(m *vdisk.MemoryMap) {
	usedPct := 0.0
	if m.TotalSize > 0 {
		usedPct = float64(m.UsedSize) / float64(m.TotalSize) * 100
	}

	fmt.Printf("Capacity: %s\n", humanize.Bytes(uint64(m.TotalSize)))
	fmt.Printf("Used:     %s (%.1f%%)\n", humanize.Bytes(uint64(m.UsedSize)), usedPct)
	fmt.Printf("Free:     %s (largest block %s)\n",
		humanize.Bytes(uint64(m.FreeSize)), humanize.Bytes(uint64(m.LargestFree)))

	open := make(map[string]bool, len(m.OpenFiles))
	for _, name := range m.OpenFiles {
		open[name] = true
	}

	if len(m.Files) > 0 {
		fmt.Printf("\nFiles:\n")
		fmt.Printf("  %10s  %10s  %s\n", "START", "SIZE", "NAME")
		for _, f := range m.Files {
			marker := ""
			if open[f.Name] {
				marker = "  [open]"
			}
			fmt.Printf("  %10d  %10d  %s%s\n", f.Start, f.Size, f.Name, marker)
		}
	}

	if len(m.FreeBlocks) > 0 {
		fmt.Printf("\nFree blocks:\n")
		fmt.Printf("  %10s  %10s\n", "START", "SIZE")
		for _, b := range m.FreeBlocks {
			fmt.Printf("  %10d  %10d\n", b.Start, b.Size)
		}
	}
}

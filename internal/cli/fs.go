// Package cli provides workspace file operation commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/veldtlabs/fsdrill/internal/localfs"
	"github.com/veldtlabs/fsdrill/internal/validation"
)

// newFSCmd creates the 'fs' command group.
func newFSCmd() *cobra.Command {
	fsCmd := &cobra.Command{
		Use:   "fs",
		Short: "Workspace file operations, snapshots, and watching",
		Long: `Commands for working with files in the workspace.

Paths are resolved against the workspace (--workspace, then the
[runner] workspace setting, then the working directory) and must stay
inside it.`,
	}

	fsCmd.AddCommand(newFSListCmd())
	fsCmd.AddCommand(newFSCreateCmd())
	fsCmd.AddCommand(newFSMkdirCmd())
	fsCmd.AddCommand(newFSDeleteCmd())
	fsCmd.AddCommand(newFSMoveCmd())
	fsCmd.AddCommand(newFSMapCmd())
	fsCmd.AddCommand(newFSWatchCmd())

	return fsCmd
}

// fsPath resolves a possibly-relative path against the workspace and
// refuses anything that escapes it.
func fsPath(ws, path string) (string, error) {
	if err := validation.ValidatePathInDirectory(path, ws); err != nil {
		return "", err
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Join(ws, path), nil
}

// newFSListCmd creates the 'fs list' command.
func newFSListCmd() *cobra.Command {
	var (
		outputJSON bool
		showHidden bool
	)

	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "List a directory in the workspace",
		Long: `List the contents of a workspace directory.

Directories sort first, then files, both case-insensitively, so
repeated listings of an unchanged directory are identical.

Examples:
  # List the workspace root
  fsdrill fs list

  # List a run directory
  fsdrill fs list run-1a2b3c4d

  # Include hidden entries, as JSON
  fsdrill fs list --hidden --json`,
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

			target := ws
			if len(args) == 1 {
				if target, err = fsPath(ws, args[0]); err != nil {
					return err
				}
			}

			entries, err := localfs.ListDirectory(target, localfs.ListOptions{IncludeHidden: showHidden})
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
				fmt.Printf("%s is empty\n", target)
				return nil
			}

			fmt.Printf("%s: %d entr%s\n\n", target, len(entries), plural(len(entries), "y", "ies"))

			nameW := 0
			for _, e := range entries {
				if n := len(displayName(e)); n > nameW {
					nameW = n
				}
			}
			for _, e := range entries {
				size := "-"
				if !e.IsDir {
					size = humanize.Bytes(uint64(e.Size))
				}
				fmt.Printf("  %-*s  %10s  %s\n",
					nameW, displayName(e), size, e.ModTime.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Output as JSON")
	cmd.Flags().BoolVar(&showHidden, "hidden", false, "Include hidden entries")

	return cmd
}

// newFSCreateCmd creates the 'fs create' command.
func newFSCreateCmd() *cobra.Command {
	var content string

	cmd := &cobra.Command{
		Use:   "create <path>",
		Short: "Create a new file in the workspace",
		Long: `Create a new file. Fails if the path already exists or the parent
directory is missing; nothing is ever silently replaced.

Examples:
  # Create an empty file
  fsdrill fs create notes.txt

  # Create a file with content
  fsdrill fs create seed.txt --content "Data from thread 1"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ws, err := resolveWorkspace(cfg)
			if err != nil {
				return err
			}
			path, err := fsPath(ws, args[0])
			if err != nil {
				return err
			}

			if err := localfs.CreateFile(path, []byte(content)); err != nil {
				return err
			}
			fmt.Printf("✓ Created %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "Initial file content")

	return cmd
}

// newFSMkdirCmd creates the 'fs mkdir' command.
func newFSMkdirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a new directory in the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ws, err := resolveWorkspace(cfg)
			if err != nil {
				return err
			}
			path, err := fsPath(ws, args[0])
			if err != nil {
				return err
			}

			if err := localfs.CreateDir(path); err != nil {
				return err
			}
			fmt.Printf("✓ Created directory %s\n", path)
			return nil
		},
	}

	return cmd
}

// newFSDeleteCmd creates the 'fs delete' command.
func newFSDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a file or directory in the workspace",
		Long: `Delete a workspace file or directory. Directories are removed
recursively. On a terminal this asks for confirmation first; use
--force to skip the prompt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ws, err := resolveWorkspace(cfg)
			if err != nil {
				return err
			}
			path, err := fsPath(ws, args[0])
			if err != nil {
				return err
			}

			entry, err := localfs.Stat(path)
			if err != nil {
				return err
			}

			if !force && term.IsTerminal(int(os.Stdin.Fd())) {
				what := "file"
				if entry.IsDir {
					what = "directory (recursively)"
				}
				if !confirm(fmt.Sprintf("Delete %s %s? This cannot be undone.", what, path)) {
					fmt.Println("Deletion cancelled")
					return nil
				}
			}

			if err := localfs.Delete(path); err != nil {
				return err
			}
			GetLogger().Info().Str("path", path).Msg("deleted")
			fmt.Printf("✓ Deleted %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without confirmation")

	return cmd
}

// newFSMoveCmd creates the 'fs move' command.
func newFSMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <src> <dst>",
		Short: "Move or rename a file or directory in the workspace",
		Long: `Move src to dst within the workspace. An existing destination is
never silently replaced.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ws, err := resolveWorkspace(cfg)
			if err != nil {
				return err
			}
			src, err := fsPath(ws, args[0])
			if err != nil {
				return err
			}
			dst, err := fsPath(ws, args[1])
			if err != nil {
				return err
			}

			if err := localfs.Move(src, dst); err != nil {
				return err
			}
			fmt.Printf("✓ Moved %s → %s\n", src, dst)
			return nil
		},
	}

	return cmd
}

// displayName renders a listing name, marking directories.
func displayName(e localfs.FileEntry) string {
	if e.IsDir {
		return e.Name + "/"
	}
	return e.Name
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

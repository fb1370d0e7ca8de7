// Package cli provides configuration management commands.
package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/veldtlabs/fsdrill/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage fsdrill configuration",
		Long: `Configuration management commands for fsdrill.

Commands:
  init  - Write a config file with default values
  show  - Display current configuration
  check - Validate the configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigCheckCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Long: `Write a config.ini filled with default values, ready to edit.

The file goes to ~/.config/fsdrill/config.ini (or %APPDATA%\FSDrill on
Windows) unless --config points elsewhere.

Use --force to overwrite an existing file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			configPath := cfgFile
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("failed to determine config path: %w", err)
				}
			}

			if !force {
				if _, err := os.Stat(configPath); err == nil {
					fmt.Printf("Configuration already exists at: %s\n", configPath)
					fmt.Println("Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			if err := config.Save(config.New(), configPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			logger.Info().Str("path", configPath).Msg("Configuration saved")

			fmt.Printf("✓ Configuration saved to: %s\n", configPath)
			fmt.Println()
			fmt.Println("Edit the file to change defaults, then verify with: fsdrill config check")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

Values come from the config file where it exists and from built-in
defaults where it does not. The --workspace, --verbose and --quiet
flags override their config counterparts at runtime and are not shown
here.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := cfgFile
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("failed to determine config path: %w", err)
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Println("Current Configuration")
			fmt.Println("=====================")
			fmt.Println()

			fmt.Println("Runner Settings:")
			fmt.Printf("  Default Tasks: %d\n", cfg.Runner.DefaultTasks)
			if cfg.Runner.Workspace != "" {
				fmt.Printf("  Workspace:     %s\n", cfg.Runner.Workspace)
			} else {
				fmt.Println("  Workspace:     <current directory>")
			}
			fmt.Printf("  Script Mode:   %t\n", cfg.Runner.ScriptMode)
			fmt.Println()

			fmt.Println("Disk Settings:")
			fmt.Printf("  Data File:     %s\n", cfg.Disk.DataFile)
			fmt.Printf("  Metadata File: %s\n", cfg.Disk.MetadataFile)
			fmt.Printf("  Capacity:      %d bytes (%s)\n", cfg.Disk.Capacity, humanize.Bytes(uint64(cfg.Disk.Capacity)))
			fmt.Println()

			fmt.Println("Logging Settings:")
			fmt.Printf("  Level: %s\n", cfg.Logging.Level)
			if cfg.Logging.File != "" {
				fmt.Printf("  File:         %s\n", cfg.Logging.File)
				fmt.Printf("  Max Size:     %d MB\n", cfg.Logging.MaxSizeMB)
				fmt.Printf("  Max Backups:  %d\n", cfg.Logging.MaxBackups)
				fmt.Printf("  Max Age:      %d days\n", cfg.Logging.MaxAgeDays)
				fmt.Printf("  Compress:     %t\n", cfg.Logging.Compress)
			} else {
				fmt.Println("  File:  <console only>")
			}
			fmt.Println()

			fmt.Println("Notification Settings:")
			fmt.Printf("  Enabled:     %t\n", cfg.Notifications.Enabled)
			fmt.Printf("  On Complete: %t\n", cfg.Notifications.OnComplete)
			fmt.Printf("  On Failure:  %t\n", cfg.Notifications.OnFailure)
			fmt.Println()

			fmt.Println("Scan Settings:")
			fmt.Printf("  Include Hidden: %t\n", cfg.Scan.IncludeHidden)
			fmt.Printf("  Workers:        %d\n", cfg.Scan.Workers)
			fmt.Println()

			fmt.Printf("Configuration file: %s\n", configPath)
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				fmt.Println("  (file does not exist - using defaults)")
			}

			return nil
		},
	}

	return cmd
}

// newConfigCheckCmd creates the 'config check' command.
func newConfigCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration",
		Long: `Validate the configuration file and the workspace it points at.

Use this after editing config.ini to catch out-of-range values before
a run trips over them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Checking Configuration")
			fmt.Println("======================")
			fmt.Println()

			cfg, err := loadConfig()
			if err != nil {
				fmt.Println("✗ Configuration FAILED to load")
				fmt.Printf("  Error: %v\n", err)
				return fmt.Errorf("configuration check failed")
			}

			if err := cfg.Validate(); err != nil {
				fmt.Println("✗ Configuration INVALID")
				fmt.Printf("  Error: %v\n", err)
				return fmt.Errorf("configuration check failed")
			}
			fmt.Println("✓ Values within range")

			ws, err := resolveWorkspace(cfg)
			if err != nil {
				fmt.Println("✗ Workspace could not be resolved")
				fmt.Printf("  Error: %v\n", err)
				return fmt.Errorf("configuration check failed")
			}
			if info, err := os.Stat(ws); err != nil || !info.IsDir() {
				fmt.Printf("✗ Workspace is not a directory: %s\n", ws)
				return fmt.Errorf("configuration check failed")
			}
			fmt.Printf("✓ Workspace exists: %s\n", ws)

			fmt.Println()
			fmt.Println("Configuration is valid.")

			return nil
		},
	}

	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := cfgFile
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("failed to determine config path: %w", err)
				}
				fmt.Println("Default configuration path:")
			} else {
				fmt.Println("Configuration path (from --config flag):")
			}

			fmt.Printf("  %s\n", configPath)
			fmt.Println()

			if fileInfo, err := os.Stat(configPath); err == nil {
				fmt.Println("Status: ✓ File exists")
				fmt.Printf("Size:   %d bytes\n", fileInfo.Size())
				fmt.Printf("Modified: %s\n", fileInfo.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Println("Status: File does not exist")
				fmt.Println()
				fmt.Println("Create a configuration file with: fsdrill config init")
			}

			return nil
		},
	}

	return cmd
}

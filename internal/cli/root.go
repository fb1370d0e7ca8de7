// Package cli provides the command-line interface for fsdrill.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/veldtlabs/fsdrill/internal/config"
	"github.com/veldtlabs/fsdrill/internal/logging"
	"github.com/veldtlabs/fsdrill/internal/pathutil"
	"github.com/veldtlabs/fsdrill/internal/version"
)

var (
	// Global flags
	cfgFile   string
	workspace string
	verbose   bool
	quiet     bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fsdrill",
		Short: "Concurrent file task runs over a workspace and a virtual disk",
		Long: `FSDrill ` + version.Version + ` - Built: ` + version.BuildTime + `
Launches runs of concurrent file tasks, inspects and watches
workspaces, and drives a virtual disk with its own allocator.

Command groups:
  launch   Start a run of concurrent file tasks
  fs       Workspace file operations, snapshots, and watching
  disk     Virtual disk operations
  config   Configuration management`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLoggerFromConfig()
			// Flags override the configured level
			switch {
			case verbose:
				logging.SetGlobalLevel(zerolog.DebugLevel)
			case quiet:
				logging.SetGlobalLevel(zerolog.ErrorLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default from config, else the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output, log errors only")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	return rootCmd
}

// newLoggerFromConfig builds the logger from the [logging] section.
// Config problems fall back to the console defaults here; the command
// that actually needs the config reports them properly.
func newLoggerFromConfig() *logging.Logger {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return logging.NewDefaultLogger()
	}

	logging.SetGlobalLevel(logging.ParseLevel(cfg.Logging.Level))

	if cfg.Logging.File == "" {
		return logging.NewDefaultLogger()
	}
	return logging.NewLogger(logging.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
}

// Execute runs the CLI.
func Execute() error {
	// Create a context that can be cancelled by signals
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Loop so repeated Ctrl+C presses keep being acknowledged while
	// cleanup runs; a closed channel delivers nil and ends the loop.
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, stopping...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newLaunchCmd())
	rootCmd.AddCommand(newFSCmd())
	rootCmd.AddCommand(newDiskCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context is cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		// Fallback to background context if called before Execute()
		return context.Background()
	}
	return rootContext
}

// loadConfig loads the configuration file. A missing file yields the
// defaults; a file that exists but does not parse is an error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// resolveWorkspace picks the directory a command operates in:
// --workspace flag first, then [runner] workspace, then the current
// working directory. Tilde and symlinks resolve so every command sees
// the same workspace path.
func resolveWorkspace(cfg *config.Config) (string, error) {
	if workspace != "" {
		return pathutil.ResolveAbsolutePath(workspace)
	}
	ws, err := cfg.ResolveWorkspace()
	if err != nil {
		return "", err
	}
	return pathutil.ResolveAbsolutePath(ws)
}

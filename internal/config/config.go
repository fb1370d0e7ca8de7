// Package config provides configuration management for FSDrill.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/veldtlabs/fsdrill/internal/constants"
)

// Config represents the unified FSDrill configuration.
//
// Config file location:
//   - Windows: %APPDATA%\FSDrill\config.ini
//   - Unix: ~/.config/fsdrill/config.ini
//
// INI format:
//
//	[runner]
//	default_tasks = 4
//	workspace =
//	script_mode = false
//
//	[disk]
//	data_file = sample.dat
//	metadata_file = fs_metadata.json
//	capacity = 1048576
//
//	[logging]
//	level = info
//	file =
//	max_size_mb = 10
//	max_backups = 5
//	max_age_days = 30
//	compress = false
//
//	[notifications]
//	enabled = true
//	on_complete = true
//	on_failure = true
//
//	[scan]
//	include_hidden = false
//	workers = 4
type Config struct {
	// Runner settings for launching task runs
	Runner RunnerConfig

	// Disk settings for the virtual disk backend
	Disk DiskConfig

	// Logging output settings
	Logging LoggingConfig

	// Notification settings
	Notifications NotificationConfig

	// Scan settings for directory snapshots
	Scan ScanConfig
}

// RunnerConfig contains task run settings.
type RunnerConfig struct {
	// DefaultTasks is the task count used when --tasks is not given.
	// Minimum: 1, Maximum: 1000, Default: 4
	DefaultTasks int `ini:"default_tasks"`

	// Workspace is the base directory where run directories are created.
	// Empty means the current working directory.
	Workspace string `ini:"workspace"`

	// ScriptMode runs each task against the virtual disk using a command
	// script instead of the default file copy.
	// Default: false
	ScriptMode bool `ini:"script_mode"`
}

// DiskConfig contains virtual disk backend settings.
type DiskConfig struct {
	// DataFile is the backing data file name.
	// Default: sample.dat
	DataFile string `ini:"data_file"`

	// MetadataFile is the JSON metadata file name.
	// Default: fs_metadata.json
	MetadataFile string `ini:"metadata_file"`

	// Capacity is the virtual disk size in bytes.
	// Minimum: 4096, Maximum: 1073741824, Default: 1048576
	Capacity int64 `ini:"capacity"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `ini:"level"`

	// File is an optional log file path. Empty disables file logging.
	File string `ini:"file"`

	// MaxSizeMB is the size in megabytes at which the log file rotates.
	// Default: 10
	MaxSizeMB int `ini:"max_size_mb"`

	// MaxBackups is the number of rotated log files to keep.
	// Default: 5
	MaxBackups int `ini:"max_backups"`

	// MaxAgeDays is the number of days to retain rotated log files.
	// Default: 30
	MaxAgeDays int `ini:"max_age_days"`

	// Compress gzips rotated log files.
	// Default: false
	Compress bool `ini:"compress"`
}

// NotificationConfig contains desktop notification settings.
type NotificationConfig struct {
	// Enabled turns desktop notifications on or off globally.
	// Default: true
	Enabled bool `ini:"enabled"`

	// OnComplete notifies when a run finishes with all tasks completed.
	// Default: true
	OnComplete bool `ini:"on_complete"`

	// OnFailure notifies when a run finishes with failed tasks.
	// Default: true
	OnFailure bool `ini:"on_failure"`
}

// ScanConfig contains directory snapshot settings.
type ScanConfig struct {
	// IncludeHidden includes dotfiles and hidden directories in scans.
	// Default: false
	IncludeHidden bool `ini:"include_hidden"`

	// Workers is the number of concurrent scan workers.
	// Minimum: 1, Maximum: 16, Default: 4
	Workers int `ini:"workers"`
}

// Config validation errors
var (
	ErrInvalidDefaultTasks = errors.New("default_tasks must be between 1 and 1000")
	ErrInvalidCapacity     = errors.New("capacity must be between 4096 and 1073741824 bytes")
	ErrInvalidScanWorkers  = errors.New("workers must be between 1 and 16")
	ErrInvalidLogLevel     = errors.New("level must be one of: trace, debug, info, warn, error")
)

// DefaultConfigPath returns the default path for the config.ini file.
//   - Windows: %APPDATA%\FSDrill\config.ini
//   - Unix: ~/.config/fsdrill/config.ini
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", errors.New("neither APPDATA nor USERPROFILE environment variable set")
			}
			appData = filepath.Join(userProfile, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, constants.AppDisplayName)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", constants.AppName)
	}

	return filepath.Join(configDir, "config.ini"), nil
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Runner: RunnerConfig{
			DefaultTasks: constants.DefaultTaskCount,
			Workspace:    "",
			ScriptMode:   false,
		},
		Disk: DiskConfig{
			DataFile:     constants.DiskDataFileName,
			MetadataFile: constants.DiskMetadataFileName,
			Capacity:     constants.DiskDefaultCapacity,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  constants.LogFileMaxSizeMB,
			MaxBackups: constants.LogFileMaxBackups,
			MaxAgeDays: constants.LogFileMaxAgeDays,
			Compress:   false,
		},
		Notifications: NotificationConfig{
			Enabled:    true,
			OnComplete: true,
			OnFailure:  true,
		},
		Scan: ScanConfig{
			IncludeHidden: false,
			Workers:       constants.DefaultScanWorkers,
		},
	}
}

// Load loads configuration from the config.ini file.
// If path is empty, uses the default path.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := New()

	// If no path provided, use default
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // Return defaults if config doesn't exist
	}

	// Load INI file
	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config.ini: %w", err)
	}

	// Parse [runner] section
	runnerSection := iniFile.Section("runner")
	cfg.Runner.DefaultTasks = runnerSection.Key("default_tasks").MustInt(constants.DefaultTaskCount)
	cfg.Runner.Workspace = runnerSection.Key("workspace").String()
	cfg.Runner.ScriptMode = runnerSection.Key("script_mode").MustBool(false)

	// Parse [disk] section
	diskSection := iniFile.Section("disk")
	cfg.Disk.DataFile = diskSection.Key("data_file").MustString(constants.DiskDataFileName)
	cfg.Disk.MetadataFile = diskSection.Key("metadata_file").MustString(constants.DiskMetadataFileName)
	cfg.Disk.Capacity = diskSection.Key("capacity").MustInt64(constants.DiskDefaultCapacity)

	// Parse [logging] section
	logSection := iniFile.Section("logging")
	cfg.Logging.Level = logSection.Key("level").MustString("info")
	cfg.Logging.File = logSection.Key("file").String()
	cfg.Logging.MaxSizeMB = logSection.Key("max_size_mb").MustInt(constants.LogFileMaxSizeMB)
	cfg.Logging.MaxBackups = logSection.Key("max_backups").MustInt(constants.LogFileMaxBackups)
	cfg.Logging.MaxAgeDays = logSection.Key("max_age_days").MustInt(constants.LogFileMaxAgeDays)
	cfg.Logging.Compress = logSection.Key("compress").MustBool(false)

	// Parse [notifications] section
	notifySection := iniFile.Section("notifications")
	cfg.Notifications.Enabled = notifySection.Key("enabled").MustBool(true)
	cfg.Notifications.OnComplete = notifySection.Key("on_complete").MustBool(true)
	cfg.Notifications.OnFailure = notifySection.Key("on_failure").MustBool(true)

	// Parse [scan] section
	scanSection := iniFile.Section("scan")
	cfg.Scan.IncludeHidden = scanSection.Key("include_hidden").MustBool(false)
	cfg.Scan.Workers = scanSection.Key("workers").MustInt(constants.DefaultScanWorkers)

	return cfg, nil
}

// Save saves configuration to the config.ini file.
// If path is empty, uses the default path.
// Creates parent directories if they don't exist.
func Save(cfg *Config, path string) error {
	// If no path provided, use default
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create INI file
	iniFile := ini.Empty()

	// Write [runner] section
	runnerSection, err := iniFile.NewSection("runner")
	if err != nil {
		return fmt.Errorf("failed to create runner section: %w", err)
	}
	runnerSection.Key("default_tasks").SetValue(fmt.Sprintf("%d", cfg.Runner.DefaultTasks))
	runnerSection.Key("workspace").SetValue(cfg.Runner.Workspace)
	runnerSection.Key("script_mode").SetValue(fmt.Sprintf("%t", cfg.Runner.ScriptMode))

	// Write [disk] section
	diskSection, err := iniFile.NewSection("disk")
	if err != nil {
		return fmt.Errorf("failed to create disk section: %w", err)
	}
	diskSection.Key("data_file").SetValue(cfg.Disk.DataFile)
	diskSection.Key("metadata_file").SetValue(cfg.Disk.MetadataFile)
	diskSection.Key("capacity").SetValue(fmt.Sprintf("%d", cfg.Disk.Capacity))

	// Write [logging] section
	logSection, err := iniFile.NewSection("logging")
	if err != nil {
		return fmt.Errorf("failed to create logging section: %w", err)
	}
	logSection.Key("level").SetValue(cfg.Logging.Level)
	logSection.Key("file").SetValue(cfg.Logging.File)
	logSection.Key("max_size_mb").SetValue(fmt.Sprintf("%d", cfg.Logging.MaxSizeMB))
	logSection.Key("max_backups").SetValue(fmt.Sprintf("%d", cfg.Logging.MaxBackups))
	logSection.Key("max_age_days").SetValue(fmt.Sprintf("%d", cfg.Logging.MaxAgeDays))
	logSection.Key("compress").SetValue(fmt.Sprintf("%t", cfg.Logging.Compress))

	// Write [notifications] section
	notifySection, err := iniFile.NewSection("notifications")
	if err != nil {
		return fmt.Errorf("failed to create notifications section: %w", err)
	}
	notifySection.Key("enabled").SetValue(fmt.Sprintf("%t", cfg.Notifications.Enabled))
	notifySection.Key("on_complete").SetValue(fmt.Sprintf("%t", cfg.Notifications.OnComplete))
	notifySection.Key("on_failure").SetValue(fmt.Sprintf("%t", cfg.Notifications.OnFailure))

	// Write [scan] section
	scanSection, err := iniFile.NewSection("scan")
	if err != nil {
		return fmt.Errorf("failed to create scan section: %w", err)
	}
	scanSection.Key("include_hidden").SetValue(fmt.Sprintf("%t", cfg.Scan.IncludeHidden))
	scanSection.Key("workers").SetValue(fmt.Sprintf("%d", cfg.Scan.Workers))

	// Save to file with restricted permissions (user read/write only)
	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// Set restrictive permissions on Unix
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Returns nil if valid, or an error describing what's wrong.
func (cfg *Config) Validate() error {
	if cfg.Runner.DefaultTasks < 1 || cfg.Runner.DefaultTasks > constants.MaxTaskCount {
		return ErrInvalidDefaultTasks
	}
	if cfg.Disk.Capacity < constants.DiskMinCapacity || cfg.Disk.Capacity > constants.DiskMaxCapacity {
		return ErrInvalidCapacity
	}
	if cfg.Scan.Workers < 1 || cfg.Scan.Workers > constants.MaxScanWorkers {
		return ErrInvalidScanWorkers
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

// Clamp forces out-of-range numeric settings back to their nearest
// valid value. Load callers that prefer robustness over strictness use
// this instead of failing on Validate.
func (cfg *Config) Clamp() {
	if cfg.Runner.DefaultTasks < 1 {
		cfg.Runner.DefaultTasks = constants.DefaultTaskCount
	}
	if cfg.Runner.DefaultTasks > constants.MaxTaskCount {
		cfg.Runner.DefaultTasks = constants.MaxTaskCount
	}
	if cfg.Disk.Capacity < constants.DiskMinCapacity {
		cfg.Disk.Capacity = constants.DiskMinCapacity
	}
	if cfg.Disk.Capacity > constants.DiskMaxCapacity {
		cfg.Disk.Capacity = constants.DiskMaxCapacity
	}
	if cfg.Scan.Workers < 1 {
		cfg.Scan.Workers = constants.DefaultScanWorkers
	}
	if cfg.Scan.Workers > constants.MaxScanWorkers {
		cfg.Scan.Workers = constants.MaxScanWorkers
	}
}

// ResolveWorkspace returns the configured workspace directory, falling
// back to the current working directory when unset.
func (cfg *Config) ResolveWorkspace() (string, error) {
	ws := strings.TrimSpace(cfg.Runner.Workspace)
	if ws == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to determine working directory: %w", err)
		}
		return wd, nil
	}
	return ws, nil
}

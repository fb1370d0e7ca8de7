package constants

import (
	"time"
)

// Application identity
const (
	// AppName - short name used in config paths, notifications, and logs
	AppName = "fsdrill"

	// AppDisplayName - human-facing name for notifications and headers
	AppDisplayName = "FSDrill"
)

// Thread runner
const (
	// DefaultTaskCount - tasks launched when no count is given
	DefaultTaskCount = 4

	// MaxTaskCount - upper bound accepted by the launch command (1000)
	// The runner itself imposes no limit; this protects interactive use
	// from typos like "fsdrill launch -n 1000000".
	MaxTaskCount = 1000

	// TaskInputPrefix - input file name prefix, completed with the task ID
	TaskInputPrefix = "thread_input_"

	// TaskOutputPrefix - output file name prefix, completed with the task ID
	TaskOutputPrefix = "thread_output_"

	// TaskFileExt - extension for generated task files
	TaskFileExt = ".txt"

	// RunDirPrefix - per-run directory name prefix, completed with the run ID
	// Each run gets its own directory so concurrent runs never share paths.
	RunDirPrefix = "run-"

	// RunIDLength - characters of the run UUID used in the directory name
	RunIDLength = 8
)

// Event system
const (
	// EventBusDefaultBuffer - default buffer size for event channels (256)
	// Publishes never block; a full subscriber channel drops the event and
	// increments the dropped counter instead.
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - cap on subscriber channel buffers (4096)
	EventBusMaxBuffer = 4096
)

// UI updates
const (
	// TableRefreshMinInterval - minimum time between status table refreshes (100ms)
	// Prevents excessive redraws during rapid task state changes
	TableRefreshMinInterval = 100 * time.Millisecond

	// ProgressRefreshRate - refresh rate for progress bar rendering (300ms)
	ProgressRefreshRate = 300 * time.Millisecond
)

// Virtual disk
const (
	// DiskDataFileName - default backing data file for the virtual disk
	DiskDataFileName = "sample.dat"

	// DiskMetadataFileName - default metadata file persisted beside the data file
	DiskMetadataFileName = "fs_metadata.json"

	// DiskDefaultCapacity - default virtual disk size (1 MiB)
	DiskDefaultCapacity = 1024 * 1024

	// DiskMinCapacity - smallest capacity accepted at init (4 KiB)
	DiskMinCapacity = 4 * 1024

	// DiskMaxCapacity - largest capacity accepted at init (1 GiB)
	// The data file is written in full at init, so this also bounds the
	// host disk space consumed.
	DiskMaxCapacity = 1024 * 1024 * 1024
)

// File system scan
const (
	// DefaultScanWorkers - concurrent subtree scanners for memory-map snapshots
	DefaultScanWorkers = 4

	// MaxScanWorkers - upper bound for the scan worker setting
	MaxScanWorkers = 16
)

// Watcher
const (
	// WatchDebounce - window for batching rapid file change events (500ms)
	WatchDebounce = 500 * time.Millisecond
)

// Logging defaults (overridable via [logging] config section)
const (
	// LogFileMaxSizeMB - rotate the log file after this many megabytes
	LogFileMaxSizeMB = 10

	// LogFileMaxBackups - rotated files to keep
	LogFileMaxBackups = 5

	// LogFileMaxAgeDays - days to retain rotated files
	LogFileMaxAgeDays = 30
)

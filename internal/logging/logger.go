// Package logging provides structured logging for the CLI.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/veldtlabs/fsdrill/internal/constants"
)

// FileConfig configures optional rotating file output.
type FileConfig struct {
	// Path is the log file location (empty = console only)
	Path string

	// MaxSizeMB rotates the file after this many megabytes
	MaxSizeMB int

	// MaxBackups is the number of rotated files to keep
	MaxBackups int

	// MaxAgeDays is the retention period for rotated files
	MaxAgeDays int

	// Compress gzips rotated files
	Compress bool
}

// Logger wraps zerolog with console formatting and optional file rotation.
type Logger struct {
	zlog   zerolog.Logger
	output io.Writer
	file   *lumberjack.Logger
}

// NewLogger creates a logger writing to stderr (stdout is reserved for
// command output and progress bars). A non-empty FileConfig.Path adds a
// rotating file destination alongside the console.
func NewLogger(fileCfg FileConfig) *Logger {
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	l := &Logger{}

	var output io.Writer = console
	if fileCfg.Path != "" {
		l.file = &lumberjack.Logger{
			Filename:   fileCfg.Path,
			MaxSize:    orDefault(fileCfg.MaxSizeMB, constants.LogFileMaxSizeMB),
			MaxBackups: orDefault(fileCfg.MaxBackups, constants.LogFileMaxBackups),
			MaxAge:     orDefault(fileCfg.MaxAgeDays, constants.LogFileMaxAgeDays),
			Compress:   fileCfg.Compress,
		}
		output = zerolog.MultiLevelWriter(console, l.file)
	}

	l.output = output
	l.zlog = zerolog.New(output).
		With().
		Timestamp().
		Logger()

	return l
}

// NewDefaultLogger creates a console-only logger.
func NewDefaultLogger() *Logger {
	return NewLogger(FileConfig{})
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// Fatal returns a fatal level event.
func (l *Logger) Fatal() *zerolog.Event {
	return l.zlog.Fatal()
}

// With creates a child logger with additional context.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// SetOutput changes the output writer for the logger.
// This is used to route logs through a progress bar's writer so log lines
// do not tear active bars.
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	l.zlog = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}).With().Timestamp().Logger()
}

// Output returns the current output writer.
func (l *Logger) Output() io.Writer {
	return l.output
}

// Close flushes and closes the rotating file output, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Debugf logs a debug message with printf-style formatting.
// This is only shown when debug/verbose mode is enabled.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func init() {
	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Configure global logger
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}

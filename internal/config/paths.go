// Package config provides configuration management for FSDrill.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/veldtlabs/fsdrill/internal/constants"
)

// LogDirectory returns the default directory for FSDrill log files.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\FSDrill\logs
//   - Unix: ~/.config/fsdrill/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), constants.AppName+"-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, constants.AppDisplayName, "logs")
	}

	// Unix: Use XDG config directory
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), constants.AppName+"-logs")
		}
		return filepath.Join(homeDir, ".config", constants.AppName, "logs")
	}
	return filepath.Join(configDir, constants.AppName, "logs")
}

// EnsureLogDirectory creates the log directory if it doesn't exist.
// Uses 0700 permissions to restrict log access to owner only.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}

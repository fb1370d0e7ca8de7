// Package notify provides cross-platform desktop notifications for run
// completion. It uses github.com/gen2brain/beeep for cross-platform
// notification support.
package notify

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/veldtlabs/fsdrill/internal/constants"
	"github.com/veldtlabs/fsdrill/internal/logging"
)

// Config holds notification configuration.
type Config struct {
	// Enabled determines if notifications are sent at all.
	Enabled bool

	// OnComplete notifies when a run finishes with every task completed.
	OnComplete bool

	// OnFailure notifies when a run finishes with failed tasks.
	OnFailure bool
}

// DefaultConfig returns the default notification configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:    true,
		OnComplete: true,
		OnFailure:  true,
	}
}

// Notifier sends desktop notifications about finished runs. Delivery
// failures are logged, never returned; notifications are best effort.
type Notifier struct {
	logger *logging.Logger

	mu         sync.RWMutex
	enabled    bool
	onComplete bool
	onFailure  bool
}

// NewNotifier creates a notifier with the given configuration.
func NewNotifier(cfg *Config, logger *logging.Logger) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Notifier{
		logger:     logger,
		enabled:    cfg.Enabled,
		onComplete: cfg.OnComplete,
		onFailure:  cfg.OnFailure,
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// RunComplete sends a notification for a run whose tasks all completed.
func (n *Notifier) RunComplete(runDir string, completed int, took time.Duration) {
	if !n.shouldSend(func() bool { return n.onComplete }) {
		return
	}

	title := "Run Complete"
	message := fmt.Sprintf("All %d task(s) completed in %.2fs.\n%s",
		completed, took.Seconds(), shortenPath(runDir))

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("dir", runDir).Msg("Failed to send run complete notification")
	}
}

// RunFailed sends a notification for a run that finished with failures.
func (n *Notifier) RunFailed(runDir string, failed, total int, firstReason string) {
	if !n.shouldSend(func() bool { return n.onFailure }) {
		return
	}

	title := "Run Finished with Failures"
	message := fmt.Sprintf("%d of %d task(s) failed: %s\n%s",
		failed, total, truncate(firstReason, 100), shortenPath(runDir))

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("dir", runDir).Msg("Failed to send run failed notification")
	}
}

func (n *Notifier) shouldSend(flag func() bool) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && flag()
}

// send is the internal method that actually sends the notification.
func (n *Notifier) send(title, message string) error {
	// beeep.Notify is cross-platform:
	// - Windows: Uses toast notifications
	// - macOS: Uses NSUserNotificationCenter
	// - Linux: Uses D-Bus notifications
	return beeep.Notify(constants.AppDisplayName+": "+title, message, "")
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// shortenPath abbreviates a long path for display in notifications.
func shortenPath(path string) string {
	const maxLen = 60

	if len(path) <= maxLen {
		return path
	}

	// Try to show drive/root + ... + last 2 path components
	_, file := filepath.Split(path)
	parentDir := filepath.Base(filepath.Dir(path))

	short := filepath.Join("...", parentDir, file)

	vol := filepath.VolumeName(path)
	if vol != "" && len(vol)+len(short)+1 <= maxLen {
		short = vol + string(filepath.Separator) + short
	}

	if len(short) > maxLen {
		return "..." + path[len(path)-(maxLen-3):]
	}

	return short
}

// Package notification delivers engine toasts to the log and the desktop.
package notification

import (
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/xvierd/focus-cli/internal/config"
	"github.com/xvierd/focus-cli/internal/ports"
)

// desktopNotify is replaced in tests.
var desktopNotify = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Notifier logs every notification and mirrors it to a desktop
// notification when enabled.
type Notifier struct {
	cfg    *config.NotificationConfig
	logger *slog.Logger

	mu     sync.Mutex
	recent []ports.Notification
	max    int
}

// Ensure Notifier implements ports.Notifier.
var _ ports.Notifier = (*Notifier)(nil)

// New creates a new notifier with the given configuration.
func New(cfg *config.NotificationConfig, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{cfg: cfg, logger: logger, max: 5}
}

// Notify records n, logs it, and shows a desktop notification if enabled.
// Desktop delivery failures are logged and otherwise ignored.
func (n *Notifier) Notify(note ports.Notification) {
	n.mu.Lock()
	n.recent = append(n.recent, note)
	if len(n.recent) > n.max {
		n.recent = n.recent[len(n.recent)-n.max:]
	}
	n.mu.Unlock()

	if note.Level == ports.LevelError {
		n.logger.Error(note.Title, "message", note.Message)
	} else {
		n.logger.Info(note.Title, "message", note.Message)
	}

	if !n.IsEnabled() || !n.cfg.Desktop {
		return
	}
	if err := desktopNotify(note.Title, note.Message); err != nil {
		n.logger.Warn("desktop notification failed", "error", err)
	}
}

// Recent returns the latest notifications, oldest first.
func (n *Notifier) Recent() []ports.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ports.Notification, len(n.recent))
	copy(out, n.recent)
	return out
}

// IsEnabled returns true if notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.cfg != nil && n.cfg.Enabled
}

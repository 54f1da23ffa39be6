package ports

import "time"

// NotificationLevel distinguishes informational toasts from failures.
type NotificationLevel string

const (
	LevelInfo  NotificationLevel = "info"
	LevelError NotificationLevel = "error"
)

// Notification is a short, non-blocking message for the user.
type Notification struct {
	Title   string
	Message string
	Level   NotificationLevel
}

// Notifier delivers notifications.
// This is a driven port (implemented by adapters).
type Notifier interface {
	Notify(n Notification)
}

// Clock supplies the current time. Implementations must return readings that
// carry a monotonic component so elapsed time survives wall-clock changes.
// This is a driven port.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

package notification

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xvierd/focus-cli/internal/config"
	"github.com/xvierd/focus-cli/internal/ports"
)

func stubDesktop(t *testing.T, err error) *[]string {
	t.Helper()
	var titles []string
	orig := desktopNotify
	desktopNotify = func(title, message string) error {
		titles = append(titles, title)
		return err
	}
	t.Cleanup(func() { desktopNotify = orig })
	return &titles
}

func TestNotifier_Desktop(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.NotificationConfig
		want int
	}{
		{"nil config", nil, 0},
		{"disabled", &config.NotificationConfig{Enabled: false, Desktop: true}, 0},
		{"desktop off", &config.NotificationConfig{Enabled: true, Desktop: false}, 0},
		{"desktop on", &config.NotificationConfig{Enabled: true, Desktop: true}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			titles := stubDesktop(t, nil)
			n := New(tt.cfg, nil)

			n.Notify(ports.Notification{Title: "Break time", Message: "5 minutes", Level: ports.LevelInfo})

			assert.Len(t, *titles, tt.want)
			assert.Len(t, n.Recent(), 1, "notifications are always recorded")
		})
	}
}

func TestNotifier_DesktopFailureIsIgnored(t *testing.T) {
	stubDesktop(t, errors.New("no dbus"))
	n := New(&config.NotificationConfig{Enabled: true, Desktop: true}, nil)

	assert.NotPanics(t, func() {
		n.Notify(ports.Notification{Title: "Failed to save", Level: ports.LevelError})
	})
}

func TestNotifier_RecentIsBounded(t *testing.T) {
	stubDesktop(t, nil)
	n := New(nil, nil)

	for i := 0; i < 8; i++ {
		n.Notify(ports.Notification{Title: string(rune('a' + i))})
	}

	recent := n.Recent()
	assert.Len(t, recent, 5)
	assert.Equal(t, "d", recent[0].Title)
	assert.Equal(t, "h", recent[4].Title)
}

package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/xvierd/focus-cli/internal/config"
	"github.com/xvierd/focus-cli/internal/domain"
	"github.com/xvierd/focus-cli/internal/ports"
)

// minFullscreenWidth is the narrowest terminal that gets the alternate screen.
const minFullscreenWidth = 60

// Options configures a focus screen run.
type Options struct {
	Theme  *config.ThemeConfig
	Toasts func() []ports.Notification
}

// getTerminalWidth returns the current terminal width, defaulting to 80.
func getTerminalWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// Run shows the focus screen and blocks until the user quits or ctx is
// cancelled. Narrow terminals render inline instead of taking over the screen.
func Run(ctx context.Context, provider ports.FocusProvider, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(ctx, provider, opts.Theme)
	model.SetToastSource(opts.Toasts)
	model.width = getTerminalWidth()

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if model.width >= minFullscreenWidth {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(model, programOpts...)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	// Leaving the screen pauses a running session so the time is recorded.
	if provider.Snapshot().Running {
		if err := provider.Pause(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("failed to pause on exit: %w", err)
		}
	}
	return nil
}

// ShowStatus writes a plain-text summary of the engine state.
func ShowStatus(w io.Writer, snap domain.FocusSnapshot) {
	fmt.Fprintf(w, "🎯 %s\n", snap.SelectedListName)

	if snap.HasTask() {
		state := "paused"
		if snap.Running {
			state = "running"
		}
		fmt.Fprintf(w, "   Task: %s\n", snap.CurrentLabel())
		fmt.Fprintf(w, "   Phase: %s (%s)\n", snap.Phase.Label(), state)
		fmt.Fprintf(w, "   Remaining: %s\n", formatDuration(snap.Remaining))
		fmt.Fprintf(w, "   Progress: %.0f%%\n", snap.Progress*100)
		if cur := snap.Current; cur != nil && !snap.OneOff {
			fmt.Fprintf(w, "   Actual: %d min · Planned left: %d min · Breaths: %d min\n",
				int(cur.ActualDuration.Minutes()), int(cur.RemainingDuration().Minutes()), cur.BreathSeconds()/60)
		}
	} else {
		fmt.Fprintln(w, "   No current task.")
	}

	if len(snap.Queue) == 0 {
		return
	}
	fmt.Fprintf(w, "\n📋 Queue (%d, %s planned)\n", len(snap.Queue), snap.PlannedTotal())
	for i := range snap.Queue {
		step := &snap.Queue[i]
		marker := " "
		if snap.Current != nil && snap.Current.ID == step.ID {
			marker = "▸"
		}
		line := fmt.Sprintf(" %s %-30s %s", marker, step.Label, formatDuration(step.Duration))
		if span := scheduleSpan(step); span != "" {
			line += "  " + span
		}
		if step.Locked {
			line += "  locked"
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// ShowError displays an error message.
func ShowError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

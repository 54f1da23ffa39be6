package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/focus-cli/internal/adapters/tui"
)

var (
	runOneOff string
	runList   string
)

// runCmd opens the live focus screen.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the focus screen",
	Long: `Open the live focus screen for the selected queue. The timer ticks once
per second while the screen is open and pauses when you leave it.`,
	Args: cobra.NoArgs,
	RunE: runFocusScreen,
}

func init() {
	runCmd.Flags().StringVarP(&runOneOff, "one-off", "o", "", "Time a one-off task with this label instead of the queue")
	runCmd.Flags().StringVarP(&runList, "list", "l", "", "Task list to focus on (name, id or \"all\")")
	rootCmd.AddCommand(runCmd)
}

func runFocusScreen(cmd *cobra.Command, args []string) error {
	ctx, stop := setupSignalHandler(cmd.Context())
	defer stop()

	if runList != "" {
		listID, err := resolveList(app.focus.Snapshot().Lists, runList)
		if err != nil {
			return err
		}
		if err := app.focus.SelectList(ctx, listID); err != nil {
			return err
		}
	}
	if runOneOff != "" {
		if err := app.focus.EnterOneOffMode(ctx, runOneOff); err != nil {
			return err
		}
	}

	if err := tui.Run(ctx, app.focus, tui.Options{
		Theme:  &app.config.Theme,
		Toasts: app.notifier.Recent,
	}); err != nil {
		return fmt.Errorf("timer error: %w", err)
	}
	return nil
}

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xvierd/focus-cli/internal/domain"
	"github.com/xvierd/focus-cli/internal/ports"
)

var (
	tasksList   string
	addMinutes  int
	insertAt    int
	reorderList string
	searchLimit int
)

// tasksCmd shows the queue; its subcommands edit it.
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show and edit the task queue",
	Long: `Show the task queue with its estimated schedule. Tasks are referenced by
id, by their number in the queue (1, #2) or by a fuzzy label match.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := selectTasksList(cmd); err != nil {
			return err
		}
		snap := app.focus.Snapshot()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), statusData(snap))
		}
		printQueue(cmd.OutOrStdout(), snap)
		return nil
	},
}

var tasksAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Add a task to a list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		listID, err := resolveList(app.focus.Snapshot().Lists, tasksList)
		if err != nil {
			return err
		}
		if listID == domain.AllActiveTasksID {
			listID = ""
		}
		step, err := app.focus.AddTask(cmd.Context(), strings.Join(args, " "), time.Duration(addMinutes)*time.Minute, listID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), stepJSON(step))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Task added: %s (%s)\n", step.Label, formatMinutes(step.Duration))
		fmt.Fprintf(cmd.OutOrStdout(), "  ID: %s\n", step.ID)
		return nil
	},
}

// stepCommand builds a subcommand that applies op to one referenced task.
func stepCommand(use, short string, op func(cmd *cobra.Command, step *domain.Step) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [task]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := selectTasksList(cmd); err != nil {
				return err
			}
			step, err := resolveStep(app.focus.Snapshot().Queue, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := op(cmd, step); err != nil {
				return err
			}
			printLatest(cmd.OutOrStdout(), app.notifier.Recent())
			return nil
		},
	}
}

var tasksCopyCmd = stepCommand("copy", "Duplicate a task at the end of its list", func(cmd *cobra.Command, step *domain.Step) error {
	_, err := app.focus.Copy(cmd.Context(), step.ID)
	return err
})

var tasksDeleteCmd = stepCommand("delete", "Delete a task", func(cmd *cobra.Command, step *domain.Step) error {
	return app.focus.DeleteTask(cmd.Context(), step.ID)
})

var tasksLockCmd = stepCommand("lock", "Lock or unlock a task", func(cmd *cobra.Command, step *domain.Step) error {
	return app.focus.ToggleLock(cmd.Context(), step.ID)
})

var tasksTopCmd = stepCommand("top", "Move a task to the top of all active tasks", func(cmd *cobra.Command, step *domain.Step) error {
	return app.focus.MoveToTop(cmd.Context(), step.ID)
})

var tasksBottomCmd = stepCommand("bottom", "Move a task to the bottom of all active tasks", func(cmd *cobra.Command, step *domain.Step) error {
	return app.focus.MoveToBottom(cmd.Context(), step.ID)
})

var tasksInsertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Insert a new default task into the all-active order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := app.focus.InsertNewTask(cmd.Context(), insertAt-1)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), stepJSON(step))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Inserted %q at #%d\n", step.Label, *step.PositionWhenAllListsActive)
		fmt.Fprintf(cmd.OutOrStdout(), "  ID: %s\n", step.ID)
		return nil
	},
}

var tasksReorderCmd = &cobra.Command{
	Use:   "reorder [from] [to]",
	Short: "Move the task at queue number from to number to",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid position %q", args[0])
		}
		to, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid position %q", args[1])
		}
		listID, err := resolveList(app.focus.Snapshot().Lists, reorderList)
		if err != nil {
			return err
		}
		if err := app.focus.Reorder(cmd.Context(), listID, from-1, to-1); err != nil {
			return err
		}
		printLatest(cmd.OutOrStdout(), app.notifier.Recent())
		return nil
	},
}

var tasksMoveCmd = &cobra.Command{
	Use:   "move [task] [list]",
	Short: "Move a task to another list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := app.focus.Snapshot()
		step, err := resolveStep(snap.Queue, args[0])
		if err != nil {
			return err
		}
		listID, err := resolveList(snap.Lists, args[1])
		if err != nil {
			return err
		}
		if err := app.focus.MoveTaskToList(cmd.Context(), step.ID, listID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Moved %q\n", step.Label)
		return nil
	},
}

var tasksSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Fuzzy-search pending tasks across all lists",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := app.focus.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if searchLimit > 0 && len(steps) > searchLimit {
			steps = steps[:searchLimit]
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			results := make([]map[string]interface{}, 0, len(steps))
			for _, s := range steps {
				results = append(results, stepJSON(s))
			}
			return printJSON(out, map[string]interface{}{"tasks": results, "count": len(results)})
		}
		if len(steps) == 0 {
			fmt.Fprintln(out, "No matching tasks.")
			return nil
		}
		for _, s := range steps {
			fmt.Fprintf(out, "   %-30s %6s  %s\n", s.Label, formatMinutes(s.Duration), s.ID)
		}
		return nil
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Skip the current task",
	Long:  `Remove the current task from its list without recording it and load the next one.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.focus.Skip(cmd.Context()); err != nil {
			return err
		}
		printLatest(cmd.OutOrStdout(), app.notifier.Recent())
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Complete the current task",
	Long:  `Archive the current task with a history entry and load the next one.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.focus.Complete(cmd.Context()); err != nil {
			return err
		}
		printLatest(cmd.OutOrStdout(), app.notifier.Recent())
		return nil
	},
}

func init() {
	tasksCmd.PersistentFlags().StringVarP(&tasksList, "list", "l", "", "Task list (name, id or \"all\")")
	tasksAddCmd.Flags().IntVarP(&addMinutes, "minutes", "m", 0, "Planned minutes (default: timer.default_duration)")
	tasksInsertCmd.Flags().IntVar(&insertAt, "at", 1, "Queue number of the new task")
	tasksReorderCmd.Flags().StringVar(&reorderList, "in", "", "List whose order changes (default: all active tasks)")
	tasksSearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results")

	tasksCmd.AddCommand(tasksAddCmd, tasksCopyCmd, tasksDeleteCmd, tasksLockCmd, tasksTopCmd,
		tasksBottomCmd, tasksInsertCmd, tasksReorderCmd, tasksMoveCmd, tasksSearchCmd)
	rootCmd.AddCommand(tasksCmd, skipCmd, completeCmd)
}

// selectTasksList narrows the queue to --list when given.
func selectTasksList(cmd *cobra.Command) error {
	if tasksList == "" {
		return nil
	}
	listID, err := resolveList(app.focus.Snapshot().Lists, tasksList)
	if err != nil {
		return err
	}
	return app.focus.SelectList(cmd.Context(), listID)
}

// printQueue lists the queue with 1-based numbers for use as references.
func printQueue(w io.Writer, snap domain.FocusSnapshot) {
	if len(snap.Queue) == 0 {
		fmt.Fprintf(w, "No pending tasks in %s.\n", snap.SelectedListName)
		return
	}
	fmt.Fprintf(w, "📋 %s (%d, %s planned)\n", snap.SelectedListName, len(snap.Queue), formatMinutes(snap.PlannedTotal()))
	for i, s := range snap.Queue {
		line := fmt.Sprintf("  %2d. %-30s %6s", i+1, s.Label, formatMinutes(s.Duration))
		if s.EstimatedStartTime != nil && s.EstimatedEndTime != nil {
			line += fmt.Sprintf("  %s-%s", s.EstimatedStartTime.Format("15:04"), s.EstimatedEndTime.Format("15:04"))
		}
		if s.Locked {
			line += "  🔒"
		}
		fmt.Fprintln(w, line)
	}
}

// printLatest echoes the most recent engine notification as confirmation.
func printLatest(w io.Writer, recent []ports.Notification) {
	if len(recent) == 0 {
		return
	}
	last := recent[len(recent)-1]
	if last.Level == ports.LevelError {
		return
	}
	fmt.Fprintf(w, "✓ %s %s\n", last.Title, last.Message)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/focus-cli/internal/domain"
)

// listsCmd shows the task lists of the configured user.
var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Show task lists",
	Long:  `Show every task list with its number of pending tasks.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := app.focus.Snapshot()
		out := cmd.OutOrStdout()

		if jsonOutput {
			lists := make([]map[string]interface{}, 0, len(snap.Lists))
			for _, l := range snap.Lists {
				lists = append(lists, map[string]interface{}{
					"id":      l.ID,
					"name":    l.Name,
					"pending": l.Pending,
					"archive": l.Name == domain.CompletedTasksListName,
				})
			}
			return printJSON(out, map[string]interface{}{
				"lists": lists,
				"count": len(lists),
			})
		}

		if len(snap.Lists) == 0 {
			fmt.Fprintln(out, "No task lists.")
			return nil
		}
		fmt.Fprintf(out, "📚 Task lists (%s)\n", snap.UserName)
		for _, l := range snap.Lists {
			fmt.Fprintf(out, "   %-28s %3d pending  %s\n", l.Name, l.Pending, l.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listsCmd)
}

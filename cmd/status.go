package cmd

import (
	"github.com/spf13/cobra"
	"github.com/xvierd/focus-cli/internal/adapters/tui"
	"github.com/xvierd/focus-cli/internal/domain"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Long:  `Display the current task, the timer and the queue with its estimated schedule.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := app.focus.Snapshot()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), statusData(snap))
		}
		tui.ShowStatus(cmd.OutOrStdout(), snap)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusData is the JSON shape of `focus status --json`.
func statusData(snap domain.FocusSnapshot) map[string]interface{} {
	queue := make([]map[string]interface{}, 0, len(snap.Queue))
	for i := range snap.Queue {
		queue = append(queue, stepJSON(&snap.Queue[i]))
	}

	result := map[string]interface{}{
		"list_id":      snap.SelectedListID,
		"list_name":    snap.SelectedListName,
		"one_off":      snap.OneOff,
		"current_task": nil,
		"phase":        string(snap.Phase),
		"running":      snap.Running,
		"remaining":    snap.Remaining.String(),
		"progress":     snap.Progress,
		"queue":        queue,
		"planned":      snap.PlannedTotal().String(),
	}
	if snap.HasTask() {
		result["current_task"] = snap.CurrentLabel()
	}
	return result
}

func stepJSON(step *domain.Step) map[string]interface{} {
	data := map[string]interface{}{
		"id":       step.ID,
		"label":    step.Label,
		"list_id":  step.TaskListID,
		"duration": step.Duration.String(),
		"actual":   step.ActualDuration.String(),
		"locked":   step.Locked,
	}
	if step.EstimatedStartTime != nil && step.EstimatedEndTime != nil {
		data["estimated_start"] = step.EstimatedStartTime.Format("15:04")
		data["estimated_end"] = step.EstimatedEndTime.Format("15:04")
	}
	return data
}

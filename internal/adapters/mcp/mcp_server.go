// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xvierd/focus-cli/internal/domain"
	"github.com/xvierd/focus-cli/internal/ports"
)

const timeLayout = "2006-01-02T15:04:05"

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server   *server.MCPServer
	provider ports.FocusProvider
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewServer creates a new MCP server instance.
func NewServer(provider ports.FocusProvider) *Server {
	s := &Server{
		provider: provider,
	}

	s.server = server.NewMCPServer(
		"focus",
		"1.0.0",
		server.WithLogging(),
	)

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_focus_state",
			mcp.WithDescription("Get the focus state: current task, countdown, phase and selected list"),
		),
		s.handleGetFocusState,
	)

	s.server.AddTool(
		mcp.NewTool(
			"list_queue",
			mcp.WithDescription("List the pending task queue with estimated start and end times"),
		),
		s.handleListQueue,
	)

	s.server.AddTool(
		mcp.NewTool(
			"select_list",
			mcp.WithDescription("Switch the queue to a task list, or to all active tasks"),
			mcp.WithString(
				"list_id",
				mcp.Required(),
				mcp.Description("The list ID, or all-active-tasks for every active list"),
			),
		),
		s.handleSelectList,
	)

	s.server.AddTool(
		mcp.NewTool(
			"start_timer",
			mcp.WithDescription("Start or resume the countdown for the current task"),
		),
		s.handleStartTimer,
	)

	s.server.AddTool(
		mcp.NewTool(
			"pause_timer",
			mcp.WithDescription("Pause the countdown and record the time spent on the current task"),
		),
		s.handlePauseTimer,
	)

	s.server.AddTool(
		mcp.NewTool(
			"push_back",
			mcp.WithDescription("Add minutes to the countdown (negative values subtract)"),
			mcp.WithNumber(
				"minutes",
				mcp.Required(),
				mcp.Description("Minutes to add, for example 5 or -5"),
			),
		),
		s.handlePushBack,
	)

	s.server.AddTool(
		mcp.NewTool(
			"switch_phase",
			mcp.WithDescription("Switch between work and break and start that phase's countdown"),
			mcp.WithString(
				"phase",
				mcp.Required(),
				mcp.Description("The phase to switch to"),
				mcp.Enum(string(domain.PhaseWork), string(domain.PhaseBreak)),
			),
		),
		s.handleSwitchPhase,
	)

	s.server.AddTool(
		mcp.NewTool(
			"skip_task",
			mcp.WithDescription("Drop the current task from its list without completing it"),
		),
		s.handleSkipTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"complete_task",
			mcp.WithDescription("Complete the current task and archive it with a history entry"),
		),
		s.handleCompleteTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"add_task",
			mcp.WithDescription("Add a task to the end of a list"),
			mcp.WithString(
				"label",
				mcp.Required(),
				mcp.Description("The task label"),
			),
			mcp.WithNumber(
				"duration_minutes",
				mcp.Description("Planned minutes (default: the configured duration)"),
			),
			mcp.WithString(
				"list_id",
				mcp.Description("Target list ID (default: the selected or first list)"),
			),
		),
		s.handleAddTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"toggle_lock",
			mcp.WithDescription("Lock or unlock a task"),
			mcp.WithString(
				"task_id",
				mcp.Description("The task ID (default: the current task)"),
			),
		),
		s.handleToggleLock,
	)

	s.server.AddTool(
		mcp.NewTool(
			"move_task",
			mcp.WithDescription("Move a task to the top or bottom of the all-active ordering"),
			mcp.WithString(
				"task_id",
				mcp.Required(),
				mcp.Description("The task ID"),
			),
			mcp.WithString(
				"to",
				mcp.Required(),
				mcp.Description("Where to move the task"),
				mcp.Enum("top", "bottom"),
			),
		),
		s.handleMoveTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"reorder_tasks",
			mcp.WithDescription("Move the task at one queue index to another"),
			mcp.WithString(
				"list_id",
				mcp.Description("The list ID (default: the selected list)"),
			),
			mcp.WithNumber("from", mcp.Required(), mcp.Description("Zero-based source index")),
			mcp.WithNumber("to", mcp.Required(), mcp.Description("Zero-based target index")),
		),
		s.handleReorderTasks,
	)

	s.server.AddTool(
		mcp.NewTool(
			"insert_task",
			mcp.WithDescription("Insert a new default task at a queue position"),
			mcp.WithNumber(
				"position",
				mcp.Required(),
				mcp.Description("Zero-based position in the all-active queue"),
			),
		),
		s.handleInsertTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"copy_task",
			mcp.WithDescription("Duplicate a task into its own list"),
			mcp.WithString(
				"task_id",
				mcp.Description("The task ID (default: the current task)"),
			),
		),
		s.handleCopyTask,
	)

	s.server.AddTool(
		mcp.NewTool(
			"delete_task",
			mcp.WithDescription("Delete a task permanently"),
			mcp.WithString(
				"task_id",
				mcp.Required(),
				mcp.Description("The ID of the task to delete"),
			),
		),
		s.handleDeleteTask,
	)
}

// Start serves MCP requests via stdio until ctx is cancelled. The engine is
// ticked once per second meanwhile so a started timer keeps running.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	go s.tickLoop(s.ctx)

	stdio := server.NewStdioServer(s.server)
	if err := stdio.Listen(s.ctx, os.Stdin, os.Stdout); err != nil && s.ctx.Err() == nil {
		return err
	}
	return nil
}

func (s *Server) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(domain.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.provider.Tick(ctx)
		}
	}
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

// handleGetFocusState handles the get_focus_state tool.
func (s *Server) handleGetFocusState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(stateData(s.provider.Snapshot()))
}

// handleListQueue handles the list_queue tool.
func (s *Server) handleListQueue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.provider.Snapshot()

	queue := make([]map[string]interface{}, 0, len(snap.Queue))
	for i := range snap.Queue {
		queue = append(queue, stepData(&snap.Queue[i]))
	}

	return jsonResult(map[string]interface{}{
		"list_id":       snap.SelectedListID,
		"list_name":     snap.SelectedListName,
		"tasks":         queue,
		"total_count":   len(queue),
		"planned_total": snap.PlannedTotal().String(),
	})
}

func (s *Server) handleSelectList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID, err := request.RequireString("list_id")
	if err != nil {
		return mcp.NewToolResultError("list_id is required: " + err.Error()), nil
	}
	return s.apply("select list", func() error { return s.provider.SelectList(ctx, listID) })
}

func (s *Server) handleStartTimer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.apply("start timer", func() error { return s.provider.Start(ctx) })
}

func (s *Server) handlePauseTimer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.apply("pause timer", func() error { return s.provider.Pause(ctx) })
}

func (s *Server) handlePushBack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	minutes, ok := intArg(request, "minutes")
	if !ok {
		return mcp.NewToolResultError("minutes is required"), nil
	}
	return s.apply("push back", func() error { return s.provider.PushBack(ctx, minutes) })
}

func (s *Server) handleSwitchPhase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("phase")
	if err != nil {
		return mcp.NewToolResultError("phase is required: " + err.Error()), nil
	}
	phase, err := domain.ParsePhase(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.apply("switch phase", func() error { return s.provider.SwitchPhase(ctx, phase) })
}

func (s *Server) handleSkipTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.apply("skip task", func() error { return s.provider.Skip(ctx) })
}

func (s *Server) handleCompleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.apply("complete task", func() error { return s.provider.Complete(ctx) })
}

func (s *Server) handleAddTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := request.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError("label is required: " + err.Error()), nil
	}
	var duration time.Duration
	if minutes, ok := intArg(request, "duration_minutes"); ok && minutes > 0 {
		duration = time.Duration(minutes) * time.Minute
	}

	step, err := s.provider.AddTask(ctx, label, duration, request.GetString("list_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add task: %v", err)), nil
	}
	return jsonResult(stepData(step))
}

func (s *Server) handleToggleLock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := request.GetString("task_id", "")
	return s.apply("toggle lock", func() error { return s.provider.ToggleLock(ctx, taskID) })
}

func (s *Server) handleMoveTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("task_id is required: " + err.Error()), nil
	}
	switch to := request.GetString("to", ""); to {
	case "top":
		return s.apply("move task", func() error { return s.provider.MoveToTop(ctx, taskID) })
	case "bottom":
		return s.apply("move task", func() error { return s.provider.MoveToBottom(ctx, taskID) })
	default:
		return mcp.NewToolResultError(fmt.Sprintf("to must be top or bottom, got %q", to)), nil
	}
}

func (s *Server) handleReorderTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, okFrom := intArg(request, "from")
	to, okTo := intArg(request, "to")
	if !okFrom || !okTo {
		return mcp.NewToolResultError("from and to are required"), nil
	}
	listID := request.GetString("list_id", "")
	return s.apply("reorder tasks", func() error { return s.provider.Reorder(ctx, listID, from, to) })
}

func (s *Server) handleInsertTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	position, ok := intArg(request, "position")
	if !ok {
		return mcp.NewToolResultError("position is required"), nil
	}
	step, err := s.provider.InsertNewTask(ctx, position)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to insert task: %v", err)), nil
	}
	return jsonResult(stepData(step))
}

func (s *Server) handleCopyTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	step, err := s.provider.Copy(ctx, request.GetString("task_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to copy task: %v", err)), nil
	}
	return jsonResult(stepData(step))
}

func (s *Server) handleDeleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("task_id is required: " + err.Error()), nil
	}
	return s.apply("delete task", func() error { return s.provider.DeleteTask(ctx, taskID) })
}

// apply runs a state-changing operation and answers with the new state.
func (s *Server) apply(action string, op func() error) (*mcp.CallToolResult, error) {
	if err := op(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err)), nil
	}
	return jsonResult(stateData(s.provider.Snapshot()))
}

// intArg reads a numeric argument. JSON numbers arrive as float64; numeric
// strings are accepted too.
func intArg(request mcp.CallToolRequest, name string) (int, bool) {
	args := request.GetArguments()
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}

func stateData(snap domain.FocusSnapshot) map[string]interface{} {
	result := map[string]interface{}{
		"user":             snap.UserName,
		"list_id":          snap.SelectedListID,
		"list_name":        snap.SelectedListName,
		"mode":             string(snap.Mode),
		"one_off":          snap.OneOff,
		"current_task":     nil,
		"current_label":    snap.CurrentLabel(),
		"remaining":        snap.Remaining.String(),
		"remaining_secs":   int(snap.Remaining.Seconds()),
		"running":          snap.Running,
		"progress":         snap.Progress,
		"phase":            string(snap.Phase),
		"pomodoro_running": snap.PomodoroRunning,
		"auto_loop":        snap.AutoLoop,
		"cycle_enabled":    snap.Cycle.Enabled,
		"queue_length":     len(snap.Queue),
	}
	if snap.Current != nil {
		result["current_task"] = stepData(snap.Current)
	}
	return result
}

func stepData(step *domain.Step) map[string]interface{} {
	data := map[string]interface{}{
		"id":             step.ID,
		"list_id":        step.TaskListID,
		"label":          step.Label,
		"duration":       step.Duration.String(),
		"actual":         step.ActualDuration.String(),
		"remaining":      step.RemainingDuration().String(),
		"completed":      step.Completed,
		"locked":         step.Locked,
		"position":       step.Position,
		"breath_minutes": step.BreathSeconds() / 60,
	}
	if step.PositionWhenAllListsActive != nil {
		data["all_active_position"] = *step.PositionWhenAllListsActive
	}
	if step.EstimatedStartTime != nil {
		data["estimated_start"] = step.EstimatedStartTime.Format(timeLayout)
	}
	if step.EstimatedEndTime != nil {
		data["estimated_end"] = step.EstimatedEndTime.Format(timeLayout)
	}
	if step.Timezone != nil {
		data["timezone"] = *step.Timezone
	}
	return data
}

func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

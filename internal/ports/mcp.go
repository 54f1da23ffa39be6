package ports

import (
	"context"
	"time"

	"github.com/xvierd/focus-cli/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// FocusProvider exposes the focus engine to driving adapters (MCP, TUI).
// This is a driving port (implemented by the services layer).
type FocusProvider interface {
	// Snapshot returns a read-only copy of the engine state.
	Snapshot() domain.FocusSnapshot

	// Timer controls.
	Start(ctx context.Context) error
	Pause(ctx context.Context) error
	Tick(ctx context.Context) error
	PushBack(ctx context.Context, minutes int) error
	SwitchPhase(ctx context.Context, phase domain.Phase) error
	TogglePomodoro(ctx context.Context) error
	ResetPomodoro(ctx context.Context) error

	// Queue selection.
	SelectList(ctx context.Context, listID string) error
	EnterOneOffMode(ctx context.Context, label string) error

	// Task lifecycle.
	Skip(ctx context.Context) error
	Complete(ctx context.Context) error
	ToggleLock(ctx context.Context, stepID string) error
	Reorder(ctx context.Context, listID string, from, to int) error
	MoveToTop(ctx context.Context, stepID string) error
	MoveToBottom(ctx context.Context, stepID string) error
	InsertNewTask(ctx context.Context, position int) (*domain.Step, error)
	Copy(ctx context.Context, stepID string) (*domain.Step, error)
	DeleteTask(ctx context.Context, stepID string) error
	AddTask(ctx context.Context, label string, duration time.Duration, listID string) (*domain.Step, error)
}

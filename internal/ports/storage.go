// Package ports defines the interfaces (driven and driving ports)
// between the focus engine and the outside world.
package ports

import (
	"context"
	"time"

	"github.com/xvierd/focus-cli/internal/domain"
)

// UserProfile is the minimal profile the engine needs.
type UserProfile struct {
	UserID string
	Name   string
}

// StepUpdate carries a partial update for a step. Nil fields are left alone.
type StepUpdate struct {
	Label                      *string
	Duration                   *time.Duration
	ActualDuration             *time.Duration
	ElapsedTime                *time.Duration
	Completed                  *bool
	Locked                     *bool
	Position                   *int
	PositionWhenAllListsActive *int
	TaskListID                 *string
	Timezone                   *string
}

// IsEmpty reports whether the update touches no field.
func (u StepUpdate) IsEmpty() bool {
	return u == StepUpdate{}
}

// TaskListStore is the task-list persistence collaborator.
// This is a driven port (implemented by adapters).
type TaskListStore interface {
	// FetchTaskLists returns every list of the user with its steps in stored order.
	FetchTaskLists(ctx context.Context, userID string) ([]*domain.TaskList, error)

	// CreateTaskList creates an empty list at the given position.
	CreateTaskList(ctx context.Context, userID, name string, position int) (*domain.TaskList, error)

	// CreateStep persists a new step into the list named by step.TaskListID.
	CreateStep(ctx context.Context, step *domain.Step, userID string) error

	// UpdateStep applies a partial update.
	UpdateStep(ctx context.Context, stepID, userID string, update StepUpdate) error

	// DeleteStep removes a step owned by the user.
	DeleteStep(ctx context.Context, stepID, userID string) error

	// UpdateStepBreaths replaces the breaths of a step.
	UpdateStepBreaths(ctx context.Context, userID, stepID string, breaths []domain.Breath) error

	// AddTaskToTaskList appends a step to a list.
	AddTaskToTaskList(ctx context.Context, listID string, step *domain.Step) error

	// UpdateTaskInTaskList stores a full step and returns the stored copy.
	UpdateTaskInTaskList(ctx context.Context, listID string, step *domain.Step) (*domain.Step, error)

	// DeleteTaskFromTaskList removes a step from a list.
	DeleteTaskFromTaskList(ctx context.Context, listID, stepID string) error

	// CreateOrUpdateUserProfile returns the profile, creating it with defaultName.
	CreateOrUpdateUserProfile(ctx context.Context, userID, defaultName string) (*UserProfile, error)

	// ReorderSteps stores per-list positions for the given steps in one write.
	ReorderSteps(ctx context.Context, userID string, steps []*domain.Step) error

	// ReorderStepsAllActive stores all-active positions for the given steps in one write.
	ReorderStepsAllActive(ctx context.Context, userID string, steps []*domain.Step) error

	// SearchSteps fuzzy-matches pending step labels.
	SearchSteps(ctx context.Context, userID, query string) ([]*domain.Step, error)

	// Close closes the storage connection.
	Close() error
}

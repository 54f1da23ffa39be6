package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xvierd/focus-cli/internal/domain"
	"github.com/xvierd/focus-cli/internal/ports"
)

// AddTask creates a task at the end of a list. An empty listID means the
// selected list, or the first real list when nothing real is selected.
func (s *FocusService) AddTask(ctx context.Context, label string, duration time.Duration, listID string) (*domain.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list *domain.TaskList
	if listID == "" {
		list = s.firstRealList()
		if list == nil {
			return nil, s.report("add task", domain.ErrNoRealTaskList)
		}
	} else {
		if domain.IsSentinelListID(listID) {
			return nil, s.report("add task", fmt.Errorf("%w: %s", domain.ErrInvalidTarget, listID))
		}
		list = domain.FindList(s.lists, listID)
		if list == nil {
			return nil, s.report("add task", fmt.Errorf("%w: %s", domain.ErrListNotFound, listID))
		}
	}

	if duration <= 0 {
		duration = s.settings.DefaultDuration
	}
	step, err := domain.NewStep(strings.TrimSpace(label), duration)
	if err != nil {
		return nil, s.report("add task", err)
	}
	step.UserID = s.settings.UserID
	step.TaskListID = list.ID
	step.Position = nextListPosition(list)

	if err := s.store.CreateStep(ctx, step, s.settings.UserID); err != nil {
		return nil, s.report("add task", err)
	}
	list.Steps = append(list.Steps, step)

	if s.current == nil && !s.oneOff {
		s.current = domain.TopMost(s.queue())
		if s.current != nil && !s.timer.Running {
			s.timer.Reset(s.durationFor(s.current))
		}
	}

	s.logger.Info("task added", "task", step.Label, "list", list.Name)
	s.recomputeSchedule()
	return step, nil
}

// UpdateTask stores an edited task and refetches the lists. It closes the
// editor when the edited task was open in it.
func (s *FocusService) UpdateTask(ctx context.Context, step *domain.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if step == nil {
		return s.report("update task", domain.ErrStepNotFound)
	}
	if strings.TrimSpace(step.Label) == "" {
		return s.report("update task", domain.ErrEmptyLabel)
	}
	if domain.IsSentinelListID(step.TaskListID) {
		return s.report("update task", fmt.Errorf("%w: %s", domain.ErrInvalidTarget, step.TaskListID))
	}

	if l := domain.FindList(s.lists, step.TaskListID); l != nil {
		l.ReplaceStep(step)
	}
	if s.current != nil && s.current.ID == step.ID {
		s.current = step
	}
	if s.editingStepID == step.ID {
		s.editingStepID = ""
	}

	step.UpdatedAt = s.clock.Now()
	if _, err := s.store.UpdateTaskInTaskList(ctx, step.TaskListID, step); err != nil {
		err = s.report("update task", err)
		s.recomputeSchedule()
		return err
	}

	err := s.refetch(ctx)
	s.recomputeSchedule()
	return err
}

// MoveTaskToList moves a task to another real list. The store is written
// first and the lists are refetched afterwards.
func (s *FocusService) MoveTaskToList(ctx context.Context, stepID, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if domain.IsSentinelListID(listID) {
		return s.report("move task", fmt.Errorf("%w: %s", domain.ErrInvalidTarget, listID))
	}
	target := domain.FindList(s.lists, listID)
	if target == nil {
		return s.report("move task", fmt.Errorf("%w: %s", domain.ErrListNotFound, listID))
	}
	step, err := s.lookupStep(stepID)
	if err != nil {
		return s.report("move task", err)
	}

	pos := nextListPosition(target)
	update := ports.StepUpdate{TaskListID: &listID, Position: &pos}
	if err := s.store.UpdateStep(ctx, step.ID, s.settings.UserID, update); err != nil {
		return s.report("move task", err)
	}

	s.info("Task Moved", fmt.Sprintf("%q moved to %q.", step.Label, target.Name))
	err = s.refetch(ctx)
	if s.current != nil && domain.IndexOf(s.queue(), s.current.ID) < 0 && !s.timer.Running {
		s.current = domain.TopMost(s.queue())
		s.timer.Reset(s.durationFor(s.current))
	}
	s.recomputeSchedule()
	return err
}

// ToggleTaskCompletion marks a task completed or pending without archiving
// it. A completed current task hands over to the next one.
func (s *FocusService) ToggleTaskCompletion(ctx context.Context, stepID string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	step, err := s.lookupStep(stepID)
	if err != nil {
		return s.report("update task", err)
	}

	step.Completed = completed
	if completed && s.current != nil && s.current.ID == step.ID {
		now := s.clock.Now()
		wasRunning := s.timer.Running
		_ = s.stopSession(ctx, now)
		s.advance(ctx, now, wasRunning)
	}

	if err := s.store.UpdateStep(ctx, step.ID, s.settings.UserID, ports.StepUpdate{Completed: &completed}); err != nil {
		err = s.report("update task", err)
		s.recomputeSchedule()
		return err
	}
	s.recomputeSchedule()
	return nil
}

// SaveBreaths replaces the breaths of a task. One-off breaths are kept in
// memory only.
func (s *FocusService) SaveBreaths(ctx context.Context, stepID string, breaths []domain.Breath) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range breaths {
		breaths[i].Position = i + 1
		if breaths[i].ID == "" {
			breaths[i].ID = domain.NewBreathID()
		}
	}

	if stepID == domain.OneOffTaskID {
		s.oneOffBreaths = breaths
		return nil
	}

	step, err := s.lookupStep(stepID)
	if err != nil {
		return s.report("save breaths", err)
	}
	step.Breaths = breaths
	if err := s.store.UpdateStepBreaths(ctx, s.settings.UserID, step.ID, breaths); err != nil {
		return s.report("save breaths", err)
	}
	return nil
}

// UpdateCurrentTaskTimezone sets the IANA timezone of the current task.
func (s *FocusService) UpdateCurrentTaskTimezone(ctx context.Context, tz string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.oneOff {
		return s.report("update timezone", domain.ErrNoCurrentStep)
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return s.report("update timezone", err)
	}

	s.current.Timezone = &tz
	if err := s.store.UpdateStep(ctx, s.current.ID, s.settings.UserID, ports.StepUpdate{Timezone: &tz}); err != nil {
		return s.report("update timezone", err)
	}
	return nil
}

// Search fuzzy-matches pending task labels across every list.
func (s *FocusService) Search(ctx context.Context, query string) ([]*domain.Step, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	steps, err := s.store.SearchSteps(ctx, s.settings.UserID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	return steps, nil
}

// StartEditing opens a task in the editor.
func (s *FocusService) StartEditing(stepID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editingStepID = stepID
}

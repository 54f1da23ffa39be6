package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xvierd/focus-cli/internal/domain"
	"github.com/xvierd/focus-cli/internal/ports"
)

// historyClock is the layout of history start and end times.
const historyClock = "15:04"

// Skip drops the current task from its list without completing it.
// It is not available in one-off mode.
func (s *FocusService) Skip(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.oneOff {
		s.info("One-Off Mode", "Skipping is not applicable in one-off task mode.")
		return domain.ErrOneOffMode
	}
	if s.current == nil {
		s.logger.Debug("skip ignored: no current task")
		return nil
	}

	step := s.current
	if domain.IsSentinelListID(step.TaskListID) {
		return s.report("skip task", fmt.Errorf("%w: %s", domain.ErrInvalidTarget, step.TaskListID))
	}

	now := s.clock.Now()
	wasRunning := s.timer.Running
	s.timer.Stop(now)

	s.removeLocal(step)
	s.advance(ctx, now, wasRunning)

	var err error
	if rerr := s.store.DeleteTaskFromTaskList(ctx, step.TaskListID, step.ID); rerr != nil {
		err = s.report("skip task", rerr)
	} else {
		s.info("Task Skipped", fmt.Sprintf("%q was skipped.", step.Label))
	}

	s.recomputeSchedule()
	return err
}

// Complete finishes the current task. Its in-flight session time is
// accrued, a history entry is appended, and the task leaves the queue.
// In one-off mode it only clears the one-off task.
func (s *FocusService) Complete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	if s.oneOff {
		label := s.oneOffLabel
		s.timer.Stop(now)
		s.oneOff = false
		s.oneOffLabel = DefaultOneOffLabel
		s.oneOffBreaths = nil
		s.timer.Reset(s.durationFor(s.current))
		s.info("One-Off Task Completed!", fmt.Sprintf("%q marked as complete.", label))
		s.recomputeSchedule()
		return nil
	}
	if s.current == nil {
		s.logger.Debug("complete ignored: no current task")
		return nil
	}

	step := s.current
	listID := step.TaskListID
	if domain.IsSentinelListID(listID) {
		return s.report("complete task", fmt.Errorf("%w: %s", domain.ErrInvalidTarget, listID))
	}

	// In-flight time must be read before the session is cleared.
	wasRunning := s.timer.Running
	inFlight := time.Duration(0)
	if s.chargesStep() {
		inFlight = s.timer.InFlight(now)
	}
	s.timer.Stop(now)
	step.AccrueActual(inFlight)

	// Record the finished span; a task never timed falls back to its plan
	span := step.ActualDuration
	if span <= 0 {
		span = step.Duration
	}
	entry := domain.HistoryEntry{
		StartTime:      now.Add(-span).Format(historyClock),
		EndTime:        now.Format(historyClock),
		ActualDuration: step.ActualDuration,
	}
	// Attach branch and commit when run inside a repository
	if info := s.detectGit(ctx); info != nil {
		entry.GitBranch = info.Branch
		entry.GitCommit = info.ShortCommit()
	}
	step.History = append(step.History, entry)
	step.Completed = true

	s.logger.Info("task completed",
		"task", step.Label,
		"actual", step.ActualDuration,
		"breath_seconds", step.BreathSeconds())

	// Hand over to the next task before writing
	s.removeLocal(step)
	s.advance(ctx, now, wasRunning)

	err := s.persistCompletion(ctx, listID, step)
	if err == nil {
		s.info("Task Completed!", fmt.Sprintf("%q was completed.", step.Label))
	}

	s.recomputeSchedule()
	return err
}

// persistCompletion stores the completed task and then takes it out of its
// list. The second write is skipped when the first fails.
func (s *FocusService) persistCompletion(ctx context.Context, listID string, step *domain.Step) error {
	if _, err := s.store.UpdateTaskInTaskList(ctx, listID, step); err != nil {
		return s.report("complete task", err)
	}
	if err := s.store.DeleteTaskFromTaskList(ctx, listID, step.ID); err != nil {
		return s.report("complete task", err)
	}
	return nil
}

func (s *FocusService) detectGit(ctx context.Context) *ports.GitInfo {
	if s.git == nil {
		return nil
	}
	info, err := s.git.Detect(ctx, s.settings.WorkingDir)
	if err != nil {
		s.logger.Debug("no git context", "error", err)
		return nil
	}
	return info
}

// ToggleLock flips the locked flag of a task. An empty id means the current task.
func (s *FocusService) ToggleLock(ctx context.Context, stepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	step, err := s.lookupStep(stepID)
	if err != nil {
		return s.report("toggle lock", err)
	}
	if domain.IsSentinelListID(step.TaskListID) {
		return s.report("toggle lock", fmt.Errorf("%w: %s", domain.ErrInvalidTarget, step.TaskListID))
	}

	step.Locked = !step.Locked
	step.UpdatedAt = s.clock.Now()

	if _, rerr := s.store.UpdateTaskInTaskList(ctx, step.TaskListID, step); rerr != nil {
		err = s.report("toggle lock", rerr)
	} else if step.Locked {
		s.info("Task Locked", fmt.Sprintf("%q is now locked.", step.Label))
	} else {
		s.info("Task Unlocked", fmt.Sprintf("%q is now unlocked.", step.Label))
	}

	s.recomputeSchedule()
	return err
}

// Reorder moves the queued task at index from to index to and saves the new
// order in one write. Indexes address the pending queue of listID. For the
// all-active aggregate the all-active positions are rewritten.
func (s *FocusService) Reorder(ctx context.Context, listID string, from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if listID == "" {
		listID = s.selectedListID
	}

	var err error
	switch {
	case listID == domain.AllActiveTasksID:
		queue := domain.AllActiveQueue(s.lists)
		if from < 0 || from >= len(queue) || to < 0 || to >= len(queue) {
			return s.report("reorder tasks", domain.ErrIndexOutOfRange)
		}
		reordered := domain.MoveIndex(queue, from, to)
		for i, step := range reordered {
			step.SetAllActivePosition(i + 1)
		}
		if rerr := s.store.ReorderStepsAllActive(ctx, s.settings.UserID, reordered); rerr != nil {
			err = s.report("reorder tasks", rerr)
		}
	case domain.IsSentinelListID(listID):
		return s.report("reorder tasks", fmt.Errorf("%w: %s", domain.ErrInvalidTarget, listID))
	default:
		list := domain.FindList(s.lists, listID)
		if list == nil {
			return s.report("reorder tasks", fmt.Errorf("%w: %s", domain.ErrListNotFound, listID))
		}
		// from and to address the pending queue; completed steps kept in
		// the list shift the stored indexes.
		queue := domain.ResolveQueue(s.lists, domain.QueueSingleList, listID)
		if from < 0 || from >= len(queue) || to < 0 || to >= len(queue) {
			return s.report("reorder tasks", domain.ErrIndexOutOfRange)
		}
		_, src := list.FindStep(queue[from].ID)
		_, dst := list.FindStep(queue[to].ID)
		if merr := list.MoveStep(src, dst); merr != nil {
			return s.report("reorder tasks", merr)
		}
		list.RenumberPositions()
		if rerr := s.store.ReorderSteps(ctx, s.settings.UserID, list.Steps); rerr != nil {
			err = s.report("reorder tasks", rerr)
		}
	}

	if err == nil {
		s.info("Tasks Reordered", "Task order saved.")
	}
	s.recomputeSchedule()
	return err
}

// MoveToTop puts a task first in the all-active ordering.
func (s *FocusService) MoveToTop(ctx context.Context, stepID string) error {
	return s.relocate(ctx, stepID, true)
}

// MoveToBottom puts a task last in the all-active ordering.
func (s *FocusService) MoveToBottom(ctx context.Context, stepID string) error {
	return s.relocate(ctx, stepID, false)
}

func (s *FocusService) relocate(ctx context.Context, stepID string, top bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := "move task to bottom"
	if top {
		action = "move task to top"
	}

	queue := domain.AllActiveQueue(s.lists)
	idx := domain.IndexOf(queue, stepID)
	if idx < 0 {
		return s.report(action, fmt.Errorf("%w: %s", domain.ErrStepNotFound, stepID))
	}

	to := len(queue) - 1
	if top {
		to = 0
	}
	reordered := domain.MoveIndex(queue, idx, to)

	// Only steps whose position changed are written
	err := s.persistPositions(ctx, action, renumberAllActive(reordered))
	if err == nil {
		label := queue[idx].Label
		if top {
			s.info("Task Moved", fmt.Sprintf("%q moved to the top.", label))
		} else {
			s.info("Task Moved", fmt.Sprintf("%q moved to the bottom.", label))
		}
	}
	s.recomputeSchedule()
	return err
}

// renumberAllActive assigns all-active positions 1..N in slice order and
// returns the steps whose position changed.
func renumberAllActive(steps []*domain.Step) []*domain.Step {
	var changed []*domain.Step
	for i, step := range steps {
		pos := i + 1
		if step.PositionWhenAllListsActive != nil && *step.PositionWhenAllListsActive == pos {
			continue
		}
		step.SetAllActivePosition(pos)
		changed = append(changed, step)
	}
	return changed
}

// persistPositions writes each changed all-active position on its own.
// Every write is attempted; failures are collected into a BatchError and
// successful writes are kept.
func (s *FocusService) persistPositions(ctx context.Context, action string, changed []*domain.Step) error {
	var failed []string
	var firstErr error
	for _, step := range changed {
		pos := *step.PositionWhenAllListsActive
		err := s.store.UpdateStep(ctx, step.ID, s.settings.UserID, ports.StepUpdate{PositionWhenAllListsActive: &pos})
		if err != nil {
			s.logger.Error("position write failed", "task", step.ID, "position", pos, "error", err)
			failed = append(failed, step.ID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return s.report(action, &domain.BatchError{Failed: failed, Total: len(changed), Err: firstErr})
}

// InsertNewTask creates a default task at index position of the all-active
// ordering and opens it for editing. The task goes to the selected list, or
// to the first real list when the selection is not one.
func (s *FocusService) InsertNewTask(ctx context.Context, position int) (*domain.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.firstRealList()
	if list == nil {
		return nil, s.report("insert task", domain.ErrNoRealTaskList)
	}

	step, err := domain.NewStep(domain.DefaultStepLabel, s.settings.DefaultDuration)
	if err != nil {
		return nil, s.report("insert task", err)
	}
	step.UserID = s.settings.UserID
	step.TaskListID = list.ID
	step.Position = nextListPosition(list)

	// Clamp the insert point to the aggregate queue
	queue := domain.AllActiveQueue(s.lists)
	if position < 0 {
		position = 0
	}
	if position > len(queue) {
		position = len(queue)
	}
	step.SetAllActivePosition(position + 1)

	ordered := make([]*domain.Step, 0, len(queue)+1)
	ordered = append(ordered, queue[:position]...)
	ordered = append(ordered, step)
	ordered = append(ordered, queue[position:]...)

	// The new step is created with its position; shifted neighbours are updated
	var neighbors []*domain.Step
	for _, changed := range renumberAllActive(ordered) {
		if changed != step {
			neighbors = append(neighbors, changed)
		}
	}

	list.Steps = append(list.Steps, step)
	s.editingStepID = step.ID

	// An empty queue gets its first current task
	if s.current == nil && !s.oneOff {
		s.current = domain.TopMost(s.queue())
		if s.current != nil && !s.timer.Running {
			s.timer.Reset(s.durationFor(s.current))
		}
	}

	if cerr := s.store.CreateStep(ctx, step, s.settings.UserID); cerr != nil {
		err := s.report("insert task", cerr)
		s.recomputeSchedule()
		return step, err
	}
	err = s.persistPositions(ctx, "insert task", neighbors)
	if err == nil {
		s.info("Task Added", fmt.Sprintf("New task inserted at position %d.", position+1))
	}

	s.recomputeSchedule()
	return step, err
}

// Copy duplicates a task into its own list. An empty id means the current task.
func (s *FocusService) Copy(ctx context.Context, stepID string) (*domain.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	step, err := s.lookupStep(stepID)
	if err != nil {
		return nil, s.report("copy task", err)
	}
	list := domain.FindList(s.lists, step.TaskListID)
	if list == nil || domain.IsSentinelListID(list.ID) {
		return nil, s.report("copy task", fmt.Errorf("%w: %s", domain.ErrInvalidTarget, step.TaskListID))
	}

	dup := step.Copy()
	dup.Position = nextListPosition(list)
	list.Steps = append(list.Steps, dup)

	if aerr := s.store.AddTaskToTaskList(ctx, list.ID, dup); aerr != nil {
		err = s.report("copy task", aerr)
	} else {
		s.info("Task Copied", fmt.Sprintf("%q was copied.", step.Label))
	}

	s.recomputeSchedule()
	return dup, err
}

// DeleteTask removes a task permanently. The owning list is found through
// the all-active aggregate when it is selected. The store is written first;
// on success local state follows and all lists are refetched.
func (s *FocusService) DeleteTask(ctx context.Context, stepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var step *domain.Step
	if s.selectedListID == domain.AllActiveTasksID {
		for _, l := range s.lists {
			if l.IsArchive() {
				continue
			}
			if found, _ := l.FindStep(stepID); found != nil {
				step = found
				break
			}
		}
		if step == nil {
			return s.report("delete task", fmt.Errorf("%w: %s", domain.ErrStepNotFound, stepID))
		}
	} else {
		list := domain.FindList(s.lists, s.selectedListID)
		if list != nil {
			step, _ = list.FindStep(stepID)
		}
		if step == nil {
			return s.report("delete task", fmt.Errorf("%w in current list: %s", domain.ErrStepNotFound, stepID))
		}
	}

	if domain.IsSentinelListID(step.TaskListID) {
		return s.report("delete task", fmt.Errorf("%w: %s", domain.ErrInvalidTarget, step.TaskListID))
	}

	if err := s.store.DeleteStep(ctx, step.ID, s.settings.UserID); err != nil {
		return s.report("delete task", err)
	}

	now := s.clock.Now()
	wasCurrent := s.current != nil && s.current.ID == step.ID
	wasRunning := s.timer.Running
	if wasCurrent {
		s.timer.Stop(now)
	}

	s.removeLocal(step)
	if s.editingStepID == step.ID {
		s.editingStepID = ""
	}
	if wasCurrent {
		s.advance(ctx, now, wasRunning)
	}

	err := s.refetch(ctx)
	s.info("Task Deleted", fmt.Sprintf("%q was successfully deleted.", step.Label))

	s.recomputeSchedule()
	return err
}

// lookupStep finds a task by id across real lists. An empty id resolves to
// the current task.
func (s *FocusService) lookupStep(stepID string) (*domain.Step, error) {
	if stepID == "" {
		if s.oneOff {
			return nil, domain.ErrOneOffMode
		}
		if s.current == nil {
			return nil, domain.ErrNoCurrentStep
		}
		return s.current, nil
	}
	step, _ := domain.FindStepInLists(s.lists, stepID)
	if step == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrStepNotFound, stepID)
	}
	return step, nil
}

// removeLocal takes step out of its owning list.
func (s *FocusService) removeLocal(step *domain.Step) {
	if l := domain.FindList(s.lists, step.TaskListID); l != nil {
		l.RemoveStep(step.ID)
	}
}

func nextListPosition(list *domain.TaskList) int {
	highest := 0
	for _, step := range list.Steps {
		if step.Position > highest {
			highest = step.Position
		}
	}
	return highest + 1
}

// IsBatchError reports whether err is a partial bulk write failure.
func IsBatchError(err error) bool {
	var batch *domain.BatchError
	return errors.As(err, &batch)
}

// Package domain contains the core entities of the focus engine: steps,
// task lists, the session timer and the phase controller. Everything here is
// free of I/O; time is always passed in by the caller.
package domain

import (
	"strings"
	"time"
)

// Reserved task list identities. None of them exist in storage.
const (
	NoListSelectedID = "no-list-selected"
	AllActiveTasksID = "all-active-tasks"
	OneOffTaskID     = "one-off-task-id"
)

// CompletedTasksListName names the archive list that is never part of the
// all-active aggregate.
const CompletedTasksListName = "✅ Completed Tasks"

// PositionSentinel is the sort key used for steps without an all-active position.
const PositionSentinel = 9999

// Defaults applied to freshly inserted steps.
const (
	DefaultStepLabel = "New Task"
	DefaultStepIcon  = "📝"
	DefaultStepColor = "#7C6FE0"
	CopySuffix       = " (Copy)"
	FirstBreathName  = "First breath"
)

// IsSentinelListID reports whether id is one of the reserved list identities.
func IsSentinelListID(id string) bool {
	return id == "" || id == NoListSelectedID || id == AllActiveTasksID || id == OneOffTaskID
}

// HistoryEntry records one finished piece of work on a step.
// Start and End are 24-hour local clock strings (HH:MM).
type HistoryEntry struct {
	StartTime      string
	EndTime        string
	ActualDuration time.Duration
	GitBranch      string
	GitCommit      string
}

// Breath is a sub-interval of focused work inside a step.
type Breath struct {
	ID                    string
	Name                  string
	Completed             bool
	TotalTimeSeconds      int
	TimeEstimationSeconds int
	Position              int
}

// Step is a single unit of work owned by exactly one task list.
type Step struct {
	ID                         string
	UserID                     string
	TaskListID                 string
	Label                      string
	Duration                   time.Duration
	ActualDuration             time.Duration
	ElapsedTime                time.Duration
	Completed                  bool
	Locked                     bool
	Position                   int
	PositionWhenAllListsActive *int
	Timezone                   *string
	Color                      string
	Icon                       string
	History                    []HistoryEntry
	Breaths                    []Breath
	EstimatedStartTime         *time.Time
	EstimatedEndTime           *time.Time
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// NewStep creates a step with the given label and planned duration.
func NewStep(label string, duration time.Duration) (*Step, error) {
	if strings.TrimSpace(label) == "" {
		return nil, ErrEmptyLabel
	}
	if duration < 0 {
		return nil, ErrInvalidDuration
	}

	now := time.Now()
	return &Step{
		ID:        generateID(),
		Label:     label,
		Duration:  duration,
		Color:     DefaultStepColor,
		Icon:      DefaultStepIcon,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// RemainingDuration returns the planned time not yet spent, floored at zero.
func (s *Step) RemainingDuration() time.Duration {
	remaining := s.Duration - s.ActualDuration
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SortPosition returns the all-active sort key.
func (s *Step) SortPosition() int {
	if s.PositionWhenAllListsActive == nil {
		return PositionSentinel
	}
	return *s.PositionWhenAllListsActive
}

// SetAllActivePosition stores pos as the all-active position.
func (s *Step) SetAllActivePosition(pos int) {
	s.PositionWhenAllListsActive = &pos
}

// AccrueActual adds elapsed to the accumulated actual duration. Negative
// values are ignored so the total never decreases.
func (s *Step) AccrueActual(elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	s.ActualDuration += elapsed
	s.ElapsedTime = elapsed
	s.UpdatedAt = time.Now()
}

// BreathSeconds sums the time spent across all breaths.
func (s *Step) BreathSeconds() int {
	total := 0
	for _, b := range s.Breaths {
		total += b.TotalTimeSeconds
	}
	return total
}

// EnsureFirstBreath seeds a default breath when the step has none.
// It reports whether a breath was added.
func (s *Step) EnsureFirstBreath() bool {
	if len(s.Breaths) > 0 {
		return false
	}
	s.Breaths = []Breath{NewFirstBreath(s.Duration)}
	return true
}

// NewFirstBreath builds the default breath seeded with a planned duration.
func NewFirstBreath(planned time.Duration) Breath {
	return Breath{
		ID:                    generateID(),
		Name:                  FirstBreathName,
		TimeEstimationSeconds: int(planned / time.Second),
		Position:              1,
	}
}

// Copy duplicates the step under a new identity. The copy is pending,
// carries no schedule estimate and its label is suffixed.
func (s *Step) Copy() *Step {
	dup := *s
	dup.ID = generateID()
	dup.Label = s.Label + CopySuffix
	dup.Completed = false
	dup.EstimatedStartTime = nil
	dup.EstimatedEndTime = nil
	dup.PositionWhenAllListsActive = nil
	if s.Timezone != nil {
		tz := *s.Timezone
		dup.Timezone = &tz
	}
	dup.History = append([]HistoryEntry(nil), s.History...)
	dup.Breaths = make([]Breath, len(s.Breaths))
	for i, b := range s.Breaths {
		b.ID = generateID()
		dup.Breaths[i] = b
	}
	now := time.Now()
	dup.CreatedAt = now
	dup.UpdatedAt = now
	return &dup
}

// TaskList is a named, ordered collection of steps.
type TaskList struct {
	ID        string
	UserID    string
	Name      string
	Position  int
	Steps     []*Step
	CreatedAt time.Time
}

// NewTaskList creates an empty task list.
func NewTaskList(userID, name string, position int) (*TaskList, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyListName
	}
	return &TaskList{
		ID:        generateID(),
		UserID:    userID,
		Name:      name,
		Position:  position,
		Steps:     []*Step{},
		CreatedAt: time.Now(),
	}, nil
}

// IsArchive reports whether the list is the completed-tasks archive.
func (l *TaskList) IsArchive() bool {
	return l.Name == CompletedTasksListName
}

// FindStep returns the step with the given id and its index, or -1.
func (l *TaskList) FindStep(id string) (*Step, int) {
	for i, s := range l.Steps {
		if s.ID == id {
			return s, i
		}
	}
	return nil, -1
}

// RemoveStep drops the step with the given id. It reports whether it was present.
func (l *TaskList) RemoveStep(id string) bool {
	_, idx := l.FindStep(id)
	if idx < 0 {
		return false
	}
	l.Steps = append(l.Steps[:idx], l.Steps[idx+1:]...)
	return true
}

// ReplaceStep swaps in an updated copy of a step already in the list.
func (l *TaskList) ReplaceStep(step *Step) bool {
	_, idx := l.FindStep(step.ID)
	if idx < 0 {
		return false
	}
	l.Steps[idx] = step
	return true
}

// MoveStep moves the step at from to index to, shifting the others.
func (l *TaskList) MoveStep(from, to int) error {
	n := len(l.Steps)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrIndexOutOfRange
	}
	l.Steps = MoveIndex(l.Steps, from, to)
	return nil
}

// RenumberPositions assigns per-list positions 1..N in slice order.
func (l *TaskList) RenumberPositions() {
	for i, s := range l.Steps {
		s.Position = i + 1
	}
}

// FindList returns the list with the given id.
func FindList(lists []*TaskList, id string) *TaskList {
	for _, l := range lists {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// FindStepInLists searches every real list for a step.
func FindStepInLists(lists []*TaskList, stepID string) (*Step, *TaskList) {
	for _, l := range lists {
		if IsSentinelListID(l.ID) {
			continue
		}
		if s, _ := l.FindStep(stepID); s != nil {
			return s, l
		}
	}
	return nil, nil
}

// MoveIndex returns steps with the element at from extracted and
// reinserted at to. The input slice is not modified.
func MoveIndex(steps []*Step, from, to int) []*Step {
	out := make([]*Step, 0, len(steps))
	moved := steps[from]
	for i, s := range steps {
		if i != from {
			out = append(out, s)
		}
	}
	out = append(out, nil)
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}

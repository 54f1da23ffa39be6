package domain

import "time"

// ListSummary describes a task list without its steps.
type ListSummary struct {
	ID       string
	Name     string
	Position int
	Pending  int
}

// FocusSnapshot is a read-only copy of the engine state handed to views.
type FocusSnapshot struct {
	Timestamp        time.Time
	UserName         string
	SelectedListID   string
	SelectedListName string
	Mode             QueueMode
	OneOff           bool
	OneOffLabel      string
	Current          *Step
	Remaining        time.Duration
	Total            time.Duration
	Running          bool
	Elapsed          time.Duration
	Progress         float64
	Phase            Phase
	PomodoroRunning  bool
	AutoLoop         bool
	Cycle            CycleConfig
	Queue            []Step
	Lists            []ListSummary
	EditingStepID    string
}

// CurrentLabel returns the label shown for the running task.
func (s *FocusSnapshot) CurrentLabel() string {
	switch {
	case s.OneOff:
		return s.OneOffLabel
	case s.Current != nil:
		return s.Current.Label
	default:
		return ""
	}
}

// HasTask reports whether timer transitions are meaningful.
func (s *FocusSnapshot) HasTask() bool {
	return s.OneOff || s.Current != nil
}

// PlannedTotal sums the planned durations of the queue.
func (s *FocusSnapshot) PlannedTotal() time.Duration {
	var total time.Duration
	for _, step := range s.Queue {
		total += step.Duration
	}
	return total
}

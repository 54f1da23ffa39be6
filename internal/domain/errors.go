package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors.
var (
	ErrStepNotFound    = errors.New("task not found")
	ErrListNotFound    = errors.New("task list not found")
	ErrInvalidTarget   = errors.New("invalid task list target")
	ErrOneOffMode      = errors.New("not applicable in one-off task mode")
	ErrNoCurrentStep   = errors.New("no current task")
	ErrEmptyLabel      = errors.New("task label cannot be empty")
	ErrEmptyListName   = errors.New("task list name cannot be empty")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidPhase    = errors.New("invalid phase")
	ErrTimerNotRunning = errors.New("timer is not running")
	ErrNoRealTaskList  = errors.New("no task list available")
	ErrDuplicateList   = errors.New("task list already exists")
)

// BatchError reports a bulk write where some of the independent writes failed.
// Writes that succeeded are not undone.
type BatchError struct {
	Failed []string
	Total  int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d writes failed (%s): %v", len(e.Failed), e.Total, strings.Join(e.Failed, ", "), e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

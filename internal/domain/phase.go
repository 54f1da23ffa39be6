package domain

import (
	"fmt"
	"time"
)

// Phase is the current half of the work/break cycle.
type Phase string

const (
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"
)

// DefaultBreakDuration is the break length used outside a fixed cycle.
const DefaultBreakDuration = 5 * time.Minute

// ParsePhase validates a phase name.
func ParsePhase(s string) (Phase, error) {
	switch Phase(s) {
	case PhaseWork, PhaseBreak:
		return Phase(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPhase, s)
	}
}

// Next returns the opposite phase.
func (p Phase) Next() Phase {
	if p == PhaseWork {
		return PhaseBreak
	}
	return PhaseWork
}

// Label returns a human-readable name for the phase.
func (p Phase) Label() string {
	if p == PhaseBreak {
		return "Break"
	}
	return "Focus"
}

// CycleConfig is a fixed work/break cadence that overrides ad hoc durations.
type CycleConfig struct {
	Enabled      bool
	WorkMinutes  int
	BreakMinutes int
}

// DefaultCycleConfig returns the stock 30/5 cadence, disabled.
func DefaultCycleConfig() CycleConfig {
	return CycleConfig{WorkMinutes: 30, BreakMinutes: 5}
}

// DurationFor returns the cycle length of a phase.
func (c CycleConfig) DurationFor(p Phase) time.Duration {
	if p == PhaseBreak {
		return time.Duration(c.BreakMinutes) * time.Minute
	}
	return time.Duration(c.WorkMinutes) * time.Minute
}

// ExpiryAction tells the engine what to do after the countdown hit zero.
type ExpiryAction int

const (
	// ExpiryStop leaves the timer stopped.
	ExpiryStop ExpiryAction = iota
	// ExpiryResumeDelayed resumes after the cycle resume delay.
	ExpiryResumeDelayed
	// ExpiryResumeNow resumes immediately.
	ExpiryResumeNow
)

// ExpiryPlan is the decision taken by the phase controller on expiry.
type ExpiryPlan struct {
	Action   ExpiryAction
	Phase    Phase
	Duration time.Duration
}

// PhaseController governs the alternation between work and break.
type PhaseController struct {
	Phase           Phase
	PomodoroRunning bool
	AutoLoop        bool
	Cycle           CycleConfig
	WorkDuration    time.Duration
	BreakDuration   time.Duration
}

// NewPhaseController starts in the work phase.
func NewPhaseController(work time.Duration, autoLoop bool, cycle CycleConfig) PhaseController {
	return PhaseController{
		Phase:         PhaseWork,
		AutoLoop:      autoLoop,
		Cycle:         cycle,
		WorkDuration:  work,
		BreakDuration: DefaultBreakDuration,
	}
}

// DefaultDurationFor returns the ad hoc length of a phase.
func (c *PhaseController) DefaultDurationFor(p Phase) time.Duration {
	if p == PhaseBreak {
		return c.BreakDuration
	}
	return c.WorkDuration
}

// OnExpire decides the next step once the countdown reached zero and flips
// the phase when an automation is active.
func (c *PhaseController) OnExpire() ExpiryPlan {
	switch {
	case c.Cycle.Enabled:
		c.Phase = c.Phase.Next()
		return ExpiryPlan{Action: ExpiryResumeDelayed, Phase: c.Phase, Duration: c.Cycle.DurationFor(c.Phase)}
	case c.AutoLoop:
		c.Phase = c.Phase.Next()
		return ExpiryPlan{Action: ExpiryResumeNow, Phase: c.Phase, Duration: c.DefaultDurationFor(c.Phase)}
	default:
		c.PomodoroRunning = false
		return ExpiryPlan{Action: ExpiryStop, Phase: c.Phase}
	}
}

// SwitchPhase sets the phase and returns its default duration.
func (c *PhaseController) SwitchPhase(p Phase) time.Duration {
	c.Phase = p
	c.PomodoroRunning = true
	return c.DefaultDurationFor(p)
}

// TogglePomodoro flips the simplified pomodoro flag and returns the new value.
func (c *PhaseController) TogglePomodoro() bool {
	c.PomodoroRunning = !c.PomodoroRunning
	return c.PomodoroRunning
}

// Reset returns to an idle work phase and yields the work duration.
func (c *PhaseController) Reset() time.Duration {
	c.Phase = PhaseWork
	c.PomodoroRunning = false
	return c.WorkDuration
}

package domain

import "time"

// TickInterval is the countdown decrement applied by every tick.
const TickInterval = time.Second

// SessionTimer is the countdown for the current step or phase.
//
// SessionStart holds a reading from a monotonic clock; elapsed time is always
// derived from it with Sub, never from wall-clock arithmetic.
type SessionTimer struct {
	Remaining    time.Duration
	Total        time.Duration
	Running      bool
	SessionStart *time.Time
	Elapsed      time.Duration
}

// NewSessionTimer returns a stopped timer loaded with d.
func NewSessionTimer(d time.Duration) SessionTimer {
	if d < 0 {
		d = 0
	}
	return SessionTimer{Remaining: d, Total: d}
}

// Start moves the timer to Running. It reports false if it was already running.
func (t *SessionTimer) Start(now time.Time) bool {
	if t.Running {
		return false
	}
	t.Running = true
	start := now
	t.SessionStart = &start
	t.Elapsed = 0
	return true
}

// Tick decrements the countdown by one interval. It reports true when this
// tick brought the countdown to zero; the caller must then call Expire.
func (t *SessionTimer) Tick(now time.Time) bool {
	if !t.Running {
		return false
	}
	t.Remaining -= TickInterval
	if t.SessionStart != nil {
		t.Elapsed = now.Sub(*t.SessionStart)
	}
	if t.Remaining <= 0 {
		t.Remaining = 0
		return true
	}
	return false
}

// InFlight returns the time spent in the current session so far.
func (t *SessionTimer) InFlight(now time.Time) time.Duration {
	if t.SessionStart == nil {
		return 0
	}
	elapsed := now.Sub(*t.SessionStart)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Stop moves the timer to Stopped and returns the time spent since the
// session started. The countdown keeps its current value.
func (t *SessionTimer) Stop(now time.Time) time.Duration {
	elapsed := t.InFlight(now)
	t.Running = false
	t.SessionStart = nil
	t.Elapsed = elapsed
	return elapsed
}

// StopForStep stops the timer and charges the session to step. The countdown
// becomes the step's remaining planned time, so progress is frozen rather
// than reset.
func (t *SessionTimer) StopForStep(now time.Time, step *Step) time.Duration {
	elapsed := t.Stop(now)
	if step == nil {
		return elapsed
	}
	step.AccrueActual(elapsed)
	t.Remaining = step.RemainingDuration()
	return elapsed
}

// Expire handles a countdown that reached zero while running.
func (t *SessionTimer) Expire(now time.Time) time.Duration {
	elapsed := t.Stop(now)
	t.Remaining = 0
	return elapsed
}

// PushBack shifts the countdown by deltaMinutes, floored at zero.
// Total is left untouched.
func (t *SessionTimer) PushBack(deltaMinutes int) {
	t.Remaining += time.Duration(deltaMinutes) * time.Minute
	if t.Remaining < 0 {
		t.Remaining = 0
	}
}

// Reset stops the timer and loads d as both remaining and total.
func (t *SessionTimer) Reset(d time.Duration) {
	*t = NewSessionTimer(d)
}

// Restart loads d and resumes immediately.
func (t *SessionTimer) Restart(now time.Time, d time.Duration) {
	t.Reset(d)
	t.Start(now)
}

// Progress returns the consumed fraction of Total. It is not clamped.
func (t *SessionTimer) Progress() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Total-t.Remaining) / float64(t.Total)
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xvierd/focus-cli/internal/domain"
	"github.com/xvierd/focus-cli/internal/ports"
)

// hasTask reports whether timer transitions apply.
func (s *FocusService) hasTask() bool {
	return s.oneOff || s.current != nil
}

// chargesStep reports whether session time belongs to the current task.
func (s *FocusService) chargesStep() bool {
	return !s.oneOff && s.current != nil && s.phase.Phase == domain.PhaseWork
}

// Start resumes the countdown. The current task gets a first breath the
// first time it is started.
func (s *FocusService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasTask() {
		s.logger.Debug("start ignored: no current task")
		return nil
	}
	if s.timer.Running {
		return nil
	}

	s.startSession(ctx, s.clock.Now())
	s.recomputeSchedule()
	return nil
}

func (s *FocusService) startSession(ctx context.Context, now time.Time) {
	if s.timer.Remaining <= 0 {
		switch {
		case s.phase.Phase != domain.PhaseWork:
			s.timer.Reset(s.phase.DefaultDurationFor(s.phase.Phase))
		case s.oneOff:
			s.timer.Reset(s.settings.DefaultDuration)
		default:
			s.timer.Reset(s.durationFor(s.current))
		}
	}
	s.resumeAt = nil
	s.timer.Start(now)
	s.seedFirstBreath(ctx)
	s.logger.Info("session started", "phase", s.phase.Phase, "remaining", s.timer.Remaining)
}

// seedFirstBreath gives the task entering a running session its first
// breath. Every path that starts the countdown goes through here.
func (s *FocusService) seedFirstBreath(ctx context.Context) {
	switch {
	case s.oneOff:
		// One-off breaths stay in memory.
		if len(s.oneOffBreaths) == 0 {
			s.oneOffBreaths = []domain.Breath{domain.NewFirstBreath(s.settings.DefaultDuration)}
		}
	case s.current != nil:
		if s.current.EnsureFirstBreath() {
			if err := s.store.UpdateStepBreaths(ctx, s.settings.UserID, s.current.ID, s.current.Breaths); err != nil {
				_ = s.report("save breaths", err)
			}
		}
	}
}

// Pause stops the countdown. Time spent in a work session is added to the
// current task and the countdown freezes at the task's remaining time.
func (s *FocusService) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A pending cycle resume is cancelled too.
	if s.resumeAt != nil {
		s.resumeAt = nil
		s.logger.Info("cycle resume cancelled", "phase", s.phase.Phase)
		s.recomputeSchedule()
		return nil
	}
	if !s.timer.Running {
		s.logger.Debug("pause ignored: timer not running")
		return nil
	}

	err := s.stopSession(ctx, s.clock.Now())
	s.recomputeSchedule()
	return err
}

// stopSession stops a running timer, charging the elapsed time to the
// current task during work and persisting it.
func (s *FocusService) stopSession(ctx context.Context, now time.Time) error {
	if !s.timer.Running {
		return nil
	}
	if !s.chargesStep() {
		s.timer.Stop(now)
		return nil
	}

	elapsed := s.timer.StopForStep(now, s.current)
	s.logger.Info("session paused", "task", s.current.Label, "elapsed", elapsed)
	if elapsed <= 0 {
		return nil
	}
	return s.persistActual(ctx, s.current)
}

func (s *FocusService) persistActual(ctx context.Context, step *domain.Step) error {
	actual := step.ActualDuration
	elapsed := step.ElapsedTime
	err := s.store.UpdateStep(ctx, step.ID, s.settings.UserID, ports.StepUpdate{
		ActualDuration: &actual,
		ElapsedTime:    &elapsed,
	})
	if err != nil {
		return s.report("save task progress", err)
	}
	return nil
}

// Tick advances the countdown by one second. It also fires a pending
// cycle resume and handles expiry. The schedule is recomputed every tick.
func (s *FocusService) Tick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var err error

	switch {
	case s.resumeAt != nil:
		if !now.Before(*s.resumeAt) {
			s.resumeAt = nil
			s.timer.Start(now)
			s.seedFirstBreath(ctx)
			s.logger.Info("cycle resumed", "phase", s.phase.Phase)
		}
	case s.timer.Running:
		if s.timer.Tick(now) {
			err = s.expire(ctx, now)
		}
	}

	s.recomputeSchedule()
	return err
}

// expire hands a countdown that reached zero to the phase controller.
func (s *FocusService) expire(ctx context.Context, now time.Time) error {
	charge := s.chargesStep()
	elapsed := s.timer.Expire(now)

	var err error
	if charge && elapsed > 0 {
		s.current.AccrueActual(elapsed)
		err = s.persistActual(ctx, s.current)
	}

	s.info("Time's Up!", fmt.Sprintf("Your %s session has ended.", s.phase.Phase))

	plan := s.phase.OnExpire()
	switch plan.Action {
	case domain.ExpiryResumeDelayed:
		s.timer.Reset(plan.Duration)
		if s.settings.CycleResumeDelay <= 0 {
			s.timer.Start(now)
			s.seedFirstBreath(ctx)
		} else {
			// Tick starts the countdown once the delay has passed.
			at := now.Add(s.settings.CycleResumeDelay)
			s.resumeAt = &at
		}
		s.logger.Info("cycle phase flipped", "phase", plan.Phase, "duration", plan.Duration)
	case domain.ExpiryResumeNow:
		s.timer.Restart(now, plan.Duration)
		s.seedFirstBreath(ctx)
		s.info(fmt.Sprintf("Switched to %s", plan.Phase.Label()),
			fmt.Sprintf("Starting a %d-minute %s session.", int(plan.Duration.Minutes()), plan.Phase))
	default:
		s.logger.Info("session expired", "phase", plan.Phase)
	}
	return err
}

// PushBack shifts the countdown by minutes, which may be negative. The
// countdown never drops below zero.
func (s *FocusService) PushBack(ctx context.Context, minutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasTask() {
		s.logger.Debug("push back ignored: no current task")
		return nil
	}

	s.timer.PushBack(minutes)
	sign := ""
	if minutes > 0 {
		sign = "+"
	}
	s.info("Time Adjusted", fmt.Sprintf("%s%d minutes added to the timer.", sign, minutes))
	s.recomputeSchedule()
	return nil
}

// SwitchPhase moves to phase and starts its default countdown immediately.
func (s *FocusService) SwitchPhase(ctx context.Context, phase domain.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := domain.ParsePhase(string(phase)); err != nil {
		return s.report("switch phase", err)
	}

	now := s.clock.Now()
	err := s.stopSession(ctx, now)
	s.resumeAt = nil

	d := s.phase.SwitchPhase(phase)
	s.timer.Restart(now, d)
	s.seedFirstBreath(ctx)
	s.info(fmt.Sprintf("Switched to %s", phase.Label()),
		fmt.Sprintf("Starting a %d-minute %s session.", int(d.Minutes()), phase))

	s.recomputeSchedule()
	return err
}

// TogglePomodoro flips the pomodoro flag and the timer together.
func (s *FocusService) TogglePomodoro(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var err error
	if s.phase.TogglePomodoro() {
		if !s.timer.Running {
			s.startSession(ctx, now)
		}
	} else {
		err = s.stopSession(ctx, now)
	}

	s.recomputeSchedule()
	return err
}

// ResetPomodoro stops the timer and returns to a fresh work countdown.
func (s *FocusService) ResetPomodoro(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.stopSession(ctx, s.clock.Now())
	s.resumeAt = nil
	s.timer.Reset(s.phase.Reset())

	s.info("Pomodoro Reset", "The pomodoro timer has been reset.")
	s.recomputeSchedule()
	return err
}

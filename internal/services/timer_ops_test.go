package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/focus-cli/internal/domain"
)

func TestTimer_PauseConservesTime(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx))
	assert.Equal(t, 1, f.store.count("UpdateStepBreaths"), "first start seeds a breath")

	f.clock.Advance(4 * time.Minute)
	require.NoError(t, f.svc.Pause(ctx))

	snap := f.svc.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, 21*time.Minute, snap.Remaining)
	assert.Equal(t, 4*time.Minute, snap.Current.ActualDuration)

	require.NoError(t, f.svc.Start(ctx))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.Pause(ctx))

	snap = f.svc.Snapshot()
	assert.Equal(t, 20*time.Minute, snap.Remaining)
	assert.Equal(t, snap.Remaining, snap.Current.Duration-snap.Current.ActualDuration)
	assert.Equal(t, 1, f.store.count("UpdateStepBreaths"))

	stored, _ := f.stored(t, f.a.ID)
	assert.Equal(t, 5*time.Minute, stored.ActualDuration)
	assert.Equal(t, 25*time.Minute, stored.Duration, "the planned duration is kept")
	require.Len(t, stored.Breaths, 1)
	assert.Equal(t, domain.FirstBreathName, stored.Breaths[0].Name)

	// A new engine over the same store resumes at the same countdown.
	reloaded := NewFocusService(f.raw, nil, defaultSettings(), WithClock(f.clock))
	require.NoError(t, reloaded.Load(ctx))
	reloadedSnap := reloaded.Snapshot()
	assert.Equal(t, "A", reloadedSnap.CurrentLabel())
	assert.Equal(t, 20*time.Minute, reloaded.Snapshot().Remaining)

	// Pausing a stopped timer does nothing.
	f.store.resetCounts()
	require.NoError(t, f.svc.Pause(ctx))
	assert.Zero(t, f.store.totalWrites())
}

func TestTimer_TickRecomputesSchedule(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	end := f.clock.Now().Add(25 * time.Minute)
	require.NoError(t, f.svc.Start(ctx))
	f.tick(t, 3)

	snap := f.svc.Snapshot()
	assert.Equal(t, 25*time.Minute-3*time.Second, snap.Remaining)
	assert.Equal(t, 3*time.Second, snap.Elapsed)
	require.NotNil(t, snap.Queue[0].EstimatedEndTime)
	assert.True(t, snap.Queue[0].EstimatedStartTime.Equal(f.clock.Now()))
	assert.True(t, snap.Queue[0].EstimatedEndTime.Equal(end))
	assert.True(t, snap.Queue[1].EstimatedStartTime.Equal(end))
}

func TestTimer_ExpiryWithoutAutomationStops(t *testing.T) {
	f := newFixture(t, defaultSettings(), 3*time.Second)
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx))
	f.tick(t, 3)

	snap := f.svc.Snapshot()
	assert.False(t, snap.Running)
	assert.Zero(t, snap.Remaining)
	assert.Equal(t, domain.PhaseWork, snap.Phase)
	assert.Contains(t, f.notifier.titles(), "Time's Up!")

	stored, _ := f.stored(t, f.a.ID)
	assert.Equal(t, 3*time.Second, stored.ActualDuration)

	// The task has no planned time left, so a restart loads the default.
	require.NoError(t, f.svc.Start(ctx))
	assert.Equal(t, 25*time.Minute, f.svc.Snapshot().Remaining)
}

func TestTimer_AutoLoopFlipsImmediately(t *testing.T) {
	settings := defaultSettings()
	settings.AutoLoop = true
	f := newFixture(t, settings, 3*time.Second)
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx))
	f.tick(t, 3)

	snap := f.svc.Snapshot()
	assert.True(t, snap.Running)
	assert.Equal(t, domain.PhaseBreak, snap.Phase)
	assert.Equal(t, domain.DefaultBreakDuration, snap.Remaining)
	assert.Contains(t, f.notifier.titles(), "Switched to Break")
}

func TestTimer_CycleFlipsPhases(t *testing.T) {
	settings := defaultSettings()
	settings.Cycle = domain.CycleConfig{Enabled: true, WorkMinutes: 30, BreakMinutes: 5}
	f := newFixture(t, settings, 3*time.Second)
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx))
	f.tick(t, 3)

	snap := f.svc.Snapshot()
	assert.Equal(t, domain.PhaseBreak, snap.Phase)
	assert.True(t, snap.Running)
	assert.Equal(t, 5*time.Minute, snap.Remaining)

	f.tick(t, 300)

	snap = f.svc.Snapshot()
	assert.Equal(t, domain.PhaseWork, snap.Phase)
	assert.True(t, snap.Running)
	assert.Equal(t, 30*time.Minute, snap.Remaining)

	stored, _ := f.stored(t, f.a.ID)
	assert.Equal(t, 3*time.Second, stored.ActualDuration, "break time is not charged to the task")
}

func TestTimer_CycleResumeDelay(t *testing.T) {
	settings := defaultSettings()
	settings.Cycle = domain.CycleConfig{Enabled: true, WorkMinutes: 30, BreakMinutes: 5}
	settings.CycleResumeDelay = time.Second
	f := newFixture(t, settings, 3*time.Second)
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx))
	f.tick(t, 3)

	snap := f.svc.Snapshot()
	assert.Equal(t, domain.PhaseBreak, snap.Phase)
	assert.False(t, snap.Running, "resume waits for the delay")
	assert.Equal(t, 5*time.Minute, snap.Remaining)

	f.tick(t, 1)
	snap = f.svc.Snapshot()
	assert.True(t, snap.Running)
	assert.Equal(t, 5*time.Minute, snap.Remaining)

	// Pausing while a resume is pending keeps the timer stopped.
	f.tick(t, 300)
	snap = f.svc.Snapshot()
	require.Equal(t, domain.PhaseWork, snap.Phase)
	require.False(t, snap.Running)

	require.NoError(t, f.svc.Pause(ctx))
	f.tick(t, 5)
	snap = f.svc.Snapshot()
	assert.False(t, snap.Running, "a paused cycle does not resume on its own")
	assert.Equal(t, 30*time.Minute, snap.Remaining)

	require.NoError(t, f.svc.Start(ctx))
	assert.True(t, f.svc.Snapshot().Running)
}

func TestTimer_SwitchPhaseSeedsBreath(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	require.NoError(t, f.svc.SwitchPhase(ctx, domain.PhaseWork))
	assert.True(t, f.svc.Snapshot().Running)
	assert.Equal(t, 1, f.store.count("UpdateStepBreaths"))

	stored, _ := f.stored(t, f.a.ID)
	require.Len(t, stored.Breaths, 1)
	assert.Equal(t, domain.FirstBreathName, stored.Breaths[0].Name)
}

func TestTimer_PushBack(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	require.NoError(t, f.svc.PushBack(ctx, -30))
	assert.Zero(t, f.svc.Snapshot().Remaining, "countdown is floored at zero")

	require.NoError(t, f.svc.PushBack(ctx, 2))
	snap := f.svc.Snapshot()
	assert.Equal(t, 2*time.Minute, snap.Remaining)
	assert.Equal(t, 25*time.Minute, snap.Total)

	last := f.notifier.last()
	assert.Equal(t, "Time Adjusted", last.Title)
	assert.Equal(t, "+2 minutes added to the timer.", last.Message)
}

func TestTimer_PushBackWithoutTask(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewFocusService(nil, notifier, defaultSettings(), WithClock(newFakeClock()))

	require.NoError(t, svc.PushBack(context.Background(), 5))
	assert.Equal(t, 25*time.Minute, svc.Snapshot().Remaining)
	assert.Empty(t, notifier.titles())
}

func TestTimer_SwitchPhaseAndReset(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	require.NoError(t, f.svc.SwitchPhase(ctx, domain.PhaseBreak))
	snap := f.svc.Snapshot()
	assert.Equal(t, domain.PhaseBreak, snap.Phase)
	assert.True(t, snap.Running)
	assert.True(t, snap.PomodoroRunning)
	assert.Equal(t, 5*time.Minute, snap.Remaining)
	assert.Equal(t, "Switched to Break", f.notifier.last().Title)

	err := f.svc.SwitchPhase(ctx, domain.Phase("nap"))
	assert.ErrorIs(t, err, domain.ErrInvalidPhase)

	require.NoError(t, f.svc.ResetPomodoro(ctx))
	snap = f.svc.Snapshot()
	assert.Equal(t, domain.PhaseWork, snap.Phase)
	assert.False(t, snap.Running)
	assert.False(t, snap.PomodoroRunning)
	assert.Equal(t, 25*time.Minute, snap.Remaining)
}

func TestTimer_ConfiguredBreakDuration(t *testing.T) {
	settings := defaultSettings()
	settings.BreakDuration = 12 * time.Minute
	f := newFixture(t, settings, 25*time.Minute)

	require.NoError(t, f.svc.SwitchPhase(context.Background(), domain.PhaseBreak))
	assert.Equal(t, 12*time.Minute, f.svc.Snapshot().Remaining)
}

func TestTimer_TogglePomodoro(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	require.NoError(t, f.svc.TogglePomodoro(ctx))
	snap := f.svc.Snapshot()
	assert.True(t, snap.PomodoroRunning)
	assert.True(t, snap.Running)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.TogglePomodoro(ctx))
	snap = f.svc.Snapshot()
	assert.False(t, snap.PomodoroRunning)
	assert.False(t, snap.Running)
	assert.Equal(t, 24*time.Minute, snap.Remaining)
}

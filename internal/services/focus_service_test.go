package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/focus-cli/internal/adapters/storage"
	"github.com/xvierd/focus-cli/internal/domain"
)

func TestFocusService_LoadSelectsAllActive(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)

	snap := f.svc.Snapshot()
	assert.Equal(t, domain.AllActiveTasksID, snap.SelectedListID)
	assert.Equal(t, AllActiveListName, snap.SelectedListName)
	assert.Equal(t, domain.QueueAllActive, snap.Mode)
	assert.Equal(t, "user-012", snap.UserName)
	require.NotNil(t, snap.Current)
	assert.Equal(t, "A", snap.Current.Label)
	assert.Equal(t, 25*time.Minute, snap.Remaining)
	assert.False(t, snap.Running)
	assert.Equal(t, []string{"A", "B", "C"}, queueLabels(snap))
	assert.Contains(t, f.notifier.titles(), "Welcome!")

	start := f.clock.Now()
	require.NotNil(t, snap.Queue[0].EstimatedStartTime)
	assert.True(t, snap.Queue[0].EstimatedStartTime.Equal(start))
	assert.True(t, snap.Queue[1].EstimatedStartTime.Equal(start.Add(25*time.Minute)))
	assert.True(t, snap.Queue[2].EstimatedEndTime.Equal(start.Add(75*time.Minute)))
}

func TestFocusService_LoadCreatesDefaultList(t *testing.T) {
	raw, err := storage.NewMemory()
	require.NoError(t, err)
	defer func() { _ = raw.Close() }()

	notifier := &recordingNotifier{}
	svc := NewFocusService(raw, notifier, Settings{UserID: testUser, UserName: "Ada"}, WithClock(newFakeClock()))
	require.NoError(t, svc.Load(context.Background()))

	snap := svc.Snapshot()
	require.Len(t, snap.Lists, 1)
	assert.Equal(t, DefaultListName, snap.Lists[0].Name)
	assert.Equal(t, snap.Lists[0].ID, snap.SelectedListID)
	assert.Nil(t, snap.Current)
	assert.Equal(t, "Ada", snap.UserName)
	assert.Equal(t, 25*time.Minute, snap.Remaining)
	assert.Equal(t, "Welcome!", notifier.last().Title)
}

func TestFocusService_SelectList(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	require.NoError(t, f.svc.Start(ctx))
	f.clock.Advance(2 * time.Minute)

	require.NoError(t, f.svc.SelectList(ctx, f.list.ID))
	snap := f.svc.Snapshot()
	assert.Equal(t, "Work", snap.SelectedListName)
	assert.Equal(t, domain.QueueSingleList, snap.Mode)
	assert.False(t, snap.Running, "switching lists stops the timer")
	assert.Equal(t, 23*time.Minute, snap.Remaining)

	a, _ := f.stored(t, f.a.ID)
	assert.Equal(t, 2*time.Minute, a.ActualDuration)

	err := f.svc.SelectList(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrListNotFound)

	require.NoError(t, f.svc.SelectList(ctx, domain.NoListSelectedID))
	snap = f.svc.Snapshot()
	assert.Empty(t, snap.Queue)
	assert.Nil(t, snap.Current)
	assert.Equal(t, "No Task List Selected", f.notifier.last().Title)

	require.NoError(t, f.svc.Start(ctx))
	assert.False(t, f.svc.Snapshot().Running, "start without a task is ignored")
}

func TestFocusService_Refresh(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	seedStep(t, f.raw, f.list.ID, "D", 10*time.Minute, 4)
	require.NoError(t, f.svc.Refresh(ctx))

	assert.Equal(t, []string{"A", "B", "C", "D"}, queueLabels(f.svc.Snapshot()))
}

func TestFocusService_OneOffNeverTouchesStore(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	require.NoError(t, f.svc.EnterOneOffMode(ctx, "Call the bank"))
	snap := f.svc.Snapshot()
	assert.True(t, snap.OneOff)
	assert.Equal(t, "Call the bank", snap.CurrentLabel())

	require.NoError(t, f.svc.Start(ctx))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.Pause(ctx))

	err := f.svc.Skip(ctx)
	assert.ErrorIs(t, err, domain.ErrOneOffMode)
	assert.Equal(t, "One-Off Mode", f.notifier.last().Title)

	f.svc.SetOneOffLabel("Call the bank again")
	assert.Equal(t, "Call the bank again", f.svc.Snapshot().OneOffLabel)

	require.NoError(t, f.svc.Complete(ctx))
	assert.Equal(t, "One-Off Task Completed!", f.notifier.last().Title)

	snap = f.svc.Snapshot()
	assert.False(t, snap.OneOff)
	assert.Equal(t, DefaultOneOffLabel, snap.OneOffLabel)
	assert.Zero(t, f.store.totalWrites())
}

func TestFocusService_FailedWriteIsReported(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	f.store.failOn["UpdateTaskInTaskList"] = assert.AnError

	err := f.svc.ToggleLock(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to toggle lock")

	last := f.notifier.last()
	assert.Equal(t, "Error", last.Title)
	assert.Contains(t, last.Message, "Failed to toggle lock")

	// Local state is kept.
	assert.True(t, f.svc.Snapshot().Current.Locked)
}

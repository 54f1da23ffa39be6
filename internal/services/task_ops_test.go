package services

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/focus-cli/internal/domain"
)

func TestTaskOps_AddTask(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	step, err := f.svc.AddTask(ctx, "  Write tests  ", 0, "")
	require.NoError(t, err)
	assert.Equal(t, "Write tests", step.Label)
	assert.Equal(t, 25*time.Minute, step.Duration)
	assert.Equal(t, f.list.ID, step.TaskListID)

	stored, _ := f.stored(t, step.ID)
	require.NotNil(t, stored)
	assert.Equal(t, 4, stored.Position)

	tests := []struct {
		name    string
		label   string
		listID  string
		wantErr error
	}{
		{"sentinel list", "x", domain.AllActiveTasksID, domain.ErrInvalidTarget},
		{"unknown list", "x", "missing", domain.ErrListNotFound},
		{"empty label", "   ", "", domain.ErrEmptyLabel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddTask(ctx, tt.label, time.Minute, tt.listID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTaskOps_AddTaskSetsCurrentWhenEmpty(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	for _, id := range []string{f.a.ID, f.b.ID, f.c.ID} {
		require.NoError(t, f.svc.DeleteTask(ctx, id))
	}
	assert.Nil(t, f.svc.Snapshot().Current)

	_, err := f.svc.AddTask(ctx, "Fresh", 10*time.Minute, f.list.ID)
	require.NoError(t, err)

	snap := f.svc.Snapshot()
	require.NotNil(t, snap.Current)
	assert.Equal(t, "Fresh", snap.Current.Label)
	assert.Equal(t, 10*time.Minute, snap.Remaining)
}

func TestTaskOps_UpdateTask(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	inserted, err := f.svc.InsertNewTask(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, inserted.ID, f.svc.Snapshot().EditingStepID)

	edited := *inserted
	edited.Label = "Review PR"
	edited.Duration = 40 * time.Minute
	require.NoError(t, f.svc.UpdateTask(ctx, &edited))

	snap := f.svc.Snapshot()
	assert.Empty(t, snap.EditingStepID)
	assert.Equal(t, []string{"A", "B", "C", "Review PR"}, queueLabels(snap))

	stored, _ := f.stored(t, inserted.ID)
	assert.Equal(t, "Review PR", stored.Label)
	assert.Equal(t, 40*time.Minute, stored.Duration)

	edited.Label = ""
	assert.ErrorIs(t, f.svc.UpdateTask(ctx, &edited), domain.ErrEmptyLabel)
}

func TestTaskOps_MoveTaskToList(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	home, err := f.raw.CreateTaskList(ctx, testUser, "Home", 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.Refresh(ctx))

	require.NoError(t, f.svc.MoveTaskToList(ctx, f.b.ID, home.ID))

	_, list := f.stored(t, f.b.ID)
	require.NotNil(t, list)
	assert.Equal(t, "Home", list.Name)
	assert.Equal(t, "Task Moved", f.notifier.last().Title)

	require.NoError(t, f.svc.SelectList(ctx, home.ID))
	assert.Equal(t, []string{"B"}, queueLabels(f.svc.Snapshot()))

	assert.ErrorIs(t, f.svc.MoveTaskToList(ctx, f.a.ID, domain.AllActiveTasksID), domain.ErrInvalidTarget)
	assert.ErrorIs(t, f.svc.MoveTaskToList(ctx, f.a.ID, "missing"), domain.ErrListNotFound)
}

func TestTaskOps_ToggleTaskCompletion(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	require.NoError(t, f.svc.ToggleTaskCompletion(ctx, f.a.ID, true))
	snap := f.svc.Snapshot()
	assert.Equal(t, "B", snap.Current.Label)
	assert.Equal(t, []string{"B", "C"}, queueLabels(snap))

	stored, list := f.stored(t, f.a.ID)
	assert.True(t, stored.Completed)
	assert.Equal(t, "Work", list.Name, "toggling does not archive")

	require.NoError(t, f.svc.ToggleTaskCompletion(ctx, f.a.ID, false))
	assert.Equal(t, []string{"A", "B", "C"}, queueLabels(f.svc.Snapshot()))
}

func TestTaskOps_SaveBreaths(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	breaths := []domain.Breath{{Name: "outline"}, {Name: "draft", TotalTimeSeconds: 120}}
	require.NoError(t, f.svc.SaveBreaths(ctx, f.a.ID, breaths))

	stored, _ := f.stored(t, f.a.ID)
	require.Len(t, stored.Breaths, 2)
	assert.Equal(t, 2, stored.Breaths[1].Position)
	assert.NotEmpty(t, stored.Breaths[0].ID)
	assert.Equal(t, 120, stored.BreathSeconds())

	f.store.resetCounts()
	require.NoError(t, f.svc.SaveBreaths(ctx, domain.OneOffTaskID, []domain.Breath{{Name: "local"}}))
	assert.Zero(t, f.store.totalWrites())
}

func TestTaskOps_UpdateCurrentTaskTimezone(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	require.Error(t, f.svc.UpdateCurrentTaskTimezone(ctx, "Mars/Olympus_Mons"))
	require.NoError(t, f.svc.UpdateCurrentTaskTimezone(ctx, "Europe/Berlin"))

	stored, _ := f.stored(t, f.a.ID)
	require.NotNil(t, stored.Timezone)
	assert.Equal(t, "Europe/Berlin", *stored.Timezone)
}

func TestTaskOps_Search(t *testing.T) {
	f := newFixture(t, defaultSettings(), 25*time.Minute)
	ctx := context.Background()

	_, err := f.svc.AddTask(ctx, "Renew passport", 0, "")
	require.NoError(t, err)

	results, err := f.svc.Search(ctx, "passport")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Renew passport", results[0].Label)

	results, err = f.svc.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

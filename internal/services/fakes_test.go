package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xvierd/focus-cli/internal/adapters/storage"
	"github.com/xvierd/focus-cli/internal/domain"
	"github.com/xvierd/focus-cli/internal/ports"
)

const testUser = "user-0123456789"

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingNotifier keeps every notification.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func (n *recordingNotifier) Notify(note ports.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

func (n *recordingNotifier) last() ports.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return ports.Notification{}
	}
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, note := range n.sent {
		out[i] = note.Title
	}
	return out
}

func (n *recordingNotifier) errors() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, note := range n.sent {
		if note.Level == ports.LevelError {
			count++
		}
	}
	return count
}

// countingStore wraps the sqlite store, counts writes and injects failures.
type countingStore struct {
	ports.TaskListStore

	mu       sync.Mutex
	writes   map[string]int
	failOn   map[string]error
	failStep map[string]error
}

func newCountingStore(inner ports.TaskListStore) *countingStore {
	return &countingStore{
		TaskListStore: inner,
		writes:        make(map[string]int),
		failOn:        make(map[string]error),
		failStep:      make(map[string]error),
	}
}

func (c *countingStore) hit(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes[method]++
	return c.failOn[method]
}

func (c *countingStore) totalWrites() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.writes {
		total += n
	}
	return total
}

func (c *countingStore) count(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes[method]
}

func (c *countingStore) resetCounts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = make(map[string]int)
}

func (c *countingStore) CreateStep(ctx context.Context, step *domain.Step, userID string) error {
	if err := c.hit("CreateStep"); err != nil {
		return err
	}
	return c.TaskListStore.CreateStep(ctx, step, userID)
}

func (c *countingStore) UpdateStep(ctx context.Context, stepID, userID string, update ports.StepUpdate) error {
	if err := c.hit("UpdateStep"); err != nil {
		return err
	}
	c.mu.Lock()
	err := c.failStep[stepID]
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.TaskListStore.UpdateStep(ctx, stepID, userID, update)
}

func (c *countingStore) DeleteStep(ctx context.Context, stepID, userID string) error {
	if err := c.hit("DeleteStep"); err != nil {
		return err
	}
	return c.TaskListStore.DeleteStep(ctx, stepID, userID)
}

func (c *countingStore) UpdateStepBreaths(ctx context.Context, userID, stepID string, breaths []domain.Breath) error {
	if err := c.hit("UpdateStepBreaths"); err != nil {
		return err
	}
	return c.TaskListStore.UpdateStepBreaths(ctx, userID, stepID, breaths)
}

func (c *countingStore) AddTaskToTaskList(ctx context.Context, listID string, step *domain.Step) error {
	if err := c.hit("AddTaskToTaskList"); err != nil {
		return err
	}
	return c.TaskListStore.AddTaskToTaskList(ctx, listID, step)
}

func (c *countingStore) UpdateTaskInTaskList(ctx context.Context, listID string, step *domain.Step) (*domain.Step, error) {
	if err := c.hit("UpdateTaskInTaskList"); err != nil {
		return nil, err
	}
	return c.TaskListStore.UpdateTaskInTaskList(ctx, listID, step)
}

func (c *countingStore) DeleteTaskFromTaskList(ctx context.Context, listID, stepID string) error {
	if err := c.hit("DeleteTaskFromTaskList"); err != nil {
		return err
	}
	return c.TaskListStore.DeleteTaskFromTaskList(ctx, listID, stepID)
}

func (c *countingStore) ReorderSteps(ctx context.Context, userID string, steps []*domain.Step) error {
	if err := c.hit("ReorderSteps"); err != nil {
		return err
	}
	return c.TaskListStore.ReorderSteps(ctx, userID, steps)
}

func (c *countingStore) ReorderStepsAllActive(ctx context.Context, userID string, steps []*domain.Step) error {
	if err := c.hit("ReorderStepsAllActive"); err != nil {
		return err
	}
	return c.TaskListStore.ReorderStepsAllActive(ctx, userID, steps)
}

// fixture is an engine over an in-memory store seeded with one list
// holding A, B and C at all-active positions 1, 2 and 3.
type fixture struct {
	svc      *FocusService
	store    *countingStore
	raw      *storage.Store
	clock    *fakeClock
	notifier *recordingNotifier
	list     *domain.TaskList
	a, b, c  *domain.Step
}

func defaultSettings() Settings {
	return Settings{
		UserID:          testUser,
		DefaultDuration: 25 * time.Minute,
		Cycle:           domain.DefaultCycleConfig(),
	}
}

func newFixture(t *testing.T, settings Settings, stepDuration time.Duration) *fixture {
	t.Helper()
	raw, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	ctx := context.Background()
	list, err := raw.CreateTaskList(ctx, testUser, "Work", 0)
	require.NoError(t, err)

	f := &fixture{raw: raw, clock: newFakeClock(), notifier: &recordingNotifier{}, list: list}
	f.a = seedStep(t, raw, list.ID, "A", stepDuration, 1)
	f.b = seedStep(t, raw, list.ID, "B", stepDuration, 2)
	f.c = seedStep(t, raw, list.ID, "C", stepDuration, 3)

	f.store = newCountingStore(raw)
	f.svc = NewFocusService(f.store, f.notifier, settings, WithClock(f.clock))
	require.NoError(t, f.svc.Load(ctx))
	f.store.resetCounts()
	return f
}

func seedStep(t *testing.T, store *storage.Store, listID, label string, d time.Duration, allActive int) *domain.Step {
	t.Helper()
	step, err := domain.NewStep(label, d)
	require.NoError(t, err)
	step.TaskListID = listID
	step.SetAllActivePosition(allActive)
	require.NoError(t, store.CreateStep(context.Background(), step, testUser))
	return step
}

// stored returns the persisted copy of a step, searching every list.
func (f *fixture) stored(t *testing.T, stepID string) (*domain.Step, *domain.TaskList) {
	t.Helper()
	lists, err := f.raw.FetchTaskLists(context.Background(), testUser)
	require.NoError(t, err)
	for _, l := range lists {
		if step, _ := l.FindStep(stepID); step != nil {
			return step, l
		}
	}
	return nil, nil
}

func queueLabels(snap domain.FocusSnapshot) []string {
	out := make([]string, len(snap.Queue))
	for i, step := range snap.Queue {
		out[i] = step.Label
	}
	return out
}

// tick advances the clock by one second and ticks the engine n times.
func (f *fixture) tick(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		f.clock.Advance(time.Second)
		require.NoError(t, f.svc.Tick(context.Background()))
	}
}

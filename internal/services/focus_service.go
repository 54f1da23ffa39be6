package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xvierd/focus-cli/internal/domain"
	"github.com/xvierd/focus-cli/internal/ports"
)

const (
	// DefaultListName names the list created for a user without any.
	DefaultListName = "My First List"
	// DefaultOneOffLabel is the placeholder label of a one-off task.
	DefaultOneOffLabel = "One-Off Task"
	// AllActiveListName is the display name of the all-active aggregate.
	AllActiveListName = "All Active Tasks"
)

// Settings are the engine parameters taken from configuration.
type Settings struct {
	UserID           string
	UserName         string
	DefaultDuration  time.Duration
	BreakDuration    time.Duration
	AutoLoop         bool
	Cycle            domain.CycleConfig
	CycleResumeDelay time.Duration
	WorkingDir       string
}

// FocusService is the focus session engine. It owns the task lists, the
// session timer and the phase controller, and every mutation goes through
// one of its methods. All methods are safe for concurrent use.
//
// Lifecycle operations mutate local state first and persist afterwards.
// A failed write is reported through the notifier and returned, but the
// local change is kept.
type FocusService struct {
	mu sync.Mutex

	store    ports.TaskListStore
	notifier ports.Notifier
	clock    ports.Clock
	git      ports.GitDetector
	logger   *slog.Logger
	settings Settings

	userName       string
	lists          []*domain.TaskList
	selectedListID string
	current        *domain.Step
	editingStepID  string

	oneOff        bool
	oneOffLabel   string
	oneOffBreaths []domain.Breath

	timer    domain.SessionTimer
	phase    domain.PhaseController
	resumeAt *time.Time
}

// Ensure FocusService implements ports.FocusProvider.
var _ ports.FocusProvider = (*FocusService)(nil)

// Option configures optional collaborators of a FocusService.
type Option func(*FocusService)

// WithClock overrides the time source.
func WithClock(clock ports.Clock) Option {
	return func(s *FocusService) { s.clock = clock }
}

// WithGitDetector records repository context on completed tasks.
func WithGitDetector(git ports.GitDetector) Option {
	return func(s *FocusService) { s.git = git }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *FocusService) { s.logger = logger }
}

// NewFocusService creates an engine with no list selected. Call Load to
// fetch the user's task lists.
func NewFocusService(store ports.TaskListStore, notifier ports.Notifier, settings Settings, opts ...Option) *FocusService {
	if settings.DefaultDuration <= 0 {
		settings.DefaultDuration = 25 * time.Minute
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}

	s := &FocusService{
		store:          store,
		notifier:       notifier,
		clock:          ports.RealClock{},
		logger:         slog.New(slog.DiscardHandler),
		settings:       settings,
		userName:       settings.UserName,
		selectedListID: domain.NoListSelectedID,
		oneOffLabel:    DefaultOneOffLabel,
		timer:          domain.NewSessionTimer(settings.DefaultDuration),
		phase:          domain.NewPhaseController(settings.DefaultDuration, settings.AutoLoop, settings.Cycle),
	}
	if settings.BreakDuration > 0 {
		s.phase.BreakDuration = settings.BreakDuration
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the user profile and task lists and selects the initial queue.
// A user without lists gets a default one.
func (s *FocusService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaultName := s.settings.UserName
	if defaultName == "" {
		defaultName = userIDPrefix(s.settings.UserID)
	}
	s.userName = defaultName

	profile, err := s.store.CreateOrUpdateUserProfile(ctx, s.settings.UserID, defaultName)
	if err != nil {
		_ = s.report("load user profile", err)
	} else if profile != nil && profile.Name != "" {
		s.userName = profile.Name
	}

	lists, err := s.store.FetchTaskLists(ctx, s.settings.UserID)
	if err != nil {
		s.selectedListID = domain.NoListSelectedID
		s.current = nil
		s.timer.Reset(s.settings.DefaultDuration)
		return s.report("load task lists", err)
	}

	if len(lists) == 0 {
		list, err := s.store.CreateTaskList(ctx, s.settings.UserID, DefaultListName, 0)
		if err != nil {
			s.lists = nil
			s.selectedListID = domain.NoListSelectedID
			s.timer.Reset(s.settings.DefaultDuration)
			return s.report("create default task list", err)
		}
		s.lists = []*domain.TaskList{list}
		s.selectedListID = list.ID
		s.current = nil
		s.timer.Reset(s.settings.DefaultDuration)
		s.info("Welcome!", "A default task list has been created for you.")
		s.recomputeSchedule()
		return nil
	}

	s.lists = lists
	s.selectedListID = domain.AllActiveTasksID
	s.current = domain.TopMost(s.queue())
	s.timer.Reset(s.durationFor(s.current))
	s.info("Welcome!", fmt.Sprintf("Viewing %q.", s.selectedListName()))
	s.recomputeSchedule()
	return nil
}

// Snapshot returns a copy of the engine state safe to read without locking.
func (s *FocusService) Snapshot() domain.FocusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.FocusSnapshot{
		Timestamp:        s.clock.Now(),
		UserName:         s.userName,
		SelectedListID:   s.selectedListID,
		SelectedListName: s.selectedListName(),
		Mode:             domain.QueueModeFor(s.selectedListID),
		OneOff:           s.oneOff,
		OneOffLabel:      s.oneOffLabel,
		Remaining:        s.timer.Remaining,
		Total:            s.timer.Total,
		Running:          s.timer.Running,
		Elapsed:          s.timer.Elapsed,
		Progress:         s.timer.Progress(),
		Phase:            s.phase.Phase,
		PomodoroRunning:  s.phase.PomodoroRunning,
		AutoLoop:         s.phase.AutoLoop,
		Cycle:            s.phase.Cycle,
		EditingStepID:    s.editingStepID,
	}
	if s.current != nil {
		cur := *s.current
		snap.Current = &cur
	}
	for _, step := range s.queue() {
		snap.Queue = append(snap.Queue, *step)
	}
	for _, l := range s.lists {
		snap.Lists = append(snap.Lists, domain.ListSummary{
			ID:       l.ID,
			Name:     l.Name,
			Position: l.Position,
			Pending:  len(domain.ResolveQueue(s.lists, domain.QueueSingleList, l.ID)),
		})
	}
	return snap
}

// SelectList switches the queue to another list or to the all-active
// aggregate. The timer stops and is loaded with the new top task.
func (s *FocusService) SelectList(ctx context.Context, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !domain.IsSentinelListID(listID) && domain.FindList(s.lists, listID) == nil {
		return s.report("switch task list", fmt.Errorf("%w: %s", domain.ErrListNotFound, listID))
	}
	if listID == "" || listID == domain.OneOffTaskID {
		listID = domain.NoListSelectedID
	}

	now := s.clock.Now()
	_ = s.stopSession(ctx, now)
	s.resumeAt = nil

	s.selectedListID = listID
	s.oneOff = false
	s.current = domain.TopMost(s.queue())
	s.timer.Reset(s.durationFor(s.current))

	if listID == domain.NoListSelectedID {
		s.info("No Task List Selected", "You are currently in 'No Task List Selected' mode.")
	} else {
		s.info("Task List Switched", fmt.Sprintf("Now viewing %q.", s.selectedListName()))
	}
	s.recomputeSchedule()
	return nil
}

// EnterOneOffMode replaces the queue with a single unsaved task.
func (s *FocusService) EnterOneOffMode(ctx context.Context, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	_ = s.stopSession(ctx, now)
	s.resumeAt = nil

	s.oneOff = true
	s.oneOffLabel = label
	if s.oneOffLabel == "" {
		s.oneOffLabel = DefaultOneOffLabel
	}
	s.oneOffBreaths = nil
	s.timer.Reset(s.settings.DefaultDuration)

	s.info("One-Off Mode", fmt.Sprintf("Focusing on %q.", s.oneOffLabel))
	s.recomputeSchedule()
	return nil
}

// SetOneOffLabel renames the one-off task. It does nothing outside one-off mode.
func (s *FocusService) SetOneOffLabel(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.oneOff {
		s.logger.Debug("ignoring one-off label outside one-off mode")
		return
	}
	s.oneOffLabel = label
}

// Refresh refetches every task list from the store.
func (s *FocusService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refetch(ctx); err != nil {
		return err
	}
	s.recomputeSchedule()
	return nil
}

// queue resolves the pending queue for the current selection.
func (s *FocusService) queue() []*domain.Step {
	return domain.ResolveQueue(s.lists, domain.QueueModeFor(s.selectedListID), s.selectedListID)
}

// durationFor returns the countdown to load for step.
func (s *FocusService) durationFor(step *domain.Step) time.Duration {
	if step == nil {
		return s.settings.DefaultDuration
	}
	if d := step.RemainingDuration(); d > 0 {
		return d
	}
	return s.settings.DefaultDuration
}

// recomputeSchedule refreshes the estimated start and end of every queued
// task. It runs at the end of every operation and every tick.
func (s *FocusService) recomputeSchedule() {
	queue := s.queue()
	idx := -1
	remaining := s.settings.DefaultDuration
	if s.current != nil {
		idx = domain.IndexOf(queue, s.current.ID)
		if s.current.Duration > 0 {
			remaining = s.current.Duration
		}
	}
	if s.timer.Running {
		remaining = s.timer.Remaining
	}
	domain.CalculateSchedule(queue, idx, remaining, s.clock.Now())
}

// refetch reloads all lists and repoints the current task at the fresh copy.
func (s *FocusService) refetch(ctx context.Context) error {
	lists, err := s.store.FetchTaskLists(ctx, s.settings.UserID)
	if err != nil {
		return s.report("refresh task lists", err)
	}
	s.lists = lists
	if s.current != nil {
		fresh, _ := domain.FindStepInLists(s.lists, s.current.ID)
		if fresh == nil || fresh.Completed {
			fresh = domain.TopMost(s.queue())
		}
		s.current = fresh
	}
	if !domain.IsSentinelListID(s.selectedListID) && domain.FindList(s.lists, s.selectedListID) == nil {
		s.selectedListID = domain.NoListSelectedID
	}
	return nil
}

// advance makes the new top task current after the current one left the
// queue. A running work session continues on the new task.
func (s *FocusService) advance(ctx context.Context, now time.Time, wasRunning bool) {
	s.current = domain.TopMost(s.queue())
	if s.phase.Phase != domain.PhaseWork {
		return
	}
	s.timer.Reset(s.durationFor(s.current))
	if wasRunning && s.current != nil {
		s.timer.Start(now)
		s.seedFirstBreath(ctx)
	}
}

func (s *FocusService) selectedListName() string {
	switch s.selectedListID {
	case domain.AllActiveTasksID:
		return AllActiveListName
	case domain.NoListSelectedID, domain.OneOffTaskID, "":
		return "No List"
	}
	if l := domain.FindList(s.lists, s.selectedListID); l != nil {
		return l.Name
	}
	return "No List"
}

// firstRealList returns the list new tasks go to when the selection is not a real list.
func (s *FocusService) firstRealList() *domain.TaskList {
	if l := domain.FindList(s.lists, s.selectedListID); l != nil && !domain.IsSentinelListID(l.ID) {
		return l
	}
	for _, l := range s.lists {
		if !domain.IsSentinelListID(l.ID) && !l.IsArchive() {
			return l
		}
	}
	return nil
}

func (s *FocusService) info(title, message string) {
	s.logger.Info(title, "message", message)
	s.notifier.Notify(ports.Notification{Title: title, Message: message, Level: ports.LevelInfo})
}

// report surfaces err as an error notification and returns it wrapped.
func (s *FocusService) report(action string, err error) error {
	s.logger.Error("operation failed", "action", action, "error", err)
	s.notifier.Notify(ports.Notification{
		Title:   "Error",
		Message: fmt.Sprintf("Failed to %s: %v", action, err),
		Level:   ports.LevelError,
	})
	return fmt.Errorf("failed to %s: %w", action, err)
}

func userIDPrefix(userID string) string {
	if len(userID) > 8 {
		return userID[:8]
	}
	if userID == "" {
		return "User"
	}
	return userID
}

type nopNotifier struct{}

func (nopNotifier) Notify(ports.Notification) {}

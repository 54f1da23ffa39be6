// Package tui provides the terminal user interface implementation
// using the Bubbletea framework.
package tui

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/xvierd/focus-cli/internal/config"
	"github.com/xvierd/focus-cli/internal/domain"
	"github.com/xvierd/focus-cli/internal/ports"
)

// pushBackMinutes is the step applied by the push-back keys.
const pushBackMinutes = 5

// resolveTheme fills any empty string fields in the given ThemeConfig with defaults.
// If theme is nil, returns the full default theme.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return resolved
}

// tickMsg is sent on every timer tick.
type tickMsg time.Time

type keyMap struct {
	Toggle     key.Binding
	Skip       key.Binding
	Complete   key.Binding
	PushBack   key.Binding
	PullIn     key.Binding
	Break      key.Binding
	Work       key.Binding
	Pomodoro   key.Binding
	Reset      key.Binding
	Lock       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Copy       key.Binding
	Insert     key.Binding
	Delete     key.Binding
	Up         key.Binding
	Down       key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	Lists      key.Binding
	OneOff     key.Binding
	Quit       key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
	PickSelect key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/pause")),
		Skip:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
		Complete:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete")),
		PushBack:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "+5m")),
		PullIn:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "-5m")),
		Break:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "break")),
		Work:       key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "work")),
		Pomodoro:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pomodoro")),
		Reset:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Lock:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "lock")),
		Top:        key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "top")),
		Bottom:     key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "bottom")),
		Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Insert:     key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "insert")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Up:         key.NewBinding(key.WithKeys("up", "k")),
		Down:       key.NewBinding(key.WithKeys("down", "j")),
		MoveUp:     key.NewBinding(key.WithKeys("K", "shift+up")),
		MoveDown:   key.NewBinding(key.WithKeys("J", "shift+down")),
		Lists:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lists")),
		OneOff:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "one-off")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Confirm:    key.NewBinding(key.WithKeys("y")),
		Cancel:     key.NewBinding(key.WithKeys("esc")),
		PickSelect: key.NewBinding(key.WithKeys("enter")),
	}
}

// Model is the focus screen. It renders engine snapshots and forwards key
// presses and one tick per second to the engine.
type Model struct {
	ctx      context.Context
	provider ports.FocusProvider
	snap     domain.FocusSnapshot
	toasts   func() []ports.Notification

	keys     keyMap
	theme    config.ThemeConfig
	progress progress.Model
	width    int
	height   int

	cursor        int
	picker        *listPicker
	confirmDelete bool
	lastErr       error
}

// NewModel creates a new TUI model.
func NewModel(ctx context.Context, provider ports.FocusProvider, theme *config.ThemeConfig) Model {
	resolved := resolveTheme(theme)
	return Model{
		ctx:      ctx,
		provider: provider,
		snap:     provider.Snapshot(),
		keys:     defaultKeyMap(),
		theme:    resolved,
		progress: progress.New(progress.WithGradient(resolved.WorkGradientStart, resolved.WorkGradientEnd)),
		width:    80,
	}
}

// SetToastSource sets where the latest notification is read from.
func (m *Model) SetToastSource(fn func() []ports.Notification) {
	m.toasts = fn
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh(m.provider.Tick(m.ctx))
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.picker != nil {
			return m.updatePicker(msg)
		}
		if m.confirmDelete {
			m.confirmDelete = false
			if key.Matches(msg, m.keys.Confirm) {
				if step := m.selected(); step != nil {
					m.refresh(m.provider.DeleteTask(m.ctx, step.ID))
				}
			}
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := m.ctx
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		if m.snap.Running {
			m.refresh(m.provider.Pause(ctx))
		} else {
			m.refresh(m.provider.Start(ctx))
		}
	case key.Matches(msg, m.keys.Skip):
		m.refresh(m.provider.Skip(ctx))
	case key.Matches(msg, m.keys.Complete):
		m.refresh(m.provider.Complete(ctx))
	case key.Matches(msg, m.keys.PushBack):
		m.refresh(m.provider.PushBack(ctx, pushBackMinutes))
	case key.Matches(msg, m.keys.PullIn):
		m.refresh(m.provider.PushBack(ctx, -pushBackMinutes))
	case key.Matches(msg, m.keys.Break):
		m.refresh(m.provider.SwitchPhase(ctx, domain.PhaseBreak))
	case key.Matches(msg, m.keys.Work):
		m.refresh(m.provider.SwitchPhase(ctx, domain.PhaseWork))
	case key.Matches(msg, m.keys.Pomodoro):
		m.refresh(m.provider.TogglePomodoro(ctx))
	case key.Matches(msg, m.keys.Reset):
		m.refresh(m.provider.ResetPomodoro(ctx))
	case key.Matches(msg, m.keys.OneOff):
		m.refresh(m.provider.EnterOneOffMode(ctx, ""))
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Queue)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.MoveUp):
		if m.cursor > 0 {
			m.refresh(m.provider.Reorder(ctx, "", m.cursor, m.cursor-1))
			m.cursor--
		}
	case key.Matches(msg, m.keys.MoveDown):
		if m.cursor < len(m.snap.Queue)-1 {
			m.refresh(m.provider.Reorder(ctx, "", m.cursor, m.cursor+1))
			m.cursor++
		}
	case key.Matches(msg, m.keys.Insert):
		_, err := m.provider.InsertNewTask(ctx, m.cursor+1)
		m.refresh(err)
	case key.Matches(msg, m.keys.Lists):
		p := newListPicker(m.snap)
		m.picker = &p
	default:
		m.handleStepKey(msg)
	}
	return m, nil
}

// handleStepKey applies keys that act on the task under the cursor.
func (m *Model) handleStepKey(msg tea.KeyMsg) {
	step := m.selected()
	if step == nil {
		return
	}
	ctx := m.ctx
	switch {
	case key.Matches(msg, m.keys.Lock):
		m.refresh(m.provider.ToggleLock(ctx, step.ID))
	case key.Matches(msg, m.keys.Top):
		m.refresh(m.provider.MoveToTop(ctx, step.ID))
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.refresh(m.provider.MoveToBottom(ctx, step.ID))
		m.cursor = len(m.snap.Queue) - 1
	case key.Matches(msg, m.keys.Copy):
		_, err := m.provider.Copy(ctx, step.ID)
		m.refresh(err)
	case key.Matches(msg, m.keys.Delete):
		m.confirmDelete = true
	}
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.picker.up()
	case key.Matches(msg, m.keys.Down):
		m.picker.down()
	case key.Matches(msg, m.keys.PickSelect):
		item := m.picker.selected()
		m.picker = nil
		m.cursor = 0
		m.refresh(m.provider.SelectList(m.ctx, item.ID))
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
		m.picker = nil
	}
	return m, nil
}

// refresh records the outcome of an engine call and re-reads its state.
func (m *Model) refresh(err error) {
	m.lastErr = err
	m.snap = m.provider.Snapshot()
	if m.cursor >= len(m.snap.Queue) {
		m.cursor = len(m.snap.Queue) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() *domain.Step {
	if m.cursor < 0 || m.cursor >= len(m.snap.Queue) {
		return nil
	}
	return &m.snap.Queue[m.cursor]
}

// phaseColor returns the color for the current phase, accounting for pause state.
func (m Model) phaseColor() lipgloss.Color {
	switch {
	case !m.snap.Running:
		return lipgloss.Color(m.theme.ColorPaused)
	case m.snap.Phase == domain.PhaseBreak:
		return lipgloss.Color(m.theme.ColorBreak)
	default:
		return lipgloss.Color(m.theme.ColorWork)
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.picker != nil {
		return m.picker.view(m.theme)
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle)).MarginBottom(1)
	taskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorTask))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
	statusStyle := lipgloss.NewStyle().Foreground(m.phaseColor())

	var sections []string
	sections = append(sections, titleStyle.Render(fmt.Sprintf("%s Focus · %s", m.theme.IconApp, m.snap.SelectedListName)))

	if m.snap.HasTask() {
		label := m.snap.CurrentLabel()
		if m.snap.Current != nil && m.snap.Current.Locked && !m.snap.OneOff {
			label += " " + m.theme.IconLocked
		}
		sections = append(sections, taskStyle.Render(fmt.Sprintf("%s %s", m.theme.IconTask, label)))
	} else {
		sections = append(sections, helpStyle.Render("No task. Add one with `focus tasks add` or press [l] to pick a list."))
	}

	status := "Paused"
	if m.snap.Running {
		status = "Running"
	}
	sections = append(sections, statusStyle.Render(fmt.Sprintf("%s (%s)", m.snap.Phase.Label(), status)))
	sections = append(sections, "")
	sections = append(sections, renderClock(formatDuration(m.snap.Remaining), m.phaseColor(), m.width))

	if !m.snap.Running && m.snap.HasTask() {
		badge := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(m.theme.ColorPaused)).
			Padding(0, 1).
			Render(fmt.Sprintf("%s PAUSED", m.theme.IconPaused))
		sections = append(sections, "", badge)
	}

	sections = append(sections, "", m.progressBar())
	sections = append(sections, m.queueView()...)

	if m.lastErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
		sections = append(sections, "", errStyle.Render("Error: "+m.lastErr.Error()))
	} else if toast := m.latestToast(); toast != "" {
		sections = append(sections, "", helpStyle.Render(toast))
	}

	sections = append(sections, "")
	if m.confirmDelete {
		sections = append(sections, helpStyle.Render("Delete task? [y] confirm  any key cancels"))
	} else {
		sections = append(sections, helpStyle.Render(m.helpLine()))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(sections, "\n"))
}

func (m Model) progressBar() string {
	pbar := m.progress
	if m.snap.Phase == domain.PhaseBreak {
		pbar = progress.New(progress.WithGradient(m.theme.BreakGradientStart, m.theme.BreakGradientEnd))
	}
	pbar.Width = m.width - 8
	if pbar.Width < 10 {
		pbar.Width = 10
	}
	p := m.snap.Progress
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	return pbar.ViewAs(p)
}

func (m Model) queueView() []string {
	if len(m.snap.Queue) == 0 {
		return nil
	}
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
	active := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorWork)).Bold(true)

	lines := []string{"", dim.Render(fmt.Sprintf("Queue (%d)", len(m.snap.Queue)))}
	for i, step := range m.snap.Queue {
		line := fmt.Sprintf("%-28s %6s  %s", truncate(step.Label, 28), formatDuration(step.Duration), scheduleSpan(&step))
		if step.Locked {
			line += " " + m.theme.IconLocked
		}
		if i == m.cursor {
			lines = append(lines, active.Render("▸ "+line))
		} else {
			lines = append(lines, dim.Render("  "+line))
		}
	}
	return lines
}

func (m Model) latestToast() string {
	if m.toasts == nil {
		return ""
	}
	recent := m.toasts()
	if len(recent) == 0 {
		return ""
	}
	last := recent[len(recent)-1]
	return fmt.Sprintf("%s: %s", last.Title, last.Message)
}

func (m Model) helpLine() string {
	toggle := "[space] start"
	if m.snap.Running {
		toggle = "[space] pause"
	}
	return toggle + "  [s]kip  [c]omplete  [+/-] 5m  [b]reak  [w]ork  [x] lock  [t]op  [B]ottom  [y] copy  [i]nsert  [d]elete  [l]ists  [o]ne-off  [q]uit"
}

// scheduleSpan renders the estimated start and end of a step as HH:MM-HH:MM.
func scheduleSpan(step *domain.Step) string {
	if step.EstimatedStartTime == nil || step.EstimatedEndTime == nil {
		return ""
	}
	return step.EstimatedStartTime.Format("15:04") + "-" + step.EstimatedEndTime.Format("15:04")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// tickCmd creates a command that sends a tick message.
func tickCmd() tea.Cmd {
	return tea.Tick(domain.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// formatDuration formats a duration as MM:SS.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/xvierd/focus-cli/internal/config"
	"github.com/xvierd/focus-cli/internal/domain"
)

// PickerItem represents one option in the picker.
type PickerItem struct {
	ID    string
	Label string
	Desc  string
}

// listPicker is the overlay used to choose which queue the focus screen shows.
type listPicker struct {
	items  []PickerItem
	cursor int
}

// newListPicker offers the all-active aggregate followed by every real list.
// The cursor starts on the current selection.
func newListPicker(snap domain.FocusSnapshot) listPicker {
	items := []PickerItem{{
		ID:    domain.AllActiveTasksID,
		Label: "All Active Tasks",
		Desc:  "every list except the archive",
	}}
	for _, l := range snap.Lists {
		if l.Name == domain.CompletedTasksListName {
			continue
		}
		items = append(items, PickerItem{
			ID:    l.ID,
			Label: l.Name,
			Desc:  fmt.Sprintf("%d pending", l.Pending),
		})
	}

	p := listPicker{items: items}
	for i, item := range items {
		if item.ID == snap.SelectedListID {
			p.cursor = i
		}
	}
	return p
}

func (p *listPicker) up() {
	if p.cursor > 0 {
		p.cursor--
	}
}

func (p *listPicker) down() {
	if p.cursor < len(p.items)-1 {
		p.cursor++
	}
}

func (p listPicker) selected() PickerItem {
	return p.items[p.cursor]
}

func (p listPicker) view(theme config.ThemeConfig) string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.ColorTitle))
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorWork)).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorHelp))

	b.WriteString(titleStyle.Render("  Select a task list") + "\n\n")
	for i, item := range p.items {
		line := fmt.Sprintf(" %-24s %s", item.Label, item.Desc)
		if i == p.cursor {
			b.WriteString("  " + activeStyle.Render("▸"+line) + "\n")
		} else {
			b.WriteString(dimStyle.Render("   "+line) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  ↑/↓ navigate · enter select · esc back"))
	return b.String()
}

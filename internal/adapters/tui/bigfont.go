package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// glyphRows is the height of a big clock glyph.
const glyphRows = 5

// glyphs encodes each clock character as rows of a bitmap; '#' is a filled cell.
var glyphs = map[rune][glyphRows]string{
	'0': {"####", "#  #", "#  #", "#  #", "####"},
	'1': {" # ", "## ", " # ", " # ", "###"},
	'2': {"####", "   #", "####", "#   ", "####"},
	'3': {"####", "   #", "####", "   #", "####"},
	'4': {"#  #", "#  #", "####", "   #", "   #"},
	'5': {"####", "#   ", "####", "   #", "####"},
	'6': {"####", "#   ", "####", "#  #", "####"},
	'7': {"####", "   #", "  # ", " #  ", " #  "},
	'8': {"####", "#  #", "####", "#  #", "####"},
	'9': {"####", "#  #", "####", "   #", "####"},
	':': {" ", "#", " ", "#", " "},
}

// minBigClockWidth is the narrowest terminal that gets the big clock.
const minBigClockWidth = 40

// renderClock draws an MM:SS string as a five-row block clock. Narrow
// terminals get a single bold line instead.
func renderClock(clock string, color lipgloss.Color, width int) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(color)
	if width < minBigClockWidth {
		return style.Render(clock)
	}

	var rows [glyphRows]strings.Builder
	for _, ch := range clock {
		glyph, ok := glyphs[ch]
		if !ok {
			continue
		}
		for i := range rows {
			if rows[i].Len() > 0 {
				rows[i].WriteByte(' ')
			}
			rows[i].WriteString(strings.ReplaceAll(glyph[i], "#", "█"))
		}
	}

	out := make([]string, glyphRows)
	for i := range rows {
		out[i] = style.Render(rows[i].String())
	}
	return strings.Join(out, "\n")
}

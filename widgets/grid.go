package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-stepseq/sequencer"
	"go-stepseq/theme"
)

// Grid is what the step grid draws: the pattern, the playhead and the edit
// cursor.
type Grid struct {
	Snapshot sequencer.Snapshot
	Playhead int // step under the playhead, -1 for none
	Track    int // edit cursor
	Step     int
}

// RenderPad renders a single colored cell
func RenderPad(symbol rune, color lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(color).Render(string(symbol))
}

// RenderLegendItem renders a single legend item: "● name - description"
func RenderLegendItem(symbol rune, color lipgloss.Color, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(symbol, color), name, desc)
}

// RenderGrid draws one row per track, name column first, beats separated
// by a space.
func RenderGrid(g Grid, th *theme.Theme) string {
	width := 0
	for _, tr := range g.Snapshot {
		width = max(width, lipgloss.Width(tr.Name))
	}
	nameStyle := lipgloss.NewStyle().Width(width + 1).Foreground(th.FG())
	selStyle := nameStyle.Foreground(th.Cursor()).Bold(true)

	var out strings.Builder
	for t, tr := range g.Snapshot {
		if t == g.Track {
			out.WriteString(selStyle.Render(tr.Name))
		} else {
			out.WriteString(nameStyle.Render(tr.Name))
		}
		for s := 0; s < sequencer.PatternLength; s++ {
			if s > 0 && s%sequencer.StepsPerBeat == 0 {
				out.WriteString(" ")
			}
			active := tr.Active(s)
			playhead := s == g.Playhead
			color := th.PadColor(s, active, playhead)
			if t == g.Track && s == g.Step {
				color = th.Cursor()
			}
			out.WriteString(RenderPad(Symbol(th.Symbols, active, playhead, t == g.Track && s == g.Step), color))
		}
		out.WriteString("\n")
	}
	return out.String()
}

// Symbol picks the glyph of one cell
func Symbol(sym theme.Symbols, active, playhead, cursor bool) rune {
	switch {
	case playhead && cursor:
		return sym.CursorPlayhead
	case playhead && active:
		return sym.StepFiring
	case playhead:
		return sym.StepPlayhead
	case active && cursor:
		return sym.CursorActive
	case active:
		return sym.StepActive
	case cursor:
		return sym.CursorEmpty
	default:
		return sym.StepEmpty
	}
}

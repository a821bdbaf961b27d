package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-stepseq/debug"
	"go-stepseq/sequencer"
	"go-stepseq/theme"
	"go-stepseq/widgets"
)

// Audition keys play a single synth note, outside the pattern.
var auditionKeys = map[string]string{
	"1": "c2",
	"2": "c3",
	"3": "c4",
}

type Model struct {
	Engine   *sequencer.Engine
	Theme    *theme.Theme
	Port     string // output shown in the header
	track    int
	step     int
	status   string
	showHelp bool
	quitting bool
}

type UpdateMsg struct{}

func NewModel(engine *sequencer.Engine, th *theme.Theme, port string) Model {
	if th == nil {
		th = theme.New(nil)
	}
	return Model{
		Engine: engine,
		Theme:  th,
		Port:   port,
	}
}

// ListenForUpdates waits for the next engine update. It returns nil once
// the engine is closed, which ends the listen loop.
func ListenForUpdates(engine *sequencer.Engine) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-engine.Updates():
			return UpdateMsg{}
		case <-engine.Done():
			return nil
		}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Engine)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if track, step, ok := m.hitTest(msg.X, msg.Y); ok {
				m.track, m.step = track, step
				m.report(m.Engine.Toggle(track, step))
			}
		}

	case UpdateMsg:
		debug.LogEvery(64, "tui", "updates")
		return m, ListenForUpdates(m.Engine)
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	m.status = ""
	tracks := len(m.Engine.Voices())

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		m.Engine.Stop()
		return m, tea.Quit

	case "p":
		m.Engine.TogglePlay()

	case "+", "=":
		m.report(m.Engine.NudgeTempo(1))

	case "-", "_":
		m.report(m.Engine.NudgeTempo(-1))

	case "]":
		m.Engine.NudgeSwing(1)

	case "[":
		m.Engine.NudgeSwing(-1)

	case "h", "left":
		m.step = (m.step + sequencer.PatternLength - 1) % sequencer.PatternLength

	case "l", "right":
		m.step = (m.step + 1) % sequencer.PatternLength

	case "k", "up":
		m.track = (m.track + tracks - 1) % tracks

	case "j", "down":
		m.track = (m.track + 1) % tracks

	case " ", "space", "enter":
		m.report(m.Engine.Toggle(m.track, m.step))

	case "c":
		m.report(m.Engine.ClearTrack(m.track))

	case "?":
		m.showHelp = !m.showHelp

	default:
		if pitch, ok := auditionKeys[key]; ok {
			m.report(m.Engine.Audition(pitch))
		}
	}

	debug.Log("tui", "key %q track=%d step=%d", key, m.track, m.step)
	return m, nil
}

// report shows an error on the status line; there is nowhere else to put
// it while the UI owns the terminal.
func (m *Model) report(err error) {
	if err != nil {
		m.status = err.Error()
		debug.Logger().WithPrefix("tui").Warn("intent rejected", "err", err)
	}
}

// Grid rows start below the blank line, header and spacer.
const gridTop = 3

func (m Model) hitTest(x, y int) (track, step int, ok bool) {
	voices := m.Engine.Voices()
	track = y - gridTop
	if track < 0 || track >= len(voices) {
		return 0, 0, false
	}
	width := 0
	for _, v := range voices {
		width = max(width, lipgloss.Width(v.Name))
	}
	col := x - (width + 1)
	if col < 0 {
		return 0, 0, false
	}
	// one column per step plus a separator per beat
	beat, within := col/(sequencer.StepsPerBeat+1), col%(sequencer.StepsPerBeat+1)
	if within == sequencer.StepsPerBeat {
		return 0, 0, false
	}
	step = beat*sequencer.StepsPerBeat + within
	if step >= sequencer.PatternLength {
		return 0, 0, false
	}
	return track, step, true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.Engine.State()

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	playState := "STOP"
	if st.Playing {
		playState = "PLAY"
	}
	port := m.Port
	if port == "" {
		port = "dry-run"
	}
	header := headerStyle.Render(fmt.Sprintf("go-stepseq  %s  %3dbpm  swing:%d  step:%02d  → %s",
		playState, st.Tempo, st.Swing, st.Step, port))

	// The cursor is the step the next tick plays; the playhead is the one
	// that just played.
	playhead := -1
	if st.Playing {
		playhead = (st.Step + sequencer.PatternLength - 1) % sequencer.PatternLength
	}
	grid := widgets.RenderGrid(widgets.Grid{
		Snapshot: m.Engine.Snapshot(),
		Playhead: playhead,
		Track:    m.track,
		Step:     m.step,
	}, m.Theme)

	help := dimStyle.Render("hjkl:nav  space:toggle  c:clear  p:play  +/-:tempo  [/]:swing  1-3:audition  ?:help  q:quit")

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(grid)
	out.WriteString("\n")
	out.WriteString(help)

	if m.showHelp {
		out.WriteString("\n\n")
		out.WriteString(m.helpView())
	}

	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(warnStyle.Render(m.status))
	}

	return out.String()
}

func (m Model) helpView() string {
	var voices []widgets.KeyBinding
	for i, v := range m.Engine.Voices() {
		desc := fmt.Sprintf("%s %s", v.Role, v.Sample)
		if v.Role == sequencer.RoleMelodic {
			desc = fmt.Sprintf("%s, %d chords, %.2fs", v.Role, len(v.Chords), v.Duration)
		}
		voices = append(voices, widgets.KeyBinding{Key: fmt.Sprintf("%d %s", i+1, v.Name), Desc: desc})
	}

	sym := m.Theme.Symbols
	legend := strings.Join([]string{
		widgets.RenderLegendItem(sym.StepActive, m.Theme.Active(), "hit", "step plays its voice"),
		widgets.RenderLegendItem(sym.StepPlayhead, m.Theme.Success(), "playhead", "step that just played"),
		widgets.RenderLegendItem(sym.CursorEmpty, m.Theme.Cursor(), "cursor", "space toggles here"),
	}, "\n")

	return widgets.RenderKeyHelp([]widgets.KeySection{
		{Title: "Grid", Keys: []widgets.KeyBinding{
			{Key: "h / l", Desc: "move cursor left/right through steps"},
			{Key: "j / k", Desc: "select track down/up"},
			{Key: "space", Desc: "toggle step on/off"},
			{Key: "c", Desc: "clear current track"},
		}},
		{Title: "Transport", Keys: []widgets.KeyBinding{
			{Key: "p", Desc: "play/stop (resumes where it stopped)"},
			{Key: "+ / -", Desc: "tempo up/down 1 bpm"},
			{Key: "] / [", Desc: "swing up/down"},
			{Key: "1 / 2 / 3", Desc: "audition c2 / c3 / c4"},
		}},
		{Title: "Tracks", Keys: voices},
	}) + "\n\n" + legend
}

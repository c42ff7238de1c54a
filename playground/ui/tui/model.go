package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/suyash-sneo/lifeback/playground/session"
)

// Board geometry inside the rendered frame: one header line, then the
// panel border and padding. Each cell is two columns wide.
const (
	boardTop  = 2
	boardLeft = 2
	cellWidth = 2
)

type tickMsg struct{}
type snapshotMsg struct{ snap session.Snapshot }
type eventsMsg struct {
	events []session.Event
	latest uint64
}
type execMsg struct {
	result string
	err    error
}

type Model struct {
	eng      *session.Engine
	snapshot session.Snapshot
	lastSeq  uint64

	logLines []string
	vp       viewport.Model

	input     textinput.Model
	inputMode bool
	showHelp  bool

	history []string
	histIdx int

	hoverX, hoverY int
	hovering       bool

	width  int
	height int

	status string
	err    error
}

// Run blocks until the user quits or ctx ends.
func Run(ctx context.Context, eng *session.Engine) error {
	m := initialModel(eng)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func initialModel(eng *session.Engine) Model {
	vp := viewport.New(0, 8)
	vp.SetContent("")
	input := textinput.New()
	input.Prompt = ":"
	return Model{eng: eng, vp: vp, input: input, histIdx: -1, snapshot: eng.Snapshot()}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), fetchSnapshot(m.eng), fetchEvents(m.eng, m.lastSeq))
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func fetchSnapshot(eng *session.Engine) tea.Cmd {
	return func() tea.Msg { return snapshotMsg{snap: eng.Snapshot()} }
}

func fetchEvents(eng *session.Engine, seq uint64) tea.Cmd {
	return func() tea.Msg {
		evs, latest := eng.EventsSince(seq)
		return eventsMsg{events: evs, latest: latest}
	}
}

func execCommand(eng *session.Engine, line string) tea.Cmd {
	return func() tea.Msg {
		res, err := eng.ExecCommand(context.Background(), line)
		return execMsg{result: res.Message, err: err}
	}
}

func toggleRun(eng *session.Engine) tea.Cmd {
	if eng.Running() {
		return execCommand(eng, "stop")
	}
	return execCommand(eng, "run")
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.inputMode {
			return m.updateInput(msg)
		}
		switch msg.String() {
		case ":":
			m.inputMode = true
			m.input.Focus()
			m.histIdx = len(m.history)
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			return m, toggleRun(m.eng)
		case "n", "right":
			return m, execCommand(m.eng, "step")
		case "b", "left":
			return m, execCommand(m.eng, "back")
		case "c":
			return m, execCommand(m.eng, "clear")
		case "r":
			return m, execCommand(m.eng, "random")
		case "+", "=":
			return m, execCommand(m.eng, "speed faster")
		case "-", "_":
			return m, execCommand(m.eng, "speed slower")
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	case tea.MouseMsg:
		x, y, ok := m.cellAt(msg.X, msg.Y)
		m.hoverX, m.hoverY, m.hovering = x, y, ok
		if ok && msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			return m, execCommand(m.eng, fmt.Sprintf("toggle %d %d", x, y))
		}
		if !ok {
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
		return m, nil
	case tickMsg:
		return m, tea.Batch(tick(), fetchSnapshot(m.eng), fetchEvents(m.eng, m.lastSeq))
	case snapshotMsg:
		m.snapshot = msg.snap
		return m, nil
	case eventsMsg:
		m.lastSeq = msg.latest
		if len(msg.events) > 0 {
			follow := m.vp.AtBottom()
			for _, ev := range msg.events {
				if ev.Type == session.EventStepForward && m.snapshot.Run.Running {
					// the run loop would flood the log
					continue
				}
				m.logLines = append(m.logLines, formatEvent(ev))
			}
			if over := len(m.logLines) - 500; over > 0 {
				m.logLines = m.logLines[over:]
			}
			m.vp.SetContent(strings.Join(m.logLines, "\n"))
			if follow {
				m.vp.GotoBottom()
			}
		}
		return m, nil
	case execMsg:
		m.err = msg.err
		m.status = msg.result
		return m, fetchSnapshot(m.eng)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width - 4
		logHeight := msg.Height - m.snapshot.Board.Height - 8
		if logHeight < 4 {
			logHeight = 4
		}
		m.vp.Height = logHeight
		m.vp.SetContent(strings.Join(m.logLines, "\n"))
		return m, nil
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.inputMode = false
		m.input.Blur()
		m.input.SetValue("")
		m.histIdx = len(m.history)
		return m, nil
	case tea.KeyEnter:
		line := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		m.inputMode = false
		m.input.Blur()
		if line != "" {
			m.history = append(m.history, line)
			m.histIdx = len(m.history)
			return m, execCommand(m.eng, line)
		}
		return m, nil
	case tea.KeyUp:
		if len(m.history) == 0 {
			return m, nil
		}
		if m.histIdx > 0 {
			m.histIdx--
		}
		m.input.SetValue(m.history[m.histIdx])
		m.input.CursorEnd()
		return m, nil
	case tea.KeyDown:
		if len(m.history) == 0 {
			return m, nil
		}
		if m.histIdx < len(m.history)-1 {
			m.histIdx++
		}
		m.input.SetValue(m.history[m.histIdx])
		m.input.CursorEnd()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// cellAt maps terminal coordinates to a board cell.
func (m Model) cellAt(col, row int) (int, int, bool) {
	g := m.snapshot.Grid
	if g.Width() == 0 || col < boardLeft || row < boardTop {
		return 0, 0, false
	}
	x := (col - boardLeft) / cellWidth
	y := row - boardTop
	if !g.InBounds(x, y) {
		return 0, 0, false
	}
	return x, y, true
}

func (m Model) View() string {
	parts := []string{m.renderHeader(), m.renderBoard(), m.renderLog()}
	if m.showHelp {
		parts = append(parts, m.renderHelp())
	}
	layout := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.inputMode {
		layout += "\n" + m.input.View()
	} else if m.err != nil {
		layout += "\n" + errorStyle.Render(m.err.Error())
	} else if m.status != "" {
		layout += "\n" + m.status
	}
	return layout
}

func (m Model) renderHeader() string {
	s := m.snapshot
	run := "paused"
	if s.Run.Running {
		run = "running"
	}
	period := "-"
	switch {
	case s.Period == 1:
		period = "still"
	case s.Period > 1:
		period = fmt.Sprintf("p%d", s.Period)
	}
	line := fmt.Sprintf("gen:%d pop:%d undo:%d/%d period:%s %s @%v rule:%s edges:%s session:%s",
		s.Board.Generation, s.Board.Population, s.History.Depth, s.History.Limit, period,
		run, s.Run.Interval, s.Board.Rule, s.Board.Edges, valueOrDash(s.SessionID))
	if n := len(s.Sessions); n > 1 {
		line += fmt.Sprintf(" peers:%d", n-1)
	}
	if m.hovering {
		line += fmt.Sprintf(" cell:%d,%d", m.hoverX, m.hoverY)
	}
	return headerStyle.Render(line)
}

func (m Model) renderBoard() string {
	g := m.snapshot.Grid
	if g.Width() == 0 {
		return panelStyle.Render("no board")
	}
	var b strings.Builder
	for y := 0; y < g.Height(); y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < g.Width(); x++ {
			cell := "  "
			if g.Alive(x, y) {
				cell = "██"
			}
			if m.hovering && x == m.hoverX && y == m.hoverY {
				b.WriteString(hoverStyle.Render(cell))
				continue
			}
			b.WriteString(cell)
		}
	}
	return panelStyle.Render(b.String())
}

func (m Model) renderLog() string {
	return panelStyle.Render(m.vp.View())
}

func (m Model) renderHelp() string {
	lines := []string{
		"Keys: space run/stop, n/→ step, b/← back, c clear, r random, +/- speed, : command, ? help, q quit",
		"Mouse: click toggles a cell (not undoable), hover shows coordinates",
		"Commands: step [n], back [n], run, stop, toggle x y, clear, random [d], load <pattern> [x y], save <name>, delete <name>, patterns, speed <d|faster|slower>, rule <B3/S23>, edges dead|wrap, script <file>, info",
	}
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Render(strings.Join(lines, "\n"))
}

func formatEvent(ev session.Event) string {
	ts := ev.At.Format("15:04:05")
	typ := strings.ToUpper(string(ev.Type))
	fields := formatFields(ev.Fields)
	if fields != "" {
		return fmt.Sprintf("%s [%s] %s %s", ts, typ, ev.Message, fields)
	}
	return fmt.Sprintf("%s [%s] %s", ts, typ, ev.Message)
}

func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func valueOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

var (
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	hoverStyle  = lipgloss.NewStyle().Background(lipgloss.Color("63")).Foreground(lipgloss.Color("230"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

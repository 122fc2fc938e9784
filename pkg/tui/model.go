// Package tui hosts the engine in a terminal. Physics, frames and input all
// run inside the bubbletea update loop, so the engine is only ever touched
// from one goroutine.
package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-agentviz/pkg/engine"
	"github.com/dd0wney/cluso-agentviz/pkg/render"
)

const (
	headerRows = 1
	footerRows = 1
	panelWidth = 36
	panStep    = 4 // cells per arrow key press
)

// Options sets the tick cadence
type Options struct {
	Title           string
	PhysicsInterval time.Duration
	FrameInterval   time.Duration
}

type physicsMsg time.Time

type frameMsg time.Time

// Model is the bubbletea model for the agent graph viewer
type Model struct {
	engine  *engine.Engine
	surface *render.CellSurface
	opts    Options

	keys   keyMap
	help   help.Model
	agents table.Model

	width, height int
	canvas        string
	stats         render.FrameStats
	version       uint64
	err           error
}

// New creates a model around e. The caller owns e and closes it after the
// program exits.
func New(e *engine.Engine, opts Options) Model {
	if opts.Title == "" {
		opts.Title = "agentviz"
	}
	if opts.PhysicsInterval <= 0 {
		opts.PhysicsInterval = 16 * time.Millisecond
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 33 * time.Millisecond
	}

	columns := []table.Column{
		{Title: "Agent", Width: 18},
		{Title: "Risk", Width: 5},
		{Title: "Act", Width: 5},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(8),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	t.SetStyles(s)

	return Model{
		engine:  e,
		surface: render.NewCellSurface(0, 0),
		opts:    opts,
		keys:    keys,
		help:    help.New(),
		agents:  t,
		version: ^uint64(0),
	}
}

func physicsTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return physicsMsg(t) })
}

func frameTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(physicsTick(m.opts.PhysicsInterval), frameTick(m.opts.FrameInterval))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		cols, rows := m.canvasSize()
		m.surface.Resize(cols, rows)
		w, h := m.surface.Size()
		m.engine.Apply(engine.InputEvent{Kind: engine.Resize, X: w, Y: h})
		m.engine.Apply(engine.InputEvent{Kind: engine.ResetView})
		m.agents.SetHeight(max(msg.Height-headerRows-footerRows-12, 3))

	case physicsMsg:
		m.engine.Drain()
		m.engine.Step()
		return m, physicsTick(m.opts.PhysicsInterval)

	case frameMsg:
		m.engine.Drain()
		m.stats = m.engine.Frame(m.surface, time.Time(msg))
		m.canvas = m.surface.Render()
		m.syncAgents()
		return m, frameTick(m.opts.FrameInterval)

	case tea.MouseMsg:
		m.mouse(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pin):
			m.engine.Apply(engine.InputEvent{Kind: engine.TogglePin})
		case key.Matches(msg, m.keys.Reset):
			m.engine.Apply(engine.InputEvent{Kind: engine.ResetView})
		case key.Matches(msg, m.keys.ZoomIn):
			m.engine.Apply(engine.InputEvent{Kind: engine.ZoomCenter, Delta: 1})
		case key.Matches(msg, m.keys.ZoomOut):
			m.engine.Apply(engine.InputEvent{Kind: engine.ZoomCenter, Delta: -1})
		case key.Matches(msg, m.keys.Up):
			m.engine.Apply(engine.InputEvent{Kind: engine.Pan, Y: 2 * panStep})
		case key.Matches(msg, m.keys.Down):
			m.engine.Apply(engine.InputEvent{Kind: engine.Pan, Y: -2 * panStep})
		case key.Matches(msg, m.keys.Left):
			m.engine.Apply(engine.InputEvent{Kind: engine.Pan, X: panStep})
		case key.Matches(msg, m.keys.Right):
			m.engine.Apply(engine.InputEvent{Kind: engine.Pan, X: -panStep})
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case error:
		m.err = msg
	}
	return m, nil
}

// mouse maps terminal cells to surface pixels: one column per cell and two
// rows per cell, sampled at the cell centre.
func (m Model) mouse(msg tea.MouseMsg) {
	cols, _ := m.canvasSize()
	row := msg.Y - headerRows
	inCanvas := msg.X >= 0 && msg.X < cols && row >= 0
	sx := float64(msg.X) + 0.5
	sy := float64(row)*2 + 1

	switch {
	case msg.Button == tea.MouseButtonWheelUp && inCanvas:
		m.engine.Apply(engine.InputEvent{Kind: engine.Wheel, X: sx, Y: sy, Delta: 1})
	case msg.Button == tea.MouseButtonWheelDown && inCanvas:
		m.engine.Apply(engine.InputEvent{Kind: engine.Wheel, X: sx, Y: sy, Delta: -1})
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inCanvas:
		m.engine.Apply(engine.InputEvent{Kind: engine.PointerDown, X: sx, Y: sy})
	case msg.Action == tea.MouseActionMotion:
		m.engine.Apply(engine.InputEvent{Kind: engine.PointerMove, X: sx, Y: sy})
	case msg.Action == tea.MouseActionRelease:
		m.engine.Apply(engine.InputEvent{Kind: engine.PointerUp, X: sx, Y: sy})
	}
}

func (m Model) canvasSize() (cols, rows int) {
	return max(m.width-panelWidth, 0), max(m.height-headerRows-footerRows, 0)
}

// syncAgents refills the agent table when the graph structure changed
func (m *Model) syncAgents() {
	mirror := m.engine.Mirror()
	if mirror == nil || mirror.Version == m.version {
		return
	}
	m.version = mirror.Version

	nodes := slices.Clone(mirror.Nodes)
	slices.SortStableFunc(nodes, func(a, b engine.NodeSummary) int {
		return cmp.Compare(b.Risk, a.Risk)
	})
	rows := make([]table.Row, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, table.Row{truncate(n.Name, 18), fmt.Sprintf("%.0f", n.Risk), fmt.Sprintf("%d", n.Activity)})
	}
	m.agents.SetRows(rows)
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(m.opts.Title))
	s.WriteString("\n")
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.canvas, m.renderPanel()))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return s.String()
}

func (m Model) renderPanel() string {
	mirror := m.engine.Mirror()
	var s strings.Builder

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(fmt.Sprintf("%-9s", label)))
		s.WriteString(valueStyle.Render(value))
		s.WriteString("\n")
	}

	if mirror.Selected != nil {
		name := mirror.Selected.Name
		if mirror.Pinned {
			name += pinnedStyle.Render(" [pinned]")
		}
		row("Agent", name)
		row("Risk", fmt.Sprintf("%.1f", mirror.Selected.Risk))
		row("Activity", fmt.Sprintf("%d", mirror.Selected.Activity))
	} else {
		row("Agent", "(none)")
	}
	s.WriteString("\n")
	row("Agents", fmt.Sprintf("%d", len(mirror.Nodes)))
	row("Links", fmt.Sprintf("%d", mirror.Links))
	row("Packets", fmt.Sprintf("%d", mirror.Packets))
	row("Zoom", fmt.Sprintf("%.2fx", mirror.Zoom))
	row("Resets", fmt.Sprintf("%d", mirror.Resets))
	s.WriteString("\n")
	s.WriteString(m.agents.View())

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(truncate(m.err.Error(), panelWidth-4)))
	}

	return panelStyle.Width(panelWidth - 2).Render(s.String())
}

// Run starts a full-screen program with mouse tracking and blocks until
// the user quits.
func Run(e *engine.Engine, opts Options) error {
	p := tea.NewProgram(New(e, opts), tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err := p.Run()
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// ABOUTME: Bubbletea model for the terminal ephys viewer
// ABOUTME: Defines viewer state, key handling and asynchronous command results
package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/rawview/pkg/ephys/viewer"
)

// Layout rows around the heatmap
const (
	headerRows = 2
	footerRows = 3
)

// Model represents the TUI state. At most one viewer command is in flight,
// so the viewer is only ever touched by one goroutine at a time.
type Model struct {
	ctx    context.Context
	viewer *viewer.Viewer
	title  string

	frame  viewer.Frame
	busy   bool
	status string
	err    error

	// Goto prompt
	prompt bool
	input  string

	// Dimensions
	width  int
	height int
}

// frameMsg carries the result of a viewer command run off the event loop
type frameMsg struct {
	frame viewer.Frame
	kind  viewer.Kind
	err   error
}

// StatusMsg replaces the status line from outside the program
type StatusMsg struct {
	Text string
}

// NewModel creates a model over a viewer. The first window is loaded by Init.
func NewModel(ctx context.Context, v *viewer.Viewer, title string) Model {
	return Model{
		ctx:    ctx,
		viewer: v,
		title:  title,
		busy:   true,
		status: "Loading...",
	}
}

// Init loads the first window
func (m Model) Init() tea.Cmd {
	v, ctx := m.viewer, m.ctx
	return func() tea.Msg {
		err := v.Load(ctx)
		return frameMsg{frame: v.Frame(), err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case frameMsg:
		m.applyFrame(msg)
	case StatusMsg:
		m.status = msg.Text
		m.err = nil
	}

	return m, nil
}

// run executes one viewer command off the event loop
func (m Model) run(cmd viewer.Command) (Model, tea.Cmd) {
	m.busy = true
	v, ctx := m.viewer, m.ctx
	return m, func() tea.Msg {
		err := v.Apply(ctx, cmd)
		return frameMsg{frame: v.Frame(), kind: cmd.Kind, err: err}
	}
}

func (m *Model) applyFrame(msg frameMsg) {
	m.busy = false
	if msg.err != nil {
		m.err = msg.err
		if errors.Is(msg.err, viewer.ErrInvalidTime) {
			m.status = "Invalid time"
		} else {
			m.status = "Error"
		}
		return
	}
	m.err = nil
	if msg.frame.Image != nil {
		m.frame = msg.frame
	}
	m.status = fmt.Sprintf("%.3fs - %.3fs", msg.frame.Range.T0, msg.frame.Range.T1)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.prompt {
		return m.handlePromptKey(msg)
	}

	key := msg.String()
	if key == "q" {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}
	if key == "g" {
		m.prompt = true
		m.input = ""
		return m, nil
	}

	kind, err := viewer.ParseKey(key)
	if err != nil {
		return m, nil
	}
	return m.run(viewer.Command{Kind: kind})
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = false
		m.input = ""
	case tea.KeyEnter:
		m.prompt = false
		text := m.input
		m.input = ""
		if text == "" || m.busy {
			return m, nil
		}
		return m.run(viewer.Command{Kind: viewer.Goto, Text: text})
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

// handleMouse picks the sample under a left click on the heatmap
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if m.busy || !m.viewer.Loaded() {
		return m, nil
	}

	cols, rows := m.heatmapSize()
	y := msg.Y - headerRows
	if cols <= 0 || rows <= 0 || msg.X < 0 || msg.X >= cols || y < 0 || y >= rows {
		return m, nil
	}

	res, err := m.viewer.Pick(float64(msg.X)+0.5, float64(y)+0.5, float64(cols), float64(rows))
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.status = fmt.Sprintf("Picked sample %d (%.4fs) channel %d : %d", res.Sample, res.Time, res.Channel, res.Value)
	return m, nil
}

// heatmapSize returns the heatmap area in cells
func (m Model) heatmapSize() (cols, rows int) {
	return m.width, m.height - headerRows - footerRows
}

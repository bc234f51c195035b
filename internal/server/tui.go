// ABOUTME: Server TUI for displaying connected viewers
// ABOUTME: Real-time server status display using bubbletea
package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ServerTUI manages the server TUI
type ServerTUI struct {
	program  *tea.Program
	updates  chan ServerStatus
	quitChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// ServerStatus holds server state for TUI
type ServerStatus struct {
	Name      string
	Port      int
	Recording string
	Duration  float64
	Clients   []ClientInfo
}

// ClientInfo holds client information for display
type ClientInfo struct {
	Name string
	ID   string
	Time float64
}

type tuiModel struct {
	status    ServerStatus
	startTime time.Time
	quitting  bool
	quitChan  chan struct{}
}

type tickMsg time.Time
type statusMsg ServerStatus

func (m tuiModel) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickEvery()

	case statusMsg:
		m.status = ServerStatus(msg)
		return m, nil
	}

	return m, nil
}

var (
	tuiTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	tuiValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	tuiClientHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("220"))
)

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down server...\n"
	}

	var b strings.Builder

	b.WriteString(tuiTitleStyle.Render("rawview frame server"))
	b.WriteString("\n\n")

	field := func(name, value string) {
		b.WriteString(tuiHeaderStyle.Render(name + ": "))
		b.WriteString(tuiValueStyle.Render(value))
		b.WriteString("\n")
	}
	field("Server", m.status.Name)
	field("Port", fmt.Sprintf("%d", m.status.Port))
	field("Uptime", time.Since(m.startTime).Round(time.Second).String())
	field("Recording", m.status.Recording)
	if m.status.Duration > 0 {
		field("Duration", fmt.Sprintf("%.1fs", m.status.Duration))
	}
	b.WriteString("\n")

	b.WriteString(tuiClientHeaderStyle.Render(fmt.Sprintf("Connected Viewers (%d)", len(m.status.Clients))))
	b.WriteString("\n\n")

	if len(m.status.Clients) == 0 {
		b.WriteString(tuiValueStyle.Render("  No viewers connected"))
		b.WriteString("\n")
	} else {
		for _, client := range m.status.Clients {
			b.WriteString(fmt.Sprintf("  • %s", client.Name))
			b.WriteString(tuiValueStyle.Render(fmt.Sprintf(" (at %.3fs)", client.Time)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

// NewServerTUI creates a new server TUI
func NewServerTUI() *ServerTUI {
	return &ServerTUI{
		updates:  make(chan ServerStatus, 10),
		quitChan: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start runs the TUI until it quits
func (t *ServerTUI) Start(initial ServerStatus) error {
	m := tuiModel{
		status:    initial,
		startTime: time.Now(),
		quitChan:  t.quitChan,
	}

	t.program = tea.NewProgram(m, tea.WithAltScreen())

	program := t.program
	go func() {
		for {
			select {
			case status := <-t.updates:
				program.Send(statusMsg(status))
			case <-t.done:
				return
			}
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a status update to the TUI without blocking
func (t *ServerTUI) Update(status ServerStatus) {
	select {
	case <-t.done:
	case t.updates <- status:
	default:
	}
}

// Stop stops the TUI
func (t *ServerTUI) Stop() {
	t.stopOnce.Do(func() {
		if t.program != nil {
			t.program.Quit()
		}
		close(t.done)
	})
}

// QuitChan returns the channel that signals when user wants to quit
func (t *ServerTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}

// ABOUTME: TUI rendering and program startup
// ABOUTME: Draws the display image as half-block cells and runs the bubbletea program
package ui

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Resonate-Protocol/rawview/pkg/ephys/display"
	"github.com/Resonate-Protocol/rawview/pkg/ephys/viewer"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderHeatmap())
	b.WriteString(m.renderStatus())
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	f := m.viewer.Format()
	line := titleStyle.Render("rawview") + " " + valueStyle.Render(m.title)

	info := fmt.Sprintf("%d ch @ %.0f Hz", f.NChannels, f.SampleRate)
	if d := m.viewer.Duration(); d > 0 {
		info += fmt.Sprintf("  duration %.1fs", d)
	}
	if m.frame.Image != nil {
		info += fmt.Sprintf("  std %.1f", m.frame.Scale.Std)
	}
	return line + "\n" + headerStyle.Render("Recording: ") + valueStyle.Render(info) + "\n"
}

// renderHeatmap draws two image rows per terminal row using upper half
// blocks. The highest channel is at the top.
func (m Model) renderHeatmap() string {
	cols, rows := m.heatmapSize()
	if rows <= 0 || cols <= 0 {
		return ""
	}
	if m.frame.Image == nil {
		return strings.Repeat("\n", rows)
	}

	var b strings.Builder
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			top := sampleCell(m.frame.Image, c, 2*r, cols, 2*rows)
			bottom := sampleCell(m.frame.Image, c, 2*r+1, cols, 2*rows)
			b.WriteString(lipgloss.NewStyle().
				Foreground(hexColor(top)).
				Background(hexColor(bottom)).
				Render("▀"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// sampleCell returns the nearest image pixel for screen position (x, y) of a
// w x h grid, y growing towards channel 0
func sampleCell(img *display.Image, x, y, w, h int) color.RGBA {
	i := x * img.Frames / w
	r := y * img.Channels / h
	return img.At(img.Channels-1-r, i)
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func (m Model) renderStatus() string {
	if m.prompt {
		return headerStyle.Render("Go to time (s): ") + m.input + "█\n"
	}
	s := valueStyle.Render(m.status)
	if m.busy {
		s += valueStyle.Render(" ...")
	}
	if m.err != nil {
		s += " " + errorStyle.Render(m.err.Error())
	}
	return s + "\n"
}

func (m Model) renderHelp() string {
	return helpStyle.Render("←/→:Step  +/-:Zoom  Home/End  g:Goto  r:Reset scale  click:Pick  q:Quit") + "\n"
}

// Run starts the TUI and blocks until it quits
func Run(ctx context.Context, v *viewer.Viewer, title string) error {
	p := tea.NewProgram(NewModel(ctx, v, title), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

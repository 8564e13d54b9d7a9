// Package tui provides a live terminal view of a running package operation.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette - matches the CLI colors
var (
	ColorPrimary   = lipgloss.Color("#1793D1") // Arch blue
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorText      = lipgloss.Color("#F3F4F6") // Light gray
	ColorBgAlt     = lipgloss.Color("#374151")
)

// Styles contains the lipgloss styles used by the progress view.
type Styles struct {
	Header  lipgloss.Style
	Step    lipgloss.Style
	Detail  lipgloss.Style
	Stdout  lipgloss.Style
	Stderr  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Spinner lipgloss.Style
	Border  lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() *Styles {
	s := &Styles{}

	s.Header = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorBgAlt).
		Padding(0, 1).
		Bold(true)

	s.Step = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)

	s.Detail = lipgloss.NewStyle().
		Foreground(ColorText)

	s.Stdout = lipgloss.NewStyle().
		Foreground(ColorText)

	s.Stderr = lipgloss.NewStyle().
		Foreground(ColorWarning)

	s.Success = lipgloss.NewStyle().
		Foreground(ColorSuccess).
		Bold(true)

	s.Warning = lipgloss.NewStyle().
		Foreground(ColorWarning)

	s.Error = lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true)

	s.Muted = lipgloss.NewStyle().
		Foreground(ColorMuted)

	s.Spinner = lipgloss.NewStyle().
		Foreground(ColorPrimary)

	s.Border = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted).
		Padding(0, 1)

	return s
}

package cmd

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#7C3AED") // Violet
	secondaryColor = lipgloss.Color("#10B981") // Emerald
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	fgColor        = lipgloss.Color("#CDD6F4")
	mutedColor     = lipgloss.Color("#6C7086")
	borderColor    = lipgloss.Color("#45475A")
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(primaryColor).
	MarginBottom(1)

var typeStyle = lipgloss.NewStyle().
	Foreground(accentColor).
	Bold(true).
	Width(10)

var scoreStyle = lipgloss.NewStyle().
	Foreground(secondaryColor).
	Width(8).
	Align(lipgloss.Right).
	PaddingRight(1)

var titleStyle = lipgloss.NewStyle().
	Foreground(fgColor)

var detailStyle = lipgloss.NewStyle().
	Foreground(mutedColor).
	Italic(true)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(borderColor).
	Padding(0, 1)

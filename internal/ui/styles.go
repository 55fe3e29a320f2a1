package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent    = lipgloss.Color("#2BB673")
	highlight = lipgloss.Color("#8FD694")
	muted     = lipgloss.Color("#6B7280")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginTop(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginBottom(1)

	QueueHeaderStyle = lipgloss.NewStyle().
				Foreground(highlight).
				Bold(true)

	PendingStyle = lipgloss.NewStyle().
			Foreground(muted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4757")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)
)

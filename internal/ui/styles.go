// Package ui holds the lipgloss styles shared by the rehearse TUI.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF5555")
	ColorGreen   = lipgloss.Color("#50FA7B")
	ColorYellow  = lipgloss.Color("#F1FA8C")
	ColorCyan    = lipgloss.Color("#8BE9FD")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#F8F8F2")
	ColorMagenta = lipgloss.Color("#FF79C6")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	PhaseStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	QuestionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	AnswerStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	InterimStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	ListeningDotStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Bold(true)

	IdleDotStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	SpeakingStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)

	TimerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGreen)

	TimerLowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorRed)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	WarnStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FormLabelStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	FormLabelActiveStyle = lipgloss.NewStyle().
				Foreground(ColorCyan).
				Bold(true)

	FormValueStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	SubmittedStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	MeterGreenStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	MeterYellowStyle = lipgloss.NewStyle().
				Foreground(ColorYellow)

	MeterGrayStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FeedbackStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)
)

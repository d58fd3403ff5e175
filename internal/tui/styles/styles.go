// Package styles holds the shared lipgloss styles for the TUI.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Base palette, dark theme.
	Background = lipgloss.Color("#0f172a")
	Surface    = lipgloss.Color("#1e293b")
	Border     = lipgloss.Color("#334155")
	Muted      = lipgloss.Color("#64748b")
	Text       = lipgloss.Color("#e2e8f0")
	Bright     = lipgloss.Color("#f8fafc")

	Accent = lipgloss.Color("#818cf8")
	Green  = lipgloss.Color("#4ade80")
	Yellow = lipgloss.Color("#facc15")
	Red    = lipgloss.Color("#f87171")
)

var (
	AppStyle = lipgloss.NewStyle().
			Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Foreground(Bright).
			Background(Accent).
			Padding(0, 1).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	NormalItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(Text)

	SelectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(Accent).
				Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(Muted)

	ResumeStyle = lipgloss.NewStyle().
			Foreground(Green)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	OverlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Accent).
			Padding(1, 2)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Padding(0, 1)
)

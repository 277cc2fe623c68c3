package tui

import "github.com/charmbracelet/lipgloss"

var (
	borderColor = lipgloss.Color("240")
	accentColor = lipgloss.Color("32")
	mutedColor  = lipgloss.Color("245")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	loadingPanelStyle = panelStyle.
				BorderForeground(mutedColor)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("240")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)
)

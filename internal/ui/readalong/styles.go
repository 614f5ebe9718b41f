package readalong

import "github.com/charmbracelet/lipgloss"

var (
	colorYellow = lipgloss.Color("#FFD23F")
	colorGreen  = lipgloss.Color("#3BCEAC")
	colorPink   = lipgloss.Color("#EE4266")
	colorPurple = lipgloss.Color("#540D6E")
	colorGray   = lipgloss.Color("#777777")
	colorWhite  = lipgloss.Color("#FFFFFF")
)

var (
	letterStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorPurple).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen)

	wordStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	highlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPurple).
			Background(colorYellow)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorPink).
			Bold(true)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	footerDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	textBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGreen).
			Padding(1, 2)
)

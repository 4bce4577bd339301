package dashboard

import "github.com/charmbracelet/lipgloss"

var (
	paneBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	paneTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	feedJoin    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	feedLeave   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	feedCommand = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	feedChat    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	feedSystem  = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))

	banRow = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	statusBar = lipgloss.NewStyle().
			Foreground(lipgloss.Color("235")).
			Background(lipgloss.Color("39")).
			Padding(0, 1)
)

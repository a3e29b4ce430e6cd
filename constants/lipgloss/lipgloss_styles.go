package lipgloss

import "github.com/charmbracelet/lipgloss"

var (
	Red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#da3633"))
	Green   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ea043"))
	Yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d29922"))
	BlueSky = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff"))
	Gray    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("#79c0ff")).Bold(true)

	// BoxStyle frames summaries and help text.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#58a6ff")).
			Padding(0, 1)
)

// SeverityStyle returns the colour used for an issue severity.
func SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "CRITICAL":
		return Red.Bold(true)
	case "MAJOR":
		return Yellow.Bold(true)
	case "MINOR":
		return BlueSky
	default:
		return Gray
	}
}

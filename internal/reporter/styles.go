package reporter

import "github.com/charmbracelet/lipgloss"

var (
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
)

func (r *TextReporter) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

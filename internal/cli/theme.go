package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/uniassist/internal/models"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	User      lipgloss.Color
	Assistant lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Hint      lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	User:      lipgloss.Color("#5FAFD7"), // light blue
	Assistant: lipgloss.Color("#00D787"), // green
	Success:   lipgloss.Color("#00D787"),
	Error:     lipgloss.Color("#FF005F"), // red
	Hint:      lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) roleStyle(r models.Role) lipgloss.Style {
	if r == models.RoleAssistant {
		return lipgloss.NewStyle().Foreground(t.Assistant).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

package color

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ThemeEnvVar forces the dark ("dark") or light ("light") theme.
const ThemeEnvVar = "ENVPIN_THEME"

var (
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}).
			Bold(true)

	FailureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"})

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"})

	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#0550AE", Dark: "#58A6FF"}).
			Bold(true)
)

// Initialize sets the background mode used to pick adaptive colors.
func Initialize(isDark bool) {
	lipgloss.SetHasDarkBackground(isDark)
}

// InitializeFromEnv applies ThemeEnvVar when set and leaves lipgloss
// detection alone otherwise.
func InitializeFromEnv() {
	switch strings.ToLower(os.Getenv(ThemeEnvVar)) {
	case "dark":
		Initialize(true)
	case "light":
		Initialize(false)
	}
}

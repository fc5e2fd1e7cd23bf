package colors

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive palette for lipgloss-rendered output. The dark variants are a
// shade lighter so they stay readable on dark backgrounds.
var (
	Green600 = lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#4ade80"}
	Cyan600  = lipgloss.AdaptiveColor{Light: "#0891b2", Dark: "#22d3ee"}
	Amber500 = lipgloss.AdaptiveColor{Light: "#d97706", Dark: "#fbbf24"}
	Red600   = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
)

// SetupBackgroundColorTypeFromEnv initializes the background color setting based on
// APOGEE_HAS_LIGHT_BG environment variable.
//
// Technically, if terminal sets COLORFGBG environment variable, lipgloss will use it to determine
// if the background color is darker or lighter, but this doesn't necessarily work always, so we
// provide a way to force the background color type.
func SetupBackgroundColorTypeFromEnv() {
	envvar := strings.ToLower(os.Getenv("APOGEE_HAS_LIGHT_BG"))
	switch envvar {
	case "true", "1", "yes", "y", "on":
		lipgloss.SetHasDarkBackground(false)
	case "false", "0", "no", "n", "off":
		lipgloss.SetHasDarkBackground(true)
	default:
		// Otherwise, let lipgloss determine the background color based on the terminal.
	}
}

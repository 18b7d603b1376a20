package colors

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SetupBackgroundColorTypeFromEnv initializes lipgloss's background color
// guess from the STACKCORE_HAS_LIGHT_BG environment variable, for terminals
// where lipgloss's own COLORFGBG/OSC-11 detection gets it wrong.
func SetupBackgroundColorTypeFromEnv() {
	envvar := strings.ToLower(os.Getenv("STACKCORE_HAS_LIGHT_BG"))
	switch envvar {
	case "true", "1", "yes", "y", "on":
		lipgloss.SetHasDarkBackground(false)
	case "false", "0", "no", "n", "off":
		lipgloss.SetHasDarkBackground(true)
	default:
		// Let lipgloss determine the background color from the terminal.
	}
	// Forces the OSC-11 query (and its caching) to happen now, before any
	// command output is in flight; invoked mid-render this has been
	// observed to hang some terminals.
	lipgloss.HasDarkBackground()
}

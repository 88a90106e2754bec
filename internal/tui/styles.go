// Package tui renders command output for terminals and for machines.
//
// Colors are AdaptiveColor so they read on light and dark backgrounds.
// NO_COLOR (any value) and TERM=dumb disable color entirely.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mrz1836/patchbay/internal/constants"
)

//nolint:gochecknoglobals // package-level style palette
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	StyleBold = lipgloss.NewStyle().Bold(true)
	StyleDim  = lipgloss.NewStyle().Faint(true)
)

// OutputStyles holds the styles used for status lines.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Header  lipgloss.Style
	Added   lipgloss.Style
	Removed lipgloss.Style
	Hunk    lipgloss.Style
}

// NewOutputStyles creates the output style set.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().Foreground(ColorSuccess),
		Error:   lipgloss.NewStyle().Foreground(ColorError),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Info:    lipgloss.NewStyle().Foreground(ColorPrimary),
		Dim:     lipgloss.NewStyle().Foreground(ColorMuted),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
		Added:   lipgloss.NewStyle().Foreground(ColorSuccess),
		Removed: lipgloss.NewStyle().Foreground(ColorError),
		Hunk:    lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// CheckNoColor switches lipgloss to plain ASCII when color is unwanted.
// Call it once at the start of a command.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport reports false when NO_COLOR is set (even empty) or TERM=dumb.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// StatusIcon returns the icon for a run status or a tool result.
func StatusIcon(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// RunStatusStyle colors a terminal run status.
func RunStatusStyle(s constants.RunStatus) lipgloss.Style {
	if s.Succeeded() {
		return lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(ColorError)
}

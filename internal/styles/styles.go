// Package styles holds the terminal colours shared by the console log sink
// and the CLI log viewer.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Basic ANSI colours so output follows the user's terminal theme.
	ErrorColor = lipgloss.Color("1")
	WarnColor  = lipgloss.Color("3")
	InfoColor  = lipgloss.Color("2")
	DebugColor = lipgloss.Color("4")
	TraceColor = lipgloss.Color("6")
	MutedColor = lipgloss.Color("8")
)

// LevelColor returns the colour for an upper- or lower-case level name.
// Unknown names get no colour.
func LevelColor(level string) lipgloss.TerminalColor {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "ERROR":
		return ErrorColor
	case "WARN", "WARNING":
		return WarnColor
	case "INFO":
		return InfoColor
	case "DEBUG":
		return DebugColor
	case "TRACE":
		return TraceColor
	default:
		return lipgloss.NoColor{}
	}
}

// Level returns the style for a level name rendered through r.
func Level(r *lipgloss.Renderer, level string) lipgloss.Style {
	style := r.NewStyle().Foreground(LevelColor(level))
	if strings.EqualFold(level, "ERROR") {
		style = style.Bold(true)
	}
	return style
}

// Target returns the emphasised style used for target names.
func Target(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Bold(true)
}

// Muted returns the style used for timestamps and session banners.
func Muted(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().Foreground(MutedColor)
}

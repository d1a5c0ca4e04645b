// Package util provides shared string helpers for terminal and log output.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var lineEscaper = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\r`)

// PadRight pads s with spaces to width visual columns. ANSI escape codes and
// wide characters are measured correctly; s is never truncated.
func PadRight(s string, width int) string {
	if n := ansi.StringWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// SanitizeLine makes s safe to store as a single plain-text line: invalid
// UTF-8 is replaced, ANSI escape sequences are removed and line breaks are
// escaped.
func SanitizeLine(s string) string {
	s = strings.ToValidUTF8(s, "�")
	if strings.ContainsRune(s, '\x1b') {
		s = ansi.Strip(s)
	}
	if strings.ContainsAny(s, "\r\n") {
		s = lineEscaper.Replace(s)
	}
	return s
}

// TruncateANSI truncates a string to maxWidth visual columns, adding "..." if truncated.
// This function properly handles ANSI escape codes and wide characters, making it
// suitable for terminal output with styling.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate includes the tail in the final width calculation
	return ansi.Truncate(s, maxWidth, "...")
}

package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/ferroxide/ferroxide/internal/clock"
	"github.com/ferroxide/ferroxide/internal/styles"
	"github.com/ferroxide/ferroxide/internal/util"
)

// levelWidth is the fixed column width of the level field. Every level
// name fits.
const levelWidth = 5

const headerRule = "============================="

// Record is a single log event.
type Record struct {
	Level   Level
	Target  string
	Message string
}

// ColorMode selects when console output is styled.
type ColorMode string

// Supported colour modes.
const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// formatter renders records for the console and the log file. The width
// tracker is shared by both forms so columns line up in either sink.
type formatter struct {
	renderer *lipgloss.Renderer
	levels   [LevelTrace + 1]lipgloss.Style
	target   lipgloss.Style
	widths   widthTracker
}

func newFormatter(console io.Writer, mode ColorMode) *formatter {
	r := lipgloss.NewRenderer(console)
	switch mode {
	case ColorAlways:
		r.SetColorProfile(termenv.ANSI256)
	case ColorNever:
		r.SetColorProfile(termenv.Ascii)
	}

	f := &formatter{renderer: r, target: styles.Target(r)}
	for l := LevelError; l <= LevelTrace; l++ {
		f.levels[l] = styles.Level(r, l.String())
	}
	return f
}

// console renders " LEVEL TARGET > MESSAGE" with the level coloured and
// the target emphasised. The target is observed before padding so a new
// widest target is aligned on its first line.
func (f *formatter) console(rec Record) string {
	width := f.widths.observe(rec.Target)
	level := f.levelStyle(rec.Level).Render(util.PadRight(rec.Level.String(), levelWidth))
	target := f.target.Render(util.PadRight(rec.Target, width))
	return fmt.Sprintf(" %s %s > %s", level, target, strings.ToValidUTF8(rec.Message, "�"))
}

// file renders "[LEVEL YYYY-MM-DD HH:MM:SS] TARGET > MESSAGE" as plain text.
func (f *formatter) file(rec Record, now time.Time) string {
	width := f.widths.observe(rec.Target)
	return fmt.Sprintf("[%s %s] %s > %s",
		util.PadRight(rec.Level.String(), levelWidth),
		clock.Format(now),
		util.PadRight(util.SanitizeLine(rec.Target), width),
		util.SanitizeLine(rec.Message),
	)
}

func (f *formatter) levelStyle(l Level) lipgloss.Style {
	if l < LevelError || l > LevelTrace {
		return f.renderer.NewStyle()
	}
	return f.levels[l]
}

// sessionHeader renders the banner written once per process start.
func sessionHeader(now time.Time) string {
	return fmt.Sprintf("%s[ %s ]%s", headerRule, clock.Format(now), headerRule)
}

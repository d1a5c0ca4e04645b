package logging

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultFilterText is used when no filter is configured or the configured
// one does not parse.
const DefaultFilterText = "info"

// ErrInvalidFilter is returned by ParseFilter for malformed filter strings.
var ErrInvalidFilter = errors.New("invalid log filter")

// Filter decides which records are emitted. It is immutable once parsed and
// safe for concurrent use.
//
// The syntax is a comma-separated list of directives followed by an
// optional "/regex" message filter:
//
//	info                      everything at INFO and above
//	warn,http=debug           WARN by default, DEBUG for targets starting with "http"
//	db                        TRACE for targets starting with "db", nothing else
//	http.*=trace              glob patterns are matched against the whole target
//	info/timeout              INFO and above, only messages matching "timeout"
//
// When several directives match a target the longest one wins. A target no
// directive matches is disabled.
type Filter struct {
	text       string
	directives []directive
	pattern    *regexp.Regexp
}

type directive struct {
	name  string // empty for the default directive
	match glob.Glob
	level Level
}

func (d directive) matches(target string) bool {
	switch {
	case d.name == "":
		return true
	case d.match != nil:
		return d.match.Match(target)
	default:
		return strings.HasPrefix(target, d.name)
	}
}

// DefaultFilter returns the filter for DefaultFilterText.
func DefaultFilter() Filter {
	return Filter{
		text:       DefaultFilterText,
		directives: []directive{{level: LevelInfo}},
	}
}

// ParseFilter parses a filter string. An empty string yields DefaultFilter.
// A string with no directives, such as "/timeout", enables ERROR for every
// target.
func ParseFilter(text string) (Filter, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultFilter(), nil
	}

	f := Filter{text: text}
	mods, regex, hasRegex := strings.Cut(text, "/")
	if hasRegex {
		if strings.Contains(regex, "/") {
			return Filter{}, fmt.Errorf("%w: %q contains more than one '/'", ErrInvalidFilter, text)
		}
		re, err := regexp.Compile(regex)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: bad message pattern %q: %v", ErrInvalidFilter, regex, err)
		}
		f.pattern = re
	}

	for _, raw := range strings.Split(mods, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := parseDirective(raw)
		if err != nil {
			return Filter{}, err
		}
		f.directives = append(f.directives, d)
	}
	if len(f.directives) == 0 {
		f.directives = []directive{{level: LevelError}}
	}

	// Shortest first so the last match in Enabled is the most specific.
	sort.SliceStable(f.directives, func(i, j int) bool {
		return len(f.directives[i].name) < len(f.directives[j].name)
	})
	return f, nil
}

func parseDirective(raw string) (directive, error) {
	name, levelStr, hasLevel := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)

	if !hasLevel {
		if level, ok := ParseLevel(name); ok {
			return directive{level: level}, nil
		}
		return newDirective(name, LevelTrace)
	}
	if name == "" {
		return directive{}, fmt.Errorf("%w: directive %q has no target", ErrInvalidFilter, raw)
	}
	level, ok := ParseLevel(levelStr)
	if !ok {
		return directive{}, fmt.Errorf("%w: unknown level %q in %q", ErrInvalidFilter, levelStr, raw)
	}
	return newDirective(name, level)
}

func newDirective(name string, level Level) (directive, error) {
	d := directive{name: name, level: level}
	if strings.ContainsAny(name, "*?[{") {
		g, err := glob.Compile(name)
		if err != nil {
			return directive{}, fmt.Errorf("%w: bad target pattern %q: %v", ErrInvalidFilter, name, err)
		}
		d.match = g
	}
	return d, nil
}

// Enabled reports whether a record at level for target passes the
// directives. It does not consult the message pattern.
func (f Filter) Enabled(level Level, target string) bool {
	if level <= LevelOff {
		return false
	}
	for i := len(f.directives) - 1; i >= 0; i-- {
		if d := f.directives[i]; d.matches(target) {
			return level <= d.level
		}
	}
	return false
}

// Matches reports whether msg passes the optional message pattern.
func (f Filter) Matches(msg string) bool {
	return f.pattern == nil || f.pattern.MatchString(msg)
}

// MaxLevel returns the most verbose level any directive enables.
func (f Filter) MaxLevel() Level {
	most := LevelOff
	for _, d := range f.directives {
		if d.level > most {
			most = d.level
		}
	}
	return most
}

// String returns the filter string the filter was parsed from.
func (f Filter) String() string {
	return f.text
}

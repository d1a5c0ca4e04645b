package logging

// This file reads logs.txt back for the CLI log viewer: parsing, filtering
// and exporting entries.

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"

	"github.com/ferroxide/ferroxide/internal/clock"
)

// ErrNoLogFile is returned by ReadEntries when the log file does not exist.
var ErrNoLogFile = errors.New("no log file")

var (
	recordLine = regexp.MustCompile(`^\[(ERROR|WARN |INFO |DEBUG|TRACE) (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\] (.*?) > (.*)$`)
	headerLine = regexp.MustCompile(`^=+\[ (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) \]=+$`)
)

// Entry is one parsed line of the log file.
type Entry struct {
	Timestamp time.Time `json:"time"`
	Level     string    `json:"level,omitempty"`
	Target    string    `json:"target,omitempty"`
	Message   string    `json:"msg,omitempty"`
	// Session is the timestamp of the session header the entry follows.
	Session time.Time `json:"session,omitzero"`
	// Header marks a session header line.
	Header bool `json:"header,omitempty"`
	// Raw holds lines that did not parse.
	Raw string `json:"raw,omitempty"`
}

// String renders the entry the way it appears in the file, without column
// padding.
func (e Entry) String() string {
	switch {
	case e.Raw != "":
		return e.Raw
	case e.Header:
		return sessionHeader(e.Timestamp)
	default:
		return fmt.Sprintf("[%-5s %s] %s > %s", e.Level, clock.Format(e.Timestamp), e.Target, e.Message)
	}
}

// EntryFilter selects entries. Zero fields do not filter.
type EntryFilter struct {
	// Level keeps entries at this severity or more severe.
	Level string
	// Target keeps entries whose target matches this glob, or starts with
	// it when it holds no glob characters.
	Target string
	// Since and Until bound the entry timestamp, inclusive.
	Since time.Time
	Until time.Time
	// Pattern keeps entries whose message matches.
	Pattern *regexp.Regexp
	// Contains keeps entries whose message contains this substring.
	Contains string
}

// ReadEntries parses the log file at path. Timestamps are interpreted in
// loc (UTC when nil). Empty lines are skipped; lines that are neither
// records nor session headers are kept as raw entries.
func ReadEntries(fs afero.Fs, path string, loc *time.Location) ([]Entry, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	file, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNoLogFile, path)
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ParseEntries(file, loc)
}

// ParseEntries parses log lines from r. See ReadEntries.
func ParseEntries(r io.Reader, loc *time.Location) ([]Entry, error) {
	if loc == nil {
		loc = time.UTC
	}

	scanner := bufio.NewScanner(r)
	// Increase buffer size for potentially long log lines
	const maxScanTokenSize = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	var entries []Entry
	var session time.Time
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry := ParseLine(line, loc)
		if entry.Header {
			session = entry.Timestamp
		}
		entry.Session = session
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}
	return entries, nil
}

// ParseLine parses a single line. Unrecognised lines come back with Raw set.
func ParseLine(line string, loc *time.Location) Entry {
	if loc == nil {
		loc = time.UTC
	}
	if m := headerLine.FindStringSubmatch(line); m != nil {
		if ts, err := time.ParseInLocation(clock.TimestampLayout, m[1], loc); err == nil {
			return Entry{Timestamp: ts, Header: true}
		}
	}
	if m := recordLine.FindStringSubmatch(line); m != nil {
		if ts, err := time.ParseInLocation(clock.TimestampLayout, m[2], loc); err == nil {
			return Entry{
				Timestamp: ts,
				Level:     strings.TrimSpace(m[1]),
				Target:    strings.TrimRight(m[3], " "),
				Message:   m[4],
			}
		}
	}
	return Entry{Raw: line}
}

// FilterEntries returns the entries matching every criterion in f. Session
// headers and raw lines only survive filters that do not look at level,
// target or message.
func FilterEntries(entries []Entry, f EntryFilter) ([]Entry, error) {
	minLevel := LevelTrace
	if f.Level != "" {
		l, ok := ParseLevel(f.Level)
		if !ok {
			return nil, fmt.Errorf("unknown level %q (valid: %s)", f.Level, strings.Join(ValidLevels(), ", "))
		}
		minLevel = l
	}

	var targetGlob glob.Glob
	if strings.ContainsAny(f.Target, "*?[{") {
		g, err := glob.Compile(f.Target)
		if err != nil {
			return nil, fmt.Errorf("invalid target pattern %q: %w", f.Target, err)
		}
		targetGlob = g
	}

	contentFilter := f.Level != "" || f.Target != "" || f.Pattern != nil || f.Contains != ""

	var out []Entry
	for _, e := range entries {
		if e.Header || e.Raw != "" {
			if contentFilter {
				continue
			}
		} else {
			if l, ok := ParseLevel(e.Level); !ok || l > minLevel {
				continue
			}
			if f.Target != "" {
				if targetGlob != nil && !targetGlob.Match(e.Target) {
					continue
				}
				if targetGlob == nil && !strings.HasPrefix(e.Target, f.Target) {
					continue
				}
			}
			if f.Pattern != nil && !f.Pattern.MatchString(e.Message) {
				continue
			}
			if f.Contains != "" && !strings.Contains(e.Message, f.Contains) {
				continue
			}
		}
		if e.Raw == "" {
			if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
				continue
			}
			if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// ExportEntries writes entries to w. Supported formats: "json", "text",
// "csv".
func ExportEntries(w io.Writer, entries []Entry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return exportJSON(w, entries)
	case "text":
		return exportText(w, entries)
	case "csv":
		return exportCSV(w, entries)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, text, csv)", format)
	}
}

func exportJSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

func exportText(w io.Writer, entries []Entry) error {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e.String())
		buf.WriteByte('\n')
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write text entries: %w", err)
	}
	return nil
}

func exportCSV(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)

	headers := []string{"timestamp", "level", "target", "message", "session"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, e := range entries {
		if e.Header || e.Raw != "" {
			continue
		}
		session := ""
		if !e.Session.IsZero() {
			session = e.Session.Format(time.RFC3339)
		}
		record := []string{
			e.Timestamp.Format(time.RFC3339),
			e.Level,
			e.Target,
			e.Message,
			session,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"

	"github.com/ferroxide/ferroxide/internal/clock"
)

// ErrSinkUnavailable is returned by Open when the log file cannot be
// opened. A process without its file sink should not start.
var ErrSinkUnavailable = errors.New("log file sink unavailable")

// reportTarget is the target of the sink's own error reports.
const reportTarget = "logging"

type sinkState int32

const (
	stateUninitialized sinkState = iota
	stateInitializing
	stateReady
	stateClosed
)

// Options configures Open.
type Options struct {
	// Path is the log file path, normally <base>/logs.txt.
	Path string
	// FS is the filesystem holding Path. Defaults to the OS filesystem.
	FS afero.Fs
	// Console receives the styled console lines. Defaults to os.Stderr.
	Console io.Writer
	// Clock timestamps file lines and the session header. Defaults to a
	// clock in clock.DefaultZone.
	Clock clock.Clock
	// Filter is a filter string as accepted by ParseFilter. Invalid
	// strings fall back to DefaultFilterText with a warning.
	Filter string
	// Color selects console styling. Defaults to ColorAuto.
	Color ColorMode
}

// Sink writes every record to the console and appends it to the log file,
// truncating the file when it grows past Threshold lines. It is safe for
// concurrent use.
type Sink struct {
	state  atomic.Int32
	filter Filter
	format *formatter
	clock  clock.Clock

	consoleMu sync.Mutex // Keeps single console lines intact
	console   io.Writer

	fileMu sync.Mutex // Serializes append, count check and truncation
	store  *FileStore
	rot    *rotator
}

// Open initializes a Sink: it counts the lines already in the log file,
// writes a session header and returns the ready sink. It fails with
// ErrSinkUnavailable if the header cannot be appended.
func Open(opts Options) (*Sink, error) {
	return open(opts, defaultRetention())
}

func open(opts Options, limits retention) (*Sink, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: no log file path", ErrSinkUnavailable)
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if opts.Clock == nil {
		c, err := clock.New("")
		if err != nil {
			return nil, err
		}
		opts.Clock = c
	}
	if opts.Color == "" {
		opts.Color = ColorAuto
	}

	s := &Sink{
		format:  newFormatter(opts.Console, opts.Color),
		clock:   opts.Clock,
		console: opts.Console,
		store:   NewFileStore(opts.FS, opts.Path),
	}
	s.state.Store(int32(stateInitializing))

	filter, filterErr := ParseFilter(opts.Filter)
	if filterErr != nil {
		filter = DefaultFilter()
	}
	s.filter = filter

	// An unreadable file counts as empty; the append below decides
	// whether the sink is usable at all.
	existing, err := s.store.CountLines()
	if err != nil {
		existing = 0
	}
	// +1 for the session header written next.
	s.rot = newRotator(s.store, limits, existing+1)

	if err := s.store.Append(sessionHeader(s.clock.Now())); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSinkUnavailable, err)
	}
	s.state.Store(int32(stateReady))

	if filterErr != nil {
		s.Emit(LevelWarn, reportTarget, fmt.Sprintf("%v; using %q", filterErr, DefaultFilterText))
	}
	return s, nil
}

// Emit renders a record to the console and appends it to the log file.
// Records rejected by the filter are dropped. Failures are reported on the
// console and never returned.
func (s *Sink) Emit(level Level, target, message string) {
	if !s.filter.Enabled(level, target) || !s.filter.Matches(message) {
		return
	}
	rec := Record{Level: level, Target: target, Message: message}
	s.writeConsole(s.format.console(rec))

	if sinkState(s.state.Load()) != stateReady {
		return
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	if sinkState(s.state.Load()) != stateReady {
		return
	}

	if err := s.store.Append(s.format.file(rec, s.clock.Now())); err != nil {
		s.report(err)
		return
	}
	if _, err := s.rot.observe(); err != nil {
		s.report(fmt.Errorf("failed to truncate log file: %w", err))
	}
}

// Enabled reports whether a record at level for target would be emitted,
// ignoring any message pattern.
func (s *Sink) Enabled(level Level, target string) bool {
	return s.filter.Enabled(level, target)
}

// Filter returns the active filter.
func (s *Sink) Filter() Filter {
	return s.filter
}

// Path returns the log file path.
func (s *Sink) Path() string {
	return s.store.Path()
}

// Lines returns the tracked number of lines in the log file.
func (s *Sink) Lines() int {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	if s.rot == nil {
		return 0
	}
	return s.rot.lines()
}

// Close stops file output. Later records only reach the console.
func (s *Sink) Close() error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	s.state.Store(int32(stateClosed))
	return nil
}

// report writes an internal failure to the console only. It bypasses the
// filter and never touches the file, so a broken file cannot recurse.
func (s *Sink) report(err error) {
	s.writeConsole(s.format.console(Record{Level: LevelError, Target: reportTarget, Message: err.Error()}))
}

func (s *Sink) writeConsole(line string) {
	s.consoleMu.Lock()
	defer s.consoleMu.Unlock()
	_, _ = io.WriteString(s.console, line+"\n")
}

package logging

import (
	"fmt"
	"log/slog"
)

// DefaultTarget is used for records that do not name a target.
const DefaultTarget = "ferroxide"

// Logger emits records for one target. The zero value and a Logger from
// NopLogger discard everything. It is safe for concurrent use.
type Logger struct {
	sink   *Sink
	target string
}

// Logger returns a Logger that emits records for target.
func (s *Sink) Logger(target string) *Logger {
	if target == "" {
		target = DefaultTarget
	}
	return &Logger{sink: s, target: target}
}

// Install makes the sink the destination of the default slog logger, so
// slog.Info and friends reach both console and file.
func (s *Sink) Install() {
	slog.SetDefault(slog.New(NewHandler(s, DefaultTarget)))
}

// NopLogger returns a Logger that discards all output.
func NopLogger() *Logger {
	return &Logger{}
}

// Target returns the logger's target.
func (l *Logger) Target() string {
	return l.target
}

// Named returns a Logger for the child target "<target>.<name>".
func (l *Logger) Named(name string) *Logger {
	if l.sink == nil || name == "" {
		return l
	}
	return &Logger{sink: l.sink, target: l.target + "." + name}
}

// Enabled reports whether records at level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	return l.sink != nil && l.sink.Enabled(level, l.target)
}

// Errorf logs at ERROR.
func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, format, args...)
}

// Warnf logs at WARN.
func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, format, args...)
}

// Infof logs at INFO.
func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, format, args...)
}

// Debugf logs at DEBUG.
func (l *Logger) Debugf(format string, args ...any) {
	l.logf(LevelDebug, format, args...)
}

// Tracef logs at TRACE.
func (l *Logger) Tracef(format string, args ...any) {
	l.logf(LevelTrace, format, args...)
}

// logf formats only when the record will be emitted.
func (l *Logger) logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	l.sink.Emit(level, l.target, fmt.Sprintf(format, args...))
}

// Package logging provides the process-wide log sink for the ferroxide
// backend.
//
// A [Sink] renders every record twice: a styled, column-aligned line on the
// console and a plain timestamped line appended to logs.txt in the base
// directory. The file is bounded: once it holds [Threshold] lines it is
// rewritten in place to keep only the most recent [Capacity] lines.
//
// # Line Formats
//
// Console lines start with a single space:
//
//	INFO  http    > GET /health 200
//
// File:
//
//	[INFO  2024-07-01 12:00:00] http    > GET /health 200
//
// Every process start writes a session header to the file:
//
//	=============================[ 2024-07-01 12:00:00 ]=============================
//
// The target column is padded to the widest target seen so far, so lines
// written after a wider target appears are aligned to the new width. Lines
// already written are not realigned.
//
// # Thread Safety
//
// [Sink.Emit] may be called from any number of goroutines. Console lines are
// written under their own lock. File appends, the line count check and
// truncation run under a single file lock, so appends never interleave and
// a truncation is never observed mid-write by another writer. The
// truncation is not atomic with respect to external readers such as
// tail -f or [Follow].
//
// # Failures
//
// [Open] fails with [ErrSinkUnavailable] when the session header cannot be
// appended; callers should treat that as fatal. After that, append and
// truncation failures are reported on the console at ERROR with target
// "logging" and never returned to the caller. Console output keeps working
// when the file does not.
//
// # Filtering
//
// The filter string (LOG_FILTER) is parsed once by [ParseFilter]:
//
//	info                  INFO and above for every target
//	warn,http=debug       WARN by default, DEBUG for targets starting with "http"
//	server.*=trace        glob target pattern
//	info/timeout          only messages matching the regular expression "timeout"
//
// A filter without directives, such as "/timeout", enables ERROR for every
// target. An invalid filter falls back to "info" and the sink logs a warning.
//
// # Basic Usage
//
//	sink, err := logging.Open(logging.Options{
//	    Path:   filepath.Join(base, logging.FileName),
//	    Filter: os.Getenv("LOG_FILTER"),
//	})
//	if err != nil {
//	    return err
//	}
//	sink.Install() // route log/slog into the sink
//
//	log := sink.Logger("http")
//	log.Infof("Starting server on %s", addr)
//
// # Reading Logs Back
//
// [ReadEntries], [FilterEntries] and [ExportEntries] parse logs.txt for the
// CLI viewer; [Follow] tails it.
package logging

package logging

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// FileName is the log file's name inside the base directory.
const FileName = "logs.txt"

// FileStore appends lines to the log file and truncates it in place. It
// holds no lock of its own; the Sink serializes every call.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore returns a store for path on fs. A nil fs means the OS
// filesystem.
func NewFileStore(fs afero.Fs, path string) *FileStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileStore{fs: fs, path: path}
}

// Path returns the log file path.
func (s *FileStore) Path() string {
	return s.path
}

// Append writes line and a trailing newline to the end of the file,
// creating it if needed. The file is opened per call so an externally
// removed or replaced file is picked up on the next write.
func (s *FileStore) Append(line string) error {
	file, err := s.fs.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if _, err := file.Write([]byte(line + "\n")); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write to log file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// CountLines returns the number of lines in the file. A missing file has
// zero lines.
func (s *FileStore) CountLines() (int, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read log file: %w", err)
	}
	return countLines(data), nil
}

// Rotate rewrites the file keeping only its most recent lines. observed is
// the line count before the latest append, so observed+1 lines are on disk
// and the first observed-capacity+1 of them are dropped. Each kept line is
// written back newline-terminated.
//
// The rewrite is not atomic: a concurrent reader may see a truncated file
// and a crash mid-write can leave it partial.
func (s *FileStore) Rotate(observed, capacity int) error {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	kept := skipLines(splitLines(data), observed-capacity+1)

	var buf bytes.Buffer
	buf.Grow(len(data))
	for _, line := range kept {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	if err := afero.WriteFile(s.fs, s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write to log file: %w", err)
	}
	return nil
}

// countLines counts lines the way splitLines does without allocating them.
func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// splitLines splits on '\n', drops a trailing '\r' from each line and does
// not produce an empty final line for a terminated file.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	text := strings.TrimSuffix(string(data), "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func skipLines(lines []string, n int) []string {
	if n <= 0 {
		return lines
	}
	if n >= len(lines) {
		return nil
	}
	return lines[n:]
}

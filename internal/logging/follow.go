package logging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Follow calls fn for every complete line appended to path after Follow
// starts, until ctx is cancelled. When the file shrinks (the sink truncated
// it) reading resumes from the new end, so retained lines are not repeated.
// The truncation rewrite is not atomic, so a poll that lands between the
// truncate and the rewrite can still repeat some retained lines. A file that
// does not exist yet is picked up once created.
func Follow(ctx context.Context, path string, fn func(line string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory so removal and re-creation are seen too.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	t := &tailer{path: path, fn: fn}
	if info, err := os.Stat(path); err == nil {
		t.offset = info.Size()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				t.reset()
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				if err := t.poll(); err != nil {
					return err
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher error: %w", err)
		}
	}
}

// tailer reads the bytes appended since the last poll.
type tailer struct {
	path    string
	fn      func(string)
	offset  int64
	partial []byte // Unterminated tail of the last read
}

func (t *tailer) reset() {
	t.offset = 0
	t.partial = nil
}

func (t *tailer) poll() error {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			t.reset()
			return nil
		}
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	size := info.Size()
	if size < t.offset {
		// Truncated: everything still in the file has been seen.
		t.offset = size
		t.partial = nil
		return nil
	}
	if size == t.offset {
		return nil
	}

	if _, err := file.Seek(t.offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek log file: %w", err)
	}
	chunk := make([]byte, size-t.offset)
	n, err := io.ReadFull(file, chunk)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("failed to read log file: %w", err)
	}
	t.offset += int64(n)

	data := append(t.partial, chunk[:n]...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		t.fn(string(bytes.TrimSuffix(data[:i], []byte{'\r'})))
		data = data[i+1:]
	}
	t.partial = append([]byte(nil), data...)
	return nil
}

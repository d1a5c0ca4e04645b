// Package testutil provides testing utilities for ferroxide tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// Instant is a fixed UTC time used by tests that need deterministic
// timestamps.
var Instant = time.Date(2024, time.July, 1, 10, 30, 0, 0, time.UTC)

// WriteLines writes n numbered lines ("<prefix>-00001" ...) to path on fs,
// each newline-terminated, and returns them.
func WriteLines(t *testing.T, fs afero.Fs, path, prefix string, n int) []string {
	t.Helper()

	lines := make([]string, n)
	var sb strings.Builder
	for i := range n {
		lines[i] = fmt.Sprintf("%s-%05d", prefix, i+1)
		sb.WriteString(lines[i])
		sb.WriteByte('\n')
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := afero.WriteFile(fs, path, []byte(sb.String()), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return lines
}

// ReadLines returns the lines of path on fs without their terminators. A
// terminated file does not yield a trailing empty line.
func ReadLines(t *testing.T, fs afero.Fs, path string) []string {
	t.Helper()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// FailingFs wraps an afero.Fs and rejects every write-mode open while
// failing is set. Reads keep working.
type FailingFs struct {
	afero.Fs

	mu      sync.Mutex
	failing bool
}

// NewFailingFs wraps base.
func NewFailingFs(base afero.Fs) *FailingFs {
	return &FailingFs{Fs: base}
}

// SetFailing toggles write failures.
func (f *FailingFs) SetFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

func (f *FailingFs) isFailing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failing
}

// OpenFile fails with os.ErrPermission for write modes while failing.
func (f *FailingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if f.isFailing() && flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

// Create fails with os.ErrPermission while failing.
func (f *FailingFs) Create(name string) (afero.File, error) {
	if f.isFailing() {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Create(name)
}

// SyncBuffer is a goroutine-safe bytes buffer for capturing console output.
type SyncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

// Write appends p.
func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything written so far.
func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Lines returns the written lines without the final empty element.
func (b *SyncBuffer) Lines() []string {
	text := strings.TrimSuffix(b.String(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Package paths resolves the application's base storage directory.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// AppName is the directory name used under the user's home.
const AppName = "ferroxide"

// Resolver resolves and lazily creates the base directory. It is safe for
// concurrent use; the directory is created at most once.
type Resolver struct {
	fs       afero.Fs
	override string

	once sync.Once
	base string
	err  error
}

// NewResolver returns a Resolver. A non-empty override replaces the
// OS-specific default location.
func NewResolver(fs afero.Fs, override string) *Resolver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Resolver{fs: fs, override: strings.TrimSpace(override)}
}

// Base returns the base directory, creating it on first use.
func (r *Resolver) Base() (string, error) {
	r.once.Do(func() {
		path := r.override
		if path == "" {
			path, r.err = DefaultBase()
			if r.err != nil {
				return
			}
		} else {
			path = expandHome(path)
		}
		if err := r.fs.MkdirAll(path, 0755); err != nil {
			r.err = fmt.Errorf("failed to create base path: %w", err)
			return
		}
		r.base = path
	})
	return r.base, r.err
}

// Join returns path under the base directory. Leading slashes in path are
// ignored so "/logs.txt" and "logs.txt" resolve identically.
func (r *Resolver) Join(path string) (string, error) {
	base, err := r.Base()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, strings.TrimLeft(path, "/")), nil
}

// DefaultBase returns %USERPROFILE%\ferroxide on Windows and
// $HOME/.ferroxide elsewhere.
func DefaultBase() (string, error) {
	if runtime.GOOS == "windows" {
		profile := os.Getenv("USERPROFILE")
		if profile == "" {
			return "", fmt.Errorf("USERPROFILE is not set")
		}
		return filepath.Join(profile, AppName), nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
	}
	return filepath.Join(home, "."+AppName), nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// Package workspace provides the working directory a build runs in.
package workspace

import (
	"log/slog"
	"os"
	"path/filepath"

	derrors "github.com/docpress/docpress/internal/errors"
	"github.com/docpress/docpress/internal/logfields"
)

// Dir is one build's working directory. One-shot builds use a throwaway
// directory under the system temp dir; daemon mode uses a fixed path so the
// source checkout survives between builds.
type Dir struct {
	path string
	keep bool
}

// Ephemeral creates a throwaway working directory. Remove deletes it.
func Ephemeral() (*Dir, error) {
	path, err := os.MkdirTemp("", "docpress-")
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create working directory")
	}
	slog.Debug("Created working directory", logfields.Path(path))
	return &Dir{path: path}, nil
}

// Persistent returns the fixed working directory under baseDir, creating it
// if needed. Remove leaves it in place for the next build.
func Persistent(baseDir string) (*Dir, error) {
	path := filepath.Join(baseDir, "working")
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create working directory")
	}
	slog.Info("Using persistent working directory", logfields.Path(path))
	return &Dir{path: path, keep: true}, nil
}

// Path returns the working directory path.
func (d *Dir) Path() string {
	return d.path
}

// Remove deletes an ephemeral directory and keeps a persistent one.
func (d *Dir) Remove() error {
	if d.keep {
		return nil
	}
	if err := os.RemoveAll(d.path); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to remove working directory")
	}
	slog.Debug("Removed working directory", logfields.Path(d.path))
	return nil
}

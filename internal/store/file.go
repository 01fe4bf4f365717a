package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SessionsDir is created next to the documents for session artifacts.
const SessionsDir = "sessions"

// FileBackend keeps one file per document inside a directory. Writes replace
// the file in place.
type FileBackend struct {
	dir string
}

// NewFileBackend prepares dir (and its sessions sub-directory) and returns a
// backend rooted there.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(filepath.Join(dir, SessionsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	return &FileBackend{dir: dir}, nil
}

// Dir returns the directory documents are stored in.
func (b *FileBackend) Dir() string {
	return b.dir
}

// Read returns the file contents, or ErrNotFound when the file is absent.
func (b *FileBackend) Read(_ context.Context, name string) ([]byte, error) {
	path, err := b.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return data, nil
}

// Write overwrites the file with data.
func (b *FileBackend) Write(_ context.Context, name string, data []byte) error {
	path, err := b.path(name)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

// Ping checks that the data directory is still reachable.
func (b *FileBackend) Ping(_ context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", b.dir)
	}

	return nil
}

func (b *FileBackend) path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("invalid document name %q", name)
	}

	return filepath.Join(b.dir, name), nil
}

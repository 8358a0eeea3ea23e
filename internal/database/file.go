package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend keeps each collection in <dir>/<collection>.json.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(c Collection) string {
	return filepath.Join(b.dir, string(c)+".json")
}

func (b *FileBackend) Read(_ context.Context, c Collection) ([]byte, error) {
	data, err := os.ReadFile(b.path(c))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write goes through a temporary file and a rename so a failed write never
// leaves a truncated document behind.
func (b *FileBackend) Write(_ context.Context, c Collection, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, "."+string(c)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path(c)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", b.path(c), err)
	}
	return nil
}

func (b *FileBackend) Close() error {
	return nil
}

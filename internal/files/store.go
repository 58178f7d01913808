package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store keeps file bytes keyed by public id.
type Store interface {
	Save(ctx context.Context, id string, r io.Reader) (int64, error)
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

// DiskStore writes files below a local directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the directory when missing.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "tms-files")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create file storage dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save streams r into a temporary file and renames it into place.
func (s *DiskStore) Save(_ context.Context, id string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return n, err
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		_ = os.Remove(tmp.Name())
		return n, err
	}
	return n, nil
}

// Open returns the stored bytes. Missing files return ErrNotFound.
func (s *DiskStore) Open(_ context.Context, id string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes the stored bytes. Missing files are ignored.
func (s *DiskStore) Delete(_ context.Context, id string) error {
	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// path expects an id already validated as a UUID.
func (s *DiskStore) path(id string) string {
	return filepath.Join(s.dir, id)
}

package brokerage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoSnapshot is returned by Store.Load when nothing was saved yet.
var ErrNoSnapshot = fmt.Errorf("no snapshot: %w", fs.ErrNotExist)

// Store is the durable home of a serialized Snapshot. Save replaces the
// whole value atomically.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// MemoryStore keeps the snapshot in memory. Its zero value is empty.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func (s *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, ErrNoSnapshot
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemoryStore) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

// FileStore keeps the snapshot in a single file.
type FileStore struct {
	Path string
}

// NewFileStore returns a store for path; the file is created on first save.
func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read snapshot %q: %w", s.Path, err)
	}
	return data, nil
}

// Save writes to a temporary file in the same directory then renames it
// over Path, so a reader never sees a partial snapshot.
func (s *FileStore) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %q: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("cannot create temporary snapshot: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op after a successful rename

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("cannot write snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("cannot sync snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close snapshot: %w", err)
	}
	if err := os.Chmod(tmp, 0o600); err != nil {
		return fmt.Errorf("cannot restrict snapshot permissions: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("cannot replace snapshot %q: %w", s.Path, err)
	}
	return nil
}

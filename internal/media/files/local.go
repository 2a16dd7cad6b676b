package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalStorage keeps uploads on the local filesystem.
// Thread-safe for concurrent operations.
type LocalStorage struct {
	root string
	mu   sync.RWMutex // Protects file operations
}

// NewLocalStorage creates a LocalStorage rooted at root (e.g. ~/Bookstore/data/public).
// The directory is created if it does not exist.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("root path cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

// Put writes data to {root}/{dir}/{uuid}.{ext}.
func (s *LocalStorage) Put(_ context.Context, dir string, data []byte, _ string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("file data cannot be empty")
	}

	name, err := newObjectName(dir, data)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	full := s.fullPath(name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", dir, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return name, nil
}

// Open reads the file at the relative path.
func (s *LocalStorage) Open(_ context.Context, p string) ([]byte, string, error) {
	name, err := cleanPath(p)
	if err != nil {
		return nil, "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.fullPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	return data, Detect(data).MIME, nil
}

// Delete removes the file at the relative path.
func (s *LocalStorage) Delete(_ context.Context, p string) error {
	name, err := cleanPath(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.fullPath(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Already deleted, not an error.
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Root returns the directory uploads are written under.
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) fullPath(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

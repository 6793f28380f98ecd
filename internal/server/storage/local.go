package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes uploads into a directory on the server's filesystem.
type LocalStore struct {
	dir string
}

// NewLocalStore returns a FileStore rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(_ context.Context, filename string, data []byte) (string, error) {
	key := uniqueKey(filename)
	path := filepath.Join(s.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return key, nil
}

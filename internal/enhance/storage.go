package enhance

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage is where enhanced-variant snapshots go.
type Storage interface {
	// Save writes a file and returns its name within the store.
	Save(filename string, data []byte) (string, error)

	// Get reads a file back.
	Get(filename string) ([]byte, error)
}

// LocalStorage implements Storage on a local directory.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the snapshot directory if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Save writes a snapshot file.
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	if err := os.WriteFile(filepath.Join(l.basePath, filename), data, 0644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return filename, nil
}

// Get reads a snapshot file.
func (l *LocalStorage) Get(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, filename))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return data, nil
}

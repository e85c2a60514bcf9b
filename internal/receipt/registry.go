package receipt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Registry is the persisted collection of known address -> station
// mappings. It is append-only: entries are never removed or rewritten,
// the collection only grows as corrections are learned.
type Registry interface {
	// LoadAll returns every known entry.
	LoadAll() ([]AddressEntry, error)

	// Append adds one entry and persists the whole collection.
	Append(entry AddressEntry) error
}

// registryFile is the on-disk shape: a single versioned collection,
// loaded in full and rewritten in full on each append.
type registryFile struct {
	Version int            `json:"version"`
	Entries []AddressEntry `json:"entries"`
}

const registryVersion = 1

// FileRegistry implements Registry backed by a single JSON file.
// Appends are serialized with a mutex so multiple workers in one
// process cannot interleave the read-then-rewrite cycle.
type FileRegistry struct {
	mu   sync.Mutex
	path string
}

// NewFileRegistry creates a FileRegistry at path. A missing file is a
// valid empty registry; it is created on first append.
func NewFileRegistry(path string) (*FileRegistry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating registry directory: %w", err)
	}
	return &FileRegistry{path: path}, nil
}

// LoadAll returns every known entry.
func (r *FileRegistry) LoadAll() ([]AddressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Append adds one entry and rewrites the collection.
func (r *FileRegistry) Append(entry AddressEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(registryFile{Version: registryVersion, Entries: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	return nil
}

func (r *FileRegistry) load() ([]AddressEntry, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	var f registryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshaling registry: %w", err)
	}
	return f.Entries, nil
}

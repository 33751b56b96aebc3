package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Persister is the durable side of the session store.
// Load returns (nil, nil) when nothing has been persisted yet.
type Persister interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileStore persists the session snapshot as a single JSON file.
type FileStore struct {
	Path string
}

// NewFileStore creates a file-backed persister.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the snapshot file.
func (f *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	return data, nil
}

// Save writes the snapshot atomically (temp file + rename), readable only by
// the current user since it holds a bearer token.
func (f *FileStore) Save(data []byte) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".auth-storage-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// MemoryStore keeps the snapshot in memory. Used by tests and by callers that
// do not want a session to outlive the process.
type MemoryStore struct {
	Data  []byte
	Err   error
	Saves int
}

// Load returns the stored bytes.
func (m *MemoryStore) Load() ([]byte, error) {
	return m.Data, m.Err
}

// Save records the bytes.
func (m *MemoryStore) Save(data []byte) error {
	if m.Err != nil {
		return m.Err
	}
	m.Data = append([]byte(nil), data...)
	m.Saves++
	return nil
}

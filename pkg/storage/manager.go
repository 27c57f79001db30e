package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager mirrors namespace keys onto a local file tree. A key's path
// separators become directory nesting under the destination root, and the
// existence of a destination file is the idempotence marker: present means
// "already backed up", and it is never re-fetched or verified by content.
type Manager struct {
	root  string
	saved int
	mu    sync.Mutex
}

// NewManager creates a storage manager rooted at dest, creating the
// directory if needed.
func NewManager(dest string) (*Manager, error) {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	return &Manager{root: dest}, nil
}

// PathFor maps a key to its destination file path. Keys that would escape
// the destination root are rejected.
func (m *Manager) PathFor(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key")
	}

	path := filepath.Join(m.root, filepath.FromSlash(key))

	root := filepath.Clean(m.root)
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes destination root", key)
	}

	return path, nil
}

// IsBackedUp reports whether the destination file for a key already exists
func (m *Manager) IsBackedUp(key string) bool {
	path, err := m.PathFor(key)
	if err != nil {
		return false
	}

	_, err = os.Stat(path)
	return err == nil
}

// Save writes a fully buffered value to the key's destination file,
// creating parent directories as needed. The write goes through a temp
// file and rename so a crash cannot leave a truncated value behind.
func (m *Manager) Save(key string, data []byte) error {
	path, err := m.PathFor(key)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create parent directories: %w", err)
		}
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write value: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved++
	m.mu.Unlock()

	return nil
}

// Root returns the destination root directory
func (m *Manager) Root() string {
	return m.root
}

// SavedCount returns the number of values written by this manager
func (m *Manager) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}

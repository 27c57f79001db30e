package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kvbackup/pkg/logger"
)

// Store persists the last listing cursor to a plain text file so an
// interrupted backup can resume where it left off. The file is owned by
// the key lister; the interrupt path performs one final Save on shutdown.
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a checkpoint store backed by the given file path
func NewStore(path string) *Store {
	return &Store{
		path:   path,
		logger: logger.GetLogger(),
	}
}

// Load returns the persisted cursor. A missing or empty file means "start
// of listing"; read errors degrade to a full restart rather than failing
// the caller.
func (s *Store) Load() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("no checkpoint file found, starting from the beginning")
		} else {
			s.logger.WithError(err).WithField("path", s.path).
				Warn("failed to read checkpoint, starting from the beginning")
		}
		return ""
	}

	cursor := strings.TrimSpace(string(data))
	if cursor != "" {
		s.logger.DebugWithFields("loaded checkpoint", map[string]interface{}{
			"path":   s.path,
			"cursor": cursor,
		})
	}
	return cursor
}

// Save overwrites the checkpoint atomically via a temp file and rename, so
// a crash mid-write cannot corrupt a previously valid checkpoint.
func (s *Store) Save(cursor string) error {
	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	if _, err := file.WriteString(cursor); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	s.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"path":   s.path,
		"cursor": cursor,
	})

	return nil
}

// Exists reports whether a checkpoint file is present
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Delete removes the checkpoint file; a missing file is not an error
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Path returns the checkpoint file path
func (s *Store) Path() string {
	return s.path
}

package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore persists uploaded document bytes. Save returns the stored
// name, which is what Delete expects back.
type FileStore interface {
	Save(filename string, data []byte) (string, error)
	Delete(storedName string) error
}

// LocalFileStore writes uploads to a directory on disk. Stored names
// are prefixed with a fresh uuid so two uploads of the same filename
// never collide.
type LocalFileStore struct {
	dir string
}

// NewLocalFileStore creates the upload directory if needed
func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &LocalFileStore{dir: dir}, nil
}

// Save writes data under a uuid-prefixed name and returns that name
func (s *LocalFileStore) Save(filename string, data []byte) (string, error) {
	storedName := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(filename))
	path := filepath.Join(s.dir, storedName)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", storedName, err)
	}
	return storedName, nil
}

// Delete removes a stored file. Deleting a name that is already gone
// is not an error.
func (s *LocalFileStore) Delete(storedName string) error {
	path := filepath.Join(s.dir, filepath.Base(storedName))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", storedName, err)
	}
	return nil
}

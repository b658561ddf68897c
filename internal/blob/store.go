// Package blob persists uploaded snapshot files on the local filesystem.
// Files are write-once: every upload gets a fresh name, nothing is ever
// overwritten in place.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"imvu-insight-api/pkg/uid"
)

// Store writes uploads under a single base directory.
type Store struct {
	dir string
}

// NewStore ensures the base directory exists.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes content under a generated name and returns the full path.
// The name embeds the data type, a UTC timestamp, and a short random
// fragment so concurrent uploads never collide.
func (s *Store) Save(dataType, originalName string, content []byte) (string, error) {
	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".xml"
	}
	name := fmt.Sprintf("%s.upload.%s.%s%s",
		dataType,
		time.Now().UTC().Format("20060102150405"),
		uid.Short(),
		strings.ToLower(ext))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload blob: %w", err)
	}
	return path, nil
}

// Remove deletes a previously saved blob. A missing file is not an error.
func (s *Store) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove upload blob: %w", err)
	}
	return nil
}

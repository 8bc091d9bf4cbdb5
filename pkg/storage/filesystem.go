package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrOutsideRoot is returned for paths that would leave the storage root.
var ErrOutsideRoot = errors.New("path escapes storage root")

// LocalStorage keeps rendered exports on disk. Paths handed in and out are
// slash separated and relative to the root.
type LocalStorage struct {
	root  string
	clock clockwork.Clock
}

// NewLocalStorage creates root when missing. A nil clock uses wall time.
func NewLocalStorage(root string, clock clockwork.Clock) (*LocalStorage, error) {
	if root == "" {
		root = "./exports"
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create export root: %w", err)
	}
	return &LocalStorage{root: root, clock: clock}, nil
}

// Save writes data to relPath, creating parent directories.
func (s *LocalStorage) Save(relPath string, data []byte) (string, error) {
	full, err := s.Path(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("prepare export directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o640); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return filepath.ToSlash(filepath.Clean(filepath.FromSlash(relPath))), nil
}

// Open returns a read handle on relPath.
func (s *LocalStorage) Open(relPath string) (*os.File, error) {
	full, err := s.Path(relPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	return file, nil
}

// Delete removes relPath and its directory when that becomes empty.
// Missing files are not an error.
func (s *LocalStorage) Delete(relPath string) error {
	full, err := s.Path(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete export: %w", err)
	}
	s.pruneUp(filepath.Dir(full))
	return nil
}

// CleanupOlderThan deletes files last modified more than ttl ago and returns
// their relative paths in lexical order. Emptied directories are removed.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := s.clock.Now().Add(-ttl)
	var deleted []string
	dirs := map[string]struct{}{}
	err := filepath.WalkDir(s.root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		rel, err := filepath.Rel(s.root, full)
		if err != nil {
			return err
		}
		deleted = append(deleted, filepath.ToSlash(rel))
		dirs[filepath.Dir(full)] = struct{}{}
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("cleanup exports: %w", err)
	}
	for dir := range dirs {
		s.pruneUp(dir)
	}
	sort.Strings(deleted)
	return deleted, nil
}

// Path maps relPath to a filesystem path under the root.
func (s *LocalStorage) Path(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return filepath.Join(s.root, clean), nil
}

// pruneUp removes empty directories from dir towards the root.
func (s *LocalStorage) pruneUp(dir string) {
	root := filepath.Clean(s.root)
	for dir = filepath.Clean(dir); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}

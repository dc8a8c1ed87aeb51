package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LocalStorage keeps rendered export files on disk under one base directory.
// Paths handed to its methods are relative to that directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes data under relPath, creating intermediate directories, and
// returns the relative path back for bookkeeping.
func (s *LocalStorage) Save(relPath string, data []byte) (string, error) {
	abs := filepath.Join(s.baseDir, relPath)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("prepare export directory: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return relPath, nil
}

// Open returns a read handle on a stored file.
func (s *LocalStorage) Open(relPath string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.baseDir, relPath))
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	return f, nil
}

// Delete removes a stored file; a missing file is not an error.
func (s *LocalStorage) Delete(relPath string) error {
	if err := os.Remove(filepath.Join(s.baseDir, relPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete export file: %w", err)
	}
	return nil
}

// Path resolves a relative path to its absolute location on disk.
func (s *LocalStorage) Path(relPath string) string {
	return filepath.Join(s.baseDir, relPath)
}

// CleanupOlderThan deletes files whose modification time predates the TTL
// and reports how many were removed.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	removed := 0
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("cleanup exports: %w", err)
	}
	return removed, nil
}

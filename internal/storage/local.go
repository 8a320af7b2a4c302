package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore keeps media files on the local filesystem under mediaDir.
type LocalStore struct {
	mediaDir string
}

// NewLocalStore creates a local filesystem media store.
func NewLocalStore(mediaDir string) *LocalStore {
	return &LocalStore{mediaDir: mediaDir}
}

// Save writes data under key atomically (temp file + rename).
func (s *LocalStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	path := filepath.Join(s.mediaDir, key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".media-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// LocalPath returns the on-disk path for key if present, else "".
func (s *LocalStore) LocalPath(key string) string {
	full := filepath.Join(s.mediaDir, key)
	if _, err := os.Stat(full); err == nil {
		return full
	}
	return ""
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.mediaDir, key))
}

func (s *LocalStore) Exists(ctx context.Context, key string) bool {
	_, err := os.Stat(filepath.Join(s.mediaDir, key))
	return err == nil
}

// Delete removes the media file for key. Missing files are not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.mediaDir, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *LocalStore) Type() string { return "local" }

// Dir returns the media directory path.
func (s *LocalStore) Dir() string { return s.mediaDir }

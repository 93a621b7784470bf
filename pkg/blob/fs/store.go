// Package fs provides a filesystem-backed blob store for deployments that keep
// uploads in a local directory instead of a bucket.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/blob"
)

// Store is a filesystem-backed implementation of blob.Store.
// Object keys map to paths relative to the base directory.
type Store struct {
	mu       sync.RWMutex
	basePath string
	closed   bool
}

// Config holds configuration for the filesystem blob store.
type Config struct {
	// BasePath is the directory acting as the bucket root.
	BasePath string `mapstructure:"base_path" yaml:"base_path"`

	// CreateDir creates the base directory if it doesn't exist.
	CreateDir bool `mapstructure:"create_dir" yaml:"create_dir"`
}

// New creates a new filesystem blob store.
func New(cfg Config) (*Store, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("base path is required")
	}

	base, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base path: %w", err)
	}

	if cfg.CreateDir {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(base)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base path %s is not a directory", base)
	}

	return &Store{basePath: base}, nil
}

// objectPath maps a key to a path under basePath, rejecting keys that escape it.
func (s *Store) objectPath(key string) (string, error) {
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("%w: %q", blob.ErrInvalidKey, key)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

// ListObjects walks the directory holding prefix and returns matching keys sorted.
func (s *Store) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, blob.ErrStoreClosed
	}

	// "posts/12-" walks posts/ and filters; "posts/" walks posts/.
	root := s.basePath
	if dir := path.Dir(prefix + "x"); dir != "." {
		p, err := s.objectPath(dir)
		if err != nil {
			return nil, err
		}
		root = p
	}

	keys := []string{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == root {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fs list %s: %w", prefix, err)
	}

	sort.Strings(keys)
	return keys, nil
}

// ObjectExists reports whether a regular file exists for key.
func (s *Store) ObjectExists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, blob.ErrStoreClosed
	}

	p, err := s.objectPath(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DeleteObject removes the file for key and prunes empty parent directories.
func (s *Store) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return blob.ErrStoreClosed
	}

	p, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	s.cleanEmptyDirs(filepath.Dir(p))
	return nil
}

// cleanEmptyDirs removes empty directories up to the base path.
func (s *Store) cleanEmptyDirs(dir string) {
	for dir != s.basePath && strings.HasPrefix(dir, s.basePath) {
		if err := os.Remove(dir); err != nil {
			break
		}
		dir = filepath.Dir(dir)
	}
}

// HealthCheck verifies the base directory is still accessible.
func (s *Store) HealthCheck(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return blob.ErrStoreClosed
	}
	_, err := os.Stat(s.basePath)
	return err
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// BasePath returns the absolute base directory.
func (s *Store) BasePath() string {
	return s.basePath
}

var _ blob.Store = (*Store)(nil)

// Package memory provides an in-memory blob store for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/blob"
)

// Store is an in-memory implementation of blob.Store.
//
// Besides the contract it records how many mutating calls were made and can
// be told to fail deletes of specific keys.
type Store struct {
	mu          sync.RWMutex
	objects     map[string][]byte
	failDelete  map[string]error
	failList    error
	deleteCalls int
	existsCalls int
	closed      bool
}

// New creates a new in-memory blob store seeded with keys.
func New(keys ...string) *Store {
	s := &Store{
		objects:    make(map[string][]byte),
		failDelete: make(map[string]error),
	}
	for _, k := range keys {
		s.objects[k] = nil
	}
	return s
}

// Put stores an object.
func (s *Store) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	s.objects[key] = copied
}

// FailDelete makes DeleteObject(key) return err.
func (s *Store) FailDelete(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete[key] = err
}

// FailList makes ListObjects return err. Pass nil to clear.
func (s *Store) FailList(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failList = err
}

// DeleteCalls returns the number of DeleteObject calls made.
func (s *Store) DeleteCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleteCalls
}

// ExistsCalls returns the number of ObjectExists calls made.
func (s *Store) ExistsCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.existsCalls
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedKeys("")
}

func (s *Store) sortedKeys(prefix string) []string {
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ListObjects returns keys under prefix in lexicographic order, like S3 and GCS.
func (s *Store) ListObjects(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, blob.ErrStoreClosed
	}
	if s.failList != nil {
		return nil, s.failList
	}
	return s.sortedKeys(prefix), nil
}

// ObjectExists reports whether key is present.
func (s *Store) ObjectExists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, blob.ErrStoreClosed
	}
	s.existsCalls++
	_, ok := s.objects[key]
	return ok, nil
}

// DeleteObject removes key.
func (s *Store) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return blob.ErrStoreClosed
	}
	if key == "" {
		return blob.ErrInvalidKey
	}
	s.deleteCalls++
	if err, ok := s.failDelete[key]; ok {
		return fmt.Errorf("memory delete %s: %w", key, err)
	}
	delete(s.objects, key)
	return nil
}

// HealthCheck fails only once the store is closed.
func (s *Store) HealthCheck(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return blob.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ blob.Store = (*Store)(nil)

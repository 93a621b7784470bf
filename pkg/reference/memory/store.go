// Package memory provides an in-memory reference store for tests and demos.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/reference"
)

var errClosed = errors.New("reference store is closed")

// Store keeps references in insertion order and counts update calls.
type Store struct {
	mu          sync.RWMutex
	order       []string
	locators    map[string]*string
	failUpdate  map[string]error
	failList    error
	updateCalls int
	closed      bool
}

// New creates a store seeded with refs.
func New(refs ...reference.ImageReference) *Store {
	s := &Store{
		locators:   make(map[string]*string),
		failUpdate: make(map[string]error),
	}
	for _, r := range refs {
		s.Set(r.EntityID, r.Locator)
	}
	return s
}

// Set inserts or replaces an entity's locator.
func (s *Store) Set(entityID string, locator *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locators[entityID]; !ok {
		s.order = append(s.order, entityID)
	}
	s.locators[entityID] = clonePtr(locator)
}

// Get returns an entity's locator and whether the entity exists.
func (s *Store) Get(entityID string) (*string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locators[entityID]
	return clonePtr(loc), ok
}

// FailUpdate makes UpdateImageReference(entityID) return err.
func (s *Store) FailUpdate(entityID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdate[entityID] = err
}

// FailList makes ListImageReferences return err. Pass nil to clear.
func (s *Store) FailList(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failList = err
}

// UpdateCalls returns the number of UpdateImageReference calls made.
func (s *Store) UpdateCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updateCalls
}

// Snapshot returns a copy of every reference in insertion order.
func (s *Store) Snapshot() []reference.ImageReference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) snapshot() []reference.ImageReference {
	refs := make([]reference.ImageReference, 0, len(s.order))
	for _, id := range s.order {
		refs = append(refs, reference.ImageReference{EntityID: id, Locator: clonePtr(s.locators[id])})
	}
	return refs
}

// ListImageReferences returns every reference in insertion order.
func (s *Store) ListImageReferences(_ context.Context) ([]reference.ImageReference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed
	}
	if s.failList != nil {
		return nil, s.failList
	}
	return s.snapshot(), nil
}

// UpdateImageReference sets or clears an entity's locator.
func (s *Store) UpdateImageReference(_ context.Context, entityID string, locator *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}
	s.updateCalls++
	if err, ok := s.failUpdate[entityID]; ok {
		return fmt.Errorf("memory update %s: %w", entityID, err)
	}
	if _, ok := s.locators[entityID]; !ok {
		return reference.ErrReferenceNotFound
	}
	s.locators[entityID] = clonePtr(locator)
	return nil
}

// Healthcheck fails only once the store is closed.
func (s *Store) Healthcheck(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
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

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var _ reference.Store = (*Store)(nil)

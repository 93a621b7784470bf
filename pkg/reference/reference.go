// Package reference defines the relational side of image consistency: the
// (entity, locator) pairs stored per post and the narrow contract used to
// read and rewrite them.
package reference

import (
	"context"
	"errors"
)

// ErrReferenceNotFound is returned when an update targets an unknown entity.
var ErrReferenceNotFound = errors.New("image reference not found")

// ImageReference is one entity's image locator. A nil Locator means the
// entity has no image.
type ImageReference struct {
	EntityID string  `json:"entity_id" yaml:"entity_id"`
	Locator  *string `json:"locator" yaml:"locator"`
}

// HasLocator reports whether the reference carries a non-nil locator.
func (r ImageReference) HasLocator() bool {
	return r.Locator != nil
}

// LocatorValue returns the locator or "" when nil.
func (r ImageReference) LocatorValue() string {
	if r.Locator == nil {
		return ""
	}
	return *r.Locator
}

// Locator returns a pointer to s, for building references and updates.
func Locator(s string) *string {
	return &s
}

// Lister reads every image reference.
type Lister interface {
	ListImageReferences(ctx context.Context) ([]ImageReference, error)
}

// Updater rewrites a single entity's locator. A nil locator clears it.
type Updater interface {
	UpdateImageReference(ctx context.Context, entityID string, locator *string) error
}

// Store is the full reference-store contract.
type Store interface {
	Lister
	Updater

	// Healthcheck verifies the database is reachable.
	Healthcheck(ctx context.Context) error

	// Close releases the connection pool.
	Close() error
}

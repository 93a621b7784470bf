// Package blob defines the object-storage contract consumed by the
// image-consistency engine and the errors shared by its implementations.
//
// Keys are always relative to the bucket root (e.g. "posts/12-beach.jpg").
// Implementations must be safe for concurrent use.
package blob

import (
	"context"
	"errors"
)

// Store type identifiers, as used in configuration.
const (
	TypeMemory = "memory"
	TypeFS     = "fs"
	TypeS3     = "s3"
	TypeGCS    = "gcs"
)

var (
	// ErrStoreClosed is returned when an operation is attempted on a closed store.
	ErrStoreClosed = errors.New("blob store is closed")

	// ErrObjectNotFound is returned when an object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidKey is returned for empty keys or keys escaping the store root.
	ErrInvalidKey = errors.New("invalid object key")
)

// Lister enumerates object keys.
type Lister interface {
	// ListObjects returns every key under prefix, in the backend's listing
	// order. An empty prefix lists the whole bucket.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// Checker tests for object presence.
type Checker interface {
	// ObjectExists reports whether key exists. A missing object is not an error.
	ObjectExists(ctx context.Context, key string) (bool, error)
}

// Deleter removes objects.
type Deleter interface {
	// DeleteObject removes key. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, key string) error
}

// Store is the full object-storage contract.
type Store interface {
	Lister
	Checker
	Deleter

	// HealthCheck verifies the bucket is reachable and accessible.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources. Subsequent calls fail with ErrStoreClosed.
	Close() error
}

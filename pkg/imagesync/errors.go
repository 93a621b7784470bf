package imagesync

import (
	"errors"
	"fmt"
)

var (
	// ErrCollaboratorUnavailable marks a failed bulk listing. The run is
	// aborted and no report is produced.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrExtraction marks a locator whose shape is not recognized. It is
	// never returned; it is recorded as the cause of a BrokenReference.
	ErrExtraction = errors.New("locator not extractable")

	// ErrObjectMissing marks a locator whose key is absent from the bucket.
	ErrObjectMissing = errors.New("object missing from storage")

	// ErrCancelled is recorded when the context is cancelled mid-run.
	ErrCancelled = errors.New("cancelled")
)

// Listing sources named by CollaboratorError.
const (
	SourceReferences = "references"
	SourceStorage    = "storage"
)

// CollaboratorError reports which bulk listing failed.
type CollaboratorError struct {
	Source string
	Err    error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("list %s: %v", e.Source, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is.
func (e *CollaboratorError) Unwrap() []error {
	return []error{ErrCollaboratorUnavailable, e.Err}
}

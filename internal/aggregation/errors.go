package aggregation

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned when Run is called while a previous run of the
// same job is still in flight.
var ErrAlreadyRunning = errors.New("aggregation already running")

// FetchError represents a failure reading one of the source collections.
// No summary is written when a fetch fails.
type FetchError struct {
	Collection string
	Cause      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Collection, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// WriteError represents a failure writing the summary document.
// The previously stored summary is left in place.
type WriteError struct {
	DocumentID string
	Cause      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write summary %s: %v", e.DocumentID, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// ValidationError wraps a computed summary that does not match the output schema.
type ValidationError struct {
	Cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("computed summary is invalid: %v", e.Cause)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

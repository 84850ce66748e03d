package connection

import (
	"errors"
	"fmt"

	"github.com/gqlkit/relay/cursor"
)

// Sentinel errors - use with errors.Is() for matching
var (
	// ErrInvalidArgument is returned when the pagination request shape is
	// invalid (e.g. a negative first/last). Detected before any I/O.
	ErrInvalidArgument = errors.New("invalid pagination argument")

	// ErrMalformedCursor is returned when a cursor string cannot be
	// decoded. Detected before any I/O.
	ErrMalformedCursor = cursor.ErrMalformed

	// ErrUnsupportedDirection is returned when backward pagination is
	// requested against a source that cannot seek backward.
	ErrUnsupportedDirection = errors.New("source does not support backward pagination")

	// ErrCancelled is returned when the context is cancelled or its
	// deadline expires before a complete Connection could be built.
	ErrCancelled = errors.New("pagination cancelled")
)

// SourceError wraps a data-source failure. Source errors propagate
// unchanged from the collaborator and are never retried by the engine.
type SourceError struct {
	Op  string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new SourceError
func NewSourceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &SourceError{Op: op, Err: err}
}

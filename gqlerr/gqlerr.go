// Package gqlerr maps this module's error taxonomy to stable error code
// strings and, optionally, to graph-gophers query errors carrying the
// code in the response extensions. It is an adapter: when unused, the
// native error values surface directly.
package gqlerr

import (
	"context"
	"errors"

	qerrors "github.com/graph-gophers/graphql-go/errors"

	"github.com/gqlkit/relay/connection"
	"github.com/gqlkit/relay/cursor"
	"github.com/gqlkit/relay/federation"
	"github.com/gqlkit/relay/guard"
)

// Stable error codes, one per error kind. These are part of the wire
// contract with clients and must not change.
const (
	CodeInvalidArgument      = "INVALID_ARGUMENT"
	CodeMalformedCursor      = "MALFORMED_CURSOR"
	CodeUnsupportedDirection = "UNSUPPORTED_DIRECTION"
	CodeSourceError          = "SOURCE_ERROR"
	CodeCancelled            = "CANCELLED"
	CodeForbidden            = "FORBIDDEN"
	CodeUnknownType          = "UNKNOWN_ENTITY_TYPE"
	CodeInternal             = "INTERNAL"
)

// Code returns the stable code for an error, or "" for nil.
// Unrecognized errors map to CodeInternal.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, connection.ErrCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	case errors.Is(err, cursor.ErrMalformed):
		return CodeMalformedCursor
	case errors.Is(err, connection.ErrInvalidArgument),
		errors.Is(err, federation.ErrInvalidReference):
		return CodeInvalidArgument
	case errors.Is(err, connection.ErrUnsupportedDirection):
		return CodeUnsupportedDirection
	case errors.Is(err, federation.ErrUnknownType):
		return CodeUnknownType
	}
	var srcErr *connection.SourceError
	if errors.As(err, &srcErr) {
		return CodeSourceError
	}
	return CodeInternal
}

// ToQueryError adapts an error into a graph-gophers query error with the
// stable code in its extensions. Returns nil for nil.
func ToQueryError(err error) *qerrors.QueryError {
	if err == nil {
		return nil
	}
	return &qerrors.QueryError{
		Err:     err,
		Message: err.Error(),
		Extensions: map[string]any{
			"code": Code(err),
		},
	}
}

// FromDecision adapts a guard denial into a FORBIDDEN query error whose
// message is exactly the guard's reason — nothing beyond what the guard
// explicitly permits leaks to the client. Returns nil for an allowed
// decision.
func FromDecision(d guard.Decision) *qerrors.QueryError {
	if d.Allowed {
		return nil
	}
	return &qerrors.QueryError{
		Message:       d.Reason,
		ResolverError: d.Err,
		Extensions: map[string]any{
			"code": CodeForbidden,
		},
	}
}

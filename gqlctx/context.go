// Package gqlctx carries the per-request execution context shared by
// guards, the pagination engine and federation lookups: request identity,
// a scratch map for state derived during guard evaluation, and the
// cancellation/deadline handle of the surrounding request.
package gqlctx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Context is the per-invocation request context. Its lifetime is exactly
// one resolver invocation; it owns nothing long-lived and must not be
// shared across invocations or retained beyond the request. It is not
// safe for concurrent use.
type Context struct {
	parent    context.Context
	requestID string
	userID    string
	tenantID  string
	bearer    string
	scratch   map[string]any
}

// New creates a Context wrapping the given request context, with a
// freshly generated request id.
func New(ctx context.Context) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		parent:    ctx,
		requestID: uuid.NewString(),
		scratch:   make(map[string]any),
	}
}

// FromHeaders creates a Context populated from the transport headers the
// surrounding framework received: x-request-id, x-user-id (must be a
// valid UUID to be trusted), x-tenant-id, and the bearer token from
// the Authorization header.
func FromHeaders(ctx context.Context, headers http.Header) *Context {
	rc := New(ctx)
	if id := headers.Get("x-request-id"); id != "" {
		rc.requestID = id
	}
	if raw := headers.Get("x-user-id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			rc.userID = id.String()
		}
	}
	rc.tenantID = headers.Get("x-tenant-id")
	if auth := headers.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			rc.bearer = token
		}
	}
	return rc
}

// Context returns the wrapped context.Context for passing to blocking
// collaborator calls.
func (c *Context) Context() context.Context {
	return c.parent
}

// Deadline reports the request deadline, if any.
func (c *Context) Deadline() (time.Time, bool) {
	return c.parent.Deadline()
}

// Err reports whether the request has been cancelled or timed out.
func (c *Context) Err() error {
	return c.parent.Err()
}

// RequestID returns the request identifier, for tracing.
func (c *Context) RequestID() string {
	return c.requestID
}

// UserID returns the authenticated user id, or "" when anonymous.
func (c *Context) UserID() string {
	return c.userID
}

// SetUserID records the authenticated user id, typically from an
// authentication guard.
func (c *Context) SetUserID(id string) {
	c.userID = id
}

// TenantID returns the tenant id, or "" when absent.
func (c *Context) TenantID() string {
	return c.tenantID
}

// BearerToken returns the raw bearer token from the request, or "".
func (c *Context) BearerToken() string {
	return c.bearer
}

// Set stores a derived value in the request's scratch map, for
// consumption by later guards or by the resolver itself.
func (c *Context) Set(key string, value any) {
	if c.scratch == nil {
		c.scratch = make(map[string]any)
	}
	c.scratch[key] = value
}

// Get retrieves a derived value from the scratch map.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.scratch[key]
	return v, ok
}

// GetString retrieves a derived string value from the scratch map,
// returning "" when absent or not a string.
func (c *Context) GetString(key string) string {
	if v, ok := c.scratch[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

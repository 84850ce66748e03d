// Package federation resolves entity references supplied by a federation
// gateway: a type name plus key fields mapped to a concrete domain object
// through a caller-registered lookup.
package federation

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/gqlkit/relay/gqlctx"
)

// Sentinel errors - use with errors.Is() for matching
var (
	// ErrUnknownType is returned for references to a type no lookup was
	// registered for. This is a schema-configuration error; it is still
	// handled defensively on every call.
	ErrUnknownType = errors.New("unknown entity type")

	// ErrInvalidReference is returned for references missing a type name.
	ErrInvalidReference = errors.New("invalid entity reference")
)

// Reference is an entity reference from the federation gateway.
type Reference struct {
	// TypeName is the schema type the reference points at.
	TypeName string `json:"__typename"`

	// KeyFields maps key field names to their scalar values.
	KeyFields map[string]any `json:"keyFields"`
}

// LookupFunc loads the entity identified by the given key fields.
// Returning (nil, nil) means the entity does not exist — an expected
// outcome, not a fault: federation expects null for missing entities.
type LookupFunc func(rc *gqlctx.Context, keyFields map[string]any) (any, error)

// Registry maps type names to entity lookups. Register everything at
// startup; a Registry is read-only afterwards and safe to share across
// concurrent invocations.
type Registry struct {
	lookups map[string]LookupFunc
	log     *logrus.Logger
}

// NewRegistry creates an empty lookup registry. A nil logger means silent.
func NewRegistry(log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Registry{
		lookups: make(map[string]LookupFunc),
		log:     log,
	}
}

// Register binds a lookup to a type name, replacing any previous binding.
func (r *Registry) Register(typeName string, fn LookupFunc) {
	r.lookups[typeName] = fn
}

// Resolve maps a reference to its entity. An unregistered type name
// yields an error wrapping ErrUnknownType; a registered lookup that finds
// nothing yields (nil, nil). Lookup failures propagate wrapped and are
// never retried here.
func (r *Registry) Resolve(rc *gqlctx.Context, ref Reference) (any, error) {
	if ref.TypeName == "" {
		return nil, fmt.Errorf("%w: missing type name", ErrInvalidReference)
	}
	if err := rc.Err(); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref.TypeName, err)
	}
	fn, ok := r.lookups[ref.TypeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, ref.TypeName)
	}
	entity, err := fn(rc, ref.KeyFields)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", ref.TypeName, err)
	}
	if entity == nil {
		r.log.WithFields(logrus.Fields{
			"type":       ref.TypeName,
			"request_id": rc.RequestID(),
		}).Debug("entity not found")
		return nil, nil
	}
	return entity, nil
}

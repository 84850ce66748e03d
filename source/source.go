// Package source defines the data-source capability consumed by the
// pagination engine. Implementations live under sources/ and must return
// items in strict ordering-key order; the engine never sorts.
package source

import (
	"context"

	"github.com/gqlkit/relay/cursor"
)

// Direction identifies which side of a key a probe looks at.
type Direction int

const (
	// Forward looks for items strictly after a key.
	Forward Direction = iota
	// DirBackward looks for items strictly before a key.
	DirBackward
)

// String returns the string representation of Direction
func (d Direction) String() string {
	if d == DirBackward {
		return "backward"
	}
	return "forward"
}

// KeyFunc derives the ordering key for an item. The same function must be
// used for every item of one collection: a cursor is only meaningful
// relative to the ordering it was generated under.
type KeyFunc[T any] func(item T) cursor.Key

// Source is the minimal capability every data source must implement.
type Source[T any] interface {
	// FetchAfter returns up to limit items strictly after the given key,
	// in ascending key order. A nil key means the start of the collection.
	FetchAfter(ctx context.Context, after *cursor.Key, limit int) ([]T, error)

	// ProbeMore reports whether at least one item exists strictly beyond
	// the given key in the given direction. It never returns the item.
	ProbeMore(ctx context.Context, key cursor.Key, dir Direction) (bool, error)
}

// Backward is implemented by sources that can seek backward. Sources that
// only implement Source are forward-only; the engine rejects backward
// pagination against them before any I/O.
type Backward[T any] interface {
	Source[T]

	// FetchBefore returns up to limit items strictly before the given key,
	// in descending key order (nearest to the key first). A nil key means
	// the end of the collection.
	FetchBefore(ctx context.Context, before *cursor.Key, limit int) ([]T, error)
}

// Counter is implemented by sources that can cheaply report the total
// number of items in the collection.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Package memory provides a slice-backed pagination source. It is the
// reference implementation of the source contract and the substrate the
// engine tests run against.
package memory

import (
	"context"
	"sort"

	"github.com/gqlkit/relay/cursor"
	"github.com/gqlkit/relay/source"
)

// Source pages over an in-memory slice. The slice is copied and sorted by
// ordering key at construction time; a Source is read-only afterwards and
// safe for concurrent use.
type Source[T any] struct {
	items []T
	keyOf source.KeyFunc[T]
}

// New creates a memory source over the given items, ordered by keyOf.
func New[T any](items []T, keyOf source.KeyFunc[T]) *Source[T] {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return cursor.Compare(keyOf(sorted[i]), keyOf(sorted[j])) < 0
	})
	return &Source[T]{items: sorted, keyOf: keyOf}
}

// FetchAfter returns up to limit items strictly after the given key, in
// ascending key order.
func (s *Source[T]) FetchAfter(ctx context.Context, after *cursor.Key, limit int) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	start := 0
	if after != nil {
		start = sort.Search(len(s.items), func(i int) bool {
			return cursor.Compare(s.keyOf(s.items[i]), *after) > 0
		})
	}
	end := start + limit
	if end > len(s.items) {
		end = len(s.items)
	}
	out := make([]T, end-start)
	copy(out, s.items[start:end])
	return out, nil
}

// FetchBefore returns up to limit items strictly before the given key, in
// descending key order (nearest to the key first).
func (s *Source[T]) FetchBefore(ctx context.Context, before *cursor.Key, limit int) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	end := len(s.items)
	if before != nil {
		end = sort.Search(len(s.items), func(i int) bool {
			return cursor.Compare(s.keyOf(s.items[i]), *before) >= 0
		})
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := make([]T, 0, end-start)
	for i := end - 1; i >= start; i-- {
		out = append(out, s.items[i])
	}
	return out, nil
}

// ProbeMore reports whether at least one item exists strictly beyond the
// given key in the given direction.
func (s *Source[T]) ProbeMore(ctx context.Context, key cursor.Key, dir source.Direction) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if dir == source.DirBackward {
		firstAtOrAfter := sort.Search(len(s.items), func(i int) bool {
			return cursor.Compare(s.keyOf(s.items[i]), key) >= 0
		})
		return firstAtOrAfter > 0, nil
	}
	firstAfter := sort.Search(len(s.items), func(i int) bool {
		return cursor.Compare(s.keyOf(s.items[i]), key) > 0
	})
	return firstAfter < len(s.items), nil
}

// Count returns the total number of items in the collection.
func (s *Source[T]) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(s.items)), nil
}

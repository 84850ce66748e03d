package connection

import (
	"context"
	"errors"
	"fmt"

	"github.com/gqlkit/relay/cursor"
	"github.com/gqlkit/relay/source"
)

// Paginate fetches and shapes one page of an ordered collection.
//
// Argument-shape errors (ErrInvalidArgument, ErrMalformedCursor,
// ErrUnsupportedDirection) are detected and returned before the source is
// touched. Source failures come back as *SourceError and cancellation as
// ErrCancelled; neither is retried here — retry policy belongs to the
// source collaborator.
//
// keyOf must derive the same ordering the source fetches in.
func Paginate[T any](ctx context.Context, src source.Source[T], keyOf source.KeyFunc[T], args Arguments, opts *Options) (*Connection[T], error) {
	opts = opts.normalized()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	if args.First != nil && *args.First < 0 {
		return nil, fmt.Errorf("%w: 'first' must be non-negative", ErrInvalidArgument)
	}
	if args.Last != nil && *args.Last < 0 {
		return nil, fmt.Errorf("%w: 'last' must be non-negative", ErrInvalidArgument)
	}

	var afterKey, beforeKey *cursor.Key
	if args.After != nil {
		key, err := cursor.Decode(*args.After)
		if err != nil {
			return nil, fmt.Errorf("'after': %w", err)
		}
		afterKey = &key
	}
	if args.Before != nil {
		key, err := cursor.Decode(*args.Before)
		if err != nil {
			return nil, fmt.Errorf("'before': %w", err)
		}
		beforeKey = &key
	}

	var (
		items   []T
		hasNext bool
		hasPrev bool
		err     error
	)
	if args.Forward() {
		items, hasNext, hasPrev, err = fetchForward(ctx, src, keyOf, args, afterKey, opts)
	} else {
		items, hasNext, hasPrev, err = fetchBackward(ctx, src, keyOf, args, beforeKey, opts)
	}
	if err != nil {
		return nil, err
	}

	conn := &Connection[T]{Edges: make([]Edge[T], len(items))}
	for i, item := range items {
		token, encErr := cursor.Encode(keyOf(item))
		if encErr != nil {
			return nil, fmt.Errorf("encode edge cursor: %w", encErr)
		}
		conn.Edges[i] = Edge[T]{Cursor: token, Node: item}
	}
	conn.PageInfo = PageInfo{
		HasNextPage:     hasNext,
		HasPreviousPage: hasPrev,
	}
	if len(conn.Edges) > 0 {
		conn.PageInfo.StartCursor = &conn.Edges[0].Cursor
		conn.PageInfo.EndCursor = &conn.Edges[len(conn.Edges)-1].Cursor
	}

	if opts.IncludeTotal {
		if counter, ok := src.(source.Counter); ok {
			total, countErr := counter.Count(ctx)
			if countErr != nil {
				return nil, sourceErr("count items", countErr)
			}
			conn.TotalCount = total
		}
	}

	opts.logger().WithFields(map[string]any{
		"edges":    len(conn.Edges),
		"has_next": hasNext,
		"has_prev": hasPrev,
	}).Debug("connection built")

	return conn, nil
}

// fetchForward builds the window for forward pagination: first+1 items
// after the anchor, with the extra item discarded into HasNextPage. A
// last bound further trims the window from its head.
func fetchForward[T any](ctx context.Context, src source.Source[T], keyOf source.KeyFunc[T], args Arguments, afterKey *cursor.Key, opts *Options) ([]T, bool, bool, error) {
	limit := opts.DefaultPageSize
	if args.First != nil {
		limit = *args.First
	}
	limit = opts.clamp(limit)

	items, err := src.FetchAfter(ctx, afterKey, limit+1)
	if err != nil {
		return nil, false, false, sourceErr("fetch after", err)
	}

	hasNext := len(items) > limit
	if hasNext {
		items = items[:limit]
	}

	hasPrev := false
	if args.Last != nil {
		// Bound-then-trim: last restricts the first-bounded window from
		// its tail side, never expands it.
		last := opts.clamp(*args.Last)
		if last < len(items) {
			hasPrev = true
			items = items[len(items)-last:]
		}
	}
	if !hasPrev && afterKey != nil {
		probeKey := *afterKey
		if len(items) > 0 {
			probeKey = keyOf(items[0])
		}
		hasPrev, err = src.ProbeMore(ctx, probeKey, source.DirBackward)
		if err != nil {
			return nil, false, false, sourceErr("probe previous", err)
		}
	}
	return items, hasNext, hasPrev, nil
}

// fetchBackward builds the window for backward pagination. The source
// returns items nearest the anchor first; the window is reversed after
// slicing so final edge order is ascending in the canonical ordering.
func fetchBackward[T any](ctx context.Context, src source.Source[T], keyOf source.KeyFunc[T], args Arguments, beforeKey *cursor.Key, opts *Options) ([]T, bool, bool, error) {
	back, ok := src.(source.Backward[T])
	if !ok {
		return nil, false, false, fmt.Errorf("%w: 'last'/'before' requested", ErrUnsupportedDirection)
	}

	limit := opts.DefaultPageSize
	switch {
	case args.Last != nil:
		limit = *args.Last
	case args.First != nil:
		limit = *args.First
	}
	limit = opts.clamp(limit)

	window, err := back.FetchBefore(ctx, beforeKey, limit+1)
	if err != nil {
		return nil, false, false, sourceErr("fetch before", err)
	}

	hasPrev := len(window) > limit
	if hasPrev {
		window = window[:limit]
	}

	// Reverse to ascending canonical order.
	items := make([]T, len(window))
	for i, item := range window {
		items[len(window)-1-i] = item
	}

	hasNext := false
	if beforeKey != nil {
		probeKey := *beforeKey
		if len(items) > 0 {
			probeKey = keyOf(items[len(items)-1])
		}
		hasNext, err = src.ProbeMore(ctx, probeKey, source.Forward)
		if err != nil {
			return nil, false, false, sourceErr("probe next", err)
		}
	}
	return items, hasNext, hasPrev, nil
}

// sourceErr maps a collaborator failure, keeping cancellation distinct
// from genuine source faults.
func sourceErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return NewSourceError(op, err)
}

// Package connection builds Relay-style Connections: it validates
// pagination arguments, slices an ordered data source through the
// source.Source capability, and shapes the result as edges plus page info.
// Engines, codecs and chains in this module are stateless after
// construction and safe to share across concurrent resolver invocations.
package connection

// Edge pairs an item with the opaque cursor marking its position.
type Edge[T any] struct {
	Cursor string `json:"cursor"`
	Node   T      `json:"node"`
}

// PageInfo describes the window's position inside the full collection.
// HasNextPage and HasPreviousPage report whether strictly more items exist
// beyond the returned window, independent of what the caller asked for.
type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

// Connection is the paginated result shape. Edges are always in ascending
// canonical order and never longer than the effective limit.
type Connection[T any] struct {
	Edges      []Edge[T] `json:"edges"`
	PageInfo   PageInfo  `json:"pageInfo"`
	TotalCount int64     `json:"totalCount,omitempty"`
}

// Arguments are the standard Connection pagination arguments.
// A request with neither First nor Last uses the configured default page
// size. First and Last combined means "bound the window by first, then
// trim to at most last items from its tail".
type Arguments struct {
	// First is the number of items to return when paginating forward.
	First *int `json:"first"`

	// After is the cursor to start strictly after (forward anchor).
	After *string `json:"after"`

	// Last is the number of items to return when paginating backward.
	Last *int `json:"last"`

	// Before is the cursor to stop strictly before (backward anchor).
	Before *string `json:"before"`
}

// Forward reports whether the arguments request forward pagination.
func (a Arguments) Forward() bool {
	return a.Before == nil && (a.First != nil || a.Last == nil)
}

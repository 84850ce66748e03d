package connection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gqlkit/relay/cursor"
	"github.com/gqlkit/relay/source"
	"github.com/gqlkit/relay/sources/memory"
)

type item struct {
	ID   string
	Name string
}

func itemKey(it item) cursor.Key {
	return cursor.NewKey(it.ID)
}

func testItems() []item {
	return []item{
		{ID: "a", Name: "alpha"},
		{ID: "b", Name: "bravo"},
		{ID: "c", Name: "charlie"},
		{ID: "d", Name: "delta"},
		{ID: "e", Name: "echo"},
	}
}

func testSource() *memory.Source[item] {
	return memory.New(testItems(), itemKey)
}

func cursorFor(t *testing.T, id string) string {
	t.Helper()
	token, err := cursor.Encode(cursor.NewKey(id))
	require.NoError(t, err)
	return token
}

func ids(edges []Edge[item]) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.Node.ID
	}
	return out
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestPaginate_Forward(t *testing.T) {
	tests := []struct {
		name         string
		args         Arguments
		expectedIDs  []string
		expectedNext bool
		expectedPrev bool
	}{
		{
			name:         "first two from start",
			args:         Arguments{First: intPtr(2)},
			expectedIDs:  []string{"a", "b"},
			expectedNext: true,
			expectedPrev: false,
		},
		{
			name:         "first covering whole collection",
			args:         Arguments{First: intPtr(5)},
			expectedIDs:  []string{"a", "b", "c", "d", "e"},
			expectedNext: false,
			expectedPrev: false,
		},
		{
			name:         "first one short of the end",
			args:         Arguments{First: intPtr(4)},
			expectedIDs:  []string{"a", "b", "c", "d"},
			expectedNext: true,
			expectedPrev: false,
		},
		{
			name:         "first zero",
			args:         Arguments{First: intPtr(0)},
			expectedIDs:  []string{},
			expectedNext: true,
			expectedPrev: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := Paginate[item](context.Background(), testSource(), itemKey, tt.args, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedIDs, ids(conn.Edges))
			assert.Equal(t, tt.expectedNext, conn.PageInfo.HasNextPage)
			assert.Equal(t, tt.expectedPrev, conn.PageInfo.HasPreviousPage)
		})
	}
}

func TestPaginate_ForwardAfterAnchor(t *testing.T) {
	after := cursorFor(t, "b")
	conn, err := Paginate[item](context.Background(), testSource(), itemKey,
		Arguments{First: intPtr(2), After: &after}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "d"}, ids(conn.Edges))
	assert.True(t, conn.PageInfo.HasNextPage)
	assert.True(t, conn.PageInfo.HasPreviousPage)
}

func TestPaginate_Backward(t *testing.T) {
	t.Run("last two from end", func(t *testing.T) {
		conn, err := Paginate[item](context.Background(), testSource(), itemKey,
			Arguments{Last: intPtr(2)}, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"d", "e"}, ids(conn.Edges))
		assert.False(t, conn.PageInfo.HasNextPage)
		assert.True(t, conn.PageInfo.HasPreviousPage)
	})

	t.Run("last before anchor", func(t *testing.T) {
		before := cursorFor(t, "d")
		conn, err := Paginate[item](context.Background(), testSource(), itemKey,
			Arguments{Last: intPtr(2), Before: &before}, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"b", "c"}, ids(conn.Edges))
		assert.True(t, conn.PageInfo.HasNextPage)
		assert.True(t, conn.PageInfo.HasPreviousPage)
	})

	t.Run("last covering whole collection", func(t *testing.T) {
		conn, err := Paginate[item](context.Background(), testSource(), itemKey,
			Arguments{Last: intPtr(5)}, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(conn.Edges))
		assert.False(t, conn.PageInfo.HasNextPage)
		assert.False(t, conn.PageInfo.HasPreviousPage)
	})
}

func TestPaginate_FirstAndLast(t *testing.T) {
	// Bound-then-trim: first bounds the window, last keeps its tail.
	conn, err := Paginate[item](context.Background(), testSource(), itemKey,
		Arguments{First: intPtr(4), Last: intPtr(2)}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "d"}, ids(conn.Edges))
	assert.True(t, conn.PageInfo.HasNextPage)
	assert.True(t, conn.PageInfo.HasPreviousPage, "trimming the window head means earlier items exist")
}

func TestPaginate_DefaultPageSize(t *testing.T) {
	opts := &Options{DefaultPageSize: 3}
	conn, err := Paginate[item](context.Background(), testSource(), itemKey, Arguments{}, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ids(conn.Edges))
	assert.True(t, conn.PageInfo.HasNextPage)
}

func TestPaginate_MaxPageSizeClamps(t *testing.T) {
	opts := &Options{MaxPageSize: 3}
	conn, err := Paginate[item](context.Background(), testSource(), itemKey,
		Arguments{First: intPtr(50)}, opts)
	require.NoError(t, err, "exceeding the max yields the clamped page, not an error")

	assert.Len(t, conn.Edges, 3)
	assert.True(t, conn.PageInfo.HasNextPage)
}

func TestPaginate_Cursors(t *testing.T) {
	conn, err := Paginate[item](context.Background(), testSource(), itemKey,
		Arguments{First: intPtr(2)}, nil)
	require.NoError(t, err)
	require.Len(t, conn.Edges, 2)

	require.NotNil(t, conn.PageInfo.StartCursor)
	require.NotNil(t, conn.PageInfo.EndCursor)
	assert.Equal(t, conn.Edges[0].Cursor, *conn.PageInfo.StartCursor)
	assert.Equal(t, conn.Edges[1].Cursor, *conn.PageInfo.EndCursor)

	// Feeding an edge cursor back as the anchor continues the walk.
	conn2, err := Paginate[item](context.Background(), testSource(), itemKey,
		Arguments{First: intPtr(2), After: conn.PageInfo.EndCursor}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, ids(conn2.Edges))
}

func TestPaginate_EmptyCollection(t *testing.T) {
	src := memory.New(nil, itemKey)
	conn, err := Paginate[item](context.Background(), src, itemKey,
		Arguments{First: intPtr(10)}, nil)
	require.NoError(t, err)

	assert.Empty(t, conn.Edges)
	assert.False(t, conn.PageInfo.HasNextPage)
	assert.False(t, conn.PageInfo.HasPreviousPage)
	assert.Nil(t, conn.PageInfo.StartCursor)
	assert.Nil(t, conn.PageInfo.EndCursor)
}

func TestPaginate_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args Arguments
	}{
		{name: "negative first", args: Arguments{First: intPtr(-1)}},
		{name: "negative last", args: Arguments{Last: intPtr(-3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newRecordingSource(testSource())
			_, err := Paginate[item](context.Background(), src, itemKey, tt.args, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Zero(t, src.calls, "argument errors must be rejected before any I/O")
		})
	}
}

func TestPaginate_MalformedCursor(t *testing.T) {
	tests := []struct {
		name string
		args Arguments
	}{
		{name: "malformed after", args: Arguments{First: intPtr(2), After: strPtr("not-a-cursor")}},
		{name: "malformed before", args: Arguments{Last: intPtr(2), Before: strPtr("@@@@")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newRecordingSource(testSource())
			_, err := Paginate[item](context.Background(), src, itemKey, tt.args, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedCursor)
			assert.Zero(t, src.calls, "malformed cursors must be rejected before any I/O")
		})
	}
}

func TestPaginate_UnsupportedDirection(t *testing.T) {
	fwd := &forwardOnlySource{inner: testSource()}

	t.Run("last against forward-only source", func(t *testing.T) {
		_, err := Paginate[item](context.Background(), fwd, itemKey,
			Arguments{Last: intPtr(2)}, nil)
		assert.ErrorIs(t, err, ErrUnsupportedDirection)
	})

	t.Run("before against forward-only source", func(t *testing.T) {
		before := cursorFor(t, "c")
		_, err := Paginate[item](context.Background(), fwd, itemKey,
			Arguments{Before: &before}, nil)
		assert.ErrorIs(t, err, ErrUnsupportedDirection)
	})

	t.Run("forward still works", func(t *testing.T) {
		conn, err := Paginate[item](context.Background(), fwd, itemKey,
			Arguments{First: intPtr(2)}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(conn.Edges))
	})
}

func TestPaginate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Paginate[item](ctx, testSource(), itemKey, Arguments{First: intPtr(2)}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPaginate_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	src := &failingSource{err: boom}

	_, err := Paginate[item](context.Background(), src, itemKey, Arguments{First: intPtr(2)}, nil)
	require.Error(t, err)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.ErrorIs(t, err, boom, "the collaborator failure must propagate unchanged")
}

func TestPaginate_TotalCount(t *testing.T) {
	opts := &Options{IncludeTotal: true}
	conn, err := Paginate[item](context.Background(), testSource(), itemKey,
		Arguments{First: intPtr(2)}, opts)
	require.NoError(t, err)

	assert.Equal(t, int64(5), conn.TotalCount)
}

// recordingSource counts fetches so tests can assert zero-cost rejection.
type recordingSource struct {
	inner *memory.Source[item]
	calls int
}

func newRecordingSource(inner *memory.Source[item]) *recordingSource {
	return &recordingSource{inner: inner}
}

func (r *recordingSource) FetchAfter(ctx context.Context, after *cursor.Key, limit int) ([]item, error) {
	r.calls++
	return r.inner.FetchAfter(ctx, after, limit)
}

func (r *recordingSource) FetchBefore(ctx context.Context, before *cursor.Key, limit int) ([]item, error) {
	r.calls++
	return r.inner.FetchBefore(ctx, before, limit)
}

func (r *recordingSource) ProbeMore(ctx context.Context, key cursor.Key, dir source.Direction) (bool, error) {
	r.calls++
	return r.inner.ProbeMore(ctx, key, dir)
}

// forwardOnlySource hides the backward capability of its inner source.
type forwardOnlySource struct {
	inner *memory.Source[item]
}

func (f *forwardOnlySource) FetchAfter(ctx context.Context, after *cursor.Key, limit int) ([]item, error) {
	return f.inner.FetchAfter(ctx, after, limit)
}

func (f *forwardOnlySource) ProbeMore(ctx context.Context, key cursor.Key, dir source.Direction) (bool, error) {
	return f.inner.ProbeMore(ctx, key, dir)
}

// failingSource fails every call.
type failingSource struct {
	err error
}

func (f *failingSource) FetchAfter(context.Context, *cursor.Key, int) ([]item, error) {
	return nil, f.err
}

func (f *failingSource) ProbeMore(context.Context, cursor.Key, source.Direction) (bool, error) {
	return false, f.err
}

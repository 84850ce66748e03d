// Package mongodb provides a keyset-pagination source over a MongoDB
// collection, seeking with nested $or filters on the configured order
// fields and the _id tie-break.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gqlkit/relay/cursor"
	"github.com/gqlkit/relay/source"
)

// Field is one ordering field.
type Field struct {
	Name string
	Desc bool
}

// Config configures the ordering and base filter a Source fetches with.
type Config struct {
	// OrderBy lists the ordering fields, most significant first. Their
	// values must appear in the same order in every cursor key. Empty
	// means ordering by IDField alone.
	OrderBy []Field

	// IDField is the unique tie-break field. Defaults to "_id".
	IDField string

	// Filter restricts the collection, e.g. a tenant scope. Nil means
	// the whole collection.
	Filter bson.M
}

// Source pages a MongoDB collection in the configured order. A Source is
// stateless and safe to share across invocations.
type Source[T any] struct {
	coll *mongo.Collection
	cfg  Config
}

// New creates a MongoDB source over the given collection.
func New[T any](coll *mongo.Collection, cfg *Config) *Source[T] {
	resolved := Config{IDField: "_id"}
	if cfg != nil {
		resolved.OrderBy = cfg.OrderBy
		resolved.Filter = cfg.Filter
		if cfg.IDField != "" {
			resolved.IDField = cfg.IDField
		}
	}
	return &Source[T]{coll: coll, cfg: resolved}
}

// FetchAfter returns up to limit documents strictly after the given key,
// in ascending configured order.
func (s *Source[T]) FetchAfter(ctx context.Context, after *cursor.Key, limit int) ([]T, error) {
	return s.fetch(ctx, after, limit, false)
}

// FetchBefore returns up to limit documents strictly before the given
// key, nearest to the key first.
func (s *Source[T]) FetchBefore(ctx context.Context, before *cursor.Key, limit int) ([]T, error) {
	return s.fetch(ctx, before, limit, true)
}

// ProbeMore reports whether at least one document exists strictly beyond
// the given key in the given direction.
func (s *Source[T]) ProbeMore(ctx context.Context, key cursor.Key, dir source.Direction) (bool, error) {
	keyset, err := s.keysetFilter(&key, dir == source.DirBackward)
	if err != nil {
		return false, err
	}
	n, err := s.coll.CountDocuments(ctx, s.withBase(keyset), options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of documents matching the base filter.
func (s *Source[T]) Count(ctx context.Context) (int64, error) {
	filter := s.cfg.Filter
	if filter == nil {
		filter = bson.M{}
	}
	return s.coll.CountDocuments(ctx, filter)
}

func (s *Source[T]) fetch(ctx context.Context, anchor *cursor.Key, limit int, reversed bool) ([]T, error) {
	if limit <= 0 {
		return nil, nil
	}
	filter := bson.M{}
	if anchor != nil {
		keyset, err := s.keysetFilter(anchor, reversed)
		if err != nil {
			return nil, err
		}
		filter = keyset
	}

	findOpts := options.Find().
		SetSort(s.sortSpec(reversed)).
		SetLimit(int64(limit))

	cur, err := s.coll.Find(ctx, s.withBase(filter), findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []T
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// sortSpec renders the ordering as a sort document, with every direction
// flipped when fetching backward.
func (s *Source[T]) sortSpec(reversed bool) bson.D {
	spec := make(bson.D, 0, len(s.cfg.OrderBy)+1)
	for _, f := range s.cfg.OrderBy {
		spec = append(spec, bson.E{Key: f.Name, Value: sortOrder(f.Desc, reversed)})
	}
	spec = append(spec, bson.E{Key: s.cfg.IDField, Value: sortOrder(false, reversed)})
	return spec
}

// keysetFilter builds the seek predicate for a key: an $or of one clause
// per ordering depth, each requiring equality on the more significant
// fields and a strict comparison on the current one, closed by the ID
// field.
func (s *Source[T]) keysetFilter(key *cursor.Key, reversed bool) (bson.M, error) {
	if len(key.Values) != len(s.cfg.OrderBy) {
		return nil, fmt.Errorf("%w: key has %d ordering values, source orders by %d fields",
			cursor.ErrMalformed, len(key.Values), len(s.cfg.OrderBy))
	}

	var branches bson.A
	eq := bson.M{}
	for i, f := range s.cfg.OrderBy {
		branch := bson.M{f.Name: bson.M{cmpOperator(f.Desc, reversed): key.Values[i]}}
		for k, v := range eq {
			branch[k] = v
		}
		branches = append(branches, branch)
		eq[f.Name] = key.Values[i]
	}

	idBranch := bson.M{s.cfg.IDField: bson.M{cmpOperator(false, reversed): coerceID(key.ID)}}
	for k, v := range eq {
		idBranch[k] = v
	}
	branches = append(branches, idBranch)

	if len(branches) == 1 {
		return branches[0].(bson.M), nil
	}
	return bson.M{"$or": branches}, nil
}

func (s *Source[T]) withBase(filter bson.M) bson.M {
	if len(s.cfg.Filter) == 0 {
		return filter
	}
	if len(filter) == 0 {
		return s.cfg.Filter
	}
	return bson.M{"$and": bson.A{s.cfg.Filter, filter}}
}

// coerceID converts hex-string ids back to ObjectID so cursors built
// from ObjectID-keyed collections seek correctly.
func coerceID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func sortOrder(desc, reversed bool) int {
	if desc != reversed {
		return -1
	}
	return 1
}

func cmpOperator(desc, reversed bool) string {
	if desc != reversed {
		return "$lt"
	}
	return "$gt"
}

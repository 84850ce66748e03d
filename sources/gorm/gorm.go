// Package gorm provides a keyset-pagination source over a GORM database.
// It seeks by comparing the configured order columns against the cursor
// key values, with the ID column as the final tie-break, so page fetches
// stay constant-time regardless of depth.
package gorm

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/gqlkit/relay/cursor"
	"github.com/gqlkit/relay/source"
)

// Column is one ordering column.
type Column struct {
	Name string
	Desc bool
}

// Config configures the ordering a Source fetches in.
type Config struct {
	// OrderBy lists the ordering columns, most significant first. Their
	// values must appear in the same order in every cursor key. Empty
	// means ordering by ID alone.
	OrderBy []Column

	// IDColumn is the unique tie-break column. Defaults to "id".
	IDColumn string
}

// Source pages a GORM model in the configured order. T is the model
// struct. A Source is stateless and safe to share across invocations;
// the *gorm.DB manages its own connections.
type Source[T any] struct {
	db  *gorm.DB
	cfg Config
}

// New creates a GORM source. Column names are validated up front to keep
// user input out of generated SQL.
func New[T any](db *gorm.DB, cfg *Config) (*Source[T], error) {
	resolved := Config{IDColumn: "id"}
	if cfg != nil {
		resolved.OrderBy = cfg.OrderBy
		if cfg.IDColumn != "" {
			resolved.IDColumn = cfg.IDColumn
		}
	}
	for _, col := range resolved.OrderBy {
		if !isValidColumn(col.Name) {
			return nil, fmt.Errorf("invalid column name: %q", col.Name)
		}
	}
	if !isValidColumn(resolved.IDColumn) {
		return nil, fmt.Errorf("invalid column name: %q", resolved.IDColumn)
	}
	return &Source[T]{db: db, cfg: resolved}, nil
}

// FetchAfter returns up to limit items strictly after the given key, in
// ascending configured order.
func (s *Source[T]) FetchAfter(ctx context.Context, after *cursor.Key, limit int) ([]T, error) {
	return s.fetch(ctx, after, limit, false)
}

// FetchBefore returns up to limit items strictly before the given key,
// nearest to the key first.
func (s *Source[T]) FetchBefore(ctx context.Context, before *cursor.Key, limit int) ([]T, error) {
	return s.fetch(ctx, before, limit, true)
}

// ProbeMore reports whether at least one row exists strictly beyond the
// given key in the given direction.
func (s *Source[T]) ProbeMore(ctx context.Context, key cursor.Key, dir source.Direction) (bool, error) {
	where, args, err := s.keysetFilter(&key, dir == source.DirBackward)
	if err != nil {
		return false, err
	}
	var probe []T
	tx := s.db.WithContext(ctx).Model(new(T)).Where(where, args...).Limit(1)
	if err := tx.Find(&probe).Error; err != nil {
		return false, err
	}
	return len(probe) > 0, nil
}

// Count returns the total number of rows in the table.
func (s *Source[T]) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(new(T)).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Source[T]) fetch(ctx context.Context, anchor *cursor.Key, limit int, reversed bool) ([]T, error) {
	if limit <= 0 {
		return nil, nil
	}
	tx := s.db.WithContext(ctx).Model(new(T)).Order(s.orderClause(reversed)).Limit(limit)
	if anchor != nil {
		where, args, err := s.keysetFilter(anchor, reversed)
		if err != nil {
			return nil, err
		}
		tx = tx.Where(where, args...)
	}
	var items []T
	if err := tx.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// orderClause renders "col1 ASC, col2 DESC, id ASC", with every
// direction flipped when fetching backward.
func (s *Source[T]) orderClause(reversed bool) string {
	parts := make([]string, 0, len(s.cfg.OrderBy)+1)
	for _, col := range s.cfg.OrderBy {
		parts = append(parts, col.Name+" "+direction(col.Desc, reversed))
	}
	parts = append(parts, s.cfg.IDColumn+" "+direction(false, reversed))
	return strings.Join(parts, ", ")
}

// keysetFilter builds the seek predicate for a key: the disjunction of
// one clause per ordering depth, each requiring equality on the more
// significant columns and strict comparison on the current one, with the
// ID column closing the chain.
func (s *Source[T]) keysetFilter(key *cursor.Key, reversed bool) (string, []any, error) {
	if len(key.Values) != len(s.cfg.OrderBy) {
		return "", nil, fmt.Errorf("%w: key has %d ordering values, source orders by %d columns",
			cursor.ErrMalformed, len(key.Values), len(s.cfg.OrderBy))
	}

	var clauses []string
	var args []any
	var eqPrefix []string
	var eqArgs []any

	for i, col := range s.cfg.OrderBy {
		cmp := comparator(col.Desc, reversed)
		clause := append(append([]string{}, eqPrefix...), fmt.Sprintf("%s %s ?", col.Name, cmp))
		clauses = append(clauses, "("+strings.Join(clause, " AND ")+")")
		args = append(args, append(append([]any{}, eqArgs...), key.Values[i])...)

		eqPrefix = append(eqPrefix, col.Name+" = ?")
		eqArgs = append(eqArgs, key.Values[i])
	}

	idClause := append(append([]string{}, eqPrefix...), fmt.Sprintf("%s %s ?", s.cfg.IDColumn, comparator(false, reversed)))
	clauses = append(clauses, "("+strings.Join(idClause, " AND ")+")")
	args = append(args, append(append([]any{}, eqArgs...), key.ID)...)

	return strings.Join(clauses, " OR "), args, nil
}

func direction(desc, reversed bool) string {
	if desc != reversed {
		return "DESC"
	}
	return "ASC"
}

func comparator(desc, reversed bool) string {
	if desc != reversed {
		return "<"
	}
	return ">"
}

// isValidColumn reports whether a column name is a plain SQL identifier.
// Anything else never reaches generated SQL.
func isValidColumn(name string) bool {
	if len(name) == 0 {
		return false
	}
	first := name[0]
	if !((first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z') || first == '_') {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}

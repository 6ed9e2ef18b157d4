package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sharedcode/dbal"
	"github.com/sharedcode/dbal/database"
)

var marshaler = dbal.NewMarshaler()

// RowScanner converts the current row of a result set into an entity value.
type RowScanner[T any] func(rows *sql.Rows) (T, error)

// Order states an explicit result ordering. Query leaves results unordered
// when no Order is given.
type Order struct {
	Field      string
	Descending bool
}

// Store gives one entity table filtered, normalized access through a single
// generic code path.
type Store[T any] struct {
	db     *database.Database
	schema *dbal.Schema
	scan   RowScanner[T]
}

// New binds a schema and row scanner to a database.
func New[T any](db *database.Database, schema *dbal.Schema, scan RowScanner[T]) *Store[T] {
	return &Store[T]{db: db, schema: schema, scan: scan}
}

// Schema returns the entity schema the store was built with.
func (s *Store[T]) Schema() *dbal.Schema {
	return s.schema
}

// Query returns the entities matching criteria. Criteria that compile to zero
// predicates return no rows rather than the whole table, and an empty
// membership list short-circuits the same way. Results are ordered only when
// order is non-nil; an unknown order field falls back to create_time.
func (s *Store[T]) Query(ctx context.Context, criteria dbal.Criteria, order *Order) ([]T, error) {
	plan, err := BuildFilters(s.schema, criteria)
	if err != nil {
		return nil, err
	}
	if !plan.Matchable() {
		return nil, nil
	}
	if order != nil {
		plan = plan.WithOrdering(s.schema, order.Field, order.Descending)
	}
	d := s.db.Dialect()
	where, args := plan.Where(d, 1)
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s%s", s.schema.ColumnList(), s.schema.Table, where, plan.OrderClause())

	rows, err := s.db.SQL().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.schema.Table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.schema.Table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Count returns how many rows match criteria, under the same zero-predicate
// policy as Query.
func (s *Store[T]) Count(ctx context.Context, criteria dbal.Criteria) (int64, error) {
	plan, err := BuildFilters(s.schema, criteria)
	if err != nil {
		return 0, err
	}
	if !plan.Matchable() {
		return 0, nil
	}
	where, args := plan.Where(s.db.Dialect(), 1)
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", s.schema.Table, where)

	var n int64
	if err := s.db.SQL().QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.schema.Table, err)
	}
	return n, nil
}

// Get fetches one entity by primary key, passing key values in schema
// declaration order for composite keys. The boolean reports whether the row
// exists.
func (s *Store[T]) Get(ctx context.Context, keys ...any) (T, bool, error) {
	var zero T
	pks := s.schema.PrimaryKeys()
	if len(pks) == 0 {
		return zero, false, fmt.Errorf("table %s has no primary key", s.schema.Table)
	}
	if len(keys) != len(pks) {
		return zero, false, fmt.Errorf("table %s takes %d key values, got %d", s.schema.Table, len(pks), len(keys))
	}
	d := s.db.Dialect()
	parts := make([]string, len(pks))
	for i, pk := range pks {
		parts[i] = fmt.Sprintf("%s = %s", pk.Name, d.Placeholder(i+1))
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s", s.schema.ColumnList(), s.schema.Table, strings.Join(parts, " AND "))

	rows, err := s.db.SQL().QueryContext(ctx, q, keys...)
	if err != nil {
		return zero, false, fmt.Errorf("get %s: %w", s.schema.Table, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return zero, false, rows.Err()
	}
	v, err := s.scan(rows)
	if err != nil {
		return zero, false, fmt.Errorf("scan %s: %w", s.schema.Table, err)
	}
	return v, true, nil
}

// Insert writes one entity. Values are normalized first (descriptor defaults,
// create_time/update_time stamps, *_date derivation); nil and absent fields
// are left to the database.
func (s *Store[T]) Insert(ctx context.Context, values dbal.Values) error {
	vals, err := normalizeWrite(s.schema, values, true)
	if err != nil {
		return err
	}
	d := s.db.Dialect()
	var cols, ph []string
	var args []any
	n := 1
	for _, f := range s.schema.Fields {
		v, ok := vals[f.Name]
		if !ok || v == nil {
			continue
		}
		enc, err := encodeValue(f, v)
		if err != nil {
			return err
		}
		cols = append(cols, f.Name)
		ph = append(ph, d.Placeholder(n))
		args = append(args, enc)
		n++
	}
	if len(cols) == 0 {
		return fmt.Errorf("insert into %s with no values", s.schema.Table)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.schema.Table, strings.Join(cols, ", "), strings.Join(ph, ", "))
	if _, err := s.db.SQL().ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert %s: %w", s.schema.Table, err)
	}
	return nil
}

// Update applies values to the rows matching criteria and returns the
// affected count. update_time is refreshed and date companions re-derived;
// an explicit nil value sets the column to NULL. Criteria that compile to
// zero predicates update nothing.
func (s *Store[T]) Update(ctx context.Context, criteria dbal.Criteria, values dbal.Values) (int64, error) {
	plan, err := BuildFilters(s.schema, criteria)
	if err != nil {
		return 0, err
	}
	if !plan.Matchable() {
		return 0, nil
	}
	vals, err := normalizeWrite(s.schema, values, false)
	if err != nil {
		return 0, err
	}
	d := s.db.Dialect()
	var sets []string
	var args []any
	n := 1
	for _, f := range s.schema.Fields {
		v, ok := vals[f.Name]
		if !ok {
			continue
		}
		enc, err := encodeValue(f, v)
		if err != nil {
			return 0, err
		}
		sets = append(sets, fmt.Sprintf("%s = %s", f.Name, d.Placeholder(n)))
		args = append(args, enc)
		n++
	}
	if len(sets) == 0 {
		return 0, fmt.Errorf("update %s with no values", s.schema.Table)
	}
	where, whereArgs := plan.Where(d, n)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s", s.schema.Table, strings.Join(sets, ", "), where)
	res, err := s.db.SQL().ExecContext(ctx, q, append(args, whereArgs...)...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", s.schema.Table, err)
	}
	return res.RowsAffected()
}

// Delete removes the rows matching criteria and returns the affected count,
// under the same zero-predicate policy as Update.
func (s *Store[T]) Delete(ctx context.Context, criteria dbal.Criteria) (int64, error) {
	plan, err := BuildFilters(s.schema, criteria)
	if err != nil {
		return 0, err
	}
	if !plan.Matchable() {
		return 0, nil
	}
	where, args := plan.Where(s.db.Dialect(), 1)
	q := fmt.Sprintf("DELETE FROM %s WHERE %s", s.schema.Table, where)
	res, err := s.db.SQL().ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", s.schema.Table, err)
	}
	return res.RowsAffected()
}

// encodeValue prepares one column value for the driver. JSON columns accept
// any marshalable Go value; strings and byte slices pass through as already
// encoded.
func encodeValue(f dbal.FieldDescriptor, v any) (any, error) {
	if f.Type != dbal.JSON || v == nil {
		return v, nil
	}
	switch v.(type) {
	case string, []byte:
		return v, nil
	}
	b, err := marshaler.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f.Name, err)
	}
	return string(b), nil
}

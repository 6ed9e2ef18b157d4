// Package store turns loosely-typed criteria maps into SQL predicates and
// provides the generic table access built on them. Filtering follows one
// contract for every entity: unknown fields and nil values never filter,
// ranges apply to continuous fields only, and date strings are accepted where
// an epoch-millisecond column is being ranged over.
package store

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/sharedcode/dbal"
)

type condOp int

const (
	opEq condOp = iota
	opIn
	opBetween
	opGTE
	opLTE
)

type condition struct {
	field string
	op    condOp
	args  []any
}

// Plan is a compiled criteria set: the predicates that survived compilation
// plus the ordering to apply, ready to render against a dialect.
type Plan struct {
	conds      []condition
	impossible bool

	ordered    bool
	orderBy    string
	descending bool
}

// Empty reports whether no predicates survived compilation.
func (p Plan) Empty() bool {
	return len(p.conds) == 0
}

// Matchable reports whether the plan can match rows at all: at least one
// predicate survived and no membership list was empty. Unmatchable plans are
// answered without touching the database.
func (p Plan) Matchable() bool {
	return len(p.conds) > 0 && !p.impossible
}

// BuildFilters compiles criteria against the schema. Unknown fields and nil
// values are dropped. Slice values mean membership for discrete fields and
// [low, high] ranges for continuous ones; a half-open range uses a nil bound.
// String bounds on *_time fields are parsed as "2006-01-02 15:04:05". The
// only rejected input is a malformed date string.
func BuildFilters(schema *dbal.Schema, criteria dbal.Criteria) (Plan, error) {
	var p Plan
	for _, name := range sortedKeys(criteria) {
		value := criteria[name]
		field, ok := schema.Field(name)
		if !ok || value == nil {
			continue
		}
		values, isList := asList(value)
		if !isList {
			p.conds = append(p.conds, condition{field: name, op: opEq, args: []any{value}})
			continue
		}
		if field.Kind() == dbal.Continuous {
			if len(values) != 2 {
				continue
			}
			low, err := rangeBound(name, values[0])
			if err != nil {
				return Plan{}, err
			}
			high, err := rangeBound(name, values[1])
			if err != nil {
				return Plan{}, err
			}
			switch {
			case low != nil && high != nil:
				p.conds = append(p.conds, condition{field: name, op: opBetween, args: []any{low, high}})
			case low != nil:
				p.conds = append(p.conds, condition{field: name, op: opGTE, args: []any{low}})
			case high != nil:
				p.conds = append(p.conds, condition{field: name, op: opLTE, args: []any{high}})
			}
			continue
		}
		if len(values) == 0 {
			// Membership in the empty set matches nothing.
			p.impossible = true
			continue
		}
		p.conds = append(p.conds, condition{field: name, op: opIn, args: values})
	}
	return p, nil
}

// WithOrdering returns the plan ordered by field. An empty or unknown field
// falls back to create_time; if the schema lacks that too, the plan stays
// unordered.
func (p Plan) WithOrdering(schema *dbal.Schema, field string, descending bool) Plan {
	if field == "" || !schema.Has(field) {
		field = "create_time"
	}
	if !schema.Has(field) {
		return p
	}
	p.ordered = true
	p.orderBy = field
	p.descending = descending
	return p
}

// Where renders the predicates joined with AND, numbering dialect
// placeholders from start. Deterministic: conditions render in sorted
// criteria-key order.
func (p Plan) Where(d dbal.Dialect, start int) (string, []any) {
	var parts []string
	var args []any
	n := start
	for _, c := range p.conds {
		switch c.op {
		case opEq:
			parts = append(parts, fmt.Sprintf("%s = %s", c.field, d.Placeholder(n)))
			n++
		case opIn:
			ph := make([]string, len(c.args))
			for i := range c.args {
				ph[i] = d.Placeholder(n)
				n++
			}
			parts = append(parts, fmt.Sprintf("%s IN (%s)", c.field, strings.Join(ph, ", ")))
		case opBetween:
			parts = append(parts, fmt.Sprintf("%s BETWEEN %s AND %s", c.field, d.Placeholder(n), d.Placeholder(n+1)))
			n += 2
		case opGTE:
			parts = append(parts, fmt.Sprintf("%s >= %s", c.field, d.Placeholder(n)))
			n++
		case opLTE:
			parts = append(parts, fmt.Sprintf("%s <= %s", c.field, d.Placeholder(n)))
			n++
		}
		args = append(args, c.args...)
	}
	return strings.Join(parts, " AND "), args
}

// OrderClause renders the ORDER BY fragment including its leading space, or
// "" for an unordered plan.
func (p Plan) OrderClause() string {
	if !p.ordered {
		return ""
	}
	dir := "ASC"
	if p.descending {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", p.orderBy, dir)
}

// rangeBound normalizes one end of a [low, high] pair. nil stays nil (a
// half-open range); strings on *_time fields are calendar forms converted to
// epoch milliseconds.
func rangeBound(field string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	s, isString := v.(string)
	if !isString || !dbal.IsAutoTimeField(field) {
		return v, nil
	}
	ms, err := dbal.DateStringToTimestamp(s)
	if err != nil {
		return nil, dbal.Error{
			Code:     dbal.InvalidFilterCriteria,
			Err:      fmt.Errorf("filter %s: invalid date string '%s'", field, s),
			UserData: field,
		}
	}
	return ms, nil
}

// asList coerces slice and array criteria values to []any. []byte stays a
// scalar.
func asList(v any) ([]any, bool) {
	if _, isBytes := v.([]byte); isBytes {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func sortedKeys(criteria dbal.Criteria) []string {
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package dbal

import (
	"fmt"
	"strings"
)

// ColumnType enumerates the storage types a field descriptor can declare.
// Each dialect maps these to engine-specific DDL.
type ColumnType int

const (
	// Char is a length-capped string column.
	Char ColumnType = iota
	// Text is an unbounded text column.
	Text
	// LongText is an unbounded text column sized for large payloads.
	LongText
	// JSON is a document column stored as text and encoded/decoded by the store.
	JSON
	// Int is a 32-bit integer column.
	Int
	// BigInt is a 64-bit integer column; epoch-millisecond timestamps use it.
	BigInt
	// Float is a double-precision column.
	Float
	// Bool is a boolean column.
	Bool
	// DateTime is a calendar timestamp column.
	DateTime
)

// FieldKind classifies how the filter builder treats a field's values.
type FieldKind int

const (
	// Discrete fields support identity comparisons only (equality, IN).
	Discrete FieldKind = iota
	// Continuous fields are ordered and support range comparisons.
	Continuous
)

// Kind returns the filter classification derived from the column type:
// numeric and temporal columns are continuous, everything else is discrete.
func (t ColumnType) Kind() FieldKind {
	switch t {
	case Int, BigInt, Float, DateTime:
		return Continuous
	default:
		return Discrete
	}
}

// FieldDescriptor declares one column of an entity table: its name, storage
// type, and the attributes schema creation and the filter builder need.
type FieldDescriptor struct {
	Name string
	Type ColumnType
	// Length caps Char columns; ignored for other types.
	Length int
	// Nullable columns accept NULL; absent Values entries are stored as NULL.
	Nullable bool
	// Default, when non-nil, is applied on insert if the field is absent.
	// CREATE TABLE never renders it; ADD COLUMN does, so NOT NULL columns
	// can be added to populated tables.
	Default any
	// Index requests a secondary index on the column.
	Index bool
	// PrimaryKey marks the column as part of the table's primary key.
	PrimaryKey bool
}

// Kind returns the filter classification of the field.
func (f FieldDescriptor) Kind() FieldKind {
	return f.Type.Kind()
}

// Schema describes one entity table: its name and ordered field descriptors.
// The descriptor order is the column order used in DDL and row scans.
type Schema struct {
	Table  string
	Fields []FieldDescriptor

	byName map[string]int
}

// NewSchema builds a Schema and its lookup index. Duplicate field names are a
// programming error and panic.
func NewSchema(table string, fields []FieldDescriptor) *Schema {
	s := &Schema{
		Table:  table,
		Fields: fields,
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if _, dup := s.byName[f.Name]; dup {
			panic(fmt.Sprintf("schema %s declares field %s twice", table, f.Name))
		}
		s.byName[f.Name] = i
	}
	return s
}

// Field returns the descriptor for name, if declared.
func (s *Schema) Field(name string) (FieldDescriptor, bool) {
	i, ok := s.byName[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return s.Fields[i], true
}

// Has reports whether the schema declares the named field.
func (s *Schema) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// PrimaryKeys returns the primary key descriptors in declaration order.
func (s *Schema) PrimaryKeys() []FieldDescriptor {
	var pks []FieldDescriptor
	for _, f := range s.Fields {
		if f.PrimaryKey {
			pks = append(pks, f)
		}
	}
	return pks
}

// ColumnNames returns the field names in declaration order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// ColumnList renders the comma-separated column list used in SELECTs, in
// declaration order so row scans line up with the descriptors.
func (s *Schema) ColumnList() string {
	return strings.Join(s.ColumnNames(), ", ")
}

// CreateTableDDL renders the idempotent table creation statement.
func (s *Schema) CreateTableDDL(d Dialect) string {
	cols := make([]string, 0, len(s.Fields)+1)
	var pks []string
	for _, f := range s.Fields {
		cols = append(cols, fmt.Sprintf("%s %s", f.Name, d.ColumnDDL(f)))
		if f.PrimaryKey {
			pks = append(pks, f.Name)
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.Table, strings.Join(cols, ", "))
}

// IndexDDLs renders the secondary index statements for every indexed,
// non-primary-key field.
func (s *Schema) IndexDDLs(d Dialect) []string {
	var out []string
	for _, f := range s.Fields {
		if f.Index && !f.PrimaryKey {
			out = append(out, d.CreateIndexDDL(s.Table, f.Name))
		}
	}
	return out
}

// Criteria is a field-name-to-value filter map interpreted by the store's
// filter builder. Unknown field names are ignored.
type Criteria map[string]any

// Values carries column values for inserts and updates, keyed by field name.
type Values map[string]any

// Clone returns a shallow copy so normalization never mutates caller maps.
func (v Values) Clone() Values {
	out := make(Values, len(v)+4)
	for k, val := range v {
		out[k] = val
	}
	return out
}

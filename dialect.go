package dbal

import (
	"fmt"
	"strings"
)

// Dialect abstracts the SQL differences between the supported engines:
// statement placeholders, DDL column rendering, and the error shapes produced
// when a schema object already exists. The mysql and postgres subpackages
// provide the implementations.
type Dialect interface {
	// Name identifies the engine; it doubles as the database/sql driver name.
	Name() string
	// Placeholder renders the n-th (1-based) statement parameter.
	Placeholder(n int) string
	// ColumnDDL renders the column definition fragment for a field (storage
	// type, length, nullability), without the column name.
	ColumnDDL(field FieldDescriptor) string
	// AddColumnDDL renders the statement adding the field to an existing table.
	AddColumnDDL(table string, field FieldDescriptor) string
	// AlterColumnDDL renders the statement changing the field's column to the
	// descriptor's current definition.
	AlterColumnDDL(table string, field FieldDescriptor) string
	// RenameColumnDDL renders the statement renaming a column.
	RenameColumnDDL(table, oldName, newName string) string
	// CreateIndexDDL renders the statement creating a secondary index.
	CreateIndexDDL(table, column string) string
	// IsDuplicateObject reports whether err indicates a column, index, or
	// table that already exists, so schema maintenance can treat the
	// statement as already applied.
	IsDuplicateObject(err error) bool
	// IsMissingColumn reports whether err indicates the referenced column
	// does not exist, the already-applied signal for renames.
	IsMissingColumn(err error) bool
}

// DDLDefault renders a field's default as a SQL literal for DEFAULT clauses.
// Only scalar defaults on non-TEXT-backed columns render: adding a NOT NULL
// column to a populated table needs the server-side default, while TEXT and
// JSON columns keep application-side defaults only (MySQL refuses literal
// defaults on TEXT). The boolean reports whether a clause should be emitted.
func DDLDefault(f FieldDescriptor) (string, bool) {
	if f.Default == nil {
		return "", false
	}
	switch f.Type {
	case Char, Int, BigInt, Float, Bool:
	default:
		return "", false
	}
	switch x := f.Default.(type) {
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", true
	case bool:
		if x {
			return "TRUE", true
		}
		return "FALSE", true
	case int, int32, int64, float32, float64:
		return fmt.Sprint(x), true
	}
	return "", false
}

package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/sharedcode/dbal"
)

// PostgreSQL SQLSTATE codes schema maintenance keys on.
const (
	codeDuplicateTable  = pq.ErrorCode("42P07")
	codeDuplicateColumn = pq.ErrorCode("42701")
	codeUndefinedColumn = pq.ErrorCode("42703")
)

// Dialect implements dbal.Dialect for PostgreSQL.
type Dialect struct{}

func (Dialect) Name() string {
	return "postgres"
}

// Placeholder renders the positional $n parameter form.
func (Dialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (Dialect) ColumnDDL(f dbal.FieldDescriptor) string {
	var t string
	switch f.Type {
	case dbal.Char:
		length := f.Length
		if length <= 0 {
			length = 255
		}
		t = fmt.Sprintf("VARCHAR(%d)", length)
	case dbal.Text, dbal.LongText, dbal.JSON:
		t = "TEXT"
	case dbal.Int:
		t = "INTEGER"
	case dbal.BigInt:
		t = "BIGINT"
	case dbal.Float:
		t = "DOUBLE PRECISION"
	case dbal.Bool:
		t = "BOOLEAN"
	case dbal.DateTime:
		t = "TIMESTAMP"
	default:
		t = "TEXT"
	}
	if !f.Nullable {
		t += " NOT NULL"
	}
	return t
}

// AddColumnDDL renders the column add, carrying the descriptor default so a
// NOT NULL column can land on a populated table in one statement.
func (d Dialect) AddColumnDDL(table string, f dbal.FieldDescriptor) string {
	ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, f.Name, d.ColumnDDL(f))
	if lit, ok := dbal.DDLDefault(f); ok {
		ddl += " DEFAULT " + lit
	}
	return ddl
}

// AlterColumnDDL changes only the column's type; PostgreSQL alters
// nullability through separate SET/DROP NOT NULL clauses, which schema
// maintenance does not need.
func (d Dialect) AlterColumnDDL(table string, f dbal.FieldDescriptor) string {
	bare := f
	bare.Nullable = true
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", table, f.Name, d.ColumnDDL(bare))
}

func (Dialect) RenameColumnDDL(table, oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", table, oldName, newName)
}

func (Dialect) CreateIndexDDL(table, column string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", table, column, table, column)
}

// IsDuplicateObject matches the SQLSTATEs PostgreSQL raises when a relation or
// column already exists (indexes are relations, so 42P07 covers both).
func (Dialect) IsDuplicateObject(err error) bool {
	var pe *pq.Error
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Code {
	case codeDuplicateTable, codeDuplicateColumn:
		return true
	}
	return false
}

// IsMissingColumn matches undefined_column, raised when a rename's source
// column is already gone.
func (Dialect) IsMissingColumn(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == codeUndefinedColumn
}

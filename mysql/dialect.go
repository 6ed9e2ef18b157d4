package mysql

import (
	"errors"
	"fmt"

	mysqldrv "github.com/go-sql-driver/mysql"

	"github.com/sharedcode/dbal"
)

// MySQL error numbers schema maintenance keys on.
const (
	errTableExists = 1050
	errBadField    = 1054
	errDupColumn   = 1060
	errDupKeyName  = 1061
)

// Dialect implements dbal.Dialect for MySQL.
type Dialect struct{}

func (Dialect) Name() string {
	return "mysql"
}

// Placeholder is position-independent on MySQL.
func (Dialect) Placeholder(int) string {
	return "?"
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
	case dbal.Text:
		t = "TEXT"
	case dbal.LongText, dbal.JSON:
		t = "LONGTEXT"
	case dbal.Int:
		t = "INT"
	case dbal.BigInt:
		t = "BIGINT"
	case dbal.Float:
		t = "DOUBLE"
	case dbal.Bool:
		t = "BOOL"
	case dbal.DateTime:
		t = "DATETIME"
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

func (d Dialect) AlterColumnDDL(table string, f dbal.FieldDescriptor) string {
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s", table, f.Name, d.ColumnDDL(f))
}

func (Dialect) RenameColumnDDL(table, oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", table, oldName, newName)
}

func (Dialect) CreateIndexDDL(table, column string) string {
	return fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s (%s)", table, column, table, column)
}

// IsDuplicateObject matches the error numbers MySQL raises when a table,
// column, or index already exists. MySQL has no ADD COLUMN IF NOT EXISTS, so
// schema maintenance relies on this to treat reruns as applied.
func (Dialect) IsDuplicateObject(err error) bool {
	var me *mysqldrv.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	switch me.Number {
	case errTableExists, errDupColumn, errDupKeyName:
		return true
	}
	return false
}

// IsMissingColumn matches ER_BAD_FIELD_ERROR, raised when a rename's source
// column is already gone.
func (Dialect) IsMissingColumn(err error) bool {
	var me *mysqldrv.MySQLError
	return errors.As(err, &me) && me.Number == errBadField
}

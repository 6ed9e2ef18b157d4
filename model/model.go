// Package model declares the platform's entity tables as field-descriptor
// schemas with matching Go structs and row scanners, and maintains the
// physical schema (table creation plus ordered column migrations). All data
// access goes through per-entity stores built on the generic store package.
package model

import (
	"database/sql"
	"time"

	"github.com/sharedcode/dbal"
)

var marshaler = dbal.NewMarshaler()

// Audit carries the timestamp columns every platform table shares. The epoch
// halves are milliseconds; the date halves are derived from them on every
// write.
type Audit struct {
	CreateTime int64
	CreateDate time.Time
	UpdateTime int64
	UpdateDate time.Time
}

// withBase appends the shared audit columns to an entity's own fields.
func withBase(fields []dbal.FieldDescriptor) []dbal.FieldDescriptor {
	return append(fields,
		dbal.FieldDescriptor{Name: "create_time", Type: dbal.BigInt, Nullable: true, Index: true},
		dbal.FieldDescriptor{Name: "create_date", Type: dbal.DateTime, Nullable: true, Index: true},
		dbal.FieldDescriptor{Name: "update_time", Type: dbal.BigInt, Nullable: true, Index: true},
		dbal.FieldDescriptor{Name: "update_date", Type: dbal.DateTime, Nullable: true, Index: true},
	)
}

// auditRow receives the audit columns during a scan; the columns are nullable
// on rows written before the platform stamped them.
type auditRow struct {
	createTime sql.NullInt64
	createDate sql.NullTime
	updateTime sql.NullInt64
	updateDate sql.NullTime
}

func (a *auditRow) dest() []any {
	return []any{&a.createTime, &a.createDate, &a.updateTime, &a.updateDate}
}

func (a *auditRow) value() Audit {
	return Audit{
		CreateTime: a.createTime.Int64,
		CreateDate: a.createDate.Time,
		UpdateTime: a.updateTime.Int64,
		UpdateDate: a.updateDate.Time,
	}
}

// decodeJSON fills into from a JSON text column; NULL and empty text decode
// to nil.
func decodeJSON(s sql.NullString, into *map[string]any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return marshaler.Unmarshal([]byte(s.String), into)
}

// Schemas returns every platform table, in creation order.
func Schemas() []*dbal.Schema {
	return []*dbal.Schema{
		TenantSchema,
		LLMFactorySchema,
		LLMSchema,
		TenantLLMSchema,
		TenantLangfuseSchema,
		KnowledgebaseSchema,
		DocumentSchema,
		FileSchema,
		File2DocumentSchema,
		TaskSchema,
		SearchSchema,
	}
}

// schemaFor resolves a table name against the declared schemas. Migrations
// reference their descriptors this way so the schema stays the single source
// of truth for column definitions.
func schemaFor(table string) *dbal.Schema {
	for _, s := range Schemas() {
		if s.Table == table {
			return s
		}
	}
	return nil
}

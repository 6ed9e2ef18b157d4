package model

import (
	"context"
	"fmt"
	log "log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sharedcode/dbal"
	"github.com/sharedcode/dbal/database"
)

// initLockTimeout bounds how long a starting node waits for another node's
// schema work to finish.
const initLockTimeout = 60 * time.Second

// createConcurrency caps how many CREATE TABLE statements run at once.
const createConcurrency = 4

// Init brings the physical schema up to date: it creates missing tables
// concurrently, then applies the ordered column migrations. The whole pass
// runs under the cross-process database_init lock so several starting nodes
// cannot race the DDL.
func Init(ctx context.Context, db *database.Database) error {
	return db.Locks().WithLock(ctx, "database_init", initLockTimeout, func(ctx context.Context) error {
		if err := createTables(ctx, db); err != nil {
			return err
		}
		return applyMigrations(ctx, db)
	})
}

// createTables attempts every table before reporting, so one broken table
// does not hide the state of the rest.
func createTables(ctx context.Context, db *database.Database) error {
	runner := dbal.NewTaskRunner(ctx, createConcurrency)
	var (
		mu     sync.Mutex
		failed []string
	)
	for _, schema := range Schemas() {
		runner.Go(func() error {
			if err := createTable(runner.GetContext(), db, schema); err != nil {
				log.Error(err.Error(), "table", schema.Table)
				mu.Lock()
				failed = append(failed, schema.Table)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := runner.Wait(); err != nil {
		return err
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return fmt.Errorf("create tables failed: %s", strings.Join(failed, ", "))
	}
	return nil
}

func createTable(ctx context.Context, db *database.Database, schema *dbal.Schema) error {
	d := db.Dialect()
	if _, err := db.SQL().ExecContext(ctx, schema.CreateTableDDL(d)); err != nil {
		return fmt.Errorf("create table %s: %w", schema.Table, err)
	}
	for _, ddl := range schema.IndexDDLs(d) {
		if _, err := db.SQL().ExecContext(ctx, ddl); err != nil {
			if d.IsDuplicateObject(err) {
				log.Debug("index already exists", "table", schema.Table)
				continue
			}
			return fmt.Errorf("create index on %s: %w", schema.Table, err)
		}
	}
	return nil
}

type migrationKind int

const (
	addColumn migrationKind = iota
	alterColumn
	renameColumn
)

// migration is one schema-evolution step. Adds and alters look their column
// descriptor up from the table's schema at apply time, so the declarations in
// this package stay the single source of truth for column definitions.
type migration struct {
	kind    migrationKind
	table   string
	column  string
	renamed string // renameColumn only: the previous column name
}

// migrations is the ordered evolution history. Every step is safe to re-run:
// adds skip on duplicate columns, renames skip when the source column is
// already gone.
func migrations() []migration {
	return []migration{
		{kind: addColumn, table: "file", column: "source_type"},
		{kind: addColumn, table: "tenant", column: "rerank_id"},
		{kind: alterColumn, table: "tenant_llm", column: "api_key"},
		{kind: addColumn, table: "tenant", column: "tts_id"},
		{kind: addColumn, table: "task", column: "retry_count"},
		{kind: addColumn, table: "tenant_llm", column: "max_tokens"},
		{kind: addColumn, table: "task", column: "digest"},
		{kind: addColumn, table: "task", column: "chunk_ids"},
		{kind: addColumn, table: "document", column: "meta_fields"},
		{kind: addColumn, table: "task", column: "task_type"},
		{kind: addColumn, table: "task", column: "priority"},
		{kind: addColumn, table: "llm", column: "is_tools"},
		{kind: renameColumn, table: "task", column: "process_duration", renamed: "process_duation"},
		{kind: renameColumn, table: "document", column: "process_duration", renamed: "process_duation"},
	}
}

func applyMigrations(ctx context.Context, db *database.Database) error {
	d := db.Dialect()
	for _, m := range migrations() {
		ddl, err := m.ddl(d)
		if err != nil {
			return err
		}
		if _, err := db.SQL().ExecContext(ctx, ddl); err != nil {
			if m.applied(d, err) {
				log.Debug("migration already applied", "table", m.table, "column", m.column)
				continue
			}
			return fmt.Errorf("migrate %s.%s: %w", m.table, m.column, err)
		}
		log.Debug("migration applied", "table", m.table, "column", m.column)
	}
	return nil
}

func (m migration) ddl(d dbal.Dialect) (string, error) {
	if m.kind == renameColumn {
		return d.RenameColumnDDL(m.table, m.renamed, m.column), nil
	}
	schema := schemaFor(m.table)
	if schema == nil {
		return "", fmt.Errorf("migration references unknown table %s", m.table)
	}
	f, ok := schema.Field(m.column)
	if !ok {
		return "", fmt.Errorf("migration references unknown column %s.%s", m.table, m.column)
	}
	switch m.kind {
	case addColumn:
		return d.AddColumnDDL(m.table, f), nil
	case alterColumn:
		return d.AlterColumnDDL(m.table, f), nil
	}
	return "", fmt.Errorf("unknown migration kind %d", m.kind)
}

// applied reports whether err means a past run already performed this step.
func (m migration) applied(d dbal.Dialect, err error) bool {
	switch m.kind {
	case addColumn:
		return d.IsDuplicateObject(err)
	case renameColumn:
		// Source column gone, or target already present: either way a past
		// run did the rename.
		return d.IsMissingColumn(err) || d.IsDuplicateObject(err)
	}
	return false
}

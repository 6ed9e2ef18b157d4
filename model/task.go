package model

import (
	"database/sql"

	"github.com/sharedcode/dbal"
	"github.com/sharedcode/dbal/database"
	"github.com/sharedcode/dbal/store"
)

// TaskSchema is the task table: one chunking/indexing work item over a page
// range of a document.
var TaskSchema = dbal.NewSchema("task", withBase([]dbal.FieldDescriptor{
	{Name: "id", Type: dbal.Char, Length: 32, PrimaryKey: true},
	{Name: "doc_id", Type: dbal.Char, Length: 32, Index: true},
	{Name: "from_page", Type: dbal.Int, Default: 0},
	{Name: "to_page", Type: dbal.Int, Default: 100000000},
	{Name: "task_type", Type: dbal.Char, Length: 32, Default: ""},
	{Name: "priority", Type: dbal.Int, Default: 0},
	{Name: "begin_at", Type: dbal.DateTime, Nullable: true, Index: true},
	{Name: "process_duration", Type: dbal.Float, Default: 0},
	{Name: "progress", Type: dbal.Float, Default: 0, Index: true},
	{Name: "progress_msg", Type: dbal.Text, Nullable: true, Default: ""},
	{Name: "retry_count", Type: dbal.Int, Default: 0},
	{Name: "digest", Type: dbal.Text, Nullable: true, Default: ""},
	{Name: "chunk_ids", Type: dbal.LongText, Nullable: true, Default: ""},
}))

// Task is one processing work item. Digest deduplicates re-runs of the same
// page range; ChunkIDs records what a finished run produced.
type Task struct {
	ID              string
	DocID           string
	FromPage        int64
	ToPage          int64
	TaskType        string
	Priority        int64
	BeginAt         sql.NullTime
	ProcessDuration float64
	Progress        float64
	ProgressMsg     string
	RetryCount      int64
	Digest          string
	ChunkIDs        string
	Audit
}

func scanTask(rows *sql.Rows) (Task, error) {
	var t Task
	var progressMsg, digest, chunkIDs sql.NullString
	var audit auditRow
	dest := []any{
		&t.ID, &t.DocID, &t.FromPage, &t.ToPage, &t.TaskType, &t.Priority,
		&t.BeginAt, &t.ProcessDuration, &t.Progress, &progressMsg,
		&t.RetryCount, &digest, &chunkIDs,
	}
	dest = append(dest, audit.dest()...)
	if err := rows.Scan(dest...); err != nil {
		return Task{}, err
	}
	t.ProgressMsg = progressMsg.String
	t.Digest = digest.String
	t.ChunkIDs = chunkIDs.String
	t.Audit = audit.value()
	return t, nil
}

// Tasks returns the task table store.
func Tasks(db *database.Database) *store.Store[Task] {
	return store.New(db, TaskSchema, scanTask)
}

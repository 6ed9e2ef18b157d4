package model

import (
	"database/sql"

	"github.com/sharedcode/dbal"
	"github.com/sharedcode/dbal/database"
	"github.com/sharedcode/dbal/store"
)

// DocumentSchema is the document table: one ingested document and its
// processing state. Run is "1" to process, "2" to cancel.
var DocumentSchema = dbal.NewSchema("document", withBase([]dbal.FieldDescriptor{
	{Name: "id", Type: dbal.Char, Length: 32, PrimaryKey: true},
	{Name: "kb_id", Type: dbal.Char, Length: 256, Index: true},
	{Name: "parser_id", Type: dbal.Char, Length: 32, Index: true},
	{Name: "parser_config", Type: dbal.JSON, Default: defaultParserConfig},
	{Name: "source_type", Type: dbal.Char, Length: 128, Default: "local", Index: true},
	{Name: "type", Type: dbal.Char, Length: 32, Index: true},
	{Name: "created_by", Type: dbal.Char, Length: 32, Index: true},
	{Name: "name", Type: dbal.Char, Length: 255, Nullable: true, Index: true},
	{Name: "location", Type: dbal.Char, Length: 255, Nullable: true, Index: true},
	{Name: "size", Type: dbal.Int, Default: 0, Index: true},
	{Name: "chunk_num", Type: dbal.Int, Default: 0, Index: true},
	{Name: "progress", Type: dbal.Float, Default: 0, Index: true},
	{Name: "progress_msg", Type: dbal.Text, Nullable: true, Default: ""},
	{Name: "process_begin_at", Type: dbal.DateTime, Nullable: true, Index: true},
	{Name: "process_duration", Type: dbal.Float, Default: 0},
	{Name: "meta_fields", Type: dbal.JSON, Nullable: true, Default: "{}"},
	{Name: "run", Type: dbal.Char, Length: 1, Nullable: true, Default: "0", Index: true},
	{Name: "status", Type: dbal.Char, Length: 1, Nullable: true, Default: "1", Index: true},
}))

// Document is one ingested document.
type Document struct {
	ID              string
	KBID            string
	ParserID        string
	ParserConfig    map[string]any
	SourceType      string
	Type            string
	CreatedBy       string
	Name            string
	Location        string
	Size            int64
	ChunkNum        int64
	Progress        float64
	ProgressMsg     string
	ProcessBeginAt  sql.NullTime
	ProcessDuration float64
	MetaFields      map[string]any
	Run             string
	Status          string
	Audit
}

func scanDocument(rows *sql.Rows) (Document, error) {
	var d Document
	var parserConfig, metaFields, name, location, progressMsg, run, status sql.NullString
	var audit auditRow
	dest := []any{
		&d.ID, &d.KBID, &d.ParserID, &parserConfig, &d.SourceType, &d.Type,
		&d.CreatedBy, &name, &location, &d.Size, &d.ChunkNum, &d.Progress,
		&progressMsg, &d.ProcessBeginAt, &d.ProcessDuration, &metaFields,
		&run, &status,
	}
	dest = append(dest, audit.dest()...)
	if err := rows.Scan(dest...); err != nil {
		return Document{}, err
	}
	if err := decodeJSON(parserConfig, &d.ParserConfig); err != nil {
		return Document{}, err
	}
	if err := decodeJSON(metaFields, &d.MetaFields); err != nil {
		return Document{}, err
	}
	d.Name = name.String
	d.Location = location.String
	d.ProgressMsg = progressMsg.String
	d.Run = run.String
	d.Status = status.String
	d.Audit = audit.value()
	return d, nil
}

// Documents returns the document table store.
func Documents(db *database.Database) *store.Store[Document] {
	return store.New(db, DocumentSchema, scanDocument)
}

// FileSchema is the file table: the tenant-visible file tree, folders
// included.
var FileSchema = dbal.NewSchema("file", withBase([]dbal.FieldDescriptor{
	{Name: "id", Type: dbal.Char, Length: 32, PrimaryKey: true},
	{Name: "parent_id", Type: dbal.Char, Length: 32, Index: true},
	{Name: "user_id", Type: dbal.Char, Length: 32, Index: true},
	{Name: "created_by", Type: dbal.Char, Length: 32, Index: true},
	{Name: "name", Type: dbal.Char, Length: 255, Index: true},
	{Name: "location", Type: dbal.Char, Length: 255, Nullable: true, Index: true},
	{Name: "size", Type: dbal.Int, Default: 0, Index: true},
	{Name: "type", Type: dbal.Char, Length: 32, Index: true},
	{Name: "source_type", Type: dbal.Char, Length: 128, Default: "", Index: true},
}))

// File is one node of the file tree.
type File struct {
	ID         string
	ParentID   string
	UserID     string
	CreatedBy  string
	Name       string
	Location   string
	Size       int64
	Type       string
	SourceType string
	Audit
}

func scanFile(rows *sql.Rows) (File, error) {
	var f File
	var location sql.NullString
	var audit auditRow
	dest := []any{
		&f.ID, &f.ParentID, &f.UserID, &f.CreatedBy, &f.Name, &location,
		&f.Size, &f.Type, &f.SourceType,
	}
	dest = append(dest, audit.dest()...)
	if err := rows.Scan(dest...); err != nil {
		return File{}, err
	}
	f.Location = location.String
	f.Audit = audit.value()
	return f, nil
}

// Files returns the file table store.
func Files(db *database.Database) *store.Store[File] {
	return store.New(db, FileSchema, scanFile)
}

// File2DocumentSchema is the file2document table linking file-tree nodes to
// the documents built from them.
var File2DocumentSchema = dbal.NewSchema("file2document", withBase([]dbal.FieldDescriptor{
	{Name: "id", Type: dbal.Char, Length: 32, PrimaryKey: true},
	{Name: "file_id", Type: dbal.Char, Length: 32, Nullable: true, Index: true},
	{Name: "document_id", Type: dbal.Char, Length: 32, Nullable: true, Index: true},
}))

// File2Document links one file to one document.
type File2Document struct {
	ID         string
	FileID     string
	DocumentID string
	Audit
}

func scanFile2Document(rows *sql.Rows) (File2Document, error) {
	var fd File2Document
	var fileID, documentID sql.NullString
	var audit auditRow
	dest := []any{&fd.ID, &fileID, &documentID}
	dest = append(dest, audit.dest()...)
	if err := rows.Scan(dest...); err != nil {
		return File2Document{}, err
	}
	fd.FileID = fileID.String
	fd.DocumentID = documentID.String
	fd.Audit = audit.value()
	return fd, nil
}

// File2Documents returns the file2document table store.
func File2Documents(db *database.Database) *store.Store[File2Document] {
	return store.New(db, File2DocumentSchema, scanFile2Document)
}

package model

import (
	"database/sql"

	"github.com/sharedcode/dbal"
	"github.com/sharedcode/dbal/database"
	"github.com/sharedcode/dbal/store"
)

// defaultParserConfig is the parser configuration new knowledge bases and
// documents start with, stored pre-encoded.
const defaultParserConfig = `{"pages": [[1, 1000000]]}`

// KnowledgebaseSchema is the knowledgebase table: one tenant-owned document
// collection with its parsing and embedding defaults.
var KnowledgebaseSchema = dbal.NewSchema("knowledgebase", withBase([]dbal.FieldDescriptor{
	{Name: "id", Type: dbal.Char, Length: 32, PrimaryKey: true},
	{Name: "user_id", Type: dbal.Char, Length: 32, Index: true},
	{Name: "name", Type: dbal.Char, Length: 128, Index: true},
	{Name: "language", Type: dbal.Char, Length: 32, Nullable: true, Default: "English", Index: true},
	{Name: "description", Type: dbal.Text, Nullable: true},
	{Name: "embd_id", Type: dbal.Char, Length: 128, Index: true},
	{Name: "permission", Type: dbal.Char, Length: 16, Default: "me", Index: true},
	{Name: "doc_num", Type: dbal.Int, Default: 0, Index: true},
	{Name: "chunk_num", Type: dbal.Int, Default: 0, Index: true},
	{Name: "parser_id", Type: dbal.Char, Length: 32, Default: "naive", Index: true},
	{Name: "parser_config", Type: dbal.JSON, Default: defaultParserConfig},
	{Name: "status", Type: dbal.Char, Length: 1, Nullable: true, Default: "1", Index: true},
	{Name: "created_by", Type: dbal.Char, Length: 32, Index: true},
}))

// Knowledgebase is one document collection. Permission is "me" or "team".
type Knowledgebase struct {
	ID           string
	UserID       string
	Name         string
	Language     string
	Description  string
	EmbdID       string
	Permission   string
	DocNum       int64
	ChunkNum     int64
	ParserID     string
	ParserConfig map[string]any
	Status       string
	CreatedBy    string
	Audit
}

func scanKnowledgebase(rows *sql.Rows) (Knowledgebase, error) {
	var k Knowledgebase
	var language, description, status, parserConfig sql.NullString
	var audit auditRow
	dest := []any{
		&k.ID, &k.UserID, &k.Name, &language, &description, &k.EmbdID,
		&k.Permission, &k.DocNum, &k.ChunkNum, &k.ParserID, &parserConfig,
		&status, &k.CreatedBy,
	}
	dest = append(dest, audit.dest()...)
	if err := rows.Scan(dest...); err != nil {
		return Knowledgebase{}, err
	}
	if err := decodeJSON(parserConfig, &k.ParserConfig); err != nil {
		return Knowledgebase{}, err
	}
	k.Language = language.String
	k.Description = description.String
	k.Status = status.String
	k.Audit = audit.value()
	return k, nil
}

// Knowledgebases returns the knowledgebase table store.
func Knowledgebases(db *database.Database) *store.Store[Knowledgebase] {
	return store.New(db, KnowledgebaseSchema, scanKnowledgebase)
}

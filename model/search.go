package model

import (
	"database/sql"

	"github.com/sharedcode/dbal"
	"github.com/sharedcode/dbal/database"
	"github.com/sharedcode/dbal/store"
)

// defaultSearchConfig is the retrieval and chat configuration new searches
// start with, stored pre-encoded.
const defaultSearchConfig = `{
	"kb_ids": [],
	"doc_ids": [],
	"similarity_threshold": 0.0,
	"vector_similarity_weight": 0.3,
	"use_kg": false,
	"rerank_id": "",
	"top_k": 1024,
	"summary": false,
	"chat_id": "",
	"llm_setting": {"temperature": 0.1, "top_p": 0.3, "frequency_penalty": 0.7, "presence_penalty": 0.4},
	"chat_settingcross_languages": [],
	"highlight": false,
	"keyword": false,
	"web_search": false,
	"related_search": false,
	"query_mindmap": false
}`

// SearchSchema is the search table: one tenant-owned retrieval app spanning a
// set of knowledge bases.
var SearchSchema = dbal.NewSchema("search", withBase([]dbal.FieldDescriptor{
	{Name: "id", Type: dbal.Char, Length: 32, PrimaryKey: true},
	{Name: "avatar", Type: dbal.Text, Nullable: true},
	{Name: "tenant_id", Type: dbal.Char, Length: 32, Index: true},
	{Name: "name", Type: dbal.Char, Length: 128, Index: true},
	{Name: "description", Type: dbal.Text, Nullable: true},
	{Name: "created_by", Type: dbal.Char, Length: 32, Index: true},
	{Name: "search_config", Type: dbal.JSON, Default: defaultSearchConfig},
	{Name: "status", Type: dbal.Char, Length: 1, Nullable: true, Default: "1", Index: true},
}))

// Search is one saved retrieval app: the knowledge bases it spans and the
// retrieval, rerank, and chat settings it applies. Avatar is a base64 image.
type Search struct {
	ID           string
	Avatar       string
	TenantID     string
	Name         string
	Description  string
	CreatedBy    string
	SearchConfig map[string]any
	Status       string
	Audit
}

func scanSearch(rows *sql.Rows) (Search, error) {
	var s Search
	var avatar, description, searchConfig, status sql.NullString
	var audit auditRow
	dest := []any{
		&s.ID, &avatar, &s.TenantID, &s.Name, &description, &s.CreatedBy,
		&searchConfig, &status,
	}
	dest = append(dest, audit.dest()...)
	if err := rows.Scan(dest...); err != nil {
		return Search{}, err
	}
	if err := decodeJSON(searchConfig, &s.SearchConfig); err != nil {
		return Search{}, err
	}
	s.Avatar = avatar.String
	s.Description = description.String
	s.Status = status.String
	s.Audit = audit.value()
	return s, nil
}

// Searches returns the search table store.
func Searches(db *database.Database) *store.Store[Search] {
	return store.New(db, SearchSchema, scanSearch)
}

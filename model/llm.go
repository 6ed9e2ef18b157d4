package model

import (
	"database/sql"

	"github.com/sharedcode/dbal"
	"github.com/sharedcode/dbal/database"
	"github.com/sharedcode/dbal/store"
)

// LLMFactorySchema is the llm_factories table: the model providers the
// platform knows about, keyed by provider name.
var LLMFactorySchema = dbal.NewSchema("llm_factories", withBase([]dbal.FieldDescriptor{
	{Name: "name", Type: dbal.Char, Length: 128, PrimaryKey: true},
	{Name: "logo", Type: dbal.Text, Nullable: true},
	{Name: "tags", Type: dbal.Char, Length: 255, Index: true},
	{Name: "status", Type: dbal.Char, Length: 1, Nullable: true, Default: "1", Index: true},
}))

// LLMFactory is one model provider.
type LLMFactory struct {
	Name   string
	Logo   string
	Tags   string
	Status string
	Audit
}

func scanLLMFactory(rows *sql.Rows) (LLMFactory, error) {
	var f LLMFactory
	var logo, status sql.NullString
	var audit auditRow
	dest := []any{&f.Name, &logo, &f.Tags, &status}
	dest = append(dest, audit.dest()...)
	if err := rows.Scan(dest...); err != nil {
		return LLMFactory{}, err
	}
	f.Logo = logo.String
	f.Status = status.String
	f.Audit = audit.value()
	return f, nil
}

// LLMFactories returns the llm_factories table store.
func LLMFactories(db *database.Database) *store.Store[LLMFactory] {
	return store.New(db, LLMFactorySchema, scanLLMFactory)
}

// LLMSchema is the llm table: the model catalog, keyed by provider plus
// model name.
var LLMSchema = dbal.NewSchema("llm", withBase([]dbal.FieldDescriptor{
	{Name: "fid", Type: dbal.Char, Length: 128, PrimaryKey: true},
	{Name: "llm_name", Type: dbal.Char, Length: 128, PrimaryKey: true},
	{Name: "model_type", Type: dbal.Char, Length: 128, Index: true},
	{Name: "max_tokens", Type: dbal.Int, Default: 0},
	{Name: "tags", Type: dbal.Char, Length: 255, Index: true},
	{Name: "is_tools", Type: dbal.Bool, Default: false},
	{Name: "status", Type: dbal.Char, Length: 1, Nullable: true, Default: "1", Index: true},
}))

// LLM is one catalog model. ModelType holds the capability category string;
// IsTools marks tool-call support.
type LLM struct {
	FID       string
	LLMName   string
	ModelType string
	MaxTokens int64
	Tags      string
	IsTools   bool
	Status    string
	Audit
}

func scanLLM(rows *sql.Rows) (LLM, error) {
	var m LLM
	var status sql.NullString
	var isTools sql.NullBool
	var audit auditRow
	dest := []any{&m.FID, &m.LLMName, &m.ModelType, &m.MaxTokens, &m.Tags, &isTools, &status}
	dest = append(dest, audit.dest()...)
	if err := rows.Scan(dest...); err != nil {
		return LLM{}, err
	}
	m.IsTools = isTools.Bool
	m.Status = status.String
	m.Audit = audit.value()
	return m, nil
}

// LLMs returns the llm table store.
func LLMs(db *database.Database) *store.Store[LLM] {
	return store.New(db, LLMSchema, scanLLM)
}

// TenantLLMSchema is the tenant_llm table: one tenant's credentials and
// usage for one provider model.
var TenantLLMSchema = dbal.NewSchema("tenant_llm", withBase([]dbal.FieldDescriptor{
	{Name: "tenant_id", Type: dbal.Char, Length: 32, PrimaryKey: true},
	{Name: "llm_factory", Type: dbal.Char, Length: 128, PrimaryKey: true},
	{Name: "llm_name", Type: dbal.Char, Length: 128, Default: "", PrimaryKey: true},
	{Name: "model_type", Type: dbal.Char, Length: 128, Nullable: true, Index: true},
	{Name: "api_key", Type: dbal.Char, Length: 2048, Nullable: true, Index: true},
	{Name: "api_base", Type: dbal.Char, Length: 255, Nullable: true},
	{Name: "max_tokens", Type: dbal.Int, Default: 8192, Index: true},
	{Name: "used_tokens", Type: dbal.Int, Default: 0, Index: true},
}))

// TenantLLM binds a tenant to one configured model with its API credentials.
type TenantLLM struct {
	TenantID   string
	LLMFactory string
	LLMName    string
	ModelType  string
	APIKey     string
	APIBase    string
	MaxTokens  int64
	UsedTokens int64
	Audit
}

func scanTenantLLM(rows *sql.Rows) (TenantLLM, error) {
	var m TenantLLM
	var modelType, apiKey, apiBase sql.NullString
	var audit auditRow
	dest := []any{&m.TenantID, &m.LLMFactory, &m.LLMName, &modelType, &apiKey, &apiBase, &m.MaxTokens, &m.UsedTokens}
	dest = append(dest, audit.dest()...)
	if err := rows.Scan(dest...); err != nil {
		return TenantLLM{}, err
	}
	m.ModelType = modelType.String
	m.APIKey = apiKey.String
	m.APIBase = apiBase.String
	m.Audit = audit.value()
	return m, nil
}

// TenantLLMs returns the tenant_llm table store.
func TenantLLMs(db *database.Database) *store.Store[TenantLLM] {
	return store.New(db, TenantLLMSchema, scanTenantLLM)
}

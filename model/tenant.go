package model

import (
	"database/sql"

	"github.com/sharedcode/dbal"
	"github.com/sharedcode/dbal/database"
	"github.com/sharedcode/dbal/store"
)

// TenantSchema is the tenant table: one platform account and its default
// model bindings per capability.
var TenantSchema = dbal.NewSchema("tenant", withBase([]dbal.FieldDescriptor{
	{Name: "id", Type: dbal.Char, Length: 32, PrimaryKey: true},
	{Name: "name", Type: dbal.Char, Length: 100, Nullable: true, Index: true},
	{Name: "public_key", Type: dbal.Char, Length: 255, Nullable: true, Index: true},
	{Name: "llm_id", Type: dbal.Char, Length: 128, Index: true},
	{Name: "embd_id", Type: dbal.Char, Length: 128, Index: true},
	{Name: "asr_id", Type: dbal.Char, Length: 128, Index: true},
	{Name: "img2txt_id", Type: dbal.Char, Length: 128, Index: true},
	{Name: "rerank_id", Type: dbal.Char, Length: 128, Default: "BAAI/bge-reranker-v2-m3", Index: true},
	{Name: "tts_id", Type: dbal.Char, Length: 256, Nullable: true, Index: true},
	{Name: "parser_ids", Type: dbal.Char, Length: 256, Index: true},
	{Name: "credit", Type: dbal.Int, Default: 512, Index: true},
	{Name: "status", Type: dbal.Char, Length: 1, Nullable: true, Default: "1", Index: true},
}))

// Tenant is one platform account. The *_id columns name the tenant's default
// model for each capability; Status "1" means active.
type Tenant struct {
	ID        string
	Name      string
	PublicKey string
	LLMID     string
	EmbdID    string
	ASRID     string
	Img2TxtID string
	RerankID  string
	TTSID     string
	ParserIDs string
	Credit    int64
	Status    string
	Audit
}

func scanTenant(rows *sql.Rows) (Tenant, error) {
	var t Tenant
	var name, publicKey, ttsID, status sql.NullString
	var audit auditRow
	dest := []any{
		&t.ID, &name, &publicKey, &t.LLMID, &t.EmbdID, &t.ASRID, &t.Img2TxtID,
		&t.RerankID, &ttsID, &t.ParserIDs, &t.Credit, &status,
	}
	dest = append(dest, audit.dest()...)
	if err := rows.Scan(dest...); err != nil {
		return Tenant{}, err
	}
	t.Name = name.String
	t.PublicKey = publicKey.String
	t.TTSID = ttsID.String
	t.Status = status.String
	t.Audit = audit.value()
	return t, nil
}

// Tenants returns the tenant table store.
func Tenants(db *database.Database) *store.Store[Tenant] {
	return store.New(db, TenantSchema, scanTenant)
}

// TenantLangfuseSchema is the tenant_langfuse table: one tenant's Langfuse
// observability credentials and endpoint.
var TenantLangfuseSchema = dbal.NewSchema("tenant_langfuse", withBase([]dbal.FieldDescriptor{
	{Name: "tenant_id", Type: dbal.Char, Length: 32, PrimaryKey: true},
	{Name: "secret_key", Type: dbal.Char, Length: 2048, Index: true},
	{Name: "public_key", Type: dbal.Char, Length: 2048, Index: true},
	{Name: "host", Type: dbal.Char, Length: 128, Index: true},
}))

// TenantLangfuse holds the Langfuse key pair a tenant traces its model calls
// with. At most one row per tenant.
type TenantLangfuse struct {
	TenantID  string
	SecretKey string
	PublicKey string
	Host      string
	Audit
}

func scanTenantLangfuse(rows *sql.Rows) (TenantLangfuse, error) {
	var t TenantLangfuse
	var audit auditRow
	dest := []any{&t.TenantID, &t.SecretKey, &t.PublicKey, &t.Host}
	dest = append(dest, audit.dest()...)
	if err := rows.Scan(dest...); err != nil {
		return TenantLangfuse{}, err
	}
	t.Audit = audit.value()
	return t, nil
}

// TenantLangfuses returns the tenant_langfuse table store.
func TenantLangfuses(db *database.Database) *store.Store[TenantLangfuse] {
	return store.New(db, TenantLangfuseSchema, scanTenantLangfuse)
}

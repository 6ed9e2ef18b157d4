// Package postgres implements the PostgreSQL backend: pooled connections, the
// SQL dialect, and named locks over session advisory locks.
package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // registers the "postgres" driver

	"github.com/sharedcode/dbal"
)

// DSN renders the key/value connection string for the configured database.
func DSN(options dbal.DatabaseOptions) string {
	kv := []string{
		fmt.Sprintf("host=%s", options.Host),
		fmt.Sprintf("port=%d", options.Port),
		fmt.Sprintf("user=%s", quote(options.User)),
		fmt.Sprintf("dbname=%s", quote(options.Name)),
		fmt.Sprintf("sslmode=%s", options.SSLMode),
	}
	if options.Password != "" {
		kv = append(kv, fmt.Sprintf("password=%s", quote(options.Password)))
	}
	return strings.Join(kv, " ")
}

// quote wraps a DSN value in single quotes when it contains characters the
// key/value form cannot carry bare.
func quote(v string) string {
	if !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Open opens a pooled PostgreSQL connection with the configured pool limits.
// Connections are created lazily; use PingContext to verify reachability.
func Open(options dbal.DatabaseOptions) (*sql.DB, error) {
	db, err := sql.Open("postgres", DSN(options))
	if err != nil {
		return nil, fmt.Errorf("open postgres database %s: %w", options.Name, err)
	}
	db.SetMaxOpenConns(options.MaxOpenConns)
	db.SetMaxIdleConns(options.MaxIdleConns)
	db.SetConnMaxIdleTime(options.ConnMaxIdleTime())
	db.SetConnMaxLifetime(options.ConnMaxLifetime())
	return db, nil
}

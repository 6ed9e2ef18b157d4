// Package mysql implements the MySQL backend: pooled connections, the SQL
// dialect, and named locks over GET_LOCK/RELEASE_LOCK.
package mysql

import (
	"database/sql"
	"fmt"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"github.com/sharedcode/dbal"
)

// DSN renders the driver connection string for the configured database.
// ParseTime is always on so DATETIME columns scan into time.Time.
func DSN(options dbal.DatabaseOptions) string {
	cfg := mysqldrv.NewConfig()
	cfg.User = options.User
	cfg.Passwd = options.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", options.Host, options.Port)
	cfg.DBName = options.Name
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// Open opens a pooled MySQL connection with the configured pool limits.
// Connections are created lazily; use PingContext to verify reachability.
func Open(options dbal.DatabaseOptions) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(options))
	if err != nil {
		return nil, fmt.Errorf("open mysql database %s: %w", options.Name, err)
	}
	db.SetMaxOpenConns(options.MaxOpenConns)
	db.SetMaxIdleConns(options.MaxIdleConns)
	db.SetConnMaxIdleTime(options.ConnMaxIdleTime())
	db.SetConnMaxLifetime(options.ConnMaxLifetime())
	return db, nil
}

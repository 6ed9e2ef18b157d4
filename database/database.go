// Package database opens the configured engine and bundles everything the
// data layer needs from it: the connection pool, the engine dialect, and a
// lock manager fitting the deployment mode.
package database

import (
	"context"
	"database/sql"
	"fmt"
	log "log/slog"

	"github.com/sharedcode/dbal"
	"github.com/sharedcode/dbal/mysql"
	"github.com/sharedcode/dbal/postgres"
	"github.com/sharedcode/dbal/redis"
)

// Database is one configured database with its dialect and lock manager.
type Database struct {
	sqlDB   *sql.DB
	dialect dbal.Dialect
	locks   *dbal.LockManager
	options dbal.DatabaseOptions

	ownsRedis bool
}

// Open connects per options. The pool connects lazily; call Ping to verify
// the server is actually reachable.
func Open(ctx context.Context, options dbal.DatabaseOptions) (*Database, error) {
	options.ApplyDefaults()

	var (
		sqlDB   *sql.DB
		dialect dbal.Dialect
		err     error
	)
	switch options.Driver {
	case "mysql":
		sqlDB, err = mysql.Open(options)
		dialect = mysql.Dialect{}
	case "postgres":
		sqlDB, err = postgres.Open(options)
		dialect = postgres.Dialect{}
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", options.Driver)
	}
	if err != nil {
		return nil, err
	}

	db := &Database{
		sqlDB:   sqlDB,
		dialect: dialect,
		options: options,
	}
	backend, err := db.newLockBackend(ctx, options)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	db.locks = dbal.NewLockManagerWithPolicy(backend, options.RetryPolicyOrDefault())

	log.Debug("database opened", "driver", options.Driver, "name", options.Name, "type", options.Type.String(), "dbal", dbal.Version)
	return db, nil
}

// New wraps an existing pool with an explicit dialect and lock manager.
// Open is the usual entry point; New serves callers that manage their own
// pool. A nil locks gets a no-op manager.
func New(sqlDB *sql.DB, dialect dbal.Dialect, locks *dbal.LockManager, options dbal.DatabaseOptions) *Database {
	if locks == nil {
		locks = dbal.NewLockManager(dbal.NewNoopLockBackend())
	}
	return &Database{
		sqlDB:   sqlDB,
		dialect: dialect,
		locks:   locks,
		options: options,
	}
}

// newLockBackend selects the lock backend for the deployment mode. Standalone
// deployments do not coordinate and get the no-op backend regardless of the
// configured provider.
func (db *Database) newLockBackend(ctx context.Context, options dbal.DatabaseOptions) (dbal.LockBackend, error) {
	if options.Type == dbal.Standalone {
		return dbal.NewNoopLockBackend(), nil
	}
	switch options.LockBackend {
	case "", "database":
		if options.Driver == "postgres" {
			return postgres.NewLockBackend(db.sqlDB), nil
		}
		return mysql.NewLockBackend(db.sqlDB), nil
	case "redis":
		if options.RedisConfig == nil {
			return nil, fmt.Errorf("lock backend 'redis' requires redis configuration")
		}
		// Close the shared connection only if this open created it.
		owns := !redis.IsConnectionInstantiated()
		if _, err := redis.OpenConnection(redis.ToOptions(*options.RedisConfig)); err != nil {
			return nil, err
		}
		cache := redis.NewClient()
		if err := cache.Ping(ctx); err != nil {
			if owns {
				_ = redis.CloseConnection()
			}
			return nil, fmt.Errorf("redis lock backend: %w", err)
		}
		db.ownsRedis = owns
		return redis.NewLockBackend(cache, redis.DefaultLockTTL), nil
	default:
		return nil, fmt.Errorf("unsupported lock backend '%s'", options.LockBackend)
	}
}

// SQL returns the underlying connection pool.
func (db *Database) SQL() *sql.DB {
	return db.sqlDB
}

// Dialect returns the engine dialect the database was opened with.
func (db *Database) Dialect() dbal.Dialect {
	return db.dialect
}

// Locks returns the lock manager for this deployment.
func (db *Database) Locks() *dbal.LockManager {
	return db.locks
}

// Options returns the configuration the database was opened with.
func (db *Database) Options() dbal.DatabaseOptions {
	return db.options
}

// Ping verifies the database is reachable.
func (db *Database) Ping(ctx context.Context) error {
	return db.sqlDB.PingContext(ctx)
}

// Close releases the pool and, when this database opened it, the shared
// Redis connection.
func (db *Database) Close() error {
	var err error
	if db.sqlDB != nil {
		err = db.sqlDB.Close()
	}
	if db.ownsRedis {
		if cerr := redis.CloseConnection(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

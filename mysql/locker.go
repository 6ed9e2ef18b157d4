package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sharedcode/dbal"
)

// LockBackend implements dbal.LockBackend on MySQL named locks. GET_LOCK ties
// a lock to the session that ran it, so every acquired lock pins one pool
// connection until release; the server frees the lock on its own if that
// session dies with the process.
type LockBackend struct {
	db *sql.DB

	mu    sync.Mutex
	conns map[string]*sql.Conn
}

// NewLockBackend wraps an open connection pool.
func NewLockBackend(db *sql.DB) *LockBackend {
	return &LockBackend{
		db:    db,
		conns: make(map[string]*sql.Conn),
	}
}

// Acquire runs GET_LOCK(name, timeout) on a dedicated connection. The server
// waits up to the timeout (rounded up to whole seconds) for the holder to
// release; the caller's context still cancels the wait early. Return value
// mapping: 1 acquired, 0 timed out waiting, NULL server-side error.
func (b *LockBackend) Acquire(ctx context.Context, name string, timeout time.Duration) error {
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return dbal.Error{
			Code:     dbal.LockAcquisitionFailure,
			Err:      fmt.Errorf("acquire mysql lock %s: %w", name, err),
			UserData: name,
		}
	}
	secs := int64((timeout + time.Second - 1) / time.Second)
	var ret sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", name, secs).Scan(&ret); err != nil {
		conn.Close()
		return dbal.Error{
			Code:     dbal.LockAcquisitionFailure,
			Err:      fmt.Errorf("acquire mysql lock %s: %w", name, err),
			UserData: name,
		}
	}
	switch {
	case ret.Valid && ret.Int64 == 1:
		b.mu.Lock()
		b.conns[name] = conn
		b.mu.Unlock()
		return nil
	case ret.Valid && ret.Int64 == 0:
		conn.Close()
		return dbal.Error{
			Code:     dbal.LockTimeout,
			Err:      fmt.Errorf("acquire mysql lock %s timeout", name),
			UserData: name,
		}
	default:
		conn.Close()
		// NULL: running out of memory, thread killed, or similar server error.
		return dbal.Error{
			Code:     dbal.LockAcquisitionFailure,
			Err:      fmt.Errorf("failed to acquire mysql lock %s", name),
			UserData: name,
		}
	}
}

// Release runs RELEASE_LOCK(name) on the session holding the lock and returns
// that connection to the pool. Without a pinned session the statement runs on
// any pool connection so the server still reports the lock's state. Return
// value mapping: 1 released, 0 held by another session, NULL no such lock.
func (b *LockBackend) Release(ctx context.Context, name string) error {
	b.mu.Lock()
	conn := b.conns[name]
	delete(b.conns, name)
	b.mu.Unlock()

	var ret sql.NullInt64
	var err error
	if conn != nil {
		defer conn.Close()
		err = conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", name).Scan(&ret)
	} else {
		err = b.db.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", name).Scan(&ret)
	}
	if err != nil {
		return dbal.Error{
			Code:     dbal.Unknown,
			Err:      fmt.Errorf("release mysql lock %s: %w", name, err),
			UserData: name,
		}
	}
	switch {
	case ret.Valid && ret.Int64 == 1:
		return nil
	case ret.Valid && ret.Int64 == 0:
		return dbal.Error{
			Code:     dbal.LockNotOwned,
			Err:      fmt.Errorf("mysql lock %s was not established by this session", name),
			UserData: name,
		}
	default:
		return dbal.Error{
			Code:     dbal.LockNotFound,
			Err:      fmt.Errorf("mysql lock %s does not exist", name),
			UserData: name,
		}
	}
}

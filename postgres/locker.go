package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sharedcode/dbal"
)

// LockBackend implements dbal.LockBackend on PostgreSQL session advisory
// locks. Lock names map to advisory keys with dbal.HashLockID, memoized per
// name. A session advisory lock belongs to the connection that took it, so
// every acquired lock pins one pool connection until release. Advisory
// try-locks return immediately; the per-call timeout is unused here and the
// lock manager's retry policy supplies the waiting.
type LockBackend struct {
	db *sql.DB

	mu    sync.Mutex
	ids   map[string]int64
	conns map[string]*sql.Conn
}

// NewLockBackend wraps an open connection pool.
func NewLockBackend(db *sql.DB) *LockBackend {
	return &LockBackend{
		db:    db,
		ids:   make(map[string]int64),
		conns: make(map[string]*sql.Conn),
	}
}

func (b *LockBackend) lockID(name string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.ids[name]
	if !ok {
		id = dbal.HashLockID(name)
		b.ids[name] = id
	}
	return id
}

// Acquire runs pg_try_advisory_lock(id) on a dedicated connection. False
// means the lock is held elsewhere or the server could not service the
// request right now; both are retryable and mapped to LockTimeout.
func (b *LockBackend) Acquire(ctx context.Context, name string, _ time.Duration) error {
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return dbal.Error{
			Code:     dbal.LockAcquisitionFailure,
			Err:      fmt.Errorf("acquire postgres lock %s: %w", name, err),
			UserData: name,
		}
	}
	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", b.lockID(name)).Scan(&ok); err != nil {
		conn.Close()
		return dbal.Error{
			Code:     dbal.LockAcquisitionFailure,
			Err:      fmt.Errorf("acquire postgres lock %s: %w", name, err),
			UserData: name,
		}
	}
	if !ok {
		conn.Close()
		return dbal.Error{
			Code:     dbal.LockTimeout,
			Err:      fmt.Errorf("postgres lock %s unavailable", name),
			UserData: name,
		}
	}
	b.mu.Lock()
	b.conns[name] = conn
	b.mu.Unlock()
	return nil
}

// Release runs pg_advisory_unlock(id) on the session holding the lock and
// returns that connection to the pool. False means this session does not
// hold the lock.
func (b *LockBackend) Release(ctx context.Context, name string) error {
	b.mu.Lock()
	conn := b.conns[name]
	delete(b.conns, name)
	b.mu.Unlock()

	var ok bool
	var err error
	if conn != nil {
		defer conn.Close()
		err = conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", b.lockID(name)).Scan(&ok)
	} else {
		err = b.db.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", b.lockID(name)).Scan(&ok)
	}
	if err != nil {
		return dbal.Error{
			Code:     dbal.Unknown,
			Err:      fmt.Errorf("release postgres lock %s: %w", name, err),
			UserData: name,
		}
	}
	if !ok {
		return dbal.Error{
			Code:     dbal.LockNotOwned,
			Err:      fmt.Errorf("postgres lock %s was not established by this session", name),
			UserData: name,
		}
	}
	return nil
}

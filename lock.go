package dbal

import (
	"context"
	"crypto/md5"
	"fmt"
	log "log/slog"
	"time"
)

// LockBackend implements named-lock primitives on a concrete coordination
// backend: MySQL named locks (GET_LOCK/RELEASE_LOCK), PostgreSQL advisory
// locks (pg_try_advisory_lock/pg_advisory_unlock), Redis, or the no-op
// backend used in Standalone mode.
//
// Acquire returns nil once the lock is held by this session, blocking up to
// timeout as interpreted by the backend. Release returns nil once the lock is
// given back. Failures are reported as Error values carrying LockTimeout,
// LockNotOwned, LockNotFound or LockAcquisitionFailure codes.
type LockBackend interface {
	Acquire(ctx context.Context, name string, timeout time.Duration) error
	Release(ctx context.Context, name string) error
}

// DefaultLockTimeout bounds lock waits when the caller does not specify one.
const DefaultLockTimeout = 10 * time.Second

// HashLockID maps a lock name to a stable numeric id usable as a PostgreSQL
// advisory lock key: the md5 digest of the name read as a big-endian integer,
// reduced modulo 2^31-1. The reduction is done byte-wise so the full 128-bit
// digest contributes without ever overflowing 64-bit arithmetic.
func HashLockID(name string) int64 {
	const mod = 1<<31 - 1
	sum := md5.Sum([]byte(name))
	var r uint64
	for _, b := range sum {
		r = (r<<8 | uint64(b)) % mod
	}
	return int64(r)
}

// LockManager serializes critical sections across processes by lock name.
// Both Acquire and Release run under the manager's retry policy.
type LockManager struct {
	backend LockBackend
	policy  RetryPolicy
}

// NewLockManager returns a manager using the default retry policy.
func NewLockManager(backend LockBackend) *LockManager {
	return NewLockManagerWithPolicy(backend, DefaultRetryPolicy())
}

// NewLockManagerWithPolicy returns a manager with an explicit retry policy.
func NewLockManagerWithPolicy(backend LockBackend, policy RetryPolicy) *LockManager {
	return &LockManager{
		backend: backend,
		policy:  policy.normalized(),
	}
}

// Acquire obtains the named lock, waiting up to timeout per attempt. A zero or
// negative timeout falls back to DefaultLockTimeout.
func (m *LockManager) Acquire(ctx context.Context, name string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return RetryWithPolicy(ctx, fmt.Sprintf("acquire lock %s", name), m.policy, func(ctx context.Context) error {
		return m.backend.Acquire(ctx, name, timeout)
	})
}

// Release gives the named lock back.
func (m *LockManager) Release(ctx context.Context, name string) error {
	return RetryWithPolicy(ctx, fmt.Sprintf("release lock %s", name), m.policy, func(ctx context.Context) error {
		return m.backend.Release(ctx, name)
	})
}

// WithLock runs body while holding the named lock and releases it on every
// exit path, including panics. The release uses a context detached from the
// caller's cancellation so a canceled body cannot leak the lock. If body
// succeeds but the release fails, the release error is returned; a release
// failure after a body failure is logged and the body error wins.
func (m *LockManager) WithLock(ctx context.Context, name string, timeout time.Duration, body func(ctx context.Context) error) (err error) {
	if err = m.Acquire(ctx, name, timeout); err != nil {
		return err
	}
	defer func() {
		if releaseErr := m.Release(context.WithoutCancel(ctx), name); releaseErr != nil {
			if err == nil {
				err = releaseErr
			} else {
				log.Warn(releaseErr.Error(), "name", name)
			}
		}
	}()
	return body(ctx)
}

// Wrap decorates op so each invocation runs under the named lock.
func (m *LockManager) Wrap(name string, timeout time.Duration, op func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return m.WithLock(ctx, name, timeout, op)
	}
}

// noopLockBackend satisfies every request immediately. Standalone deployments
// run a single process, so cross-process exclusion is unnecessary.
type noopLockBackend struct{}

// NewNoopLockBackend returns the lock backend used in Standalone mode.
func NewNoopLockBackend() LockBackend {
	return noopLockBackend{}
}

func (noopLockBackend) Acquire(context.Context, string, time.Duration) error {
	return nil
}

func (noopLockBackend) Release(context.Context, string) error {
	return nil
}

package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sharedcode/dbal"
)

// LockBackend is an in-process dbal.LockBackend with real mutual exclusion,
// for tests that exercise lock-protected flows without a database. Waiters
// poll until the holder releases or the timeout elapses.
type LockBackend struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLockBackend returns an empty in-memory lock table.
func NewLockBackend() *LockBackend {
	return &LockBackend{held: make(map[string]bool)}
}

func (b *LockBackend) Acquire(ctx context.Context, name string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		b.mu.Lock()
		if !b.held[name] {
			b.held[name] = true
			b.mu.Unlock()
			return nil
		}
		b.mu.Unlock()

		if time.Now().After(deadline) {
			return dbal.Error{
				Code:     dbal.LockTimeout,
				Err:      fmt.Errorf("acquire lock %s timeout", name),
				UserData: name,
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (b *LockBackend) Release(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.held[name] {
		return dbal.Error{
			Code:     dbal.LockNotFound,
			Err:      fmt.Errorf("lock %s does not exist", name),
			UserData: name,
		}
	}
	delete(b.held, name)
	return nil
}

// Held reports whether the named lock is currently held. Test helper.
func (b *LockBackend) Held(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.held[name]
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sharedcode/dbal"
)

// DefaultLockTTL bounds how long a held lock survives without release, so a
// crashed holder cannot orphan it.
const DefaultLockTTL = 1 * time.Minute

// LockBackend implements dbal.LockBackend on Redis. Each backend instance is
// one lock owner: a lock is a namespaced key holding the owner token with a
// TTL. Acquire is re-entrant within the owning backend, and a single release
// frees the lock. Contending acquirers poll with jitter until the per-call
// timeout elapses.
type LockBackend struct {
	cache Cache
	owner string
	ttl   time.Duration
	// pollUnit is the jitter unit between contention polls.
	pollUnit time.Duration
}

// NewLockBackend wraps a Cache. ttl <= 0 selects DefaultLockTTL.
func NewLockBackend(cache Cache, ttl time.Duration) *LockBackend {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &LockBackend{
		cache:    cache,
		owner:    dbal.NewID(),
		ttl:      ttl,
		pollUnit: 20 * time.Millisecond,
	}
}

// FormatLockKey prefixes the name with 'L' to form the namespaced Redis key
// used for locking.
func FormatLockKey(name string) string {
	return fmt.Sprintf("L%s", name)
}

func (b *LockBackend) Acquire(ctx context.Context, name string, timeout time.Duration) error {
	key := FormatLockKey(name)
	startTime := dbal.Now()
	for {
		won, err := b.cache.SetNX(ctx, key, b.owner, b.ttl)
		if err != nil {
			return dbal.Error{
				Code:     dbal.LockAcquisitionFailure,
				Err:      fmt.Errorf("acquire redis lock %s: %w", name, err),
				UserData: name,
			}
		}
		if won {
			return nil
		}

		// Key exists; it may already be ours.
		found, owner, err := b.cache.Get(ctx, key)
		if err != nil {
			return dbal.Error{
				Code:     dbal.LockAcquisitionFailure,
				Err:      fmt.Errorf("acquire redis lock %s: %w", name, err),
				UserData: name,
			}
		}
		if found && owner == b.owner {
			return nil
		}

		if err := dbal.TimedOut(ctx, "acquire redis lock "+name, startTime, timeout); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return dbal.Error{
				Code:     dbal.LockTimeout,
				Err:      fmt.Errorf("acquire redis lock %s timeout", name),
				UserData: name,
			}
		}
		// Stagger contenders before the next poll.
		dbal.RandomSleepWithUnit(ctx, b.pollUnit)
	}
}

func (b *LockBackend) Release(ctx context.Context, name string) error {
	key := FormatLockKey(name)
	found, owner, err := b.cache.Get(ctx, key)
	if err != nil {
		return dbal.Error{
			Code:     dbal.Unknown,
			Err:      fmt.Errorf("release redis lock %s: %w", name, err),
			UserData: name,
		}
	}
	if !found {
		return dbal.Error{
			Code:     dbal.LockNotFound,
			Err:      fmt.Errorf("redis lock %s does not exist", name),
			UserData: name,
		}
	}
	if owner != b.owner {
		return dbal.Error{
			Code:     dbal.LockNotOwned,
			Err:      fmt.Errorf("redis lock %s was not established by this session", name),
			UserData: name,
		}
	}
	if _, err := b.cache.Delete(ctx, []string{key}); err != nil {
		return dbal.Error{
			Code:     dbal.Unknown,
			Err:      fmt.Errorf("release redis lock %s: %w", name, err),
			UserData: name,
		}
	}
	return nil
}

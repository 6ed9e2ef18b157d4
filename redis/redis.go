package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache abstracts the Redis commands the lock backend uses, so tests can
// substitute an in-memory fake.
type Cache interface {
	// Ping tests connectivity.
	Ping(ctx context.Context) error
	// Get returns whether the key exists, and its value.
	Get(ctx context.Context, key string) (bool, string, error)
	// SetNX sets key to value with a TTL only when the key is absent. It
	// reports whether this call created the key.
	SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error)
	// Delete removes the given keys.
	Delete(ctx context.Context, keys []string) (bool, error)
}

type client struct {
	conn *Connection
}

// NewClient returns a Cache over the singleton connection. Open the
// connection first via OpenConnection.
func NewClient() Cache {
	return &client{
		conn: connection,
	}
}

// keyNotFound detects whether the error signifies key not found by Redis.
func (c client) keyNotFound(err error) bool {
	return err == redis.Nil
}

func (c client) Ping(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("Redis connection is not open, 'can't create new client")
	}
	return c.conn.Client.Ping(ctx).Err()
}

func (c client) Get(ctx context.Context, key string) (bool, string, error) {
	if c.conn == nil {
		return false, "", fmt.Errorf("Redis connection is not open, 'can't create new client")
	}
	s, err := c.conn.Client.Get(ctx, key).Result()
	// Convert key not found into returning false and nil err.
	r := err == nil
	if c.keyNotFound(err) {
		err = nil
	}
	return r, s, err
}

func (c client) SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	if c.conn == nil {
		return false, fmt.Errorf("Redis connection is not open, 'can't create new client")
	}
	return c.conn.Client.SetNX(ctx, key, value, expiration).Result()
}

func (c client) Delete(ctx context.Context, keys []string) (bool, error) {
	if c.conn == nil {
		return false, fmt.Errorf("Redis connection is not open, 'can't create new client")
	}
	rs := c.conn.Client.Del(ctx, keys...)

	err := rs.Err()
	// Convert key not found into returning false and nil err.
	r := err == nil
	if c.keyNotFound(err) {
		err = nil
	}
	return r, err
}

package redis

import (
	"context"
	"sync"
	"time"
)

type mockRedis struct {
	mu     sync.Mutex
	lookup map[string]string
}

// NewMockClient returns a new Redis mock client. Expirations are ignored; the
// mock holds keys until deleted.
func NewMockClient() Cache {
	return &mockRedis{
		lookup: make(map[string]string),
	}
}

func (m *mockRedis) Ping(ctx context.Context) error {
	return nil
}

func (m *mockRedis) Get(ctx context.Context, key string) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.lookup[key]
	return ok, v, nil
}

func (m *mockRedis) SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup[key]; ok {
		return false, nil
	}
	m.lookup[key] = value
	return true, nil
}

func (m *mockRedis) Delete(ctx context.Context, keys []string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.lookup, k)
	}
	return true, nil
}

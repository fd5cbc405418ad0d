package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory implements Client on patrickmn/go-cache.
type Memory struct {
	c      *gocache.Cache
	prefix string
	// mu makes Take atomic; go-cache has no get-and-delete.
	mu sync.Mutex
}

// NewMemory returns an in-process cache that sweeps expired keys every minute.
func NewMemory(prefix string) *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, time.Minute), prefix: prefix}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(prefixed(m.prefix, key))
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(prefixed(m.prefix, key), value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(prefixed(m.prefix, key))
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.c.Get(prefixed(m.prefix, key))
	return ok, nil
}

func (m *Memory) Take(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, err := m.Get(ctx, key)
	if err != nil {
		return "", err
	}
	m.c.Delete(prefixed(m.prefix, key))
	return val, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}

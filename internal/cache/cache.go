package cache

import (
	"context"
	"sync"
	"time"
)

// Backend stores opaque values with a per-entry TTL.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cache is an in-process Backend. Expired entries are dropped lazily on read.
type Cache struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}
type entry struct {
	val []byte
	exp time.Time
}

func New() *Cache {
	return &Cache{
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !now.Before(e.exp) {
		c.mu.Lock()
		// another writer may have replaced it meanwhile
		if cur, ok := c.m[key]; ok && !now.Before(cur.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	return e.val, true, nil
}

func (c *Cache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	c.m[key] = entry{val: val, exp: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
	return nil
}

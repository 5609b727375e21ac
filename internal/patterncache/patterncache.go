// Package patterncache implements the PromptAssembler's pattern-catalog
// cache (spec.md §4.4, §9 "caches with TTL ... stale-on-error is a
// separate policy flag"): single-flight fetch from PatternCatalog with a
// 1-hour TTL, serving a stale value on fetch error rather than failing.
//
// Adapted from go-enhanced-rag-service/pkg/cache/cache.go's Cache
// interface and dual InMemoryCache/RedisCache implementations
// (generalized here to byte-oriented storage of marshaled Catalog
// values, with the PyTorch-specific adapter dropped as out of domain).
package patterncache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Cache is the minimal byte-oriented contract used to store marshaled
// Catalog snapshots. RedisCache implements it; InMemoryCache does not,
// since its Get returns (value, fresh, ok) with no error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// KeyHash returns a stable cache key for a catalog URL.
func KeyHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
	stale     bool
}

// InMemoryCache is a process-local TTL cache with a background janitor,
// and unlike a plain TTL cache, keeps the most recent value around
// (marked stale) after expiry so stale-on-error can serve it.
type InMemoryCache struct {
	mu      sync.RWMutex
	items   map[string]memEntry
	stopCh  chan struct{}
	stopped bool
}

// NewInMemory builds an InMemoryCache with a 15s janitor sweep.
func NewInMemory() *InMemoryCache {
	c := &InMemoryCache{items: make(map[string]memEntry, 16), stopCh: make(chan struct{})}
	go c.janitor(15 * time.Second)
	return c
}

// Get returns (value, fresh, ok). fresh is false once the TTL has
// elapsed but the last-known value is still returned for stale-on-error.
func (c *InMemoryCache) Get(_ context.Context, key string) (value []byte, fresh bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, found := c.items[key]
	if !found {
		return nil, false, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		return e.value, false, true
	}
	return e.value, true, true
}

func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = memEntry{value: append([]byte(nil), value...), expiresAt: exp}
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Close() error {
	if c.stopped {
		return nil
	}
	close(c.stopCh)
	c.stopped = true
	return nil
}

// janitor only evicts entries that are both expired AND older than 24h,
// so stale values remain available for stale-on-error beyond one TTL
// window.
func (c *InMemoryCache) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-24 * time.Hour)
			c.mu.Lock()
			for k, v := range c.items {
				if !v.expiresAt.IsZero() && v.expiresAt.Before(cutoff) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

// RedisCache is the optional Redis-backed tier, adapted verbatim from
// the teacher's pkg/cache.RedisCache for deployments that want a shared
// pattern cache across process instances.
type RedisCache struct {
	client *redis.Client
}

// NewRedis connects to a Redis URL (e.g. redis://localhost:6379/0).
func NewRedis(url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	cli := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return &RedisCache{client: cli}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/storefront/internal/infrastructure/store"
)

const defaultScope = "anonymous"

type scopeKey struct{}

// WithScope binds cache keys read or written with ctx to a session scope
func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFrom returns the session scope bound to ctx
func ScopeFrom(ctx context.Context) string {
	if scope, ok := ctx.Value(scopeKey{}).(string); ok && scope != "" {
		return scope
	}
	return defaultScope
}

// Cache is the query cache shared by the sync services. Entries are JSON
// encoded and namespaced per session scope.
type Cache struct {
	store store.CacheStore
	ttl   time.Duration
}

func New(s store.CacheStore, ttl time.Duration) *Cache {
	return &Cache{store: s, ttl: ttl}
}

func (c *Cache) scopedKey(ctx context.Context, key string) string {
	return ScopeFrom(ctx) + ":" + key
}

// Get decodes the entry into dst and reports whether it was present
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := c.store.Get(ctx, c.scopedKey(ctx, key))
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	return c.store.Set(ctx, c.scopedKey(ctx, key), raw, c.ttl)
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	scoped := make([]string, len(keys))
	for i, key := range keys {
		scoped[i] = c.scopedKey(ctx, key)
	}
	return c.store.Delete(ctx, scoped...)
}

// Snapshot captures the raw entry for key so it can be put back verbatim
func (c *Cache) Snapshot(ctx context.Context, key string) (Snapshot, error) {
	full := c.scopedKey(ctx, key)
	raw, ok, err := c.store.Get(ctx, full)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{cache: c, key: full, value: raw, present: ok}, nil
}

// Snapshot is a value copy of one cache entry. An absent entry is restored
// by deleting whatever was written since.
type Snapshot struct {
	cache   *Cache
	key     string
	value   []byte
	present bool
}

func (s Snapshot) Present() bool { return s.present }

func (s Snapshot) Restore(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if !s.present {
		return s.cache.store.Delete(ctx, s.key)
	}
	return s.cache.store.Set(ctx, s.key, s.value, s.cache.ttl)
}

package querycache

import "context"

// Query is a typed view over a single cache key
type Query[T any] struct {
	cache *Cache
	key   string
}

func NewQuery[T any](c *Cache, key string) Query[T] {
	return Query[T]{cache: c, key: key}
}

func (q Query[T]) Get(ctx context.Context) (T, bool, error) {
	var v T
	ok, err := q.cache.Get(ctx, q.key, &v)
	return v, ok, err
}

func (q Query[T]) Set(ctx context.Context, v T) error {
	return q.cache.Set(ctx, q.key, v)
}

func (q Query[T]) Invalidate(ctx context.Context) error {
	return q.cache.Invalidate(ctx, q.key)
}

func (q Query[T]) Snapshot(ctx context.Context) (Snapshot, error) {
	return q.cache.Snapshot(ctx, q.key)
}

// Fetch returns the cached value, calling fetch and storing its result on a miss.
// A cache read failure falls through to fetch.
func (q Query[T]) Fetch(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok, err := q.Get(ctx); err == nil && ok {
		return v, nil
	}
	return q.Refetch(ctx, fetch)
}

// Refetch always calls fetch and replaces the cached value on success.
// A failed cache write does not fail the read.
func (q Query[T]) Refetch(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	_ = q.Set(ctx, v)
	return v, nil
}

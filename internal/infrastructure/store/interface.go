package store

import (
	"context"
	"time"

	"github.com/example/storefront/internal/readmodel"
)

// CacheStore holds serialized query results for the storefront sessions.
// A zero ttl keeps the entry until it is deleted.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ActivityStoreInterface defines storage for the cart activity read model
type ActivityStoreInterface interface {
	GetCartActivity(ctx context.Context, cartToken string) (*readmodel.CartActivityReadModel, bool, error)
	SaveCartActivity(ctx context.Context, activity *readmodel.CartActivityReadModel) error
}

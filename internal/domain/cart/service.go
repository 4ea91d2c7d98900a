package cart

import (
	"context"
	"fmt"

	"github.com/example/storefront/internal/querycache"
	"github.com/example/storefront/internal/session"
	"go.uber.org/zap"
)

const (
	cartKey  = "cart"
	countKey = "cart:count"
)

// API is the cart part of the backend. Mutations do not return the cart;
// the summary is always read back with GetCart.
type API interface {
	GetCart(ctx context.Context) (*Cart, error)
	AddCartItem(ctx context.Context, req AddItemRequest) error
	UpdateCartItem(ctx context.Context, itemID string, quantity int) error
	RemoveCartItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
	ValidateCart(ctx context.Context) (*Validation, error)
}

// Service keeps the session's cached cart in sync with the backend
type Service struct {
	api     API
	cache   *querycache.Cache
	count   querycache.Query[int]
	pending *querycache.Pending
	logger  *zap.Logger
}

func NewService(api API, cache *querycache.Cache, pending *querycache.Pending, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:     api,
		cache:   cache,
		count:   querycache.NewQuery[int](cache, countKey),
		pending: pending,
		logger:  logger.Named("cart"),
	}
}

// the cart carries translated product names, so each locale has its own
// entry; the count does not
func (s *Service) cart(ctx context.Context) querycache.Query[*Cart] {
	return querycache.NewQuery[*Cart](s.cache, session.LocalizedKey(ctx, cartKey))
}

func (s *Service) invalidateCarts(ctx context.Context) {
	for _, locale := range session.Locales {
		if err := s.cache.Invalidate(ctx, session.LocaleKey(cartKey, locale)); err != nil {
			s.logger.Warn("failed to invalidate cart", zap.String("locale", locale), zap.Error(err))
		}
	}
}

func (s *Service) load(ctx context.Context) (*Cart, error) {
	c, err := s.api.GetCart(ctx)
	if err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	_ = s.count.Set(ctx, c.Summary.TotalItems)
	return c, nil
}

// Get returns the cached cart, fetching it on a miss
func (s *Service) Get(ctx context.Context) (*Cart, error) {
	return s.cart(ctx).Fetch(ctx, s.load)
}

// Refresh bypasses the cache
func (s *Service) Refresh(ctx context.Context) (*Cart, error) {
	return s.cart(ctx).Refetch(ctx, s.load)
}

// Count is the lightweight item count shown in the header badge
func (s *Service) Count(ctx context.Context) (int, error) {
	if n, ok, err := s.count.Get(ctx); err == nil && ok {
		return n, nil
	}
	c, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	return c.Summary.TotalItems, nil
}

// settle re-reads the cart after a successful mutation. If the read fails
// the cached entries are dropped so the next Get goes to the backend; the
// mutation itself still succeeded, so a nil cart is returned without error.
func (s *Service) settle(ctx context.Context) (*Cart, error) {
	s.invalidateCarts(ctx)
	c, err := s.Refresh(ctx)
	if err != nil {
		s.logger.Warn("refetch after mutation failed", zap.Error(err))
		_ = s.count.Invalidate(ctx)
		return nil, nil
	}
	return c, nil
}

func (s *Service) AddItem(ctx context.Context, req AddItemRequest) (*Cart, error) {
	if req.ProductID == "" {
		return nil, ErrInvalidProduct
	}

	target := req.ProductID
	if req.VariantID != nil {
		target += "/" + *req.VariantID
	}
	done, err := s.pending.Begin(ctx, "cart.add", target)
	if err != nil {
		return nil, err
	}
	defer done()

	snapshot, err := s.count.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if n, ok, _ := s.count.Get(ctx); ok {
		_ = s.count.Set(ctx, n+req.Quantity)
	}

	if err := s.api.AddCartItem(ctx, req); err != nil {
		if rerr := snapshot.Restore(ctx); rerr != nil {
			s.logger.Error("failed to roll back cart count", zap.Error(rerr))
		}
		return nil, err
	}
	return s.settle(ctx)
}

// UpdateItem sets the quantity of a cart line. Quantities below one or above
// the known stock are rejected without a backend call.
func (s *Service) UpdateItem(ctx context.Context, itemID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	item, ok := current.Item(itemID)
	if !ok {
		return nil, ErrItemNotFound
	}
	if limit, known := item.MaxQuantity(); known && quantity > limit {
		return nil, fmt.Errorf("%w: only %d available", ErrMaxStockReached, limit)
	}
	if quantity == item.Quantity {
		return current, nil
	}

	done, err := s.pending.Begin(ctx, "cart.update", itemID)
	if err != nil {
		return nil, err
	}
	defer done()

	// insufficient stock reported by the backend is returned as is and the
	// cache stays untouched
	if err := s.api.UpdateCartItem(ctx, itemID, quantity); err != nil {
		return nil, err
	}
	return s.settle(ctx)
}

// RemoveItem drops the line from the cached cart before calling the backend
// and puts the previous cart back verbatim if the call fails.
func (s *Service) RemoveItem(ctx context.Context, itemID string) (*Cart, error) {
	done, err := s.pending.Begin(ctx, "cart.remove", itemID)
	if err != nil {
		return nil, err
	}
	defer done()

	cartSnapshot, err := s.cart(ctx).Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	countSnapshot, err := s.count.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if cached, ok, _ := s.cart(ctx).Get(ctx); ok {
		removed := 0
		items := make([]CartItem, 0, len(cached.Items))
		for _, item := range cached.Items {
			if item.ID == itemID {
				removed = item.Quantity
				continue
			}
			items = append(items, item)
		}
		if removed > 0 {
			cached.Items = items
			cached.Summary.TotalItems = max(cached.Summary.TotalItems-1, 0)
			_ = s.cart(ctx).Set(ctx, cached)

			if n, ok, _ := s.count.Get(ctx); ok {
				_ = s.count.Set(ctx, max(n-removed, 0))
			}
		}
	}

	if err := s.api.RemoveCartItem(ctx, itemID); err != nil {
		if rerr := cartSnapshot.Restore(ctx); rerr != nil {
			s.logger.Error("failed to roll back cart", zap.Error(rerr))
		}
		if rerr := countSnapshot.Restore(ctx); rerr != nil {
			s.logger.Error("failed to roll back cart count", zap.Error(rerr))
		}
		return nil, err
	}
	return s.settle(ctx)
}

// Clear empties the cart. It is destructive, so the caller must pass an
// explicit confirmation.
func (s *Service) Clear(ctx context.Context, confirmed bool) (*Cart, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}

	done, err := s.pending.Begin(ctx, "cart.clear", cartKey)
	if err != nil {
		return nil, err
	}
	defer done()

	if err := s.api.ClearCart(ctx); err != nil {
		return nil, err
	}
	empty := Empty()
	if err := s.ResetEmpty(ctx); err != nil {
		s.logger.Warn("failed to reset cart cache", zap.Error(err))
	}
	return empty, nil
}

// ResetEmpty sets the cache to a known empty cart and the count to zero
func (s *Service) ResetEmpty(ctx context.Context) error {
	for _, locale := range session.Locales {
		if err := s.cache.Set(ctx, session.LocaleKey(cartKey, locale), Empty()); err != nil {
			return err
		}
	}
	return s.count.Set(ctx, 0)
}

// Validate asks the backend whether the cart can be checked out. It does not
// touch the cache.
func (s *Service) Validate(ctx context.Context) (*Validation, error) {
	v, err := s.api.ValidateCart(ctx)
	if err != nil {
		return nil, err
	}
	if v.Errors == nil {
		v.Errors = []string{}
	}
	return v, nil
}

package wishlist

import (
	"context"
	"errors"

	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/querycache"
	"github.com/example/storefront/internal/session"
	"go.uber.org/zap"
)

var ErrInvalidProduct = errors.New("product_id is required")

const wishlistKey = "wishlist"

type Item struct {
	ID        string           `json:"id,omitempty"`
	ProductID string           `json:"product_id"`
	Product   *product.Product `json:"product,omitempty"`
}

type Wishlist struct {
	Items []Item `json:"items"`
}

func (w *Wishlist) Contains(productID string) bool {
	for _, item := range w.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

func (w Wishlist) Localize(locale string) Wishlist {
	items := make([]Item, len(w.Items))
	for i, item := range w.Items {
		if item.Product != nil {
			p := item.Product.Localize(locale)
			item.Product = &p
		}
		items[i] = item
	}
	w.Items = items
	return w
}

type API interface {
	GetWishlist(ctx context.Context) (*Wishlist, error)
	AddToWishlist(ctx context.Context, productID string) error
	RemoveFromWishlist(ctx context.Context, productID string) error
}

type Service struct {
	api     API
	cache   *querycache.Cache
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
		pending: pending,
		logger:  logger.Named("wishlist"),
	}
}

func (s *Service) wishlist(ctx context.Context) querycache.Query[*Wishlist] {
	return querycache.NewQuery[*Wishlist](s.cache, session.LocalizedKey(ctx, wishlistKey))
}

func (s *Service) load(ctx context.Context) (*Wishlist, error) {
	w, err := s.api.GetWishlist(ctx)
	if err != nil {
		return nil, err
	}
	if w.Items == nil {
		w.Items = []Item{}
	}
	return w, nil
}

func (s *Service) Get(ctx context.Context) (*Wishlist, error) {
	return s.wishlist(ctx).Fetch(ctx, s.load)
}

func (s *Service) Contains(ctx context.Context, productID string) (bool, error) {
	w, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	return w.Contains(productID), nil
}

func (s *Service) settle(ctx context.Context) (*Wishlist, error) {
	keys := make([]string, 0, len(session.Locales))
	for _, locale := range session.Locales {
		keys = append(keys, session.LocaleKey(wishlistKey, locale))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Warn("failed to invalidate wishlist", zap.Error(err))
	}
	w, err := s.wishlist(ctx).Refetch(ctx, s.load)
	if err != nil {
		s.logger.Warn("refetch after mutation failed", zap.Error(err))
		return nil, nil
	}
	return w, nil
}

func (s *Service) Add(ctx context.Context, productID string) (*Wishlist, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	done, err := s.pending.Begin(ctx, "wishlist", productID)
	if err != nil {
		return nil, err
	}
	defer done()

	if err := s.api.AddToWishlist(ctx, productID); err != nil {
		return nil, err
	}
	return s.settle(ctx)
}

// Remove drops the product from the cached wishlist first and restores the
// previous wishlist if the backend call fails.
func (s *Service) Remove(ctx context.Context, productID string) (*Wishlist, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	done, err := s.pending.Begin(ctx, "wishlist", productID)
	if err != nil {
		return nil, err
	}
	defer done()

	snapshot, err := s.wishlist(ctx).Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if cached, ok, _ := s.wishlist(ctx).Get(ctx); ok {
		items := make([]Item, 0, len(cached.Items))
		for _, item := range cached.Items {
			if item.ProductID != productID {
				items = append(items, item)
			}
		}
		cached.Items = items
		_ = s.wishlist(ctx).Set(ctx, cached)
	}

	if err := s.api.RemoveFromWishlist(ctx, productID); err != nil {
		if rerr := snapshot.Restore(ctx); rerr != nil {
			s.logger.Error("failed to roll back wishlist", zap.Error(rerr))
		}
		return nil, err
	}
	return s.settle(ctx)
}

// Toggle reads the current membership and then adds or removes. The two
// steps are not atomic: a change made elsewhere between them is not detected.
func (s *Service) Toggle(ctx context.Context, productID string) (*Wishlist, bool, error) {
	present, err := s.Contains(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	if present {
		w, err := s.Remove(ctx, productID)
		return w, false, err
	}
	w, err := s.Add(ctx, productID)
	return w, true, err
}

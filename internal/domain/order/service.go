package order

import (
	"context"
	"strconv"

	"github.com/example/storefront/internal/domain/paging"
	"github.com/example/storefront/internal/querycache"
	"github.com/example/storefront/internal/session"
	"github.com/example/storefront/internal/validation"
	"go.uber.org/zap"
)

type API interface {
	ListOrders(ctx context.Context, page int) (*paging.Page[Order], error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	CancelOrder(ctx context.Context, id string) (*Order, error)
}

// Service is read-mostly: list pages and single orders are cached, create
// and cancel refresh the affected entries.
type Service struct {
	api        API
	cache      *querycache.Cache
	generation querycache.Query[int]
	pending    *querycache.Pending
	logger     *zap.Logger
}

func NewService(api API, cache *querycache.Cache, pending *querycache.Pending, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:        api,
		cache:      cache,
		generation: querycache.NewQuery[int](cache, "orders:generation"),
		pending:    pending,
		logger:     logger.Named("order"),
	}
}

// orders carry translated product names, so single orders and list pages
// are cached per locale
func (s *Service) orderQuery(ctx context.Context, id string) querycache.Query[*Order] {
	return querycache.NewQuery[*Order](s.cache, session.LocalizedKey(ctx, "order:"+id))
}

// store replaces the cached order in the caller's locale and drops the
// other translations
func (s *Service) store(ctx context.Context, o *Order) {
	keys := make([]string, 0, len(session.Locales))
	for _, locale := range session.Locales {
		keys = append(keys, session.LocaleKey("order:"+o.ID, locale))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Warn("failed to invalidate order", zap.String("order_id", o.ID), zap.Error(err))
	}
	_ = s.orderQuery(ctx, o.ID).Set(ctx, o)
}

// list pages live under a generation number so a single bump invalidates
// every cached page
func (s *Service) pageQuery(ctx context.Context, page int) querycache.Query[*paging.Page[Order]] {
	gen, _, _ := s.generation.Get(ctx)
	key := "orders:" + strconv.Itoa(gen) + ":page:" + strconv.Itoa(page)
	return querycache.NewQuery[*paging.Page[Order]](s.cache, session.LocalizedKey(ctx, key))
}

func (s *Service) invalidateLists(ctx context.Context) {
	gen, _, _ := s.generation.Get(ctx)
	if err := s.generation.Set(ctx, gen+1); err != nil {
		s.logger.Warn("failed to invalidate order lists", zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, page int) (*paging.Page[Order], error) {
	if page < 1 {
		page = 1
	}
	return s.pageQuery(ctx, page).Fetch(ctx, func(ctx context.Context) (*paging.Page[Order], error) {
		return s.api.ListOrders(ctx, page)
	})
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orderQuery(ctx, id).Fetch(ctx, func(ctx context.Context) (*Order, error) {
		return s.api.GetOrder(ctx, id)
	})
}

// Create submits a checkout payload. A guest order is tied to the cart
// token of the session.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.CartToken == "" {
		req.CartToken = session.FromContext(ctx).CartToken
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	done, err := s.pending.Begin(ctx, "order.create", "checkout")
	if err != nil {
		return nil, err
	}
	defer done()

	o, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	s.store(ctx, o)
	s.invalidateLists(ctx)

	s.logger.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("status", string(o.Status)),
		zap.Bool("guest", !session.FromContext(ctx).Authenticated()),
	)
	return o, nil
}

// Cancel is only attempted when the order status still allows it
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.CanCancel() {
		return nil, ErrCancelNotAllowed
	}

	done, err := s.pending.Begin(ctx, "order.cancel", id)
	if err != nil {
		return nil, err
	}
	defer done()

	o, err := s.api.CancelOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, o)
	s.invalidateLists(ctx)
	return o, nil
}

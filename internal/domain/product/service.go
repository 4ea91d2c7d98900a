package product

import (
	"context"
	"net/url"
	"strconv"

	"github.com/example/storefront/internal/domain/paging"
	"github.com/example/storefront/internal/querycache"
	"github.com/example/storefront/internal/session"
	"go.uber.org/zap"
)

// API is the catalog part of the backend
type API interface {
	ListProducts(ctx context.Context, params ListParams) (*paging.Page[Product], error)
	GetProduct(ctx context.Context, slug string) (*Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListCollections(ctx context.Context) ([]Collection, error)
}

type ListParams struct {
	Page       int
	PerPage    int
	Category   string
	Collection string
	Search     string
	Sort       string
}

func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	if p.Collection != "" {
		v.Set("collection", p.Collection)
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	return v
}

// Service serves catalog reads through the query cache. Cache keys carry the
// locale because cached values are already localized.
type Service struct {
	api    API
	cache  *querycache.Cache
	logger *zap.Logger
}

func NewService(api API, cache *querycache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, cache: cache, logger: logger.Named("catalog")}
}

func localeKey(ctx context.Context, parts ...string) string {
	key := "catalog:" + session.FromContext(ctx).Locale
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func (s *Service) ListProducts(ctx context.Context, params ListParams) (*paging.Page[Product], error) {
	q := querycache.NewQuery[*paging.Page[Product]](s.cache, localeKey(ctx, "products", params.Values().Encode()))
	return q.Fetch(ctx, func(ctx context.Context) (*paging.Page[Product], error) {
		return s.api.ListProducts(ctx, params)
	})
}

func (s *Service) GetProduct(ctx context.Context, slug string) (*Product, error) {
	q := querycache.NewQuery[*Product](s.cache, localeKey(ctx, "product", slug))
	return q.Fetch(ctx, func(ctx context.Context) (*Product, error) {
		return s.api.GetProduct(ctx, slug)
	})
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	q := querycache.NewQuery[[]Category](s.cache, localeKey(ctx, "categories"))
	return q.Fetch(ctx, s.api.ListCategories)
}

func (s *Service) ListCollections(ctx context.Context) ([]Collection, error) {
	q := querycache.NewQuery[[]Collection](s.cache, localeKey(ctx, "collections"))
	return q.Fetch(ctx, s.api.ListCollections)
}

package backend

import (
	"context"

	"github.com/example/storefront/internal/domain/paging"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/session"
)

// Every catalog value is localized here, once, before it reaches the cache.

func (c *Client) ListProducts(ctx context.Context, params product.ListParams) (*paging.Page[product.Product], error) {
	var products []product.Product
	var meta paging.Meta
	if err := c.get(ctx, "/products", params.Values(), &products, &meta); err != nil {
		return nil, err
	}

	locale := session.FromContext(ctx).Locale
	out := &paging.Page[product.Product]{Data: make([]product.Product, len(products)), Meta: meta}
	for i, p := range products {
		out.Data[i] = p.Localize(locale)
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, slug string) (*product.Product, error) {
	var p product.Product
	if err := c.get(ctx, "/products/"+escape(slug), nil, &p, nil); err != nil {
		if IsKind(err, KindNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, err
	}
	localized := p.Localize(session.FromContext(ctx).Locale)
	return &localized, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]product.Category, error) {
	var categories []product.Category
	if err := c.get(ctx, "/categories", nil, &categories, nil); err != nil {
		return nil, err
	}
	locale := session.FromContext(ctx).Locale
	for i := range categories {
		categories[i] = categories[i].Localize(locale)
	}
	return categories, nil
}

func (c *Client) ListCollections(ctx context.Context) ([]product.Collection, error) {
	var collections []product.Collection
	if err := c.get(ctx, "/collections", nil, &collections, nil); err != nil {
		return nil, err
	}
	locale := session.FromContext(ctx).Locale
	for i := range collections {
		collections[i] = collections[i].Localize(locale)
	}
	return collections, nil
}

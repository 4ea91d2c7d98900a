package backend

import (
	"context"
	"net/http"

	"github.com/example/storefront/internal/domain/wishlist"
	"github.com/example/storefront/internal/session"
)

func (c *Client) GetWishlist(ctx context.Context) (*wishlist.Wishlist, error) {
	var items []wishlist.Item
	if err := c.get(ctx, "/wishlist", nil, &items, nil); err != nil {
		return nil, err
	}
	if items == nil {
		items = []wishlist.Item{}
	}
	localized := wishlist.Wishlist{Items: items}.Localize(session.FromContext(ctx).Locale)
	return &localized, nil
}

func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	body := map[string]string{"product_id": productID}
	return c.do(ctx, http.MethodPost, "/wishlist", nil, body, nil, nil)
}

func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, "/wishlist/"+escape(productID), nil, nil, nil, nil)
}

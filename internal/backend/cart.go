package backend

import (
	"context"
	"net/http"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/session"
)

func (c *Client) GetCart(ctx context.Context) (*cart.Cart, error) {
	var out cart.Cart
	if err := c.get(ctx, "/cart", nil, &out, nil); err != nil {
		return nil, err
	}
	localized := out.Localize(session.FromContext(ctx).Locale)
	return &localized, nil
}

func (c *Client) AddCartItem(ctx context.Context, req cart.AddItemRequest) error {
	return c.do(ctx, http.MethodPost, "/cart/items", nil, req, nil, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	return c.do(ctx, http.MethodPut, "/cart/items/"+escape(itemID), nil, body, nil, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/cart/items/"+escape(itemID), nil, nil, nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart", nil, nil, nil, nil)
}

func (c *Client) ValidateCart(ctx context.Context) (*cart.Validation, error) {
	var out cart.Validation
	if err := c.do(ctx, http.MethodPost, "/cart/validate", nil, nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

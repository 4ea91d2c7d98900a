package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/paging"
	"github.com/example/storefront/internal/session"
)

func (c *Client) ListOrders(ctx context.Context, page int) (*paging.Page[order.Order], error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}

	var orders []order.Order
	var meta paging.Meta
	if err := c.get(ctx, "/orders", query, &orders, &meta); err != nil {
		return nil, err
	}

	locale := session.FromContext(ctx).Locale
	out := &paging.Page[order.Order]{Data: make([]order.Order, len(orders)), Meta: meta}
	for i, o := range orders {
		out.Data[i] = o.Localize(locale)
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	return c.orderCall(ctx, http.MethodGet, "/orders/"+escape(id), nil)
}

func (c *Client) CreateOrder(ctx context.Context, req order.CreateOrderRequest) (*order.Order, error) {
	return c.orderCall(ctx, http.MethodPost, "/orders", req)
}

func (c *Client) CancelOrder(ctx context.Context, id string) (*order.Order, error) {
	return c.orderCall(ctx, http.MethodPost, "/orders/"+escape(id)+"/cancel", nil)
}

func (c *Client) orderCall(ctx context.Context, method, path string, body any) (*order.Order, error) {
	var out order.Order
	if err := c.do(ctx, method, path, nil, body, &out, nil); err != nil {
		return nil, err
	}
	localized := out.Localize(session.FromContext(ctx).Locale)
	return &localized, nil
}

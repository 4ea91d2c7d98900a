package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/storefront/internal/backend/mocks"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/querycache"
	"github.com/example/storefront/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	svc   *checkout.Service
	carts *cart.Service
	mb    *mocks.MockBackend
	ctx   context.Context
}

func setupCheckout(t *testing.T) checkoutFixture {
	t.Helper()

	stock := 5
	mb := mocks.NewMockBackend()
	mb.AddProduct(product.Product{
		ID:            "prod-1",
		Slug:          "lamp",
		Name:          product.Text("Lamp"),
		Price:         decimal.RequireFromString("40"),
		FinalPrice:    decimal.RequireFromString("40"),
		StockQuantity: &stock,
	})

	cache := querycache.New(store.NewMemoryStore(), time.Minute)
	pending := querycache.NewPending()
	carts := cart.NewService(mb, cache, pending, nil)
	orders := order.NewService(mb, cache, pending, nil)

	id := session.Identity{CartToken: "guest-cart"}
	ctx := querycache.WithScope(session.WithIdentity(context.Background(), id), id.Scope())
	return checkoutFixture{
		svc:   checkout.NewService(carts, orders, nil),
		carts: carts,
		mb:    mb,
		ctx:   ctx,
	}
}

func checkoutRequest() order.CreateOrderRequest {
	return order.CreateOrderRequest{
		Customer: order.Customer{
			FirstName: "Georgi",
			LastName:  "Petrov",
			Email:     "georgi@example.com",
			Phone:     "0888123456",
		},
		ShippingMethod:  order.ShippingToAddress,
		ShippingAddress: &order.Address{Street: "bul. Bulgaria 1", City: "Sofia", PostalCode: "1000"},
		PaymentMethod:   order.PaymentCard,
	}
}

func TestSubmit_PlacesOrderAndEmptiesCart(t *testing.T) {
	f := setupCheckout(t)
	_, err := f.carts.AddItem(f.ctx, cart.AddItemRequest{ProductID: "prod-1", Quantity: 2})
	require.NoError(t, err)

	o, err := f.svc.Submit(f.ctx, checkoutRequest())
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("80")))

	getCalls := f.mb.CallCount("GetCart")
	c, err := f.carts.Get(f.ctx)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, getCalls, f.mb.CallCount("GetCart"))

	n, err := f.carts.Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSubmit_EmptyCart(t *testing.T) {
	f := setupCheckout(t)

	_, err := f.svc.Submit(f.ctx, checkoutRequest())

	assert.ErrorIs(t, err, cart.ErrEmptyCart)
	assert.Equal(t, 0, f.mb.CallCount("ValidateCart"))
	assert.Equal(t, 0, f.mb.CallCount("CreateOrder"))
}

func TestSubmit_InvalidCart(t *testing.T) {
	f := setupCheckout(t)
	_, err := f.carts.AddItem(f.ctx, cart.AddItemRequest{ProductID: "prod-1", Quantity: 3})
	require.NoError(t, err)

	// stock dropped after the item went in the cart
	f.mb.SetStock("prod-1", 1)

	_, err = f.svc.Submit(f.ctx, checkoutRequest())

	var invalid *checkout.InvalidCartError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"Lamp is out of stock."}, invalid.Errors)
	assert.Contains(t, err.Error(), "Lamp is out of stock.")
	assert.Equal(t, 0, f.mb.CallCount("CreateOrder"))
}

func TestSubmit_OrderFailureKeepsCart(t *testing.T) {
	f := setupCheckout(t)
	_, err := f.carts.AddItem(f.ctx, cart.AddItemRequest{ProductID: "prod-1", Quantity: 1})
	require.NoError(t, err)

	f.mb.FailNext("CreateOrder", errors.New("connection reset"))
	_, err = f.svc.Submit(f.ctx, checkoutRequest())
	require.Error(t, err)

	c, err := f.carts.Get(f.ctx)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

func TestSubmit_UsesFreshCart(t *testing.T) {
	f := setupCheckout(t)

	// the cache still says empty, the backend has an item
	_, err := f.carts.Get(f.ctx)
	require.NoError(t, err)
	require.NoError(t, f.mb.AddCartItem(f.ctx, cart.AddItemRequest{ProductID: "prod-1", Quantity: 1}))

	o, err := f.svc.Submit(f.ctx, checkoutRequest())
	require.NoError(t, err)
	assert.Len(t, o.Items, 1)
}

func TestInvalidCartError_Message(t *testing.T) {
	assert.Equal(t, "cart is not valid for checkout", (&checkout.InvalidCartError{}).Error())
	assert.Equal(t, "cart is not valid for checkout: a; b", (&checkout.InvalidCartError{Errors: []string{"a", "b"}}).Error())
}

package cart_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/example/storefront/internal/backend"
	"github.com/example/storefront/internal/backend/mocks"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/querycache"
	"github.com/example/storefront/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookedBackend lets a test look at the cache while a mutation is in flight
type hookedBackend struct {
	*mocks.MockBackend
	beforeAdd    func(ctx context.Context)
	beforeRemove func(ctx context.Context)
}

func (h *hookedBackend) AddCartItem(ctx context.Context, req cart.AddItemRequest) error {
	if h.beforeAdd != nil {
		h.beforeAdd(ctx)
	}
	return h.MockBackend.AddCartItem(ctx, req)
}

func (h *hookedBackend) RemoveCartItem(ctx context.Context, itemID string) error {
	if h.beforeRemove != nil {
		h.beforeRemove(ctx)
	}
	return h.MockBackend.RemoveCartItem(ctx, itemID)
}

var serverDown = &backend.Error{Kind: backend.KindServer, Status: http.StatusInternalServerError, Message: "Server Error"}

func intPtr(n int) *int { return &n }

func newTestCartService(t *testing.T) (*cart.Service, *hookedBackend, context.Context) {
	t.Helper()

	mb := mocks.NewMockBackend()
	mb.AddProduct(product.Product{
		ID:            "prod-mug",
		Slug:          "mug",
		Name:          product.Translations(map[string]string{"bg": "Чаша", "en": "Mug"}),
		Price:         decimal.RequireFromString("25.00"),
		FinalPrice:    decimal.RequireFromString("25.00"),
		StockQuantity: intPtr(2),
	})
	mb.AddProduct(product.Product{
		ID:         "prod-tee",
		Slug:       "tee",
		Name:       product.Text("T-shirt"),
		Price:      decimal.RequireFromString("19.90"),
		FinalPrice: decimal.RequireFromString("15.50"),
		Variants: []product.Variant{
			{ID: "tee-m", SKU: "TEE-M", FinalPrice: decimal.RequireFromString("15.50"), StockQuantity: intPtr(10)},
			{ID: "tee-l", SKU: "TEE-L", FinalPrice: decimal.RequireFromString("16.00"), StockQuantity: intPtr(1)},
		},
	})
	mb.AddProduct(product.Product{
		ID:         "prod-card",
		Slug:       "gift-card",
		Name:       product.Text("Gift card"),
		Price:      decimal.RequireFromString("50"),
		FinalPrice: decimal.RequireFromString("50"),
	})

	api := &hookedBackend{MockBackend: mb}
	cache := querycache.New(store.NewMemoryStore(), time.Minute)
	svc := cart.NewService(api, cache, querycache.NewPending(), nil)

	id := session.Identity{CartToken: "cart-token-1", Locale: session.LocaleEN}
	ctx := querycache.WithScope(session.WithIdentity(context.Background(), id), id.Scope())
	return svc, api, ctx
}

func strPtr(s string) *string { return &s }

func sumSubtotals(c *cart.Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Subtotal)
	}
	return sum
}

// ============================================
// Get / Count Tests
// ============================================

func TestService_Get_CachesCart(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	c, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.NotNil(t, c.Items)

	_, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, api.CallCount("GetCart"))

	_, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, api.CallCount("GetCart"))
}

func TestService_Get_Error(t *testing.T) {
	svc, api, ctx := newTestCartService(t)
	api.FailNext("GetCart", serverDown)

	c, err := svc.Get(ctx)

	assert.Nil(t, c)
	assert.True(t, backend.IsKind(err, backend.KindServer))
}

func TestService_Get_SendsCartToken(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	_, err := svc.Get(ctx)
	require.NoError(t, err)

	call, ok := api.LastCall("GetCart")
	require.True(t, ok)
	assert.Equal(t, "cart-token-1", call.CartToken)
}

func TestService_Count(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	_, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 3})
	require.NoError(t, err)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	calls := api.CallCount("GetCart")
	_, _ = svc.Count(ctx)
	assert.Equal(t, calls, api.CallCount("GetCart"))
}

// ============================================
// AddItem Tests
// ============================================

func TestService_AddItem_TotalItemsAndSubtotal(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		quantity  int
		variantID *string
	}{
		{"simple product", "prod-mug", 1, nil},
		{"two of a kind", "prod-mug", 2, nil},
		{"variant", "prod-tee", 3, strPtr("tee-m")},
		{"untracked stock", "prod-card", 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, ctx := newTestCartService(t)

			// something already in the cart
			_, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-tee", Quantity: 1, VariantID: strPtr("tee-l")})
			require.NoError(t, err)
			before, err := svc.Get(ctx)
			require.NoError(t, err)

			_, err = svc.AddItem(ctx, cart.AddItemRequest{ProductID: tt.productID, Quantity: tt.quantity, VariantID: tt.variantID})
			require.NoError(t, err)

			after, err := svc.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, before.Summary.TotalItems+tt.quantity, after.Summary.TotalItems)
			assert.True(t, sumSubtotals(after).Equal(after.Summary.Subtotal),
				"subtotal %s != sum of items %s", after.Summary.Subtotal, sumSubtotals(after))
		})
	}
}

func TestService_AddItem_RefetchesAndLocalizes(t *testing.T) {
	svc, _, ctx := newTestCartService(t)

	c, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-mug", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "Mug", c.Items[0].Product.Name.String())
	assert.True(t, c.Summary.Total.Equal(decimal.RequireFromString("25")))
}

func TestService_AddItem_OptimisticCount(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	var inFlight int
	api.beforeAdd = func(ctx context.Context) {
		inFlight, _ = svc.Count(ctx)
	}

	_, err = svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, inFlight)
}

func TestService_AddItem_FailureRollsBackCount(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	_, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 1})
	require.NoError(t, err)

	api.FailNext("AddCartItem", serverDown)
	_, err = svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 4})
	require.Error(t, err)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_AddItem_InsufficientStockSurfacedVerbatim(t *testing.T) {
	svc, _, ctx := newTestCartService(t)

	_, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-mug", Quantity: 3})

	be, ok := backend.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Insufficient stock", be.UserMessage())
}

func TestService_AddItem_DuplicateInFlight(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	var nested error
	api.beforeAdd = func(ctx context.Context) {
		api.beforeAdd = nil
		_, nested = svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 1})
	}

	_, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 1})
	require.NoError(t, err)
	assert.ErrorIs(t, nested, querycache.ErrMutationPending)
	assert.Equal(t, 1, api.CallCount("AddCartItem"))
}

func TestService_AddItem_RequiresProduct(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	_, err := svc.AddItem(ctx, cart.AddItemRequest{Quantity: 1})

	assert.ErrorIs(t, err, cart.ErrInvalidProduct)
	assert.Equal(t, 0, api.CallCount("AddCartItem"))
}

func TestService_AddItem_RefetchFailureInvalidates(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	_, err := svc.Get(ctx)
	require.NoError(t, err)

	api.FailNext("GetCart", serverDown)
	c, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 2})
	require.NoError(t, err)
	assert.Nil(t, c)

	// next read goes to the backend and sees the new item
	c, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Summary.TotalItems)
}

// ============================================
// UpdateItem Tests
// ============================================

func TestService_UpdateItem_RejectedWithoutRequest(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	c, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-mug", Quantity: 1})
	require.NoError(t, err)
	itemID := c.Items[0].ID

	tests := []struct {
		name     string
		quantity int
		want     error
	}{
		{"zero", 0, cart.ErrInvalidQuantity},
		{"negative", -3, cart.ErrInvalidQuantity},
		{"above stock", 3, cart.ErrMaxStockReached},
		{"far above stock", 100, cart.ErrMaxStockReached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := svc.Get(ctx)
			require.NoError(t, err)
			getCalls := api.CallCount("GetCart")

			_, err = svc.UpdateItem(ctx, itemID, tt.quantity)
			assert.ErrorIs(t, err, tt.want)

			after, err := svc.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Equal(t, 0, api.CallCount("UpdateCartItem"))
			assert.Equal(t, getCalls, api.CallCount("GetCart"))
		})
	}
}

func TestService_UpdateItem_MaxStockScenario(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	c, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-mug", Quantity: 2})
	require.NoError(t, err)
	item := c.Items[0]
	require.Equal(t, 2, item.Quantity)
	require.True(t, item.UnitPrice.Equal(decimal.RequireFromString("25.00")))
	assert.False(t, item.CanIncrement())

	_, err = svc.UpdateItem(ctx, item.ID, 3)

	assert.ErrorIs(t, err, cart.ErrMaxStockReached)
	assert.Contains(t, err.Error(), "only 2 available")
	assert.Equal(t, 0, api.CallCount("UpdateCartItem"))
}

func TestService_UpdateItem_Success(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	c, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-tee", Quantity: 1, VariantID: strPtr("tee-m")})
	require.NoError(t, err)

	c, err = svc.UpdateItem(ctx, c.Items[0].ID, 4)
	require.NoError(t, err)

	assert.Equal(t, 1, api.CallCount("UpdateCartItem"))
	assert.Equal(t, 4, c.Items[0].Quantity)
	assert.Equal(t, 4, c.Summary.TotalItems)
	assert.True(t, c.Summary.Subtotal.Equal(decimal.RequireFromString("62.00")))
}

func TestService_UpdateItem_SameQuantityIsNoop(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	c, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 2})
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, c.Items[0].ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, api.CallCount("UpdateCartItem"))
}

func TestService_UpdateItem_UnknownItem(t *testing.T) {
	svc, _, ctx := newTestCartService(t)

	_, err := svc.UpdateItem(ctx, "item-missing", 1)

	assert.ErrorIs(t, err, cart.ErrItemNotFound)
}

func TestService_UpdateItem_StockRaceLeavesCache(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	c, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-mug", Quantity: 1})
	require.NoError(t, err)
	before, err := svc.Get(ctx)
	require.NoError(t, err)

	// another shopper bought the last one
	api.SetStock("prod-mug", 1)

	_, err = svc.UpdateItem(ctx, c.Items[0].ID, 2)
	be, ok := backend.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Insufficient stock", be.Message)

	after, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// ============================================
// RemoveItem Tests
// ============================================

func TestService_RemoveItem_OptimisticThenRefetch(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	_, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-mug", Quantity: 2})
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	mugID := c.Items[0].ID

	var inFlight *cart.Cart
	api.beforeRemove = func(ctx context.Context) {
		inFlight, _ = svc.Get(ctx)
	}

	c, err = svc.RemoveItem(ctx, mugID)
	require.NoError(t, err)

	require.NotNil(t, inFlight)
	assert.Len(t, inFlight.Items, 1)
	assert.Equal(t, 2, inFlight.Summary.TotalItems)

	assert.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Summary.TotalItems)
}

func TestService_RemoveItem_FailureRestoresSnapshot(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	_, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-mug", Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 1})
	require.NoError(t, err)

	before, err := svc.Get(ctx)
	require.NoError(t, err)
	countBefore, err := svc.Count(ctx)
	require.NoError(t, err)

	api.FailNext("RemoveCartItem", &backend.Error{Kind: backend.KindNetwork, Message: "connection refused"})
	_, err = svc.RemoveItem(ctx, before.Items[0].ID)
	require.Error(t, err)

	after, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	countAfter, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, countBefore, countAfter)
}

func TestService_RemoveItem_FailureWithoutCachedCart(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	api.FailNext("RemoveCartItem", serverDown)
	_, err := svc.RemoveItem(ctx, "item-1")
	require.Error(t, err)

	// nothing was cached before, so nothing is cached after
	_, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, api.CallCount("GetCart"))
}

func TestService_RemoveItem_UnknownItemLeavesCachedCart(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	_, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-mug", Quantity: 2})
	require.NoError(t, err)
	before, err := svc.Get(ctx)
	require.NoError(t, err)
	countBefore, err := svc.Count(ctx)
	require.NoError(t, err)

	var inFlight *cart.Cart
	var countInFlight int
	api.beforeRemove = func(ctx context.Context) {
		inFlight, _ = svc.Get(ctx)
		countInFlight, _ = svc.Count(ctx)
	}

	_, err = svc.RemoveItem(ctx, "item-missing")
	require.Error(t, err)

	require.NotNil(t, inFlight)
	assert.Equal(t, before, inFlight)
	assert.Equal(t, countBefore, countInFlight)
}

// ============================================
// Locale Tests
// ============================================

func TestService_Get_CachedPerLocale(t *testing.T) {
	svc, api, en := newTestCartService(t)

	c, err := svc.AddItem(en, cart.AddItemRequest{ProductID: "prod-mug", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "Mug", c.Items[0].Product.Name.String())

	id := session.FromContext(en)
	id.Locale = session.LocaleBG
	bg := session.WithIdentity(en, id)

	c, err = svc.Get(bg)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "Чаша", c.Items[0].Product.Name.String())

	// the count is shared across locales
	calls := api.CallCount("GetCart")
	n, err := svc.Count(bg)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, calls, api.CallCount("GetCart"))

	c, err = svc.Get(en)
	require.NoError(t, err)
	assert.Equal(t, "Mug", c.Items[0].Product.Name.String())
}

func TestService_Mutation_DropsOtherLocales(t *testing.T) {
	svc, _, en := newTestCartService(t)

	id := session.FromContext(en)
	id.Locale = session.LocaleBG
	bg := session.WithIdentity(en, id)

	_, err := svc.AddItem(en, cart.AddItemRequest{ProductID: "prod-mug", Quantity: 1})
	require.NoError(t, err)
	c, err := svc.Get(bg)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)

	_, err = svc.AddItem(en, cart.AddItemRequest{ProductID: "prod-card", Quantity: 1})
	require.NoError(t, err)

	c, err = svc.Get(bg)
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)
}

// ============================================
// Clear / Validate Tests
// ============================================

func TestService_Clear_RequiresConfirmation(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	_, err := svc.Clear(ctx, false)

	assert.ErrorIs(t, err, cart.ErrConfirmationRequired)
	assert.Equal(t, 0, api.CallCount("ClearCart"))
}

func TestService_Clear_YieldsEmptyCart(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	_, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-mug", Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 1})
	require.NoError(t, err)

	c, err := svc.Clear(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []cart.CartItem{}, c.Items)
	assert.Equal(t, 0, c.Summary.TotalItems)

	getCalls := api.CallCount("GetCart")
	cached, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []cart.CartItem{}, cached.Items)
	assert.Equal(t, 0, cached.Summary.TotalItems)
	assert.Equal(t, getCalls, api.CallCount("GetCart"))

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestService_Clear_FailureKeepsCart(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	_, err := svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 1})
	require.NoError(t, err)

	api.FailNext("ClearCart", serverDown)
	_, err = svc.Clear(ctx, true)
	require.Error(t, err)

	c, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

func TestService_Validate_DoesNotTouchCache(t *testing.T) {
	svc, api, ctx := newTestCartService(t)

	v, err := svc.Validate(ctx)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.NotEmpty(t, v.Errors)
	assert.Equal(t, 0, api.CallCount("GetCart"))

	_, err = svc.AddItem(ctx, cart.AddItemRequest{ProductID: "prod-card", Quantity: 1})
	require.NoError(t, err)
	before, _ := svc.Get(ctx)

	v, err = svc.Validate(ctx)
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, []string{}, v.Errors)

	after, _ := svc.Get(ctx)
	assert.Equal(t, before, after)
}

func TestService_Validate_Error(t *testing.T) {
	svc, api, ctx := newTestCartService(t)
	api.FailNext("ValidateCart", errors.New("boom"))

	_, err := svc.Validate(ctx)
	assert.Error(t, err)
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/example/storefront/internal/activity"
	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/wishlist"
	"github.com/example/storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handlers struct {
	carts     *cart.Service
	wishlists *wishlist.Service
	orders    *order.Service
	checkout  *checkout.Service
	catalog   *product.Service
	activity  *activity.Recorder
	cookies   CookieConfig
	logger    *zap.Logger
}

// CookieConfig controls the cookies the storefront sets itself
type CookieConfig struct {
	Secure  bool
	AuthTTL time.Duration
}

func NewHandlers(
	carts *cart.Service,
	wishlists *wishlist.Service,
	orders *order.Service,
	checkoutService *checkout.Service,
	catalog *product.Service,
	recorder *activity.Recorder,
	cookies CookieConfig,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		carts:     carts,
		wishlists: wishlists,
		orders:    orders,
		checkout:  checkoutService,
		catalog:   catalog,
		activity:  recorder,
		cookies:   cookies,
		logger:    logger.Named("api"),
	}
}

// Cart Handlers

type cartItemResponse struct {
	cart.CartItem
	CanIncrement bool `json:"can_increment"`
	MaxQuantity  *int `json:"max_quantity,omitempty"`
}

type cartResponse struct {
	ID      string             `json:"id,omitempty"`
	Items   []cartItemResponse `json:"items"`
	Summary cart.Summary       `json:"summary"`
}

func newCartResponse(c *cart.Cart) *cartResponse {
	if c == nil {
		return nil
	}
	resp := &cartResponse{ID: c.ID, Items: make([]cartItemResponse, len(c.Items)), Summary: c.Summary}
	for i := range c.Items {
		item := &c.Items[i]
		view := cartItemResponse{CartItem: *item, CanIncrement: item.CanIncrement()}
		if limit, ok := item.MaxQuantity(); ok {
			view.MaxQuantity = &limit
		}
		resp.Items[i] = view
	}
	return resp
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	get := h.carts.Get
	if r.URL.Query().Get("refresh") == "true" {
		get = h.carts.Refresh
	}
	c, err := get(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handlers) GetCartCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.carts.Count(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cart.AddItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		respondError(w, h.logger, cart.ErrInvalidQuantity)
		return
	}

	c, err := h.carts.AddItem(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.activity.Record(r.Context(), activity.EventCartItemAdded, activity.CartItemAdded{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	respondSettled(w, newCartResponse(c))
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.carts.UpdateItem(r.Context(), itemID, req.Quantity)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.activity.Record(r.Context(), activity.EventCartItemUpdated, activity.CartItemUpdated{
		ItemID:   itemID,
		Quantity: req.Quantity,
	})
	respondSettled(w, newCartResponse(c))
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	c, err := h.carts.RemoveItem(r.Context(), itemID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.activity.Record(r.Context(), activity.EventCartItemRemoved, activity.CartItemRemoved{ItemID: itemID})
	respondSettled(w, newCartResponse(c))
}

// ClearCart needs ?confirm=true; the storefront asks the shopper first
func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	c, err := h.carts.Clear(r.Context(), confirmed)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.activity.Record(r.Context(), activity.EventCartCleared, nil)
	respondSettled(w, newCartResponse(c))
}

func (h *Handlers) ValidateCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.carts.Validate(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if v.Errors == nil {
		v.Errors = []string{}
	}
	respondJSON(w, http.StatusOK, v)
}

// Wishlist Handlers

func (h *Handlers) GetWishlist(w http.ResponseWriter, r *http.Request) {
	list, err := h.wishlists.Get(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handlers) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	list, err := h.wishlists.Add(r.Context(), productID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.activity.Record(r.Context(), activity.EventWishlistToggled, activity.WishlistToggled{ProductID: productID, Added: true})
	respondSettled(w, list)
}

func (h *Handlers) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	list, err := h.wishlists.Remove(r.Context(), productID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.activity.Record(r.Context(), activity.EventWishlistToggled, activity.WishlistToggled{ProductID: productID})
	respondSettled(w, list)
}

func (h *Handlers) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	list, added, err := h.wishlists.Toggle(r.Context(), productID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.activity.Record(r.Context(), activity.EventWishlistToggled, activity.WishlistToggled{ProductID: productID, Added: added})
	respondJSON(w, http.StatusOK, map[string]any{
		"in_wishlist": added,
		"wishlist":    list,
	})
}

// Preference Handlers

func (h *Handlers) SetLocale(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Locale string `json:"locale"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	locale, ok := session.ParseLocale(req.Locale)
	if !ok {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Message: fieldsMessage,
			Fields:  map[string][]string{"locale": {"Unsupported locale."}},
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.LocaleCookie,
		Value:    locale,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"locale": locale})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package api

import (
	"net/http"
	"strconv"

	"github.com/example/storefront/internal/activity"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/paging"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// orderResponse exposes the cancel capability so the UI never offers an
// action the status does not allow
type orderResponse struct {
	order.Order
	CanCancel bool `json:"can_cancel"`
}

func newOrderResponse(o *order.Order) orderResponse {
	return orderResponse{Order: *o, CanCancel: o.CanCancel()}
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	result, err := h.orders.List(r.Context(), page)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	orders := make([]orderResponse, len(result.Data))
	for i := range result.Data {
		orders[i] = newOrderResponse(&result.Data[i])
	}
	respondJSON(w, http.StatusOK, paging.Page[orderResponse]{Data: orders, Meta: result.Meta})
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderResponse(o))
}

// PlaceOrder runs checkout for the session cart
func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req order.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.checkout.Submit(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.logger.Info("order placed", zap.String("order_id", o.ID), zap.String("total", o.Total.StringFixed(2)))
	h.activity.Record(r.Context(), activity.EventOrderPlaced, activity.OrderPlaced{
		OrderID: o.ID,
		Total:   o.Total.StringFixed(2),
	})
	respondJSON(w, http.StatusCreated, newOrderResponse(o))
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.orders.Cancel(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.activity.Record(r.Context(), activity.EventOrderCancelled, activity.OrderCancelled{OrderID: id})
	respondJSON(w, http.StatusOK, newOrderResponse(o))
}

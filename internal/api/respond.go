package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/storefront/internal/backend"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/wishlist"
	"github.com/example/storefront/internal/querycache"
	"github.com/example/storefront/internal/validation"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

const (
	fieldsMessage  = "Please correct the highlighted fields."
	genericMessage = "Something went wrong. Please try again."
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, code, message string, status int) {
	respondJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// respondSettled writes a mutation result. A nil value means the mutation
// went through but the follow-up read did not, so the client refetches.
func respondSettled[T any](w http.ResponseWriter, v *T) {
	if v == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSONError(w, "invalid_json", "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

var sentinelErrors = []struct {
	err    error
	code   string
	status int
}{
	{querycache.ErrMutationPending, "mutation_pending", http.StatusConflict},
	{cart.ErrInvalidQuantity, "invalid_quantity", http.StatusBadRequest},
	{cart.ErrInvalidProduct, "invalid_request", http.StatusBadRequest},
	{wishlist.ErrInvalidProduct, "invalid_request", http.StatusBadRequest},
	{cart.ErrConfirmationRequired, "confirmation_required", http.StatusBadRequest},
	{cart.ErrMaxStockReached, "max_stock_reached", http.StatusConflict},
	{cart.ErrEmptyCart, "empty_cart", http.StatusConflict},
	{cart.ErrItemNotFound, "not_found", http.StatusNotFound},
	{product.ErrProductNotFound, "not_found", http.StatusNotFound},
	{order.ErrCancelNotAllowed, "cancel_not_allowed", http.StatusConflict},
}

// respondError maps service and backend errors onto status codes. Backend
// messages are passed through so the shopper sees the server's wording.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	for _, s := range sentinelErrors {
		if errors.Is(err, s.err) {
			respondJSONError(w, s.code, upperFirst(err.Error()), s.status)
			return
		}
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Message: fieldsMessage,
			Fields:  verr.Fields,
		})
		return
	}

	var invalidCart *checkout.InvalidCartError
	if errors.As(err, &invalidCart) {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid_cart",
			Message: strings.Join(invalidCart.Errors, " "),
			Fields:  map[string][]string{"cart": invalidCart.Errors},
		})
		return
	}

	if berr, ok := backend.AsError(err); ok {
		status := backendStatus(berr)
		if status >= http.StatusInternalServerError {
			logger.Warn("backend call failed", zap.Error(err))
		}
		respondJSON(w, status, ErrorResponse{
			Error:   string(berr.Kind),
			Message: berr.UserMessage(),
			Fields:  berr.Fields,
		})
		return
	}

	logger.Error("unhandled error", zap.Error(err))
	respondJSONError(w, "internal_error", genericMessage, http.StatusInternalServerError)
}

func backendStatus(e *backend.Error) int {
	switch e.Kind {
	case backend.KindValidation:
		return http.StatusUnprocessableEntity
	case backend.KindNotFound:
		return http.StatusNotFound
	case backend.KindUnauthorized:
		return http.StatusUnauthorized
	case backend.KindRateLimited:
		return http.StatusTooManyRequests
	case backend.KindNetwork:
		return http.StatusBadGateway
	}
	if e.Status >= 400 && e.Status < 500 {
		return e.Status
	}
	return http.StatusBadGateway
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"go.uber.org/zap"
)

type CartService interface {
	Refresh(ctx context.Context) (*cart.Cart, error)
	Validate(ctx context.Context) (*cart.Validation, error)
	ResetEmpty(ctx context.Context) error
}

type OrderService interface {
	Create(ctx context.Context, req order.CreateOrderRequest) (*order.Order, error)
}

// InvalidCartError blocks checkout with the reasons the backend gave
type InvalidCartError struct {
	Errors []string
}

func (e *InvalidCartError) Error() string {
	if len(e.Errors) == 0 {
		return "cart is not valid for checkout"
	}
	return fmt.Sprintf("cart is not valid for checkout: %s", strings.Join(e.Errors, "; "))
}

type Service struct {
	carts  CartService
	orders OrderService
	logger *zap.Logger
}

func NewService(carts CartService, orders OrderService, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{carts: carts, orders: orders, logger: logger.Named("checkout")}
}

// Submit places an order from the session cart
func (s *Service) Submit(ctx context.Context, req order.CreateOrderRequest) (*order.Order, error) {
	// 1. Current cart, never the cached copy
	c, err := s.carts.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, cart.ErrEmptyCart
	}

	// 2. Backend pre-checkout validation (stock, prices, availability)
	v, err := s.carts.Validate(ctx)
	if err != nil {
		return nil, err
	}
	if !v.Valid {
		return nil, &InvalidCartError{Errors: v.Errors}
	}

	// 3. Place the order
	o, err := s.orders.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	// 4. The backend consumed the cart
	if err := s.carts.ResetEmpty(ctx); err != nil {
		s.logger.Warn("failed to reset cart cache after checkout",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
	return o, nil
}

package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/readmodel"
	"go.uber.org/zap"
)

// Projector folds activity events into the cart_activity read model
type Projector struct {
	store  store.ActivityStoreInterface
	logger *zap.Logger
	now    func() time.Time
}

func NewProjector(activityStore store.ActivityStoreInterface, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{
		store:  activityStore,
		logger: logger.Named("projector"),
		now:    time.Now,
	}
}

// HandleEvent matches kafka.MessageHandler
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("failed to decode activity event: %w", err)
	}
	if event.CartToken == "" {
		p.logger.Debug("skipping event without cart token", zap.String("event_id", event.ID))
		return nil
	}

	p.logger.Debug("received event",
		zap.String("type", event.Type),
		zap.String("cart_token", event.CartToken),
	)

	current, found, err := p.store.GetCartActivity(ctx, event.CartToken)
	if err != nil {
		return err
	}
	if !found {
		current = &readmodel.CartActivityReadModel{CartToken: event.CartToken}
	}

	known, err := p.apply(current, event)
	if err != nil {
		return err
	}
	if !known {
		p.logger.Debug("ignoring unknown event type", zap.String("type", event.Type))
		return nil
	}
	current.LastEvent = event.Type
	// a redelivered or reordered event must not move activity back in time
	if event.Timestamp.After(current.LastActivityAt) {
		current.LastActivityAt = event.Timestamp
	}
	current.UpdatedAt = p.now().UTC()

	return p.store.SaveCartActivity(ctx, current)
}

func (p *Projector) apply(a *readmodel.CartActivityReadModel, event Event) (bool, error) {
	switch event.Type {
	case EventCartItemAdded:
		var e CartItemAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return false, err
		}
		a.ItemsAdded += e.Quantity
		// a new cart after checkout starts a new shopping round
		a.CheckedOut = false

	case EventCartItemRemoved, EventCartCleared:
		a.ItemsRemoved++

	case EventWishlistToggled:
		a.WishlistToggles++

	case EventOrderPlaced:
		var e OrderPlaced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return false, err
		}
		a.CheckedOut = true
		a.OrderID = e.OrderID

	case EventOrderCancelled:
		var e OrderCancelled
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return false, err
		}
		if e.OrderID == a.OrderID {
			a.CheckedOut = false
		}

	case EventCustomerLogin:
		var e CustomerLoggedIn
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return false, err
		}
		a.UserID = e.UserID

	case EventCartItemUpdated:
		// quantity changes only count as activity

	default:
		return false, nil
	}
	return true, nil
}

package activity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventCartItemAdded   = "CartItemAdded"
	EventCartItemUpdated = "CartItemUpdated"
	EventCartItemRemoved = "CartItemRemoved"
	EventCartCleared     = "CartCleared"
	EventWishlistToggled = "WishlistToggled"
	EventOrderPlaced     = "OrderPlaced"
	EventOrderCancelled  = "OrderCancelled"
	EventCustomerLogin   = "CustomerLoggedIn"
)

// Event is the envelope published to Kafka. Events are keyed by cart token
// so one cart's events stay in one partition.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CartToken string          `json:"cart_token"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func (e Event) EventType() string { return e.Type }

func NewEvent(eventType, cartToken string, data any) (Event, error) {
	e := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		CartToken: cartToken,
		Timestamp: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		e.Data = raw
	}
	return e, nil
}

type CartItemAdded struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
}

type CartItemUpdated struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type CartItemRemoved struct {
	ItemID string `json:"item_id"`
}

type WishlistToggled struct {
	ProductID string `json:"product_id"`
	Added     bool   `json:"added"`
}

type OrderPlaced struct {
	OrderID string `json:"order_id"`
	Total   string `json:"total"`
}

type OrderCancelled struct {
	OrderID string `json:"order_id"`
}

type CustomerLoggedIn struct {
	UserID string `json:"user_id"`
}

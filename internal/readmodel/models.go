package readmodel

import "time"

// CartActivityReadModel tracks what a storefront session did with its cart.
// Rows that are not checked out and have an old LastActivityAt are abandoned carts.
// ItemsAdded counts units; ItemsRemoved counts remove and clear operations.
type CartActivityReadModel struct {
	CartToken       string    `json:"cart_token"`
	UserID          string    `json:"user_id,omitempty"`
	ItemsAdded      int       `json:"items_added"`
	ItemsRemoved    int       `json:"items_removed"`
	WishlistToggles int       `json:"wishlist_toggles"`
	LastEvent       string    `json:"last_event"`
	LastActivityAt  time.Time `json:"last_activity_at"`
	CheckedOut      bool      `json:"checked_out"`
	OrderID         string    `json:"order_id,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

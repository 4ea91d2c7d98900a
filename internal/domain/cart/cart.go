package cart

import (
	"errors"

	"github.com/example/storefront/internal/domain/product"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrMaxStockReached      = errors.New("max stock reached")
	ErrConfirmationRequired = errors.New("clearing the cart requires confirmation")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrItemNotFound         = errors.New("cart item not found")
	ErrInvalidProduct       = errors.New("product_id is required")
)

type CartItem struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id"`
	VariantID *string          `json:"variant_id,omitempty"`
	Product   *product.Product `json:"product,omitempty"`
	Variant   *product.Variant `json:"variant,omitempty"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
	InStock   bool             `json:"in_stock"`
}

// MaxQuantity is the stock of the variant, or of the product when the item
// has no variant. ok is false when no limit is known.
func (i *CartItem) MaxQuantity() (int, bool) {
	if i.Variant != nil {
		return i.Variant.MaxStock()
	}
	if i.Product != nil {
		return i.Product.MaxStock()
	}
	return 0, false
}

// CanIncrement gates the "+1" control: it is off once the quantity meets the
// known stock.
func (i *CartItem) CanIncrement() bool {
	limit, ok := i.MaxQuantity()
	return !ok || i.Quantity < limit
}

type Summary struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
	TotalItems int             `json:"total_items"`
}

type Cart struct {
	ID      string     `json:"id,omitempty"`
	Items   []CartItem `json:"items"`
	Summary Summary    `json:"summary"`
}

// Empty is the known state of a cart after a successful clear or checkout
func Empty() *Cart {
	return &Cart{Items: []CartItem{}}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) Item(id string) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// Localize resolves the translated product fields of every item
func (c Cart) Localize(locale string) Cart {
	items := make([]CartItem, len(c.Items))
	for i, item := range c.Items {
		if item.Product != nil {
			p := item.Product.Localize(locale)
			item.Product = &p
		}
		if item.Variant != nil {
			v := item.Variant.Localize(locale)
			item.Variant = &v
		}
		items[i] = item
	}
	c.Items = items
	return c
}

type AddItemRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	VariantID *string `json:"variant_id,omitempty"`
}

// Validation is the pre-checkout verdict from the backend
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

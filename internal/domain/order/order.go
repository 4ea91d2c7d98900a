package order

import (
	"errors"
	"time"

	"github.com/example/storefront/internal/domain/product"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

const (
	ShippingToAddress = "address"
	ShippingToOffice  = "office"
)

const (
	PaymentCashOnDelivery = "cod"
	PaymentCard           = "card"
	PaymentBankTransfer   = "bank_transfer"
)

var ErrCancelNotAllowed = errors.New("order can no longer be cancelled")

// clientTransitions lists the status changes a customer may request. Every
// other transition belongs to the backend.
var clientTransitions = map[Status][]Status{
	StatusPending:    {StatusCancelled},
	StatusProcessing: {StatusCancelled},
	StatusShipped:    {},
	StatusDelivered:  {},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

type Address struct {
	Street     string `json:"street" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country,omitempty"`
}

type Customer struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=6,max=20"`
}

type Invoice struct {
	CompanyName       string `json:"company_name" validate:"required,max=255"`
	CompanyID         string `json:"company_id" validate:"required,max=20"`
	VATNumber         string `json:"vat_number,omitempty" validate:"max=20"`
	Address           string `json:"address" validate:"required,max=255"`
	ResponsiblePerson string `json:"responsible_person" validate:"required,max=255"`
}

type OrderItem struct {
	ID          string                `json:"id"`
	ProductID   string                `json:"product_id"`
	VariantID   *string               `json:"variant_id,omitempty"`
	ProductName product.LocalizedText `json:"product_name"`
	SKU         string                `json:"sku"`
	Quantity    int                   `json:"quantity"`
	Price       decimal.Decimal       `json:"price"`
	Subtotal    decimal.Decimal       `json:"subtotal"`
}

type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Status          Status          `json:"status"`
	Items           []OrderItem     `json:"items"`
	Customer        *Customer       `json:"customer,omitempty"`
	ShippingMethod  string          `json:"shipping_method"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
	OfficeID        string          `json:"office_id,omitempty"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   string          `json:"payment_status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CanTransitionTo checks if the customer may move the order to target
func (o *Order) CanTransitionTo(target Status) bool {
	for _, s := range clientTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// CanCancel gates the cancel action. The backend still has the final word.
func (o *Order) CanCancel() bool {
	return o.CanTransitionTo(StatusCancelled)
}

func (o Order) Localize(locale string) Order {
	items := make([]OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.ProductName = item.ProductName.Localize(locale)
		items[i] = item
	}
	o.Items = items
	return o
}

// CreateOrderRequest is the checkout payload. CartToken identifies a guest
// cart and is filled from the session when empty.
type CreateOrderRequest struct {
	CartToken       string   `json:"cart_token,omitempty"`
	Customer        Customer `json:"customer"`
	ShippingMethod  string   `json:"shipping_method" validate:"required,oneof=address office"`
	ShippingAddress *Address `json:"shipping_address,omitempty" validate:"required_if=ShippingMethod address"`
	OfficeID        string   `json:"office_id,omitempty" validate:"required_if=ShippingMethod office"`
	PaymentMethod   string   `json:"payment_method" validate:"required,oneof=cod card bank_transfer"`
	Invoice         *Invoice `json:"invoice,omitempty"`
	Notes           string   `json:"notes,omitempty" validate:"max=1000"`
}

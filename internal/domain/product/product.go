package product

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

type Image struct {
	URL string        `json:"url"`
	Alt LocalizedText `json:"alt"`
}

type Variant struct {
	ID             string           `json:"id"`
	SKU            string           `json:"sku"`
	Name           LocalizedText    `json:"name"`
	Price          decimal.Decimal  `json:"price"`
	SalePrice      *decimal.Decimal `json:"sale_price,omitempty"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	FinalPrice     decimal.Decimal  `json:"final_price"`
	StockQuantity  *int             `json:"stock_quantity,omitempty"`
}

type Product struct {
	ID             string           `json:"id"`
	Slug           string           `json:"slug"`
	SKU            string           `json:"sku"`
	Name           LocalizedText    `json:"name"`
	Description    LocalizedText    `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	SalePrice      *decimal.Decimal `json:"sale_price,omitempty"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	FinalPrice     decimal.Decimal  `json:"final_price"`
	StockQuantity  *int             `json:"stock_quantity,omitempty"`
	Images         []Image          `json:"images,omitempty"`
	Variants       []Variant        `json:"variants,omitempty"`
	CategoryIDs    []string         `json:"category_ids,omitempty"`
}

type Category struct {
	ID            string        `json:"id"`
	Slug          string        `json:"slug"`
	Name          LocalizedText `json:"name"`
	Description   LocalizedText `json:"description"`
	ParentID      *string       `json:"parent_id,omitempty"`
	ProductsCount int           `json:"products_count"`
}

type Collection struct {
	ID          string        `json:"id"`
	Slug        string        `json:"slug"`
	Name        LocalizedText `json:"name"`
	Description LocalizedText `json:"description"`
	ImageURL    string        `json:"image_url,omitempty"`
}

// OnSale reports whether a sale price below the regular price applies
func (p *Product) OnSale() bool {
	return p.SalePrice != nil && p.SalePrice.LessThan(p.Price)
}

// MaxStock is the product-level stock limit. ok is false when the backend
// does not track stock for the product.
func (p *Product) MaxStock() (int, bool) {
	if p.StockQuantity == nil {
		return 0, false
	}
	return *p.StockQuantity, true
}

func (p *Product) Variant(id string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

func (v *Variant) MaxStock() (int, bool) {
	if v.StockQuantity == nil {
		return 0, false
	}
	return *v.StockQuantity, true
}

func (v Variant) Localize(locale string) Variant {
	v.Name = v.Name.Localize(locale)
	return v
}

// Localize returns a copy of p with every translated field resolved to locale
func (p Product) Localize(locale string) Product {
	p.Name = p.Name.Localize(locale)
	p.Description = p.Description.Localize(locale)
	if p.Images != nil {
		images := make([]Image, len(p.Images))
		for i, img := range p.Images {
			img.Alt = img.Alt.Localize(locale)
			images[i] = img
		}
		p.Images = images
	}
	if p.Variants != nil {
		variants := make([]Variant, len(p.Variants))
		for i, v := range p.Variants {
			variants[i] = v.Localize(locale)
		}
		p.Variants = variants
	}
	return p
}

func (c Category) Localize(locale string) Category {
	c.Name = c.Name.Localize(locale)
	c.Description = c.Description.Localize(locale)
	return c
}

func (c Collection) Localize(locale string) Collection {
	c.Name = c.Name.Localize(locale)
	c.Description = c.Description.Localize(locale)
	return c
}

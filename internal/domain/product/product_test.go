package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProduct_OnSale(t *testing.T) {
	price := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	tests := []struct {
		name string
		sale *decimal.Decimal
		want bool
	}{
		{name: "no sale price", sale: nil, want: false},
		{name: "below regular", sale: price("15.00"), want: true},
		{name: "equal to regular", sale: price("20.00"), want: false},
		{name: "above regular", sale: price("25.00"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{Price: decimal.RequireFromString("20.00"), SalePrice: tt.sale}
			assert.Equal(t, tt.want, p.OnSale())
		})
	}
}

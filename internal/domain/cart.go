package domain

import "github.com/shopspring/decimal"

// Product is what a screen hands to the cart when the shopper taps "add".
// Name, price and image are captured as-is and never re-fetched.
type Product struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image"`
}

// LineItem is one product-quantity pairing in the cart.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

func NewLineItem(p Product, quantity int) LineItem {
	return LineItem{
		ProductID: p.ProductID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Image:     p.Image,
		Quantity:  quantity,
	}
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums the subtotals of items. An empty slice totals zero.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

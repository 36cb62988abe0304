package cart

import (
	"slices"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/shopspring/decimal"
)

// Snapshot is an immutable view of the cart after a committed mutation.
type Snapshot struct {
	items   []domain.LineItem
	version uint64
}

// Items returns a copy of the line items in insertion order.
func (s Snapshot) Items() []domain.LineItem {
	return slices.Clone(s.items)
}

// Total is recomputed from the line items on every call.
func (s Snapshot) Total() decimal.Decimal {
	return domain.Total(s.items)
}

// ItemCount is the number of distinct line items, which is what the cart
// badge and the "N items" headers display.
func (s Snapshot) ItemCount() int {
	return len(s.items)
}

func (s Snapshot) IsEmpty() bool {
	return len(s.items) == 0
}

// Version increases by one with every committed mutation.
func (s Snapshot) Version() uint64 {
	return s.version
}

func (s Snapshot) Find(productID string) (domain.LineItem, bool) {
	if i := indexOf(s.items, productID); i >= 0 {
		return s.items[i], true
	}
	return domain.LineItem{}, false
}

func indexOf(items []domain.LineItem, productID string) int {
	return slices.IndexFunc(items, func(item domain.LineItem) bool {
		return item.ProductID == productID
	})
}

package catalog

import (
	"errors"
	"slices"
	"strings"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrNegativePrice = errors.New("price bounds must not be negative")
	ErrInvertedRange = errors.New("minimum price is above maximum price")
)

// DefaultMaxPrice is the upper end of the price slider.
var DefaultMaxPrice = decimal.NewFromInt(1000)

// Listing is a catalog entry as the product list shows it.
type Listing struct {
	domain.Product
	Brand   string `json:"brand"`
	InStock bool   `json:"in_stock"`
	OnSale  bool   `json:"on_sale"`
}

type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Filter narrows the product list. The zero value matches nothing priced
// above zero; start from DefaultFilter.
type Filter struct {
	Price   PriceRange `json:"price_range"`
	Brands  []string   `json:"brands"`
	InStock bool       `json:"in_stock"`
	OnSale  bool       `json:"on_sale"`
}

// DefaultFilter covers 0..1000 with no brand, stock or sale restriction.
func DefaultFilter() Filter {
	return Filter{
		Price:  PriceRange{Min: decimal.Zero, Max: DefaultMaxPrice},
		Brands: []string{},
	}
}

func (f *Filter) Reset() {
	*f = DefaultFilter()
}

// ToggleBrand selects brand, or deselects it when already selected.
func (f *Filter) ToggleBrand(brand string) {
	if i := slices.Index(f.Brands, brand); i >= 0 {
		f.Brands = slices.Delete(f.Brands, i, i+1)
		return
	}
	f.Brands = append(f.Brands, brand)
}

func (f Filter) HasBrand(brand string) bool {
	return slices.Contains(f.Brands, brand)
}

func (f Filter) Validate() error {
	if f.Price.Min.IsNegative() || f.Price.Max.IsNegative() {
		return ErrNegativePrice
	}
	if f.Price.Min.GreaterThan(f.Price.Max) {
		return ErrInvertedRange
	}
	return nil
}

// Matches reports whether l passes every criterion of the filter. An empty
// brand selection allows all brands.
func (f Filter) Matches(l Listing) bool {
	if l.UnitPrice.LessThan(f.Price.Min) || l.UnitPrice.GreaterThan(f.Price.Max) {
		return false
	}
	if len(f.Brands) > 0 && !f.HasBrand(l.Brand) {
		return false
	}
	if f.InStock && !l.InStock {
		return false
	}
	if f.OnSale && !l.OnSale {
		return false
	}
	return true
}

// key identifies the filter for request collapsing; brand order is irrelevant.
func (f Filter) key() string {
	brands := slices.Clone(f.Brands)
	slices.Sort(brands)
	var b strings.Builder
	b.WriteString(f.Price.Min.String())
	b.WriteByte('-')
	b.WriteString(f.Price.Max.String())
	b.WriteByte('|')
	b.WriteString(strings.Join(brands, ","))
	if f.InStock {
		b.WriteString("|stock")
	}
	if f.OnSale {
		b.WriteString("|sale")
	}
	return b.String()
}

// Query is a search text plus a filter.
type Query struct {
	Text   string `json:"q"`
	Filter Filter `json:"filter"`
}

func (q Query) key() string {
	return strings.ToLower(strings.TrimSpace(q.Text)) + "#" + q.Filter.key()
}

// MatchesText is a case-insensitive substring match on the name. Empty text matches everything.
func (q Query) MatchesText(l Listing) bool {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	return text == "" || strings.Contains(strings.ToLower(l.Name), text)
}

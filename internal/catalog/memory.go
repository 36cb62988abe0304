package catalog

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// MemoryCatalog is an in-memory product list. It serves as the fetcher
// for the browser and as the product lookup for add-to-cart.
type MemoryCatalog struct {
	mu       sync.RWMutex
	listings map[string]Listing
	order    []string
}

func NewMemoryCatalog(listings ...Listing) *MemoryCatalog {
	c := &MemoryCatalog{listings: make(map[string]Listing)}
	for _, l := range listings {
		c.Put(l)
	}
	return c
}

// Put adds or replaces a listing. New listings go to the end of the list.
func (c *MemoryCatalog) Put(l Listing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.listings[l.ProductID]; !exists {
		c.order = append(c.order, l.ProductID)
	}
	c.listings[l.ProductID] = l
}

// Product returns the add-to-cart snapshot of productID.
func (c *MemoryCatalog) Product(_ context.Context, productID string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, exists := c.listings[productID]
	if !exists {
		return domain.Product{}, ErrProductNotFound
	}
	return l.Product, nil
}

// Fetch returns the listings matching q in insertion order.
func (c *MemoryCatalog) Fetch(ctx context.Context, q Query) ([]Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Filter.Validate(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Listing, 0, len(c.order))
	for _, id := range c.order {
		l := c.listings[id]
		if q.MatchesText(l) && q.Filter.Matches(l) {
			result = append(result, l)
		}
	}
	return result, nil
}

// Brands lists the distinct brands in the catalog, sorted.
func (c *MemoryCatalog) Brands() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	brands := make([]string, 0)
	for _, l := range c.listings {
		if l.Brand != "" && !slices.Contains(brands, l.Brand) {
			brands = append(brands, l.Brand)
		}
	}
	slices.Sort(brands)
	return brands
}

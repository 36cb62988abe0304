package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Fetcher loads the product list for a query from the backend.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]Listing, error)
}

// Browser is the state behind the product list screen: the current search
// text, the current filter and the last results.
type Browser struct {
	fetcher Fetcher
	logger  *zap.Logger
	sfg     singleflight.Group // collapses identical concurrent fetches

	mu      sync.RWMutex
	query   Query
	results []Listing
}

func NewBrowser(fetcher Fetcher, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{
		fetcher: fetcher,
		logger:  logger,
		query:   Query{Filter: DefaultFilter()},
	}
}

// Apply replaces the filter and fetches. An invalid filter is rejected
// and the previous one kept.
func (b *Browser) Apply(ctx context.Context, f Filter) ([]Listing, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	f.Brands = slices.Clone(f.Brands)

	b.mu.Lock()
	b.query.Filter = f
	q := b.query
	b.mu.Unlock()

	return b.fetch(ctx, q)
}

// Search replaces the search text and fetches with the current filter.
func (b *Browser) Search(ctx context.Context, text string) ([]Listing, error) {
	b.mu.Lock()
	b.query.Text = text
	q := b.query
	b.mu.Unlock()

	return b.fetch(ctx, q)
}

// Refresh fetches again with unchanged parameters (pull to refresh).
func (b *Browser) Refresh(ctx context.Context) ([]Listing, error) {
	return b.fetch(ctx, b.Query())
}

func (b *Browser) Query() Query {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q := b.query
	q.Filter.Brands = slices.Clone(q.Filter.Brands)
	return q
}

// Results returns the listings of the last successful fetch.
func (b *Browser) Results() []Listing {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.results)
}

func (b *Browser) fetch(ctx context.Context, q Query) ([]Listing, error) {
	key := q.key()
	v, err, shared := b.sfg.Do(key, func() (interface{}, error) {
		return b.fetcher.Fetch(ctx, q)
	})
	if err != nil {
		b.logger.Warn("failed to fetch products", zap.String("query", key), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	listings := v.([]Listing)

	b.mu.Lock()
	// a slower fetch for parameters that changed meanwhile must not win
	if b.query.key() == key {
		b.results = listings
	}
	b.mu.Unlock()

	b.logger.Debug("products fetched",
		zap.String("query", key),
		zap.Int("results", len(listings)),
		zap.Bool("shared", shared))
	return slices.Clone(listings), nil
}

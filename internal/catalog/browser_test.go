package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	next    Fetcher
	calls   atomic.Int32
	delay   time.Duration
	err     error
	queries chan Query
}

func (f *countingFetcher) Fetch(ctx context.Context, q Query) ([]Listing, error) {
	f.calls.Add(1)
	if f.queries != nil {
		f.queries <- q
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.next.Fetch(ctx, q)
}

func ids(listings []Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ProductID)
	}
	return out
}

func TestBrowser_ApplySearchRefresh(t *testing.T) {
	fetcher := &countingFetcher{next: NewMemoryCatalog(DemoListings()...)}
	b := NewBrowser(fetcher, nil)
	ctx := context.Background()

	f := DefaultFilter()
	f.Price.Max = decimal.NewFromInt(300)
	f.OnSale = true
	got, err := b.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, []string{"redmi-note-13", "flip-6"}, ids(got))

	got, err = b.Search(ctx, "flip")
	require.NoError(t, err)
	assert.Equal(t, []string{"flip-6"}, ids(got))
	assert.Equal(t, "flip", b.Query().Text)
	assert.True(t, b.Query().Filter.OnSale)

	got, err = b.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"flip-6"}, ids(got))
	assert.Equal(t, []string{"flip-6"}, ids(b.Results()))
	assert.Equal(t, int32(3), fetcher.calls.Load())
}

func TestBrowser_RejectsInvalidFilter(t *testing.T) {
	fetcher := &countingFetcher{next: NewMemoryCatalog(DemoListings()...)}
	b := NewBrowser(fetcher, nil)

	f := DefaultFilter()
	f.Price.Min = decimal.NewFromInt(900)
	f.Price.Max = decimal.NewFromInt(10)
	_, err := b.Apply(context.Background(), f)

	assert.ErrorIs(t, err, ErrInvertedRange)
	assert.Equal(t, DefaultFilter(), b.Query().Filter)
	assert.Equal(t, int32(0), fetcher.calls.Load())
}

func TestBrowser_FetchErrorKeepsResults(t *testing.T) {
	fetcher := &countingFetcher{next: NewMemoryCatalog(DemoListings()...)}
	b := NewBrowser(fetcher, nil)
	ctx := context.Background()

	_, err := b.Refresh(ctx)
	require.NoError(t, err)
	before := b.Results()

	fetcher.err = errors.New("network down")
	_, err = b.Refresh(ctx)
	assert.ErrorContains(t, err, "network down")
	assert.Equal(t, before, b.Results())
}

func TestBrowser_CollapsesConcurrentRefreshes(t *testing.T) {
	fetcher := &countingFetcher{
		next:  NewMemoryCatalog(DemoListings()...),
		delay: 100 * time.Millisecond,
	}
	b := NewBrowser(fetcher, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := b.Refresh(context.Background())
			assert.NoError(t, err)
			assert.Len(t, got, len(DemoListings()))
		}()
	}
	wg.Wait()

	assert.Less(t, fetcher.calls.Load(), int32(10))
}

func TestMemoryCatalog_Product(t *testing.T) {
	c := NewMemoryCatalog(DemoListings()...)

	p, err := c.Product(context.Background(), "flip-6")
	require.NoError(t, err)
	assert.Equal(t, "Flip 6 Speaker", p.Name)
	assert.Equal(t, "129.00", p.UnitPrice.StringFixed(2))

	_, err = c.Product(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMemoryCatalog_PutReplacesInPlace(t *testing.T) {
	c := NewMemoryCatalog(DemoListings()...)
	updated := DemoListings()[0]
	updated.UnitPrice = decimal.RequireFromString("799.00")
	c.Put(updated)

	got, err := c.Fetch(context.Background(), Query{Filter: DefaultFilter()})
	require.NoError(t, err)
	require.Len(t, got, len(DemoListings()))
	assert.Equal(t, "iphone-15", got[0].ProductID)
	assert.Equal(t, "799", got[0].UnitPrice.String())

	assert.Equal(t, []string{"Anker", "Apple", "Huawei", "JBL", "Samsung", "Sony", "Xiaomi"}, c.Brands())
}

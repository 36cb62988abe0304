package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter()
	assert.True(t, f.Price.Min.IsZero())
	assert.Equal(t, "1000", f.Price.Max.String())
	assert.Empty(t, f.Brands)
	assert.False(t, f.InStock)
	assert.False(t, f.OnSale)
	assert.NoError(t, f.Validate())
}

func TestFilter_ToggleBrandAndReset(t *testing.T) {
	f := DefaultFilter()
	f.ToggleBrand("Apple")
	f.ToggleBrand("Sony")
	assert.True(t, f.HasBrand("Apple"))

	f.ToggleBrand("Apple")
	assert.False(t, f.HasBrand("Apple"))
	assert.Equal(t, []string{"Sony"}, f.Brands)

	f.OnSale = true
	f.Reset()
	assert.Equal(t, DefaultFilter(), f)
}

func TestFilter_Validate(t *testing.T) {
	f := DefaultFilter()
	f.Price.Min = decimal.NewFromInt(-1)
	assert.ErrorIs(t, f.Validate(), ErrNegativePrice)

	f = DefaultFilter()
	f.Price.Min = decimal.NewFromInt(500)
	f.Price.Max = decimal.NewFromInt(100)
	assert.ErrorIs(t, f.Validate(), ErrInvertedRange)
}

func TestFilter_Matches(t *testing.T) {
	speaker := listing("flip-6", "Flip 6 Speaker", "129.00", "JBL", true, true)
	phone := listing("p60-pro", "P60 Pro", "949.00", "Huawei", false, false)

	tests := []struct {
		name   string
		modify func(*Filter)
		want   map[string]bool
	}{
		{"default matches all", func(*Filter) {}, map[string]bool{"flip-6": true, "p60-pro": true}},
		{"price cap", func(f *Filter) { f.Price.Max = decimal.NewFromInt(500) }, map[string]bool{"flip-6": true, "p60-pro": false}},
		{"price floor inclusive", func(f *Filter) { f.Price.Min = decimal.RequireFromString("129.00") }, map[string]bool{"flip-6": true, "p60-pro": true}},
		{"brand", func(f *Filter) { f.ToggleBrand("Huawei") }, map[string]bool{"flip-6": false, "p60-pro": true}},
		{"in stock", func(f *Filter) { f.InStock = true }, map[string]bool{"flip-6": true, "p60-pro": false}},
		{"on sale", func(f *Filter) { f.OnSale = true }, map[string]bool{"flip-6": true, "p60-pro": false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DefaultFilter()
			tt.modify(&f)
			assert.Equal(t, tt.want["flip-6"], f.Matches(speaker))
			assert.Equal(t, tt.want["p60-pro"], f.Matches(phone))
		})
	}
}

func TestFilter_KeyIgnoresBrandOrder(t *testing.T) {
	a := DefaultFilter()
	a.ToggleBrand("Apple")
	a.ToggleBrand("Sony")
	b := DefaultFilter()
	b.ToggleBrand("Sony")
	b.ToggleBrand("Apple")

	assert.Equal(t, a.key(), b.key())
	b.InStock = true
	assert.NotEqual(t, a.key(), b.key())
}

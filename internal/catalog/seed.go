package catalog

import (
	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/shopspring/decimal"
)

func listing(id, name, price, brand string, inStock, onSale bool) Listing {
	return Listing{
		Product: domain.Product{
			ProductID: id,
			Name:      name,
			UnitPrice: decimal.RequireFromString(price),
			Image:     "https://cdn.example.com/products/" + id + ".jpg",
		},
		Brand:   brand,
		InStock: inStock,
		OnSale:  onSale,
	}
}

// DemoListings is the catalog the binaries start with when no product
// backend is configured.
func DemoListings() []Listing {
	return []Listing{
		listing("iphone-15", "iPhone 15", "899.00", "Apple", true, false),
		listing("galaxy-s24", "Galaxy S24", "799.00", "Samsung", true, true),
		listing("redmi-note-13", "Redmi Note 13", "229.00", "Xiaomi", true, true),
		listing("p60-pro", "P60 Pro", "949.00", "Huawei", false, false),
		listing("wh-1000xm5", "WH-1000XM5 Headphones", "349.00", "Sony", true, false),
		listing("flip-6", "Flip 6 Speaker", "129.00", "JBL", true, true),
		listing("powercore-10k", "PowerCore 10000", "25.99", "Anker", true, false),
	}
}

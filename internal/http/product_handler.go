package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/catalog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductSource is the product list backend of the browse and filter screens.
type ProductSource interface {
	catalog.Fetcher
	Brands() []string
}

type ProductHandler struct {
	fetcher ProductSource
	timeout time.Duration
	logger  *zap.Logger
}

func NewProductHandler(fetcher ProductSource, timeout time.Duration, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger,
	}
}

type ProductResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	ImageURL string `json:"image_url"`
	Brand    string `json:"brand"`
	InStock  bool   `json:"in_stock"`
	OnSale   bool   `json:"on_sale"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

var errBadQuery = errors.New("bad query")

// parseQuery reads q, min_price, max_price, brand (repeatable), in_stock
// and on_sale. Missing parameters keep the filter defaults.
func parseQuery(r *http.Request) (catalog.Query, error) {
	values := r.URL.Query()
	q := catalog.Query{Text: values.Get("q"), Filter: catalog.DefaultFilter()}

	if v := values.Get("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return q, errBadQuery
		}
		q.Filter.Price.Min = d
	}
	if v := values.Get("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return q, errBadQuery
		}
		q.Filter.Price.Max = d
	}
	for _, brand := range values["brand"] {
		if !q.Filter.HasBrand(brand) {
			q.Filter.ToggleBrand(brand)
		}
	}
	for name, target := range map[string]*bool{"in_stock": &q.Filter.InStock, "on_sale": &q.Filter.OnSale} {
		if v := values.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return q, errBadQuery
			}
			*target = b
		}
	}
	return q, q.Filter.Validate()
}

// GET /api/v1/products
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q, err := parseQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	listings, err := h.fetcher.Fetch(ctx, q)
	if err != nil {
		h.logger.Error("failed to fetch products", zap.Error(err))
		respondError(w, http.StatusBadGateway, "product_fetch_failed", "could not load products")
		return
	}

	products := make([]ProductResponse, len(listings))
	for i, l := range listings {
		products[i] = ProductResponse{
			ID:       l.ProductID,
			Name:     l.Name,
			Price:    l.UnitPrice.StringFixed(2),
			ImageURL: l.Image,
			Brand:    l.Brand,
			InStock:  l.InStock,
			OnSale:   l.OnSale,
		}
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

// GET /api/v1/products/brands
func (h *ProductHandler) Brands(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{"brands": h.fetcher.Brands()})
}

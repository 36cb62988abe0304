package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/cart"
	"github.com/fjod/go_cart/mobile-cart/internal/catalog"
	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MaxQuantity is the largest quantity the quantity selector offers.
const MaxQuantity = 99

// CartStore is the part of *cart.Store the cart screen uses.
type CartStore interface {
	AddItem(ctx context.Context, p domain.Product, quantity int) error
	RemoveItem(ctx context.Context, productID string) error
	SetQuantity(ctx context.Context, productID string, quantity int) error
	Clear(ctx context.Context) error
	Snapshot() cart.Snapshot
}

// ProductLookup resolves the add-time snapshot of a product.
type ProductLookup interface {
	Product(ctx context.Context, productID string) (domain.Product, error)
}

type CartHandler struct {
	store    CartStore
	products ProductLookup
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCartHandler(store CartStore, products ProductLookup, timeout time.Duration, logger *zap.Logger) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{
		store:    store,
		products: products,
		timeout:  timeout,
		logger:   logger,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type LineItemDTO struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type CartResponseDTO struct {
	Items     []LineItemDTO `json:"items"`
	ItemCount int           `json:"item_count"`
	Total     string        `json:"total"`
	Version   uint64        `json:"version"`
	// Persisted is false when the change applied but could not be saved.
	Persisted bool `json:"persisted"`
}

func toCartResponse(snap cart.Snapshot, persisted bool) CartResponseDTO {
	items := snap.Items()
	dto := CartResponseDTO{
		Items:     make([]LineItemDTO, 0, len(items)),
		ItemCount: snap.ItemCount(),
		Total:     snap.Total().StringFixed(2),
		Version:   snap.Version(),
		Persisted: persisted,
	}
	for _, item := range items {
		dto.Items = append(dto.Items, LineItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Image:     item.Image,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal().StringFixed(2),
		})
	}
	return dto
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toCartResponse(h.store.Snapshot(), true))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > MaxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.products.Product(ctx, req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		h.logger.Error("product lookup failed", zap.String("product_id", req.ProductID), zap.Error(err))
		respondError(w, http.StatusBadGateway, "product_lookup_failed", "could not load product")
		return
	}

	err = h.store.AddItem(ctx, product, req.Quantity)
	h.respondMutation(w, r, http.StatusCreated, err)
}

// PUT /api/v1/cart/items/{product_id}
// A quantity of 0 removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	if _, ok := h.store.Snapshot().Find(productID); !ok {
		respondError(w, http.StatusNotFound, "not_found", "product not in cart")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 0 || req.Quantity > MaxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	err := h.store.SetQuantity(ctx, productID, req.Quantity)
	h.respondMutation(w, r, http.StatusOK, err)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	err := h.store.RemoveItem(ctx, chi.URLParam(r, "product_id"))
	h.respondMutation(w, r, http.StatusOK, err)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	err := h.store.Clear(ctx)
	h.respondMutation(w, r, http.StatusOK, err)
}

// respondMutation answers with the cart after a mutation. A failed save
// still reports the applied change, flagged as not persisted.
func (h *CartHandler) respondMutation(w http.ResponseWriter, r *http.Request, status int, err error) {
	if err != nil && !errors.Is(err, cart.ErrSaveFailed) {
		h.logger.Error("cart mutation failed", zap.String("request_id", getRequestID(r.Context())), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if err != nil {
		h.logger.Warn("cart not persisted", zap.String("request_id", getRequestID(r.Context())), zap.Error(err))
	}
	respondJSON(w, status, toCartResponse(h.store.Snapshot(), err == nil))
}

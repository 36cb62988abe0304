package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/checkout"
	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/fjod/go_cart/mobile-cart/internal/orders"
	"go.uber.org/zap"
)

// Checkout is the part of *checkout.Service the checkout screen uses.
type Checkout interface {
	Begin(ctx context.Context) error
	Prefill(ctx context.Context) checkout.Form
	Submit(ctx context.Context, form checkout.Form) (*checkout.Confirmation, error)
	State() checkout.Status
}

type CheckoutHandler struct {
	checkout Checkout
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCheckoutHandler(c Checkout, timeout time.Duration, logger *zap.Logger) *CheckoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutHandler{
		checkout: c,
		timeout:  timeout,
		logger:   logger,
	}
}

type CheckoutFormDTO struct {
	Form     checkout.Form `json:"form"`
	Shipping string        `json:"shipping"`
	Status   string        `json:"status"`
}

type ConfirmationDTO struct {
	OrderID       string        `json:"order_id"`
	PlacedAt      time.Time     `json:"placed_at"`
	ItemCount     int           `json:"item_count"`
	Items         []LineItemDTO `json:"items"`
	Subtotal      string        `json:"subtotal"`
	Shipping      string        `json:"shipping"`
	GrandTotal    string        `json:"grand_total"`
	PaymentMethod string        `json:"payment_method"`
	Status        string        `json:"status"`
}

// GET /api/v1/checkout/form
func (h *CheckoutHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.Begin(r.Context()); err != nil {
		h.handleCheckoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutFormDTO{
		Form:     h.checkout.Prefill(r.Context()),
		Shipping: domain.ShippingFee.StringFixed(2),
		Status:   h.checkout.State().String(),
	})
}

// POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form checkout.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c, err := h.checkout.Submit(ctx, form)
	if err != nil {
		h.handleCheckoutError(w, r, err)
		return
	}

	items := make([]LineItemDTO, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, LineItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Image:     item.Image,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal().StringFixed(2),
		})
	}
	respondJSON(w, http.StatusCreated, ConfirmationDTO{
		OrderID:       c.OrderID,
		PlacedAt:      c.PlacedAt,
		ItemCount:     c.ItemCount,
		Items:         items,
		Subtotal:      c.Subtotal.StringFixed(2),
		Shipping:      c.Shipping.StringFixed(2),
		GrandTotal:    c.GrandTotal.StringFixed(2),
		PaymentMethod: c.PaymentMethod.String(),
		Status:        h.checkout.State().String(),
	})
}

func (h *CheckoutHandler) handleCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *checkout.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "invalid checkout form",
			Code:   "invalid_form",
			Fields: validationErr.Fields,
		})
	case errors.Is(err, checkout.ErrAuthRequired):
		respondError(w, http.StatusUnauthorized, "login_required", "log in to place an order")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty")
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", "an order is already being placed")
	case errors.Is(err, orders.ErrCircuitOpen):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "orders are temporarily unavailable, please retry")
	case errors.Is(err, checkout.ErrOrderFailed):
		respondError(w, http.StatusBadGateway, "order_failed", "order could not be placed, please retry")
	default:
		h.logger.Error("checkout failed", zap.String("request_id", getRequestID(r.Context())), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

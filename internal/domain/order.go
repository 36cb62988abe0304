package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingFee is the flat delivery surcharge shown at checkout and on the
// order confirmation. It is never part of the cart total.
var ShippingFee = decimal.RequireFromString("7.00")

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard
}

func (m PaymentMethod) String() string {
	return string(m)
}

type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

// OrderRequest is the payload handed to the order-placement collaborator.
// Total is the cart subtotal; shipping is added by the backend.
type OrderRequest struct {
	IdempotencyKey  string          `json:"-"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Total           decimal.Decimal `json:"total"`
}

type OrderConfirmation struct {
	OrderID  string    `json:"id"`
	PlacedAt time.Time `json:"placed_at"`
}

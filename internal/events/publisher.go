package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/checkout"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	OrderPlacedTopic = "order-placed"
	OrderPlacedType  = "OrderPlaced"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type orderPlacedItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type orderPlacedPayload struct {
	OrderID       string            `json:"order_id"`
	UserID        string            `json:"user_id"`
	Items         []orderPlacedItem `json:"items"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Shipping      decimal.Decimal   `json:"shipping"`
	GrandTotal    decimal.Decimal   `json:"grand_total"`
	PaymentMethod string            `json:"payment_method"`
	PlacedAt      time.Time         `json:"placed_at"`
}

// Publisher announces confirmed orders on Kafka.
type Publisher struct {
	writer MessageWriter
}

func NewPublisher(brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  OrderPlacedTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return NewPublisherWithWriter(w)
}

func NewPublisherWithWriter(w MessageWriter) *Publisher {
	return &Publisher{writer: w}
}

// OrderPlaced writes one message keyed by order id, so every event of an
// order lands on the same partition.
func (p *Publisher) OrderPlaced(ctx context.Context, c checkout.Confirmation) error {
	items := make([]orderPlacedItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, orderPlacedItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal(),
		})
	}

	payload, err := json.Marshal(orderPlacedPayload{
		OrderID:       c.OrderID,
		UserID:        c.UserID,
		Items:         items,
		Subtotal:      c.Subtotal,
		Shipping:      c.Shipping,
		GrandTotal:    c.GrandTotal,
		PaymentMethod: c.PaymentMethod.String(),
		PlacedAt:      c.PlacedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order placed payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(c.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(OrderPlacedType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish order %s: %w", c.OrderID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

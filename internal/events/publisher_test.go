package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/checkout"
	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	m        sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.m.Lock()
	defer w.m.Unlock()
	w.closed = true
	return nil
}

func confirmation() checkout.Confirmation {
	price := decimal.RequireFromString("12.00")
	subtotal := decimal.RequireFromString("36.00")
	return checkout.Confirmation{
		OrderID:       "ord-7",
		PlacedAt:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		UserID:        "u1",
		Items:         []domain.LineItem{{ProductID: "p1", Name: "Widget", UnitPrice: price, Quantity: 3}},
		ItemCount:     1,
		Subtotal:      subtotal,
		Shipping:      domain.ShippingFee,
		GrandTotal:    subtotal.Add(domain.ShippingFee),
		PaymentMethod: domain.PaymentCard,
	}
}

func TestPublisher_OrderPlaced(t *testing.T) {
	w := &mockWriter{}
	p := NewPublisherWithWriter(w)

	require.NoError(t, p.OrderPlaced(context.Background(), confirmation()))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "ord-7", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, OrderPlacedType, string(msg.Headers[0].Value))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "ord-7", payload["order_id"])
	assert.Equal(t, "u1", payload["user_id"])
	assert.Equal(t, "card", payload["payment_method"])
	assert.Equal(t, "43", payload["grand_total"])
	assert.Equal(t, "2024-05-01T10:00:00Z", payload["placed_at"])
	items := payload["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "36", items[0].(map[string]any)["subtotal"])
}

func TestPublisher_WriteError(t *testing.T) {
	w := &mockWriter{err: errors.New("leader not available")}
	p := NewPublisherWithWriter(w)

	err := p.OrderPlaced(context.Background(), confirmation())

	assert.ErrorContains(t, err, "failed to publish order ord-7")
	assert.ErrorContains(t, err, "leader not available")
}

func TestPublisher_Close(t *testing.T) {
	w := &mockWriter{}
	require.NoError(t, NewPublisherWithWriter(w).Close())
	assert.True(t, w.closed)
}

func TestPublisher_SatisfiesCheckout(t *testing.T) {
	var _ checkout.EventPublisher = (*Publisher)(nil)
}

package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() domain.OrderRequest {
	return domain.OrderRequest{
		IdempotencyKey: "key-123",
		Items: []domain.OrderItem{
			{ProductID: "p1", Quantity: 3, UnitPrice: decimal.RequireFromString("12.00")},
		},
		ShippingAddress: domain.ShippingAddress{
			FullName:   "Ada Lovelace",
			Street:     "1 Main St",
			City:       "Lyon",
			PostalCode: "69001",
			Phone:      "0600000000",
		},
		PaymentMethod: domain.PaymentCash,
		Total:         decimal.RequireFromString("36.00"),
	}
}

func staticToken(token string) TokenFunc {
	return func(context.Context) string { return token }
}

func TestClient_CreateOrder(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "key-123", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ord-42","placed_at":"2024-05-01T10:00:00Z"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/api/", server.Client(), staticToken("secret-token"))
	confirmation, err := client.CreateOrder(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "ord-42", confirmation.OrderID)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), confirmation.PlacedAt.UTC())

	assert.Equal(t, "cash", got["paymentMethod"])
	assert.Equal(t, "36", got["total"])
	assert.NotContains(t, got, "IdempotencyKey")
	items := got["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "p1", item["productId"])
	assert.Equal(t, float64(3), item["quantity"])
	address := got["shippingAddress"].(map[string]any)
	assert.Equal(t, "69001", address["postalCode"])
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"ord-1"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, server.Client(), nil).CreateOrder(context.Background(), sampleRequest())
	assert.NoError(t, err)
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of stock", http.StatusConflict)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, server.Client(), nil).CreateOrder(context.Background(), sampleRequest())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.Code)
	assert.Equal(t, "out of stock", statusErr.Body)
}

func TestClient_MissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, server.Client(), nil).CreateOrder(context.Background(), sampleRequest())
	assert.ErrorContains(t, err, "no id")
}

func TestClient_ContextTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL, server.Client(), nil).CreateOrder(ctx, sampleRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type stubPlacer struct {
	calls atomic.Int32
	err   error
}

func (s *stubPlacer) CreateOrder(context.Context, domain.OrderRequest) (domain.OrderConfirmation, error) {
	s.calls.Add(1)
	if s.err != nil {
		return domain.OrderConfirmation{}, s.err
	}
	return domain.OrderConfirmation{OrderID: "ok"}, nil
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &stubPlacer{err: errors.New("connection refused")}
	b := NewBreaker(next, BreakerSettings{ConsecutiveFailures: 3, OpenTimeout: time.Hour}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.CreateOrder(ctx, sampleRequest())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.CreateOrder(ctx, sampleRequest())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	next := &stubPlacer{err: &StatusError{Code: http.StatusUnprocessableEntity}}
	b := NewBreaker(next, BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Hour}, nil)

	for i := 0; i < 5; i++ {
		_, err := b.CreateOrder(context.Background(), sampleRequest())
		var statusErr *StatusError
		assert.ErrorAs(t, err, &statusErr)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, int32(5), next.calls.Load())
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	next := &stubPlacer{err: errors.New("boom")}
	b := NewBreaker(next, BreakerSettings{ConsecutiveFailures: 1, OpenTimeout: 20 * time.Millisecond}, nil)

	_, err := b.CreateOrder(context.Background(), sampleRequest())
	require.Error(t, err)
	require.Equal(t, gobreaker.StateOpen, b.State())

	next.err = nil
	require.Eventually(t, func() bool {
		return b.State() == gobreaker.StateHalfOpen
	}, time.Second, 5*time.Millisecond)

	confirmation, err := b.CreateOrder(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", confirmation.OrderID)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const createOrderPath = "/orders"

// TokenFunc returns the bearer token of the signed-in shopper, or "" when
// the request should go out without one.
type TokenFunc func(ctx context.Context) string

// StatusError is returned when the orders API answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("orders api returned %d", e.Code)
	}
	return fmt.Sprintf("orders api returned %d: %s", e.Code, e.Body)
}

// Client places orders against the REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
}

// NewClient builds a client for baseURL. A nil httpClient gets an
// instrumented default transport.
func NewClient(baseURL string, httpClient *http.Client, token TokenFunc) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		token:      token,
	}
}

func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderConfirmation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.OrderConfirmation{}, fmt.Errorf("failed to marshal order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createOrderPath, bytes.NewReader(body))
	if err != nil {
		return domain.OrderConfirmation{}, fmt.Errorf("failed to build order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}
	if c.token != nil {
		if token := c.token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.OrderConfirmation{}, fmt.Errorf("order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.OrderConfirmation{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var confirmation domain.OrderConfirmation
	if err := json.NewDecoder(resp.Body).Decode(&confirmation); err != nil {
		return domain.OrderConfirmation{}, fmt.Errorf("failed to decode order response: %w", err)
	}
	if confirmation.OrderID == "" {
		return domain.OrderConfirmation{}, fmt.Errorf("order response has no id")
	}
	return confirmation, nil
}

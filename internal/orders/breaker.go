package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var ErrCircuitOpen = errors.New("orders api unavailable, circuit open")

// Placer is anything that can create an order.
type Placer interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderConfirmation, error)
}

type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// Breaker stops calling the orders API after repeated failures. Client
// errors (4xx) do not count as failures.
type Breaker struct {
	next Placer
	cb   *gobreaker.CircuitBreaker[domain.OrderConfirmation]
}

func NewBreaker(next Placer, settings BreakerSettings, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := settings.ConsecutiveFailures
	if threshold == 0 {
		threshold = DefaultBreakerSettings().ConsecutiveFailures
	}

	cb := gobreaker.NewCircuitBreaker[domain.OrderConfirmation](gobreaker.Settings{
		Name:        "orders-api",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var statusErr *StatusError
			return errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderConfirmation, error) {
	confirmation, err := b.cb.Execute(func() (domain.OrderConfirmation, error) {
		return b.next.CreateOrder(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.OrderConfirmation{}, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return confirmation, err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

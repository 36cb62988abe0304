package cart

import (
	"context"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
)

// Repository persists the cart between process restarts.
// Consumers define this interface, implementations live in internal/repository.
type Repository interface {
	// Load returns the saved line items, or an empty slice when nothing was saved yet.
	Load(ctx context.Context) ([]domain.LineItem, error)
	// Save replaces the saved cart with items.
	Save(ctx context.Context, items []domain.LineItem) error
}

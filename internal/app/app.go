package app

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/mobile-cart/internal/auth"
	"github.com/fjod/go_cart/mobile-cart/internal/cart"
	"github.com/fjod/go_cart/mobile-cart/internal/catalog"
	"github.com/fjod/go_cart/mobile-cart/internal/checkout"
	"github.com/fjod/go_cart/mobile-cart/internal/config"
	"github.com/fjod/go_cart/mobile-cart/internal/events"
	"github.com/fjod/go_cart/mobile-cart/internal/orders"
	"go.uber.org/zap"
)

// App wires the cart store and its collaborators from a Config. Both
// binaries build one and differ only in the AuthState they check out with.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     *cart.Store
	Catalog   *catalog.MemoryCatalog
	Orders    *orders.Breaker
	Publisher *events.Publisher

	closers []func() error
}

// New opens the cart backend and restores the cart. token supplies the
// bearer token sent with order requests.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, token orders.TokenFunc) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	repo, closeRepo, err := OpenRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Store:   cart.NewStore(ctx, repo, logger.Named("cart")),
		Catalog: catalog.NewMemoryCatalog(catalog.DemoListings()...),
		closers: []func() error{closeRepo},
	}

	client := orders.NewClient(cfg.OrdersAPIURL, nil, token)
	a.Orders = orders.NewBreaker(client, orders.DefaultBreakerSettings(), logger.Named("orders"))

	if len(cfg.KafkaBrokers) > 0 {
		a.Publisher = events.NewPublisher(cfg.KafkaBrokers...)
		a.closers = append(a.closers, a.Publisher.Close)
		logger.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	return a, nil
}

// Checkout builds the checkout gate for the given AuthState.
func (a *App) Checkout(state checkout.AuthState) *checkout.Service {
	opts := []checkout.Option{
		checkout.WithLogger(a.Logger.Named("checkout")),
		checkout.WithOrderTimeout(a.Config.OrderTimeout),
	}
	if a.Publisher != nil {
		opts = append(opts, checkout.WithEvents(a.Publisher))
	}
	return checkout.NewService(a.Store, state, a.Orders, opts...)
}

// Verifier returns the bearer token verifier, or nil when no JWT secret is
// configured.
func (a *App) Verifier() *auth.Verifier {
	if a.Config.JWTSecret == "" {
		return nil
	}
	return auth.NewVerifier(a.Config.JWTSecret)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Cart           *CartHandler
	Checkout       *CheckoutHandler
	Products       *ProductHandler
	Verifier       TokenVerifier
	Logger         *zap.Logger
	RequestTimeout time.Duration

	// CheckoutTimeout replaces RequestTimeout on checkout routes, which wait
	// for the orders API. Zero means RequestTimeout.
	CheckoutTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout, checkoutTimeout := routeTimeouts(cfg)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Health check
	r.With(middleware.Timeout(timeout)).Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Verifier))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.Timeout(timeout))
			r.Get("/", cfg.Cart.GetCart)
			r.Delete("/", cfg.Cart.ClearCart)
			r.Post("/items", cfg.Cart.AddItem)
			r.Put("/items/{product_id}", cfg.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", cfg.Cart.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(middleware.Timeout(checkoutTimeout))
			r.Get("/form", cfg.Checkout.GetForm)
			r.Post("/", cfg.Checkout.PlaceOrder)
		})

		if cfg.Products != nil {
			r.Route("/products", func(r chi.Router) {
				r.Use(middleware.Timeout(timeout))
				r.Get("/", cfg.Products.Get)
				r.Get("/brands", cfg.Products.Brands)
			})
		}
	})

	return otelhttp.NewHandler(r, "cart-service")
}

func routeTimeouts(cfg RouterConfig) (request, checkout time.Duration) {
	request = cfg.RequestTimeout
	if request <= 0 {
		request = 30 * time.Second
	}
	checkout = cfg.CheckoutTimeout
	if checkout <= 0 {
		checkout = request
	}
	return request, checkout
}

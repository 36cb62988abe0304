package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/app"
	"github.com/fjod/go_cart/mobile-cart/internal/auth"
	"github.com/fjod/go_cart/mobile-cart/internal/config"
	h "github.com/fjod/go_cart/mobile-cart/internal/http"
	"github.com/fjod/go_cart/mobile-cart/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(cfg.Environment)
	defer log.Sync()
	zap.ReplaceGlobals(log)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log, auth.TokenFromContext)
	if err != nil {
		log.Fatal("failed to start", zap.Error(err))
	}
	defer a.Close()

	var verifier h.TokenVerifier
	if v := a.Verifier(); v != nil {
		verifier = v
	} else {
		log.Warn("JWT_SECRET not set, checkout is unavailable")
	}

	checkoutTimeout := cfg.OrderTimeout + 5*time.Second
	router := h.NewRouter(h.RouterConfig{
		Cart:            h.NewCartHandler(a.Store, a.Catalog, cfg.RequestTimeout, log.Named("http")),
		Checkout:        h.NewCheckoutHandler(a.Checkout(auth.Context{}), checkoutTimeout, log.Named("http")),
		Products:        h.NewProductHandler(a.Catalog, cfg.RequestTimeout, log.Named("http")),
		Verifier:        verifier,
		Logger:          log.Named("http"),
		RequestTimeout:  cfg.RequestTimeout,
		CheckoutTimeout: checkoutTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: checkoutTimeout + time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("cart service starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("backend", string(cfg.Backend)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

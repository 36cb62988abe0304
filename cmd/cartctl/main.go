package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fjod/go_cart/mobile-cart/internal/app"
	"github.com/fjod/go_cart/mobile-cart/internal/cli"
	"github.com/fjod/go_cart/mobile-cart/internal/config"
	"github.com/fjod/go_cart/mobile-cart/internal/orders"
	"go.uber.org/zap"
)

func main() {
	open := func(ctx context.Context, token orders.TokenFunc) (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		// diagnostics stay off stdout; --verbose covers the user-facing detail
		return app.New(ctx, cfg, zap.NewNop(), token)
	}

	if err := cli.NewRootCommand(open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

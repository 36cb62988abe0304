package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/fjod/go_cart/mobile-cart/internal/app"
	"github.com/fjod/go_cart/mobile-cart/internal/auth"
	"github.com/fjod/go_cart/mobile-cart/internal/orders"
	"github.com/spf13/cobra"
)

// Opener builds the application for one command run. token supplies the
// bearer token for order requests.
type Opener func(ctx context.Context, token orders.TokenFunc) (*app.App, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	open    Opener
	session *auth.Session
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for cartctl.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open, session: auth.NewSession()}

	cmd := &cobra.Command{
		Use:   "cartctl",
		Short: "cartctl - shopping cart from the terminal",
		Long: `Manage the shopping cart and place orders.

The cart is stored in the configured backend (CART_BACKEND) and survives
between runs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// withApp opens the application, runs fn and closes it again.
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := o.open(ctx, o.session.Token)
	if err != nil {
		return o.formatter(cmd).fail(ExitCommandError, ErrCodeBackend, "failed to open cart", err)
	}
	defer a.Close()
	return fn(ctx, a)
}

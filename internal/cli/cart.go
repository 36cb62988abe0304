package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/mobile-cart/internal/app"
	"github.com/fjod/go_cart/mobile-cart/internal/cart"
	"github.com/fjod/go_cart/mobile-cart/internal/catalog"
	"github.com/spf13/cobra"
)

// MaxQuantity is the largest quantity accepted for a line.
const MaxQuantity = 99

type lineView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type cartView struct {
	Items     []lineView `json:"items"`
	ItemCount int        `json:"item_count"`
	Total     string     `json:"total"`
	Persisted bool       `json:"persisted"`
}

func newCartView(snap cart.Snapshot, persisted bool) cartView {
	items := snap.Items()
	v := cartView{
		Items:     make([]lineView, 0, len(items)),
		ItemCount: snap.ItemCount(),
		Total:     snap.Total().StringFixed(2),
		Persisted: persisted,
	}
	for _, item := range items {
		v.Items = append(v.Items, lineView{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal().StringFixed(2),
		})
	}
	return v
}

func (v cartView) String() string {
	if len(v.Items) == 0 {
		return "Cart is empty"
	}
	var b strings.Builder
	for _, item := range v.Items {
		fmt.Fprintf(&b, "  %-16s %-24s %3d x %8s = %9s\n",
			item.ProductID, item.Name, item.Quantity, item.UnitPrice, item.Subtotal)
	}
	fmt.Fprintf(&b, "Total: %s (%d items)", v.Total, v.ItemCount)
	if !v.Persisted {
		b.WriteString("\nWarning: change applied but not saved")
	}
	return b.String()
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show the cart",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(_ context.Context, a *app.App) error {
				return rootOpts.formatter(cmd).Success(newCartView(a.Store.Snapshot(), true))
			})
		},
	}
}

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Quantity int
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Long: `Add a product from the catalog to the cart.

Adding a product already in the cart increases its quantity and keeps the
name and price captured the first time.

Example:
  cartctl add flip-6 --qty 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Quantity, "qty", "q", 1, "quantity to add (1-99)")

	return cmd
}

func runAdd(opts *AddOptions, productID string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Quantity < 1 || opts.Quantity > MaxQuantity {
		return f.fail(ExitCommandError, ErrCodeInvalidInput, "quantity must be between 1 and 99", nil)
	}

	return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
		product, err := a.Catalog.Product(ctx, productID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return f.fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("product %q not found", productID), nil)
		}
		if err != nil {
			return f.fail(ExitFailure, ErrCodeGeneric, "product lookup failed", err)
		}

		f.VerboseLog("adding %d x %s at %s", opts.Quantity, product.ProductID, product.UnitPrice.StringFixed(2))
		return reportMutation(f, a, a.Store.AddItem(ctx, product, opts.Quantity))
	})
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <product-id>",
		Short:         "Remove a product from the cart",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return reportMutation(f, a, a.Store.RemoveItem(ctx, args[0]))
			})
		},
	}
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Change the quantity of a product in the cart",
		Long: `Change the quantity of a product already in the cart.

A quantity of 0 removes the product.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			quantity, err := strconv.Atoi(args[1])
			if err != nil || quantity < 0 || quantity > MaxQuantity {
				return f.fail(ExitCommandError, ErrCodeInvalidInput, "quantity must be between 0 and 99", nil)
			}

			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if _, ok := a.Store.Snapshot().Find(args[0]); !ok {
					return f.fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("product %q is not in the cart", args[0]), nil)
				}
				return reportMutation(f, a, a.Store.SetQuantity(ctx, args[0], quantity))
			})
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear",
		Short:         "Remove everything from the cart",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return reportMutation(f, a, a.Store.Clear(ctx))
			})
		},
	}
}

// reportMutation prints the cart after a change. A failed save is reported
// as a failure even though the change is visible in the printed cart.
func reportMutation(f *OutputFormatter, a *app.App, err error) error {
	if err != nil && !errors.Is(err, cart.ErrSaveFailed) {
		return f.fail(ExitFailure, ErrCodeGeneric, "cart update failed", err)
	}
	if errOut := f.Success(newCartView(a.Store.Snapshot(), err == nil)); errOut != nil {
		return errOut
	}
	if err != nil {
		return WrapExitError(ExitFailure, "cart not saved", err)
	}
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/mobile-cart/internal/app"
	"github.com/fjod/go_cart/mobile-cart/internal/checkout"
	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/spf13/cobra"
)

// CheckoutOptions holds flags for the checkout command.
type CheckoutOptions struct {
	*RootOptions
	Token      string
	FullName   string
	Street     string
	City       string
	PostalCode string
	Phone      string
	Payment    string
}

type confirmationView struct {
	OrderID       string     `json:"order_id"`
	Items         []lineView `json:"items"`
	ItemCount     int        `json:"item_count"`
	Subtotal      string     `json:"subtotal"`
	Shipping      string     `json:"shipping"`
	GrandTotal    string     `json:"grand_total"`
	PaymentMethod string     `json:"payment_method"`
	ShipTo        string     `json:"ship_to"`
}

func (v confirmationView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s confirmed\n", v.OrderID)
	for _, item := range v.Items {
		fmt.Fprintf(&b, "  %-24s %3d x %8s = %9s\n", item.Name, item.Quantity, item.UnitPrice, item.Subtotal)
	}
	fmt.Fprintf(&b, "Subtotal: %s\nShipping: %s\nTotal:    %s\n", v.Subtotal, v.Shipping, v.GrandTotal)
	fmt.Fprintf(&b, "Payment:  %s\nShip to:  %s", v.PaymentMethod, v.ShipTo)
	return b.String()
}

// NewCheckoutCommand creates the checkout command.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckoutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Long: `Place an order for everything in the cart.

A valid bearer token is required; the full name defaults to the name in
the token. The cart is emptied only when the order is confirmed.

Example:
  cartctl checkout --token $TOKEN --street "1 Main St" --city Springfield \
    --postal-code 12345 --phone 555-0100 --payment card`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckout(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Token, "token", "", "bearer token of the signed-in user")
	cmd.Flags().StringVar(&opts.FullName, "full-name", "", "recipient name (defaults to the signed-in user)")
	cmd.Flags().StringVar(&opts.Street, "street", "", "street address")
	cmd.Flags().StringVar(&opts.City, "city", "", "city")
	cmd.Flags().StringVar(&opts.PostalCode, "postal-code", "", "postal code")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.Payment, "payment", string(domain.PaymentCash), "payment method (cash|card)")

	return cmd
}

// form merges the flags over the prefilled form.
func (o *CheckoutOptions) form(prefill checkout.Form) checkout.Form {
	form := prefill
	if o.FullName != "" {
		form.Address.FullName = o.FullName
	}
	form.Address.Street = o.Street
	form.Address.City = o.City
	form.Address.PostalCode = o.PostalCode
	form.Address.Phone = o.Phone
	form.PaymentMethod = domain.PaymentMethod(strings.ToLower(o.Payment))
	return form
}

func runCheckout(opts *CheckoutOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
		if opts.Token != "" {
			verifier := a.Verifier()
			if verifier == nil {
				return f.fail(ExitCommandError, ErrCodeLogin, "JWT_SECRET is not configured", nil)
			}
			user, err := verifier.Verify(opts.Token)
			if err != nil {
				return f.fail(ExitFailure, ErrCodeLogin, "login failed", err)
			}
			opts.session.Login(user, opts.Token)
			f.VerboseLog("signed in as %s", user.ID)
		}

		svc := a.Checkout(opts.session)
		if err := svc.Begin(ctx); err != nil {
			return checkoutFailure(f, err)
		}

		c, err := svc.Submit(ctx, opts.form(svc.Prefill(ctx)))
		if err != nil {
			return checkoutFailure(f, err)
		}

		items := make([]lineView, 0, len(c.Items))
		for _, item := range c.Items {
			items = append(items, lineView{
				ProductID: item.ProductID,
				Name:      item.Name,
				UnitPrice: item.UnitPrice.StringFixed(2),
				Quantity:  item.Quantity,
				Subtotal:  item.Subtotal().StringFixed(2),
			})
		}
		addr := c.Address
		return f.Success(confirmationView{
			OrderID:       c.OrderID,
			Items:         items,
			ItemCount:     c.ItemCount,
			Subtotal:      c.Subtotal.StringFixed(2),
			Shipping:      c.Shipping.StringFixed(2),
			GrandTotal:    c.GrandTotal.StringFixed(2),
			PaymentMethod: c.PaymentMethod.String(),
			ShipTo:        fmt.Sprintf("%s, %s, %s %s", addr.FullName, addr.Street, addr.PostalCode, addr.City),
		})
	})
}

func checkoutFailure(f *OutputFormatter, err error) error {
	var validationErr *checkout.ValidationError
	switch {
	case errors.As(err, &validationErr):
		_ = f.Error(ErrCodeInvalidInput, "invalid checkout form", validationErr.Fields)
		return WrapExitError(ExitCommandError, "invalid checkout form", err)
	case errors.Is(err, checkout.ErrAuthRequired):
		return f.fail(ExitFailure, ErrCodeLogin, "log in to place an order (--token)", nil)
	case errors.Is(err, checkout.ErrEmptyCart):
		return f.fail(ExitFailure, ErrCodeCheckout, "cart is empty", nil)
	case checkout.IsRetryable(err):
		return f.fail(ExitFailure, ErrCodeCheckout, "order could not be placed, the cart was kept; try again", err)
	default:
		return f.fail(ExitFailure, ErrCodeGeneric, "checkout failed", err)
	}
}

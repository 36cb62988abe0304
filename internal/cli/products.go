package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/mobile-cart/internal/app"
	"github.com/fjod/go_cart/mobile-cart/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// ProductsOptions holds flags for the products command.
type ProductsOptions struct {
	*RootOptions
	Query    string
	Brands   []string
	MinPrice string
	MaxPrice string
	InStock  bool
	OnSale   bool
}

type productView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Price   string `json:"price"`
	Brand   string `json:"brand"`
	InStock bool   `json:"in_stock"`
	OnSale  bool   `json:"on_sale"`
}

type productsView []productView

func (v productsView) String() string {
	if len(v) == 0 {
		return "No products match"
	}
	var b strings.Builder
	for i, p := range v {
		if i > 0 {
			b.WriteByte('\n')
		}
		var tags []string
		if !p.InStock {
			tags = append(tags, "out of stock")
		}
		if p.OnSale {
			tags = append(tags, "sale")
		}
		fmt.Fprintf(&b, "  %-16s %-24s %-8s %9s", p.ID, p.Name, p.Brand, p.Price)
		if len(tags) > 0 {
			fmt.Fprintf(&b, "  [%s]", strings.Join(tags, ", "))
		}
	}
	return b.String()
}

// NewProductsCommand creates the products command.
func NewProductsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProductsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		Long: `List catalog products, optionally searched and filtered.

Example:
  cartctl products --brand JBL --brand Anker --max-price 200`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProducts(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Query, "search", "", "case-insensitive name search")
	cmd.Flags().StringSliceVar(&opts.Brands, "brand", nil, "brand to include (repeatable)")
	cmd.Flags().StringVar(&opts.MinPrice, "min-price", "0", "lowest price")
	cmd.Flags().StringVar(&opts.MaxPrice, "max-price", catalog.DefaultMaxPrice.String(), "highest price")
	cmd.Flags().BoolVar(&opts.InStock, "in-stock", false, "only products in stock")
	cmd.Flags().BoolVar(&opts.OnSale, "on-sale", false, "only products on sale")

	return cmd
}

func (o *ProductsOptions) filter() (catalog.Filter, error) {
	f := catalog.DefaultFilter()
	lo, err := decimal.NewFromString(o.MinPrice)
	if err != nil {
		return f, fmt.Errorf("invalid --min-price: %w", err)
	}
	hi, err := decimal.NewFromString(o.MaxPrice)
	if err != nil {
		return f, fmt.Errorf("invalid --max-price: %w", err)
	}
	f.Price = catalog.PriceRange{Min: lo, Max: hi}
	for _, brand := range o.Brands {
		if !f.HasBrand(brand) {
			f.ToggleBrand(brand)
		}
	}
	f.InStock = o.InStock
	f.OnSale = o.OnSale
	return f, nil
}

func runProducts(opts *ProductsOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	filter, err := opts.filter()
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeInvalidInput, err.Error(), nil)
	}

	return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
		browser := catalog.NewBrowser(a.Catalog, a.Logger.Named("catalog"))
		listings, err := browser.Apply(ctx, filter)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeInvalidInput, "invalid filter", err)
		}
		if opts.Query != "" {
			if listings, err = browser.Search(ctx, opts.Query); err != nil {
				return f.fail(ExitFailure, ErrCodeGeneric, "product search failed", err)
			}
		}

		view := make(productsView, 0, len(listings))
		for _, l := range listings {
			view = append(view, productView{
				ID:      l.ProductID,
				Name:    l.Name,
				Price:   l.UnitPrice.StringFixed(2),
				Brand:   l.Brand,
				InStock: l.InStock,
				OnSale:  l.OnSale,
			})
		}
		f.VerboseLog("%d product(s) match", len(view))
		return f.Success(view)
	})
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/hooks"
)

type listingFlags struct {
	page     int
	perPage  int
	query    string
	category string
	city     string
	sortBy   string
}

func (f *listingFlags) register(cmd *cobra.Command, sortHelp string) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page number (1-indexed)")
	cmd.Flags().IntVar(&f.perPage, "per-page", 0, "items per page (server default when 0)")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "full-text query")
	cmd.Flags().StringVar(&f.category, "category", "", "category slug")
	cmd.Flags().StringVar(&f.city, "city", "", "city name")
	cmd.Flags().StringVar(&f.sortBy, "sort", "", sortHelp)
}

func parsePrice(flag, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", flag, raw, err)
	}
	return &d, nil
}

func newProductsCmd(opts *options) *cobra.Command {
	var f listingFlags
	var minPrice, maxPrice string

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lo, err := parsePrice("min-price", minPrice)
			if err != nil {
				return err
			}
			hi, err := parsePrice("max-price", maxPrice)
			if err != nil {
				return err
			}

			h := hooks.NewProducts(opts.client, domain.ProductQuery{
				Page:     f.page,
				PerPage:  f.perPage,
				Query:    f.query,
				Category: f.category,
				City:     f.city,
				MinPrice: lo,
				MaxPrice: hi,
				SortBy:   f.sortBy,
			})
			defer h.Close()

			page, err := await(cmd.Context(), h.Resource)
			if err != nil {
				return err
			}
			return newPrinter(cmd, opts).products(page)
		},
	}

	f.register(cmd, "newest, price_asc, price_desc or popular")
	cmd.Flags().StringVar(&minPrice, "min-price", "", "minimum price")
	cmd.Flags().StringVar(&maxPrice, "max-price", "", "maximum price")
	return cmd
}

func newProductCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show a product and how to contact its seller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := hooks.NewProduct(opts.client, args[0])
			defer h.Close()

			product, err := await(cmd.Context(), h.Resource)
			if err != nil {
				return err
			}

			var shop *domain.Shop
			if product.SellerPhone == "" && product.ShopID != 0 {
				sh := hooks.NewShop(opts.client, strconv.FormatInt(product.ShopID, 10))
				defer sh.Close()
				// The product is still worth showing without its shop.
				shop, _ = await(cmd.Context(), sh.Resource)
			}

			p := newPrinter(cmd, opts)
			if p.json {
				return p.JSON(struct {
					*domain.Product
					ContactPhone string `json:"contact_phone,omitempty"`
				}{product, product.ContactPhone(shop)})
			}

			fmt.Fprintf(p.out, "%s\n", product.Name)
			fmt.Fprintf(p.out, "  Price:    %s\n", p.price(product.Price, product.Currency))
			fmt.Fprintf(p.out, "  Category: %s\n", product.Category)
			fmt.Fprintf(p.out, "  City:     %s\n", product.City)
			fmt.Fprintf(p.out, "  Shop:     %s\n", product.ShopName)
			if phone := product.ContactPhone(shop); phone != "" {
				fmt.Fprintf(p.out, "  Contact:  %s\n", phone)
			}
			if product.Description != "" {
				fmt.Fprintf(p.out, "\n%s\n", product.Description)
			}
			return nil
		},
	}
}

func newShopsCmd(opts *options) *cobra.Command {
	var f listingFlags

	cmd := &cobra.Command{
		Use:   "shops",
		Short: "List shops",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := hooks.NewShops(opts.client, domain.ShopQuery{
				Page:     f.page,
				PerPage:  f.perPage,
				Query:    f.query,
				Category: f.category,
				City:     f.city,
				SortBy:   f.sortBy,
			})
			defer h.Close()

			page, err := await(cmd.Context(), h.Resource)
			if err != nil {
				return err
			}
			return newPrinter(cmd, opts).shops(page)
		},
	}

	f.register(cmd, "newest or popular")
	return cmd
}

func newShopCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "shop <id>",
		Short: "Show a shop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := hooks.NewShop(opts.client, args[0])
			defer h.Close()

			shop, err := await(cmd.Context(), h.Resource)
			if err != nil {
				return err
			}

			p := newPrinter(cmd, opts)
			if p.json {
				return p.JSON(shop)
			}
			fmt.Fprintf(p.out, "%s\n", shop.Name)
			fmt.Fprintf(p.out, "  Category: %s\n", shop.Category)
			fmt.Fprintf(p.out, "  City:     %s\n", shop.City)
			fmt.Fprintf(p.out, "  Products: %s\n", p.count(shop.ProductsCount))
			fmt.Fprintf(p.out, "  Rating:   %.1f\n", shop.Rating)
			if shop.Phone != "" {
				fmt.Fprintf(p.out, "  Phone:    %s\n", shop.Phone)
			}
			return nil
		},
	}
}

func newCategoriesCmd(opts *options) *cobra.Command {
	var shops bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List product (or shop) categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := domain.CategoryKindProducts
			if shops {
				kind = domain.CategoryKindShops
			}
			h := hooks.NewCategories(opts.client, kind)
			defer h.Close()

			cats, err := await(cmd.Context(), h.Resource)
			if err != nil {
				return err
			}
			return newPrinter(cmd, opts).categories(cats)
		},
	}

	cmd.Flags().BoolVar(&shops, "shops", false, "list shop categories instead of product categories")
	return cmd
}

func newCitiesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := hooks.NewCities(opts.client)
			defer h.Close()

			cities, err := await(cmd.Context(), h.Resource)
			if err != nil {
				return err
			}
			return newPrinter(cmd, opts).cities(cities)
		},
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show marketplace totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := opts.client.Stats(cmd.Context())
			if err != nil {
				return failure(err)
			}

			p := newPrinter(cmd, opts)
			if p.json {
				return p.JSON(stats)
			}
			return p.table([]string{"PRODUCTS", "SHOPS", "CATEGORIES", "CITIES"}, [][]string{{
				p.count(stats.TotalProducts),
				p.count(stats.TotalShops),
				p.count(stats.TotalCategories),
				p.count(stats.TotalCities),
			}})
		},
	}
}

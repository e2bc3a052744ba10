package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/hooks"
)

func newHomeCmd(opts *options) *cobra.Command {
	var perPage int

	cmd := &cobra.Command{
		Use:   "home",
		Short: "Load the landing page: latest products, categories and cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := hooks.NewInitialData(opts.client, domain.ProductQuery{Page: 1, PerPage: perPage, SortBy: domain.SortNewest})
			defer h.Close()

			home, err := await(cmd.Context(), h.Resource)
			if err != nil {
				return err
			}

			p := newPrinter(cmd, opts)
			if p.json {
				warnings := make(map[string]string, len(home.Warnings))
				for _, w := range home.Warnings {
					warnings[w.Resource] = w.Err.Error()
				}
				return p.JSON(map[string]any{
					"products":   home.Products,
					"categories": home.Categories,
					"cities":     home.Cities,
					"warnings":   warnings,
				})
			}

			if home.Products != nil {
				fmt.Fprintln(p.out, "Latest products")
				if err := p.products(home.Products); err != nil {
					return err
				}
				fmt.Fprintln(p.out)
			}
			if home.Categories != nil {
				fmt.Fprintln(p.out, "Categories")
				if err := p.categories(home.Categories); err != nil {
					return err
				}
				fmt.Fprintln(p.out)
			}
			if home.Cities != nil {
				fmt.Fprintln(p.out, "Cities")
				if err := p.cities(home.Cities); err != nil {
					return err
				}
			}
			for _, w := range home.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s unavailable: %s\n", w.Resource, failure(w.Err))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&perPage, "per-page", 8, "number of products to show")
	return cmd
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/hooks"
)

type printer struct {
	out  io.Writer
	json bool
	num  *message.Printer
}

func newPrinter(cmd *cobra.Command, opts *options) *printer {
	return &printer{
		out:  cmd.OutOrStdout(),
		json: opts.jsonOut,
		num:  message.NewPrinter(language.English),
	}
}

func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) table(header []string, rows [][]string) error {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func (p *printer) count(n int) string {
	return p.num.Sprintf("%d", n)
}

func (p *printer) price(d decimal.Decimal, currency string) string {
	d = d.Round(2)
	whole := d.Truncate(0)
	frac := d.Sub(whole).Abs().Shift(2).Round(0).IntPart()
	s := p.num.Sprintf("%d.%02d", whole.IntPart(), frac)
	if currency != "" {
		s += " " + currency
	}
	return s
}

func (p *printer) pageFooter(pg domain.Pagination, noun string) {
	if pg.Pages == 0 {
		fmt.Fprintf(p.out, "No %s found\n", noun)
		return
	}
	fmt.Fprintf(p.out, "Page %d of %d (%s %s)\n", pg.Page, pg.Pages, p.count(pg.Total), noun)
}

func (p *printer) products(page *domain.Page[domain.Product]) error {
	if p.json {
		return p.JSON(page)
	}
	rows := make([][]string, 0, len(page.Items))
	for _, it := range page.Items {
		rows = append(rows, []string{fmt.Sprint(it.ID), it.Name, p.price(it.Price, it.Currency), it.Category, it.City, it.ShopName})
	}
	if err := p.table([]string{"ID", "NAME", "PRICE", "CATEGORY", "CITY", "SHOP"}, rows); err != nil {
		return err
	}
	p.pageFooter(page.Pagination, "products")
	return nil
}

func (p *printer) shops(page *domain.Page[domain.Shop]) error {
	if p.json {
		return p.JSON(page)
	}
	rows := make([][]string, 0, len(page.Items))
	for _, it := range page.Items {
		rows = append(rows, []string{fmt.Sprint(it.ID), it.Name, it.Category, it.City, p.count(it.ProductsCount), fmt.Sprintf("%.1f", it.Rating)})
	}
	if err := p.table([]string{"ID", "NAME", "CATEGORY", "CITY", "PRODUCTS", "RATING"}, rows); err != nil {
		return err
	}
	p.pageFooter(page.Pagination, "shops")
	return nil
}

func (p *printer) categories(cats []domain.Category) error {
	if p.json {
		return p.JSON(cats)
	}
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{c.Slug, c.Name, p.count(c.Count)})
	}
	return p.table([]string{"SLUG", "NAME", "COUNT"}, rows)
}

func (p *printer) cities(cities []domain.City) error {
	if p.json {
		return p.JSON(cities)
	}
	rows := make([][]string, 0, len(cities))
	for _, c := range cities {
		rows = append(rows, []string{c.Name, p.count(c.Count)})
	}
	return p.table([]string{"CITY", "COUNT"}, rows)
}

func (p *printer) suggestions(s *domain.Suggestions) error {
	if p.json {
		return p.JSON(s)
	}
	if s.Empty() {
		fmt.Fprintln(p.out, "No suggestions")
		return nil
	}
	for _, it := range s.Products {
		fmt.Fprintf(p.out, "product   %s (%s)\n", it.Name, p.price(it.Price, it.Currency))
	}
	for _, it := range s.Shops {
		fmt.Fprintf(p.out, "shop      %s\n", it.Name)
	}
	for _, it := range s.Categories {
		fmt.Fprintf(p.out, "category  %s\n", it.Name)
	}
	return nil
}

// await waits for r to settle and returns its data, or its error rendered
// for the user.
func await[P, T any](ctx context.Context, r *hooks.Resource[P, T]) (T, error) {
	var zero T
	s, err := r.Wait(ctx)
	if err != nil {
		return zero, failure(err)
	}
	if s.Err != nil {
		return zero, failure(s.Err)
	}
	return s.Data, nil
}

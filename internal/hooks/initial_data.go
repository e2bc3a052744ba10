package hooks

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/storefront/internal/core/domain"
)

// Home is the landing page data.
type Home struct {
	Products   *domain.Page[domain.Product]
	Categories []domain.Category
	Cities     []domain.City
	// Warnings lists the parts that failed while at least one succeeded.
	Warnings []Warning
}

// Warning is a non-fatal failure of one part of Home.
type Warning struct {
	Resource string
	Err      error
}

// InitialData loads products, categories and cities concurrently. It fails
// only when all three fail.
type InitialData struct {
	*Resource[domain.ProductQuery, *Home]
}

// NewInitialData starts loading immediately.
func NewInitialData(src Source, q domain.ProductQuery) *InitialData {
	d := &InitialData{NewResource("initial_data", func(ctx context.Context, q domain.ProductQuery) (*Home, error) {
		return loadHome(ctx, src, q)
	})}
	d.Load(q)
	return d
}

func loadHome(ctx context.Context, src Source, q domain.ProductQuery) (*Home, error) {
	var home Home
	var productsErr, categoriesErr, cityErr error

	// Each part records its own error so one failure never cancels the others.
	var g errgroup.Group
	g.Go(func() error {
		home.Products, productsErr = src.ListProducts(ctx, q)
		return nil
	})
	g.Go(func() error {
		home.Categories, categoriesErr = src.Categories(ctx, domain.CategoryKindProducts)
		return nil
	})
	g.Go(func() error {
		home.Cities, cityErr = src.Cities(ctx)
		return nil
	})
	_ = g.Wait()

	if productsErr != nil && categoriesErr != nil && cityErr != nil {
		return nil, errors.Join(productsErr, categoriesErr, cityErr)
	}

	for _, part := range []struct {
		name string
		err  error
	}{
		{"products", productsErr},
		{"categories", categoriesErr},
		{"cities", cityErr},
	} {
		if part.err == nil {
			continue
		}
		home.Warnings = append(home.Warnings, Warning{Resource: part.name, Err: part.err})
		if ctx.Err() == nil {
			slog.Warn("Initial data partially loaded", "resource", part.name, "error", part.err)
		}
	}
	return &home, nil
}

package hooks

import (
	"context"

	"github.com/vietddude/storefront/internal/core/domain"
)

// Categories holds one category tree.
type Categories struct {
	*Resource[domain.CategoryKind, []domain.Category]
}

// NewCategories starts loading the tree of kind immediately.
func NewCategories(src Source, kind domain.CategoryKind) *Categories {
	c := &Categories{NewResource("categories", src.Categories)}
	c.Load(kind)
	return c
}

// Cities holds the city filter options.
type Cities struct {
	*Resource[struct{}, []domain.City]
}

// NewCities starts loading immediately.
func NewCities(src Source) *Cities {
	c := &Cities{NewResource("cities", func(ctx context.Context, _ struct{}) ([]domain.City, error) {
		return src.Cities(ctx)
	})}
	c.Load(struct{}{})
	return c
}

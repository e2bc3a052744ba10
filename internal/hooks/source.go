package hooks

import (
	"context"

	"github.com/vietddude/storefront/internal/core/domain"
)

// Source is the subset of the API client the hooks consume.
type Source interface {
	ListProducts(ctx context.Context, q domain.ProductQuery) (*domain.Page[domain.Product], error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListShops(ctx context.Context, q domain.ShopQuery) (*domain.Page[domain.Shop], error)
	GetShop(ctx context.Context, id string) (*domain.Shop, error)
	Categories(ctx context.Context, kind domain.CategoryKind) ([]domain.Category, error)
	Cities(ctx context.Context) ([]domain.City, error)
	SearchSuggestions(ctx context.Context, query string) (*domain.Suggestions, error)
}

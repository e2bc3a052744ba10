package hooks

import (
	"github.com/vietddude/storefront/internal/core/domain"
)

// Products is the product listing with its filter state.
type Products struct {
	*Resource[domain.ProductQuery, *domain.Page[domain.Product]]
}

// NewProducts starts loading q immediately.
func NewProducts(src Source, q domain.ProductQuery) *Products {
	p := &Products{NewResource("products", src.ListProducts)}
	p.Load(q)
	return p
}

// SetFilters applies new filters and goes back to the first page.
func (p *Products) SetFilters(q domain.ProductQuery) {
	p.Load(q.WithPage(1))
}

// SetPage keeps the filters and moves to page.
func (p *Products) SetPage(page int) {
	p.Load(p.Params().WithPage(page))
}

// Next moves to the following page when there is one.
func (p *Products) Next() bool {
	s := p.Snapshot()
	if s.Data == nil || !s.Data.Pagination.HasNext {
		return false
	}
	p.SetPage(s.Data.Pagination.Page + 1)
	return true
}

// Prev moves to the preceding page when there is one.
func (p *Products) Prev() bool {
	s := p.Snapshot()
	if s.Data == nil || !s.Data.Pagination.HasPrev {
		return false
	}
	p.SetPage(s.Data.Pagination.Page - 1)
	return true
}

// Shops is the shop listing with its filter state.
type Shops struct {
	*Resource[domain.ShopQuery, *domain.Page[domain.Shop]]
}

// NewShops starts loading q immediately.
func NewShops(src Source, q domain.ShopQuery) *Shops {
	s := &Shops{NewResource("shops", src.ListShops)}
	s.Load(q)
	return s
}

// SetPage keeps the filters and moves to page.
func (s *Shops) SetPage(page int) {
	q := s.Params()
	q.Page = page
	s.Load(q)
}

// Product is a single product page.
type Product struct {
	*Resource[string, *domain.Product]
}

// NewProduct starts loading id. An empty id leaves the hook idle.
func NewProduct(src Source, id string) *Product {
	p := &Product{NewResource("product", src.GetProduct)}
	if id != "" {
		p.Load(id)
	}
	return p
}

// Shop is a single shop page.
type Shop struct {
	*Resource[string, *domain.Shop]
}

// NewShop starts loading id. An empty id leaves the hook idle.
func NewShop(src Source, id string) *Shop {
	s := &Shop{NewResource("shop", src.GetShop)}
	if id != "" {
		s.Load(id)
	}
	return s
}

package apitest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietddude/storefront/internal/core/domain"
)

// Catalog is the data the fake API serves.
type Catalog struct {
	Products          []domain.Product
	Shops             []domain.Shop
	ProductCategories []domain.Category
	ShopCategories    []domain.Category
	Cities            []domain.City
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultCatalog returns a small, deterministic catalog.
func DefaultCatalog() *Catalog {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	shops := []domain.Shop{
		{ID: 1, Name: "Tech Corner", Description: "Phones and laptops", Category: "electronics", City: "Tashkent", Phone: "+998901112233", ProductsCount: 3, Rating: 4.7},
		{ID: 2, Name: "Green Home", Description: "Furniture and decor", Category: "home", City: "Samarkand", Phone: "+998907778899", ProductsCount: 2, Rating: 4.2},
		{ID: 3, Name: "Book Nook", Description: "Used and new books", Category: "books", City: "Tashkent", Phone: "+998903334455", ProductsCount: 1, Rating: 4.9},
	}

	products := []domain.Product{
		{ID: 1, Name: "Smartphone X", Description: "6.1 inch display", Price: price("499.00"), Currency: "USD", Category: "electronics", City: "Tashkent", ShopID: 1, CreatedAt: base},
		{ID: 2, Name: "Laptop Pro 14", Description: "16GB RAM", Price: price("1299.99"), Currency: "USD", Category: "electronics", City: "Tashkent", ShopID: 1, SellerPhone: "+998901110000", CreatedAt: base.Add(24 * time.Hour)},
		{ID: 3, Name: "Wireless Earbuds", Description: "Noise cancelling", Price: price("79.50"), Currency: "USD", Category: "electronics", City: "Tashkent", ShopID: 1, CreatedAt: base.Add(48 * time.Hour)},
		{ID: 4, Name: "Oak Dining Table", Description: "Seats six", Price: price("640.00"), Currency: "USD", Category: "home", City: "Samarkand", ShopID: 2, CreatedAt: base.Add(72 * time.Hour)},
		{ID: 5, Name: "Floor Lamp", Description: "Warm light", Price: price("45.00"), Currency: "USD", Category: "home", City: "Samarkand", ShopID: 2, CreatedAt: base.Add(96 * time.Hour)},
		{ID: 6, Name: "Go Programming Book", Description: "Idiomatic Go", Price: price("0"), Currency: "USD", Category: "books", City: "Tashkent", ShopID: 3, CreatedAt: base.Add(120 * time.Hour)},
	}
	for i := range products {
		for _, s := range shops {
			if s.ID == products[i].ShopID {
				products[i].ShopName = s.Name
			}
		}
	}

	return &Catalog{
		Products: products,
		Shops:    shops,
		ProductCategories: []domain.Category{
			{ID: 1, Name: "Electronics", Slug: "electronics", Count: 3},
			{ID: 2, Name: "Home", Slug: "home", Count: 2},
			{ID: 3, Name: "Books", Slug: "books", Count: 1},
		},
		ShopCategories: []domain.Category{
			{ID: 10, Name: "Electronics", Slug: "electronics", Count: 1},
			{ID: 11, Name: "Home", Slug: "home", Count: 1},
			{ID: 12, Name: "Books", Slug: "books", Count: 1},
		},
		Cities: []domain.City{
			{ID: 1, Name: "Tashkent", Count: 4},
			{ID: 2, Name: "Samarkand", Count: 2},
		},
	}
}

// Stats summarizes the catalog.
func (c *Catalog) Stats() domain.Stats {
	return domain.Stats{
		TotalProducts:   len(c.Products),
		TotalShops:      len(c.Shops),
		TotalCategories: len(c.ProductCategories),
		TotalCities:     len(c.Cities),
	}
}

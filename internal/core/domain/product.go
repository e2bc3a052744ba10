package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a single listing offered by a shop.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Category    string          `json:"category,omitempty"`
	City        string          `json:"city,omitempty"`
	ShopID      int64           `json:"shop_id,omitempty"`
	ShopName    string          `json:"shop_name,omitempty"`
	SellerPhone string          `json:"seller_phone,omitempty"`
	CreatedAt   time.Time       `json:"created_at,omitempty"`
}

// Shop is a seller on the marketplace.
type Shop struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	LogoURL       string  `json:"logo_url,omitempty"`
	Category      string  `json:"category,omitempty"`
	City          string  `json:"city,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	ProductsCount int     `json:"products_count"`
	Rating        float64 `json:"rating,omitempty"`
}

// ContactPhone returns the number a buyer should call about the product,
// falling back to the shop's phone when the listing has none.
func (p Product) ContactPhone(shop *Shop) string {
	if p.SellerPhone != "" {
		return p.SellerPhone
	}
	if shop != nil {
		return shop.Phone
	}
	return ""
}

package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParamsEncode(t *testing.T) {
	var nilDecimal *decimal.Decimal
	var nilString *string
	var nilFloat *float64
	var nilTime *time.Time
	empty := ""
	price := 19.5
	perPage := 24

	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{
			name:   "empty string dropped, zero kept",
			params: Params{"page": 1, "query": "", "category": "all", "min_price": 0},
			want:   "category=all&min_price=0&page=1",
		},
		{
			name:   "nil and nil pointers dropped",
			params: Params{"query": nil, "min_price": nilDecimal, "city": nilString, "page": 2},
			want:   "page=2",
		},
		{
			name:   "nil pointers of any type dropped",
			params: Params{"min_price": nilFloat, "since": nilTime, "page": 1},
			want:   "page=1",
		},
		{
			name:   "non-nil pointers send their target",
			params: Params{"min_price": &price, "per_page": &perPage},
			want:   "min_price=19.5&per_page=24",
		},
		{
			name:   "pointer to empty string dropped",
			params: Params{"city": &empty},
			want:   "",
		},
		{
			name:   "false is kept",
			params: Params{"in_stock": false},
			want:   "in_stock=false",
		},
		{
			name:   "values are escaped",
			params: Params{"query": "red shoes & bags"},
			want:   "query=red+shoes+%26+bags",
		},
		{
			name:   "decimal renders without exponent",
			params: Params{"max_price": decimal.RequireFromString("1500.50")},
			want:   "max_price=1500.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.Encode())
		})
	}
}

func TestProductQueryParams(t *testing.T) {
	zero := decimal.Zero
	q := ProductQuery{Page: 1, Category: "all", MinPrice: &zero}

	assert.Equal(t, "category=all&min_price=0&page=1", q.Params().Encode())
}

func TestProductQueryParams_OmitsUnsetPaging(t *testing.T) {
	q := ProductQuery{Query: "phone", SortBy: SortPriceAsc}

	assert.Equal(t, "query=phone&sort_by=price_asc", q.Params().Encode())
	assert.Equal(t, "page=3&query=phone&sort_by=price_asc", q.WithPage(3).Params().Encode())
}

func TestShopQueryParams(t *testing.T) {
	q := ShopQuery{Page: 2, PerPage: 20, City: "almaty"}

	assert.Equal(t, "city=almaty&page=2&per_page=20", q.Params().Encode())
}

func TestSuggestionsEmpty(t *testing.T) {
	var nilSuggestions *Suggestions
	assert.True(t, nilSuggestions.Empty())
	assert.True(t, EmptySuggestions().Empty())
	assert.False(t, (&Suggestions{Shops: []Shop{{ID: 1}}}).Empty())
}

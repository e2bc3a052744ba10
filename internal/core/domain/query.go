package domain

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"
)

// Recognized query parameter names.
const (
	ParamPage     = "page"
	ParamPerPage  = "per_page"
	ParamQuery    = "query"
	ParamCategory = "category"
	ParamCity     = "city"
	ParamMinPrice = "min_price"
	ParamMaxPrice = "max_price"
	ParamSortBy   = "sort_by"
)

// Sort orders accepted by listing endpoints.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortPopular   = "popular"
)

// Params maps query parameter names to scalar values.
//
// Encode omits nil values, nil pointers and empty strings. Every other value,
// including 0 and false, is sent.
type Params map[string]any

// Encode renders the parameters as a URL query string with keys sorted.
func (p Params) Encode() string {
	values := url.Values{}
	for key, raw := range p {
		if s, ok := paramString(raw); ok {
			values.Set(key, s)
		}
	}
	return values.Encode()
}

func paramString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	// Pointers of any type are sent as their target; nil means absent.
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		return paramString(rv.Elem().Interface())
	}

	switch t := v.(type) {
	case string:
		return t, t != ""
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case decimal.Decimal:
		return t.String(), true
	case fmt.Stringer:
		s := t.String()
		return s, s != ""
	default:
		return fmt.Sprint(t), true
	}
}

// ProductQuery is the filter state of the product listing.
// Optional numeric filters are pointers so that an explicit zero survives.
type ProductQuery struct {
	Page     int
	PerPage  int
	Query    string
	Category string
	City     string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	SortBy   string
}

// Params converts the query to its wire parameters.
func (q ProductQuery) Params() Params {
	p := Params{
		ParamQuery:    q.Query,
		ParamCategory: q.Category,
		ParamCity:     q.City,
		ParamMinPrice: q.MinPrice,
		ParamMaxPrice: q.MaxPrice,
		ParamSortBy:   q.SortBy,
	}
	if q.Page > 0 {
		p[ParamPage] = q.Page
	}
	if q.PerPage > 0 {
		p[ParamPerPage] = q.PerPage
	}
	return p
}

// WithPage returns a copy of the query pointing at another page.
func (q ProductQuery) WithPage(page int) ProductQuery {
	q.Page = page
	return q
}

// ShopQuery is the filter state of the shop listing.
type ShopQuery struct {
	Page     int
	PerPage  int
	Query    string
	Category string
	City     string
	SortBy   string
}

// Params converts the query to its wire parameters.
func (q ShopQuery) Params() Params {
	p := Params{
		ParamQuery:    q.Query,
		ParamCategory: q.Category,
		ParamCity:     q.City,
		ParamSortBy:   q.SortBy,
	}
	if q.Page > 0 {
		p[ParamPage] = q.Page
	}
	if q.PerPage > 0 {
		p[ParamPerPage] = q.PerPage
	}
	return p
}

package domain

// CategoryKind selects which category tree is requested.
type CategoryKind string

const (
	CategoryKindProducts CategoryKind = "products"
	CategoryKindShops    CategoryKind = "shops"
)

// Category is a filter option for products or shops.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// City is a location filter option.
type City struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Suggestions holds search-as-you-type results.
type Suggestions struct {
	Products   []Product  `json:"products"`
	Shops      []Shop     `json:"shops"`
	Categories []Category `json:"categories"`
}

// EmptySuggestions returns a result with non-nil empty slices so callers can
// range over it without nil checks.
func EmptySuggestions() *Suggestions {
	return &Suggestions{
		Products:   []Product{},
		Shops:      []Shop{},
		Categories: []Category{},
	}
}

// Empty reports whether no suggestion of any kind was returned.
func (s *Suggestions) Empty() bool {
	return s == nil || len(s.Products)+len(s.Shops)+len(s.Categories) == 0
}

// Stats is the marketplace summary shown on the landing page.
type Stats struct {
	TotalProducts   int `json:"total_products"`
	TotalShops      int `json:"total_shops"`
	TotalCategories int `json:"total_categories"`
	TotalCities     int `json:"total_cities"`
}

// Package apitest provides an in-process fake of the marketplace API with
// fault injection.
//
// Routes live under /api so a client configured with Server.BaseURL() sees
// the same paths as production:
//
//	srv := apitest.NewServer(nil)
//	defer srv.Close()
//	srv.FailNext(2, http.StatusServiceUnavailable)
//	client := api.NewClient(api.Config{BaseURL: srv.BaseURL()})
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"github.com/vietddude/storefront/internal/core/domain"
)

// Prefix is the path every route is mounted under.
const Prefix = "/api"

const (
	defaultPerPage = 12
	maxPerPage     = 100
	maxSuggestions = 5
)

type fault struct {
	status   int
	message  string
	envelope bool // 200 with success=false
}

// Server is the fake marketplace API.
type Server struct {
	catalog *Catalog
	router  chi.Router
	ts      *httptest.Server

	mu         sync.Mutex
	failNext   int
	failStatus int
	routeFault map[string]fault
	delay      func(r *http.Request) time.Duration
	hits       map[string]int
	lastQuery  map[string]url.Values
	lastHeader map[string]http.Header
}

// NewHandler builds the fake API without starting a listener.
func NewHandler(catalog *Catalog) *Server {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	s := &Server{
		catalog:    catalog,
		routeFault: make(map[string]fault),
		hits:       make(map[string]int),
		lastQuery:  make(map[string]url.Values),
		lastHeader: make(map[string]http.Header),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route(Prefix, func(r chi.Router) {
		r.Use(s.inject)

		r.Get("/products", s.listProducts)
		r.Get("/products/{id}", s.getProduct)
		r.Get("/shops", s.listShops)
		r.Get("/shops/{id}", s.getShop)
		r.Get("/categories/products", s.productCategories)
		r.Get("/categories/shops", s.shopCategories)
		r.Get("/cities", s.cities)
		r.Get("/search/suggestions", s.suggestions)
		r.Get("/stats", s.stats)
	})

	s.router = r
	return s
}

// NewServer starts the fake API on a loopback listener.
func NewServer(catalog *Catalog) *Server {
	s := NewHandler(catalog)
	s.ts = httptest.NewServer(s.router)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// BaseURL is the API root for clients.
func (s *Server) BaseURL() string {
	return s.ts.URL + Prefix
}

// Close shuts the listener down.
func (s *Server) Close() {
	if s.ts != nil {
		s.ts.Close()
	}
}

// FailNext makes the next n requests, on any route, answer with status.
func (s *Server) FailNext(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.failStatus = status
}

// FailRoute makes every request to path (e.g. "/cities") answer with status
// until Reset.
func (s *Server) FailRoute(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routeFault[path] = fault{status: status}
}

// RejectRoute makes path answer 200 with success=false and message.
func (s *Server) RejectRoute(path, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routeFault[path] = fault{status: http.StatusOK, message: message, envelope: true}
}

// SetDelay installs a per-request delay. The wait ends early if the request
// is cancelled.
func (s *Server) SetDelay(fn func(r *http.Request) time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = fn
}

// Reset clears every injected fault and delay. Hit counters are kept.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = 0
	s.routeFault = make(map[string]fault)
	s.delay = nil
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// LastQuery returns the query of the latest request to path.
func (s *Server) LastQuery(path string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery[path]
}

// LastHeader returns the headers of the latest request to path.
func (s *Server) LastHeader(path string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeader[path]
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, Prefix)

		s.mu.Lock()
		s.hits[path]++
		s.lastQuery[path] = r.URL.Query()
		s.lastHeader[path] = r.Header.Clone()
		delay := s.delay
		var f *fault
		if s.failNext > 0 {
			s.failNext--
			f = &fault{status: s.failStatus}
		} else if rf, ok := s.routeFault[path]; ok {
			f = &rf
		}
		s.mu.Unlock()

		if delay != nil {
			if d := delay(r); d > 0 {
				t := time.NewTimer(d)
				select {
				case <-t.C:
				case <-r.Context().Done():
					t.Stop()
					return
				}
			}
		}

		if f != nil {
			msg := f.message
			if msg == "" {
				msg = http.StatusText(f.status)
			}
			writeJSON(w, f.status, envelope{Success: false, Error: msg})
			return
		}

		next.ServeHTTP(w, r)
	})
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func paging(q url.Values) (page, perPage int) {
	page, _ = strconv.Atoi(q.Get(domain.ParamPage))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(q.Get(domain.ParamPerPage))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func paginate[T any](items []T, page, perPage int) domain.Page[T] {
	total := len(items)
	pages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	out := make([]T, end-start)
	copy(out, items[start:end])

	return domain.Page[T]{
		Items: out,
		Pagination: domain.Pagination{
			Page:    page,
			Pages:   pages,
			PerPage: perPage,
			Total:   total,
			HasNext: page < pages,
			HasPrev: page > 1,
		},
	}
}

func matches(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	query = strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func sameFilter(want, got string) bool {
	return want == "" || want == "all" || strings.EqualFold(want, got)
}

func (s *Server) filterProducts(q url.Values) ([]domain.Product, error) {
	var minPrice, maxPrice *decimal.Decimal
	for _, p := range []struct {
		name string
		dst  **decimal.Decimal
	}{{domain.ParamMinPrice, &minPrice}, {domain.ParamMaxPrice, &maxPrice}} {
		if raw := q.Get(p.name); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, err
			}
			*p.dst = &d
		}
	}

	var out []domain.Product
	for _, p := range s.catalog.Products {
		if !matches(q.Get(domain.ParamQuery), p.Name, p.Description) {
			continue
		}
		if !sameFilter(q.Get(domain.ParamCategory), p.Category) || !sameFilter(q.Get(domain.ParamCity), p.City) {
			continue
		}
		if minPrice != nil && p.Price.LessThan(*minPrice) {
			continue
		}
		if maxPrice != nil && p.Price.GreaterThan(*maxPrice) {
			continue
		}
		out = append(out, p)
	}

	switch q.Get(domain.ParamSortBy) {
	case domain.SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case domain.SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case domain.SortNewest, "":
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out, nil
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.filterProducts(q)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid price filter")
		return
	}
	page, perPage := paging(q)
	respond(w, paginate(items, page, perPage))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid product id")
		return
	}
	for _, p := range s.catalog.Products {
		if p.ID == id {
			respond(w, p)
			return
		}
	}
	fail(w, http.StatusNotFound, "Product not found")
}

func (s *Server) listShops(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var out []domain.Shop
	for _, sh := range s.catalog.Shops {
		if !matches(q.Get(domain.ParamQuery), sh.Name, sh.Description) {
			continue
		}
		if !sameFilter(q.Get(domain.ParamCategory), sh.Category) || !sameFilter(q.Get(domain.ParamCity), sh.City) {
			continue
		}
		out = append(out, sh)
	}
	if q.Get(domain.ParamSortBy) == domain.SortPopular {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	}

	page, perPage := paging(q)
	respond(w, paginate(out, page, perPage))
}

func (s *Server) getShop(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid shop id")
		return
	}
	for _, sh := range s.catalog.Shops {
		if sh.ID == id {
			respond(w, sh)
			return
		}
	}
	fail(w, http.StatusNotFound, "Shop not found")
}

func (s *Server) productCategories(w http.ResponseWriter, r *http.Request) {
	respond(w, s.catalog.ProductCategories)
}

func (s *Server) shopCategories(w http.ResponseWriter, r *http.Request) {
	respond(w, s.catalog.ShopCategories)
}

func (s *Server) cities(w http.ResponseWriter, r *http.Request) {
	respond(w, s.catalog.Cities)
}

func (s *Server) suggestions(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get(domain.ParamQuery))
	out := domain.EmptySuggestions()
	if query == "" {
		respond(w, out)
		return
	}

	for _, p := range s.catalog.Products {
		if len(out.Products) < maxSuggestions && matches(query, p.Name) {
			out.Products = append(out.Products, p)
		}
	}
	for _, sh := range s.catalog.Shops {
		if len(out.Shops) < maxSuggestions && matches(query, sh.Name) {
			out.Shops = append(out.Shops, sh)
		}
	}
	for _, c := range s.catalog.ProductCategories {
		if len(out.Categories) < maxSuggestions && matches(query, c.Name, c.Slug) {
			out.Categories = append(out.Categories, c)
		}
	}
	respond(w, out)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	respond(w, s.catalog.Stats())
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/api/apierr"
	"github.com/vietddude/storefront/internal/infra/api/cache"
	"github.com/vietddude/storefront/internal/infra/api/metrics"
	"github.com/vietddude/storefront/internal/infra/api/retry"
	"github.com/vietddude/storefront/internal/infra/api/transport"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "https://api.marketplace.example.com/api"

// MinSuggestionQueryLength is the shortest query sent to the suggestions endpoint.
const MinSuggestionQueryLength = 2

// Endpoint labels.
const (
	EndpointProducts          = "/products"
	EndpointProduct           = "/products/{id}"
	EndpointShops             = "/shops"
	EndpointShop              = "/shops/{id}"
	EndpointProductCategories = "/categories/products"
	EndpointShopCategories    = "/categories/shops"
	EndpointCities            = "/cities"
	EndpointSuggestions       = "/search/suggestions"
	EndpointStats             = "/stats"
)

// Config holds client settings.
type Config struct {
	BaseURL string
	// Timeout bounds each attempt; defaults to 30s.
	Timeout time.Duration
	// Retry defaults to DefaultRetryPolicy when nil.
	Retry *retry.Policy
	// RateLimit caps attempts per second; 0 disables limiting.
	RateLimit float64
	Burst     int
	// Cache is optional; successful envelopes are stored for CacheTTL.
	Cache    cache.Cache
	CacheTTL time.Duration
	// MinQueryLength overrides MinSuggestionQueryLength when positive.
	MinQueryLength int
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client is the typed marketplace API client. It is safe for concurrent use.
type Client struct {
	baseURL        string
	executor       *transport.Executor
	policy         retry.Policy
	cache          cache.Cache
	cacheTTL       time.Duration
	minQueryLength int
	group          singleflight.Group
}

// NewClient creates a new API client.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	policy := retry.DefaultPolicy
	if cfg.Retry != nil {
		policy = *cfg.Retry
	}

	minLen := cfg.MinQueryLength
	if minLen <= 0 {
		minLen = MinSuggestionQueryLength
	}

	return &Client{
		baseURL: baseURL,
		executor: transport.NewExecutor(transport.Config{
			Timeout:    cfg.Timeout,
			RateLimit:  cfg.RateLimit,
			Burst:      cfg.Burst,
			HTTPClient: cfg.HTTPClient,
		}),
		policy:         policy,
		cache:          cfg.Cache,
		cacheTTL:       cfg.CacheTTL,
		minQueryLength: minLen,
	}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Monitor exposes transport health for status reporting.
func (c *Client) Monitor() *transport.Monitor {
	return c.executor.Monitor
}

// Close releases connections and the cache backend.
func (c *Client) Close() error {
	if closer, ok := c.cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	return c.executor.Close()
}

// ListProducts returns one page of products matching q.
func (c *Client) ListProducts(ctx context.Context, q domain.ProductQuery) (*domain.Page[domain.Product], error) {
	page, err := fetch[domain.Page[domain.Product]](ctx, c, EndpointProducts, "/products", q.Params(), c.policy)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct returns a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	path, err := resourcePath("/products/", id)
	if err != nil {
		return nil, err
	}
	p, err := fetch[domain.Product](ctx, c, EndpointProduct, path, nil, c.policy)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListShops returns one page of shops matching q.
func (c *Client) ListShops(ctx context.Context, q domain.ShopQuery) (*domain.Page[domain.Shop], error) {
	page, err := fetch[domain.Page[domain.Shop]](ctx, c, EndpointShops, "/shops", q.Params(), c.policy)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetShop returns a single shop.
func (c *Client) GetShop(ctx context.Context, id string) (*domain.Shop, error) {
	path, err := resourcePath("/shops/", id)
	if err != nil {
		return nil, err
	}
	s, err := fetch[domain.Shop](ctx, c, EndpointShop, path, nil, c.policy)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ProductCategories returns the product category tree.
func (c *Client) ProductCategories(ctx context.Context) ([]domain.Category, error) {
	return fetch[[]domain.Category](ctx, c, EndpointProductCategories, "/categories/products", nil, c.policy)
}

// ShopCategories returns the shop category tree.
func (c *Client) ShopCategories(ctx context.Context) ([]domain.Category, error) {
	return fetch[[]domain.Category](ctx, c, EndpointShopCategories, "/categories/shops", nil, c.policy)
}

// Categories returns the category tree of the given kind.
func (c *Client) Categories(ctx context.Context, kind domain.CategoryKind) ([]domain.Category, error) {
	if kind == domain.CategoryKindShops {
		return c.ShopCategories(ctx)
	}
	return c.ProductCategories(ctx)
}

// Cities returns the city filter options.
func (c *Client) Cities(ctx context.Context) ([]domain.City, error) {
	return fetch[[]domain.City](ctx, c, EndpointCities, "/cities", nil, c.policy)
}

// SearchSuggestions returns search-as-you-type results. Queries shorter than
// the minimum length return an empty result without a network call.
func (c *Client) SearchSuggestions(ctx context.Context, query string) (*domain.Suggestions, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < c.minQueryLength {
		return domain.EmptySuggestions(), nil
	}

	s, err := fetch[*domain.Suggestions](ctx, c, EndpointSuggestions, "/search/suggestions", domain.Params{domain.ParamQuery: query}, c.policy)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return domain.EmptySuggestions(), nil
	}
	return s, nil
}

// Stats returns marketplace totals.
func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	s, err := fetch[domain.Stats](ctx, c, EndpointStats, "/stats", nil, c.policy)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Ping makes a single uncached attempt against the API.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.executor.Do(ctx, transport.Request{URL: c.url("/stats", nil), Endpoint: EndpointStats})
	if err != nil {
		return apierr.Normalize(err)
	}
	if _, err := decode[domain.Stats](resp); err != nil {
		return apierr.Normalize(err)
	}
	return nil
}

func resourcePath(prefix, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apierr.HTTP(http.StatusBadRequest, "missing id")
	}
	return prefix + url.PathEscape(id), nil
}

func (c *Client) url(path string, params domain.Params) string {
	u := c.baseURL + path
	if qs := params.Encode(); qs != "" {
		u += "?" + qs
	}
	return u
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decode parses the envelope of a successful HTTP response.
func decode[T any](resp *transport.Response) (T, error) {
	var env envelope[T]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		var zero T
		return zero, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		var zero T
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return zero, apierr.API(resp.StatusCode, msg)
	}
	return env.Data, nil
}

func fetch[T any](ctx context.Context, c *Client, endpoint, path string, params domain.Params, policy retry.Policy) (T, error) {
	var zero T
	u := c.url(path, params)

	if body, ok := cache.Lookup(ctx, c.cache, u); ok {
		if v, err := decode[T](&transport.Response{StatusCode: http.StatusOK, Body: body}); err == nil {
			return v, nil
		}
		if err := c.cache.Invalidate(ctx, u); err != nil {
			slog.Warn("Failed to invalidate cached response", "endpoint", endpoint, "error", err)
		}
	}

	resp, err := c.do(ctx, endpoint, u, policy)
	if err != nil {
		return zero, c.fail(endpoint, err)
	}

	v, err := decode[T](resp)
	if err != nil {
		return zero, c.fail(endpoint, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, u, resp.Body, c.cacheTTL); err != nil {
			slog.Warn("Failed to cache response", "endpoint", endpoint, "error", err)
		}
	}
	return v, nil
}

// do runs the retry loop. With a cache configured, concurrent identical
// requests share one loop.
func (c *Client) do(ctx context.Context, endpoint, u string, policy retry.Policy) (*transport.Response, error) {
	call := func(ctx context.Context) (*transport.Response, error) {
		return retry.Do(ctx, policy, func(ctx context.Context) (*transport.Response, error) {
			return c.executor.Do(ctx, transport.Request{URL: u, Endpoint: endpoint})
		}, retry.OnRetry(func(attempt int, delay time.Duration, err error) {
			metrics.RetriesTotal.WithLabelValues(endpoint).Inc()
			slog.Warn("Retrying API request",
				"endpoint", endpoint,
				"attempt", attempt+1,
				"delay", delay,
				"error", err,
			)
		}))
	}

	if c.cache == nil {
		return call(ctx)
	}

	ch := c.group.DoChan(u, func() (any, error) {
		return call(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, apierr.Canceled(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			// The leader was cancelled but this caller was not.
			if apierr.IsCanceled(res.Err) && ctx.Err() == nil {
				return call(ctx)
			}
			return nil, res.Err
		}
		return res.Val.(*transport.Response), nil
	}
}

// fail normalizes err onto the closed error set and records it.
func (c *Client) fail(endpoint string, err error) error {
	err = apierr.Normalize(err)
	if apierr.IsCanceled(err) {
		return err
	}

	kind := apierr.KindOf(err)
	metrics.ErrorsTotal.WithLabelValues(endpoint, kind.String()).Inc()
	if kind == apierr.KindUnknown {
		slog.Error("Unexpected API failure", "endpoint", endpoint, "error", err)
	} else {
		slog.Debug("API request failed", "endpoint", endpoint, "kind", kind, "error", err)
	}
	return err
}

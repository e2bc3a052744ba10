// Package api provides a resilient client for the marketplace REST API.
//
// This package offers:
//   - Typed operations for products, shops, categories, cities, search
//     suggestions and stats
//   - A hard per-attempt timeout and bounded exponential-backoff retry
//   - A closed set of error kinds (see apierr) instead of opaque errors
//   - Optional read-through response caching (memory or Redis)
//
// # Quick Start
//
//	import "github.com/vietddude/storefront/internal/infra/api"
//
//	client := api.NewClient(api.Config{BaseURL: "https://api.marketplace.example.com/api"})
//	defer client.Close()
//
//	page, err := client.ListProducts(ctx, domain.ProductQuery{Category: "electronics", Page: 1})
//	if err != nil {
//	    fmt.Println(apierr.UserMessage(err))
//	}
//
// # Package Structure
//
//   - transport/ - single HTTP attempt, timeout, status classification, monitor
//   - retry/     - backoff policy and retry loop
//   - apierr/    - error kinds and user-facing messages
//   - cache/     - response cache backends
//   - metrics/   - Prometheus collectors
//   - apitest/   - in-process fake API for tests
package api

import (
	"github.com/vietddude/storefront/internal/infra/api/apierr"
	"github.com/vietddude/storefront/internal/infra/api/retry"
)

// Error is the only error type returned by Client operations.
type Error = apierr.Error

// RetryPolicy defines retry behavior.
type RetryPolicy = retry.Policy

// DefaultRetryPolicy provides sensible defaults.
var DefaultRetryPolicy = retry.DefaultPolicy

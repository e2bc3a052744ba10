// Package transport performs single HTTP calls against the marketplace API.
//
// This package contains:
//   - Executor: one request per call, bounded by a hard timeout, with the
//     outcome classified into apierr kinds
//   - Monitor: latency, failure and throttle tracking for the executor
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vietddude/storefront/internal/infra/api/apierr"
	"github.com/vietddude/storefront/internal/infra/api/metrics"
)

// DefaultTimeout bounds every attempt unless configured otherwise.
const DefaultTimeout = 30 * time.Second

// HeaderRequestID carries a per-attempt correlation id.
const HeaderRequestID = "X-Request-ID"

// Request describes one call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	// Endpoint is a low-cardinality label for metrics, e.g. "/products/{id}".
	Endpoint string
}

// Response is a successful (status < 400) reply with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Config holds executor settings.
type Config struct {
	Timeout time.Duration
	// RateLimit caps attempts per second; 0 disables limiting.
	RateLimit float64
	Burst     int
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Executor implements a single HTTP attempt with timeout and classification.
type Executor struct {
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter

	Monitor *Monitor
}

// NewExecutor creates a new executor.
func NewExecutor(cfg Config) *Executor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Executor{
		httpClient: httpClient,
		timeout:    timeout,
		limiter:    limiter,
		Monitor:    NewMonitor(),
	}
}

// Timeout returns the per-attempt timeout.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Do performs one HTTP call.
//
// 4xx responses fail with apierr.KindHTTP, 5xx with apierr.KindServer. Transport
// failures and attempt timeouts fail with apierr.KindNetwork. When ctx itself is
// done the error is an apierr cancellation.
func (e *Executor) Do(ctx context.Context, req Request) (*Response, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, apierr.Canceled(ctx.Err())
			}
			return nil, apierr.Network("rate limiter", err)
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, req.URL, nil)
	if err != nil {
		return nil, apierr.Unknown(http.StatusBadRequest, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, e.transportError(ctx, attemptCtx, req.Endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.transportError(ctx, attemptCtx, req.Endpoint, fmt.Errorf("read response: %w", err))
	}

	latency := time.Since(start)
	metrics.RequestLatency.WithLabelValues(req.Endpoint).Observe(latency.Seconds())
	metrics.RequestsTotal.WithLabelValues(req.Endpoint, metrics.StatusClass(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		e.Monitor.RecordFailure()
		return nil, apierr.Server(resp.StatusCode, envelopeMessage(body))

	case resp.StatusCode >= http.StatusBadRequest:
		if resp.StatusCode == http.StatusTooManyRequests {
			e.Monitor.RecordThrottle(resp.Header.Get("Retry-After"))
		} else {
			// The API answered, so the connection is fine.
			e.Monitor.RecordRequest(latency)
		}
		return nil, apierr.HTTP(resp.StatusCode, envelopeMessage(body))
	}

	e.Monitor.RecordRequest(latency)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Close releases idle connections.
func (e *Executor) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

func (e *Executor) transportError(ctx, attemptCtx context.Context, endpoint string, err error) error {
	e.Monitor.RecordFailure()
	metrics.RequestsTotal.WithLabelValues(endpoint, metrics.StatusClass(0)).Inc()

	switch {
	case ctx.Err() != nil:
		return apierr.Canceled(ctx.Err())
	case errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
		return apierr.Timeout(err)
	default:
		return apierr.Network("network request failed", err)
	}
}

// envelopeMessage pulls a human-readable message out of an error body.
func envelopeMessage(body []byte) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Error != "" {
		return env.Error
	}
	return env.Message
}

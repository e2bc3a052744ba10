// Package cache stores successful API response bodies for a short time.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vietddude/storefront/internal/infra/api/metrics"
	"github.com/vietddude/storefront/internal/infra/redis"
)

// Backend names accepted in configuration.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Cache is a TTL store for response bodies.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	Backend() string
}

// Config selects and configures a backend.
type Config struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
}

// New builds the configured cache. It returns nil for BackendNone.
func New(cfg Config, redisCfg redis.Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemory(), nil
	case BackendRedis:
		client, err := redis.NewClient(redisCfg)
		if err != nil {
			return nil, err
		}
		return NewRedis(client), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Lookup reads key from c and records the outcome. A nil cache always misses.
func Lookup(ctx context.Context, c Cache, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	body, ok, err := c.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(c.Backend(), "error").Inc()
		return nil, false
	case ok:
		metrics.CacheLookups.WithLabelValues(c.Backend(), "hit").Inc()
		return body, true
	default:
		metrics.CacheLookups.WithLabelValues(c.Backend(), "miss").Inc()
		return nil, false
	}
}

type entry struct {
	body      []byte
	expiresAt time.Time
}

// Memory is an in-process cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock replaces the time source (tests).
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// Get returns the body stored under key if it has not expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		// Re-check: a concurrent Set may have refreshed it.
		if cur, ok := m.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.body, true, nil
}

// Set stores body under key. A non-positive ttl never expires.
func (m *Memory) Set(_ context.Context, key string, body []byte, ttl time.Duration) error {
	e := entry{body: body}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Invalidate removes key, forcing the next lookup to miss.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Backend() string { return BackendMemory }

// Redis stores bodies in Redis.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps a connected client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return r.client.GetResponse(ctx, key)
}

func (r *Redis) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return r.client.SetResponse(ctx, key, body, ttl)
}

func (r *Redis) Invalidate(ctx context.Context, key string) error {
	return r.client.DeleteResponse(ctx, key)
}

func (r *Redis) Backend() string { return BackendRedis }

// Close closes the underlying connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

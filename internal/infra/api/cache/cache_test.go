package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/storefront/internal/infra/redis"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemory_ExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory().WithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "/stats", []byte("a"), time.Minute))

	body, ok, err := m.Get(ctx, "/stats")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", string(body))

	clock.Advance(59 * time.Second)
	_, ok, _ = m.Get(ctx, "/stats")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok, _ = m.Get(ctx, "/stats")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := NewMemory().WithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	clock.Advance(24 * time.Hour)

	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)
}

func TestMemory_Invalidate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, m.Invalidate(ctx, "k"))

	_, ok, _ := m.Get(ctx, "k")
	assert.False(t, ok)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("boom")
}
func (failingCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (failingCache) Invalidate(context.Context, string) error                 { return nil }
func (failingCache) Backend() string                                          { return "failing" }

func TestLookup(t *testing.T) {
	ctx := context.Background()

	_, ok := Lookup(ctx, nil, "k")
	assert.False(t, ok, "nil cache always misses")

	_, ok = Lookup(ctx, failingCache{}, "k")
	assert.False(t, ok, "backend errors are treated as misses")

	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Hour))
	body, ok := Lookup(ctx, m, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", string(body))
}

func TestNew(t *testing.T) {
	c, err := New(Config{Backend: BackendNone}, redis.Config{})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(Config{Backend: BackendMemory}, redis.Config{})
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, c.Backend())

	_, err = New(Config{Backend: "memcached"}, redis.Config{})
	assert.Error(t, err)

	_, err = New(Config{Backend: BackendRedis}, redis.Config{URL: "::bad"})
	assert.Error(t, err)
}

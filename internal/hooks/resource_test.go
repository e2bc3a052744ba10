package hooks

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/storefront/internal/infra/api/apierr"
)

func wait[P, T any](t *testing.T, r *Resource[P, T]) State[T] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := r.Wait(ctx)
	require.NoError(t, err)
	return s
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Phase
		want     bool
	}{
		{PhaseIdle, PhaseLoading, true},
		{PhaseLoading, PhaseLoaded, true},
		{PhaseLoading, PhaseFailed, true},
		{PhaseLoading, PhaseLoading, true},
		{PhaseLoaded, PhaseLoading, true},
		{PhaseFailed, PhaseLoading, true},
		{PhaseIdle, PhaseFailed, false},
		{PhaseLoaded, PhaseFailed, false},
		{PhaseFailed, PhaseIdle, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestResource_InitialState(t *testing.T) {
	r := NewResource("test", func(ctx context.Context, p string) (string, error) { return p, nil })
	s := r.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Data)

	// Nothing pending, Wait returns at once.
	s = wait(t, r)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestResource_LoadSuccess(t *testing.T) {
	release := make(chan struct{})
	r := NewResource("test", func(ctx context.Context, p string) (string, error) {
		<-release
		return "data:" + p, nil
	})

	r.Load("a")
	s := r.Snapshot()
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.True(t, s.Loading)
	assert.Empty(t, s.Data)

	close(release)
	s = wait(t, r)
	assert.Equal(t, PhaseLoaded, s.Phase)
	assert.False(t, s.Loading)
	assert.NoError(t, s.Err)
	assert.Equal(t, "data:a", s.Data)
	assert.True(t, s.Ready())
}

func TestResource_FailureKeepsPreviousData(t *testing.T) {
	var fail atomic.Bool
	r := NewResource("test", func(ctx context.Context, p string) (string, error) {
		if fail.Load() {
			return "", apierr.Server(http.StatusBadGateway, "")
		}
		return p, nil
	})

	r.Load("first")
	wait(t, r)

	fail.Store(true)
	r.Load("second")
	s := wait(t, r)
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.Equal(t, "first", s.Data)
	assert.Equal(t, apierr.KindServer, apierr.KindOf(s.Err))
	assert.NotEmpty(t, s.Message())
}

func TestResource_UntypedErrorIsNormalized(t *testing.T) {
	r := NewResource("test", func(ctx context.Context, p string) (string, error) {
		return "", errors.New("boom")
	})
	r.Load("x")
	s := wait(t, r)
	assert.Equal(t, apierr.KindUnknown, apierr.KindOf(s.Err))
}

func TestResource_StaleResponseIsDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	aCanceled := make(chan bool, 1)
	var aReturned atomic.Bool

	r := NewResource("test", func(ctx context.Context, p string) (string, error) {
		if p == "A" {
			<-releaseA
			aCanceled <- ctx.Err() != nil
			aReturned.Store(true)
			// Resolves after B, as a slow server would, ignoring cancellation.
			return "A", nil
		}
		return "B", nil
	})

	r.Load("A")
	r.Load("B")
	s := wait(t, r)
	assert.Equal(t, "B", s.Data)

	close(releaseA)
	assert.True(t, <-aCanceled, "superseded fetch is cancelled")
	require.Eventually(t, aReturned.Load, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return r.Snapshot().Data != "B" }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, PhaseLoaded, r.Snapshot().Phase)
}

func TestResource_StaleErrorIsDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	r := NewResource("test", func(ctx context.Context, p string) (string, error) {
		if p == "A" {
			<-releaseA
			return "", apierr.Server(http.StatusInternalServerError, "")
		}
		return "B", nil
	})

	r.Load("A")
	r.Load("B")
	wait(t, r)
	close(releaseA)

	assert.Never(t, func() bool { return r.Snapshot().Err != nil }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestResource_CancelDoesNotSetError(t *testing.T) {
	started := make(chan struct{})
	r := NewResource("test", func(ctx context.Context, p string) (string, error) {
		close(started)
		<-ctx.Done()
		return "", apierr.Canceled(ctx.Err())
	})

	r.Load("x")
	<-started
	r.Cancel()

	s := wait(t, r)
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.False(t, s.Loading)
	assert.NoError(t, s.Err)

	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, r.Snapshot().Err)
}

func TestResource_RetryReusesParams(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	var calls atomic.Int32

	r := NewResource("test", func(ctx context.Context, p string) (string, error) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
		if calls.Add(1) == 1 {
			return "", apierr.Network("network request failed", errors.New("refused"))
		}
		return p, nil
	})

	r.Load("page=2")
	s := wait(t, r)
	assert.Equal(t, PhaseFailed, s.Phase)

	r.Retry()
	s = wait(t, r)
	assert.Equal(t, PhaseLoaded, s.Phase)
	assert.Equal(t, "page=2", s.Data)

	// Retry also works from a settled, successful state.
	r.Retry()
	wait(t, r)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"page=2", "page=2", "page=2"}, seen)
}

func TestResource_Subscribe(t *testing.T) {
	r := NewResource("test", func(ctx context.Context, p int) (int, error) { return p * 2, nil })

	var mu sync.Mutex
	var states []State[int]
	unsubscribe := r.Subscribe(func(s State[int]) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	r.Load(21)
	wait(t, r)

	mu.Lock()
	require.Len(t, states, 2)
	assert.Equal(t, PhaseLoading, states[0].Phase)
	assert.Equal(t, PhaseLoaded, states[1].Phase)
	assert.Equal(t, 42, states[1].Data)
	assert.Greater(t, states[1].Version, states[0].Version)
	mu.Unlock()

	unsubscribe()
	r.Load(1)
	wait(t, r)

	mu.Lock()
	assert.Len(t, states, 2)
	mu.Unlock()
}

func TestResource_Close(t *testing.T) {
	started := make(chan struct{})
	canceled := make(chan struct{})
	r := NewResource("test", func(ctx context.Context, p string) (string, error) {
		close(started)
		<-ctx.Done()
		close(canceled)
		return "", apierr.Canceled(ctx.Err())
	})

	r.Load("x")
	<-started
	r.Close()

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("in-flight fetch was not cancelled")
	}

	wait(t, r)
	r.Load("y")
	assert.False(t, r.Snapshot().Loading)
	r.Close()
}

func TestResource_Set(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	r := NewResource("test", func(ctx context.Context, p string) (string, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "fetched", nil
	})

	r.Load("x")
	r.Set("y", "stored")

	s := wait(t, r)
	assert.Equal(t, PhaseLoaded, s.Phase)
	assert.Equal(t, "stored", s.Data)
	assert.Equal(t, "y", r.Params())
}

func TestResource_WaitOutlastsSubscribers(t *testing.T) {
	r := NewResource("test", func(ctx context.Context, p string) (string, error) { return p, nil })

	entered := make(chan struct{})
	var finished atomic.Bool
	r.Subscribe(func(s State[string]) {
		if s.Phase != PhaseLoaded {
			return
		}
		close(entered)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})

	r.Load("a")
	<-entered

	// The fetch has settled; Wait must still hold until the subscriber returns.
	s := wait(t, r)
	assert.True(t, finished.Load())
	assert.Equal(t, "a", s.Data)
}

func TestResource_LoadFromSubscriberKeepsWaitersBlocked(t *testing.T) {
	r := NewResource("test", func(ctx context.Context, p string) (string, error) { return "data:" + p, nil })

	var once sync.Once
	r.Subscribe(func(s State[string]) {
		if s.Phase == PhaseLoaded && s.Data == "data:a" {
			once.Do(func() { r.Load("b") })
		}
	})

	r.Load("a")
	s := wait(t, r)
	assert.Equal(t, "data:b", s.Data)
	assert.Equal(t, "b", r.Params())
}

// Package hooks holds per-resource state containers over the API client.
//
// Each container owns its own cancellation and timers. Starting a fetch
// cancels the previous one, and only the latest fetch may change state, so a
// slow earlier response never overwrites a newer one.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/storefront/internal/infra/api/apierr"
)

// Fetcher loads T for params.
type Fetcher[P, T any] func(ctx context.Context, params P) (T, error)

// Resource is a generic fetch state machine.
type Resource[P, T any] struct {
	name  string
	fetch Fetcher[P, T]

	mu        sync.Mutex
	state     State[T]
	hasData   bool
	params    P
	gen       uint64
	cancel    context.CancelFunc
	done      chan struct{}
	subs      map[int]func(State[T])
	nextSubID int
	closed    bool
}

// NewResource creates an idle resource. Nothing is fetched until Load.
func NewResource[P, T any](name string, fetch Fetcher[P, T]) *Resource[P, T] {
	return &Resource[P, T]{
		name:  name,
		fetch: fetch,
		state: State[T]{Phase: PhaseIdle, UpdatedAt: time.Now()},
		subs:  make(map[int]func(State[T])),
	}
}

// Name returns the resource name used in logs.
func (r *Resource[P, T]) Name() string {
	return r.name
}

// Load cancels any pending fetch and starts a new one for params.
func (r *Resource[P, T]) Load(params P) {
	r.load(params, nil)
}

// load is Load guarded by current, which is checked under the resource lock.
// A false result drops the call.
func (r *Resource[P, T]) load(params P, current func() bool) {
	r.mu.Lock()
	if r.closed || (current != nil && !current()) {
		r.mu.Unlock()
		return
	}

	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.params = params
	if r.done == nil {
		r.done = make(chan struct{})
	}

	r.transitionLocked(PhaseLoading)
	r.state.Loading = true
	r.state.Err = nil
	snapshot, subs := r.publishLocked()
	r.mu.Unlock()

	notify(subs, snapshot)

	go func() {
		defer cancel()
		data, err := r.fetch(ctx, params)
		r.settle(ctx, gen, data, err)
	}()
}

// Retry re-issues the last-used parameters, whatever the current phase.
func (r *Resource[P, T]) Retry() {
	r.mu.Lock()
	params := r.params
	r.mu.Unlock()
	r.Load(params)
}

// Set cancels any pending fetch and stores data as if it had been fetched.
func (r *Resource[P, T]) Set(params P, data T) {
	r.set(params, data, nil)
}

func (r *Resource[P, T]) set(params P, data T, current func() bool) {
	r.mu.Lock()
	if r.closed || (current != nil && !current()) {
		r.mu.Unlock()
		return
	}
	done := r.supersedeLocked()
	r.params = params
	r.storeLocked(data)
	snapshot, subs := r.publishLocked()
	r.mu.Unlock()

	notify(subs, snapshot)
	r.finish(done)
}

// Cancel aborts the pending fetch, if any. Its outcome is discarded and the
// resource returns to its previous settled phase without an error.
func (r *Resource[P, T]) Cancel() {
	r.cancelIf(nil)
}

func (r *Resource[P, T]) cancelIf(current func() bool) {
	r.mu.Lock()
	if r.closed || r.cancel == nil || (current != nil && !current()) {
		r.mu.Unlock()
		return
	}
	done := r.supersedeLocked()
	r.restoreLocked()
	snapshot, subs := r.publishLocked()
	r.mu.Unlock()

	notify(subs, snapshot)
	r.finish(done)
}

// Snapshot returns the current state.
func (r *Resource[P, T]) Snapshot() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Params returns the last-used parameters.
func (r *Resource[P, T]) Params() P {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params
}

// Subscribe registers fn for state changes and returns a function that
// removes it.
func (r *Resource[P, T]) Subscribe(fn func(State[T])) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSubID
	r.nextSubID++
	r.subs[id] = fn

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Wait blocks until no fetch is pending and the subscribers of the last
// change have returned, then reports the settled state.
func (r *Resource[P, T]) Wait(ctx context.Context) (State[T], error) {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return r.Snapshot(), ctx.Err()
		}
	}
	return r.Snapshot(), nil
}

// Close cancels in-flight work and drops subscribers. Later calls are no-ops.
func (r *Resource[P, T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
		r.restoreLocked()
	}
	release(r.detachLocked())
	r.subs = nil
}

func (r *Resource[P, T]) settle(ctx context.Context, gen uint64, data T, err error) {
	r.mu.Lock()
	if r.closed || gen != r.gen {
		// Superseded.
		r.mu.Unlock()
		return
	}

	r.cancel = nil
	switch {
	case err == nil:
		r.storeLocked(data)
	case apierr.IsCanceled(err) || ctx.Err() != nil:
		r.restoreLocked()
	default:
		r.transitionLocked(PhaseFailed)
		r.state.Loading = false
		r.state.Err = apierr.Normalize(err)
	}
	r.state.Generation = gen
	done := r.done
	snapshot, subs := r.publishLocked()
	r.mu.Unlock()

	// Subscribers see the settled state before waiters wake.
	notify(subs, snapshot)
	r.finish(done)
}

// supersedeLocked drops the pending fetch and returns the channel its
// waiters are blocked on. The channel stays attached until finish.
func (r *Resource[P, T]) supersedeLocked() chan struct{} {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	r.state.Generation = r.gen
	return r.done
}

// finish wakes the waiters on done unless a fetch started meanwhile, in which
// case they keep waiting for that one.
func (r *Resource[P, T]) finish(done chan struct{}) {
	if done == nil {
		return
	}
	r.mu.Lock()
	if r.done != done || r.cancel != nil {
		r.mu.Unlock()
		return
	}
	r.done = nil
	r.mu.Unlock()
	close(done)
}

func (r *Resource[P, T]) storeLocked(data T) {
	r.transitionLocked(PhaseLoaded)
	r.state.Data = data
	r.state.Loading = false
	r.state.Err = nil
	r.hasData = true
}

func (r *Resource[P, T]) restoreLocked() {
	r.state.Loading = false
	if r.hasData {
		r.transitionLocked(PhaseLoaded)
	} else {
		r.transitionLocked(PhaseIdle)
	}
}

func (r *Resource[P, T]) detachLocked() chan struct{} {
	done := r.done
	r.done = nil
	return done
}

func release(done chan struct{}) {
	if done != nil {
		close(done)
	}
}

func (r *Resource[P, T]) transitionLocked(to Phase) {
	from := r.state.Phase
	if from != to && !CanTransition(from, to) {
		slog.Error("Unexpected state change", "resource", r.name, "error", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to))
	}
	r.state.Phase = to
}

func (r *Resource[P, T]) publishLocked() (State[T], []func(State[T])) {
	r.state.Version++
	r.state.UpdatedAt = time.Now()

	subs := make([]func(State[T]), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	return r.state, subs
}

func notify[T any](subs []func(State[T]), s State[T]) {
	for _, fn := range subs {
		fn(s)
	}
}

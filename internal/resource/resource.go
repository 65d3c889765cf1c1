// Package resource provides Resource, a generic asynchronous value with loading, error and
// refetch semantics. All state transitions happen on one goroutine per resource, so
// subscribers observe them in order.
package resource

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/anurestate/restate/internal/logging"
)

// ErrClosed is returned by Refetch after Close.
var ErrClosed = errors.New("resource: closed")

// Params are passed through to the fetcher on refetch. Fetchers that take no
// parameters ignore them.
type Params map[string]any

// Fetcher produces the value. ctx is cancelled when the resource is closed.
type Fetcher[T any] func(ctx context.Context, params Params) (T, error)

// State is a snapshot of a resource. Once Loading is false, Err is nil whenever the last
// call succeeded, and Data is the zero value whenever it failed.
type State[T any] struct {
	Data    T
	Loading bool
	Err     error
}

// Resource runs a Fetcher on creation and on every Refetch. Overlapping calls are not
// merged: each one runs to completion and the last to settle determines the state.
type Resource[T any] struct {
	fetch Fetcher[T]

	ctx    context.Context
	cancel context.CancelFunc
	cmds   chan func()

	runMu  sync.Mutex
	closed bool
	wg     sync.WaitGroup

	mu     sync.RWMutex
	state  State[T]
	subs   map[int]func(State[T])
	nextID int

	ready     chan struct{}
	readyOnce sync.Once
	closeOnce sync.Once
}

// New creates a resource and starts the first fetch with nil params.
func New[T any](fetch Fetcher[T]) *Resource[T] {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Resource[T]{
		fetch:  fetch,
		ctx:    ctx,
		cancel: cancel,
		cmds:   make(chan func()),
		state:  State[T]{Loading: true},
		subs:   make(map[int]func(State[T])),
		ready:  make(chan struct{}),
	}
	go r.loop()
	r.start(nil, nil)
	return r
}

func (r *Resource[T]) loop() {
	for {
		select {
		case fn := <-r.cmds:
			fn()
		case <-r.ctx.Done():
			return
		}
	}
}

// post runs fn on the resource goroutine. It reports false once the resource is closed.
func (r *Resource[T]) post(fn func()) bool {
	select {
	case r.cmds <- fn:
		return true
	case <-r.ctx.Done():
		return false
	}
}

// start launches one producer call. done, if non-nil, is closed when its result is applied.
func (r *Resource[T]) start(params Params, done chan struct{}) {
	r.runMu.Lock()
	if r.closed {
		r.runMu.Unlock()
		return
	}
	r.wg.Add(1)
	r.runMu.Unlock()

	go func() {
		defer r.wg.Done()
		ctx := logging.WithRequestID(r.ctx, logging.NewRequestID())
		data, err := r.fetch(ctx, params)
		if err != nil {
			logging.Entry(ctx).WithError(err).Debug("resource: fetch failed")
		}
		r.post(func() {
			r.transition(func(s *State[T]) {
				s.Loading = false
				if err != nil {
					var zero T
					s.Data = zero
					s.Err = err
					return
				}
				s.Data = data
				s.Err = nil
			})
			r.readyOnce.Do(func() { close(r.ready) })
			if done != nil {
				close(done)
			}
		})
	}()
}

// transition mutates the state and notifies subscribers. Only called on the resource goroutine.
func (r *Resource[T]) transition(mutate func(*State[T])) {
	r.mu.Lock()
	mutate(&r.state)
	snapshot := r.state
	subs := make([]func(State[T]), 0, len(r.subs))
	for _, id := range slices.Sorted(maps.Keys(r.subs)) {
		subs = append(subs, r.subs[id])
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Refetch marks the resource loading, clears the previous error and runs the fetcher
// again. It returns once that call's result has been applied, or early when ctx ends.
func (r *Resource[T]) Refetch(ctx context.Context, params Params) error {
	done := make(chan struct{})
	started := r.post(func() {
		r.transition(func(s *State[T]) {
			s.Loading = true
			s.Err = nil
		})
		r.start(params, done)
	})
	if !started {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return ErrClosed
	}
}

// Snapshot returns the current state.
func (r *Resource[T]) Snapshot() State[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Ready is closed once the first fetch has settled.
func (r *Resource[T]) Ready() <-chan struct{} {
	return r.ready
}

// Subscribe registers fn for every state transition and returns a function that removes
// it. fn runs on the resource goroutine and must not wait on this resource.
func (r *Resource[T]) Subscribe(fn func(State[T])) (cancel func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

// Close cancels in-flight fetches and stops the resource. Results that arrive later are
// dropped. Close waits for the fetchers to return.
func (r *Resource[T]) Close() {
	r.closeOnce.Do(func() {
		r.runMu.Lock()
		r.closed = true
		r.runMu.Unlock()
		r.cancel()
		r.wg.Wait()
		r.mu.Lock()
		clear(r.subs)
		r.mu.Unlock()
	})
}

package resource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type result struct {
	value int
	err   error
}

type call struct {
	params Params
	reply  chan result
}

// gatedFetcher hands every invocation to the test, which decides when and how it settles.
func gatedFetcher() (Fetcher[int], <-chan call) {
	calls := make(chan call, 8)
	return func(ctx context.Context, params Params) (int, error) {
		c := call{params: params, reply: make(chan result, 1)}
		calls <- c
		select {
		case r := <-c.reply:
			return r.value, r.err
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}, calls
}

func nextCall(t *testing.T, calls <-chan call) call {
	t.Helper()
	select {
	case c := <-calls:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for fetch call")
		return call{}
	}
}

func waitReady[T any](t *testing.T, r *Resource[T]) {
	t.Helper()
	select {
	case <-r.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first fetch")
	}
}

func TestNewFetchesOnceAndSettles(t *testing.T) {
	fetch, calls := gatedFetcher()
	r := New(fetch)
	defer r.Close()

	if s := r.Snapshot(); !s.Loading || s.Err != nil || s.Data != 0 {
		t.Fatalf("initial state = %+v", s)
	}
	c := nextCall(t, calls)
	if c.params != nil {
		t.Errorf("initial params = %v, want nil", c.params)
	}
	c.reply <- result{value: 42}
	waitReady(t, r)

	if s := r.Snapshot(); s.Loading || s.Err != nil || s.Data != 42 {
		t.Fatalf("settled state = %+v", s)
	}
	select {
	case extra := <-calls:
		t.Fatalf("unexpected extra fetch with params %v", extra.params)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestErrorClearsDataAndRefetchRecovers(t *testing.T) {
	fetch, calls := gatedFetcher()
	r := New(fetch)
	defer r.Close()

	nextCall(t, calls).reply <- result{value: 7}
	waitReady(t, r)

	errBoom := errors.New("boom")
	go func() {
		c := <-calls
		c.reply <- result{err: errBoom}
	}()
	if err := r.Refetch(context.Background(), nil); err != nil {
		t.Fatalf("Refetch() error = %v", err)
	}
	if s := r.Snapshot(); s.Loading || !errors.Is(s.Err, errBoom) || s.Data != 0 {
		t.Fatalf("state after failure = %+v", s)
	}

	var states []State[int]
	var mu sync.Mutex
	unsubscribe := r.Subscribe(func(s State[int]) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})
	defer unsubscribe()

	go func() {
		c := <-calls
		if c.params["page"] != 2 {
			t.Errorf("params = %v, want page=2", c.params)
		}
		c.reply <- result{value: 9}
	}()
	if err := r.Refetch(context.Background(), Params{"page": 2}); err != nil {
		t.Fatalf("Refetch() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 {
		t.Fatalf("observed %d transitions, want 2: %+v", len(states), states)
	}
	if !states[0].Loading || states[0].Err != nil {
		t.Errorf("refetch should set loading and clear the error, got %+v", states[0])
	}
	if states[1].Loading || states[1].Err != nil || states[1].Data != 9 {
		t.Errorf("final transition = %+v", states[1])
	}
}

func TestLastCallToSettleWins(t *testing.T) {
	fetch, calls := gatedFetcher()
	r := New(fetch)
	defer r.Close()

	nextCall(t, calls).reply <- result{value: 1}
	waitReady(t, r)

	firstDone := make(chan error, 1)
	go func() { firstDone <- r.Refetch(context.Background(), nil) }()
	first := nextCall(t, calls)

	secondDone := make(chan error, 1)
	go func() { secondDone <- r.Refetch(context.Background(), nil) }()
	second := nextCall(t, calls)

	second.reply <- result{value: 2}
	if err := <-secondDone; err != nil {
		t.Fatalf("second Refetch() error = %v", err)
	}
	if got := r.Snapshot().Data; got != 2 {
		t.Fatalf("data after second settles = %d, want 2", got)
	}

	first.reply <- result{value: 3}
	if err := <-firstDone; err != nil {
		t.Fatalf("first Refetch() error = %v", err)
	}
	if s := r.Snapshot(); s.Data != 3 || s.Loading {
		t.Fatalf("state after stale call settles = %+v, want data=3", s)
	}
}

func TestRefetchHonoursCallerContext(t *testing.T) {
	fetch, calls := gatedFetcher()
	r := New(fetch)
	defer r.Close()

	nextCall(t, calls).reply <- result{value: 1}
	waitReady(t, r)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Refetch(ctx, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Refetch() error = %v, want deadline exceeded", err)
	}
	if !r.Snapshot().Loading {
		t.Fatal("pending call should keep the resource loading")
	}
	nextCall(t, calls).reply <- result{value: 5}
}

func TestCloseCancelsFetchAndRejectsRefetch(t *testing.T) {
	fetch, calls := gatedFetcher()
	r := New(fetch)
	nextCall(t, calls)

	notified := make(chan struct{}, 1)
	r.Subscribe(func(State[int]) { notified <- struct{}{} })

	r.Close()
	r.Close()

	if err := r.Refetch(context.Background(), nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("Refetch() after Close error = %v, want ErrClosed", err)
	}
	select {
	case <-notified:
		t.Fatal("cancelled fetch result should not be applied")
	case <-time.After(50 * time.Millisecond):
	}
	if s := r.Snapshot(); !s.Loading {
		t.Fatalf("state after close = %+v, want untouched", s)
	}
}

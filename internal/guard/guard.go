package guard

import (
	"context"
	"sync"

	"github.com/anurestate/restate/internal/session"
	log "github.com/sirupsen/logrus"
)

// Navigator applies navigation actions. Implementations should give up when ctx is done.
type Navigator interface {
	Navigate(ctx context.Context, action Action) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, action Action) error

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, action Action) error {
	return f(ctx, action)
}

// Guard re-evaluates Rules whenever the session or the route changes and dispatches the
// resulting action. Each dispatch runs with its own context, cancelled as soon as a newer
// evaluation is made, so an outdated redirect is never applied after a newer one.
type Guard struct {
	rules Rules
	nav   Navigator

	mu      sync.Mutex
	pending Input
	kick    chan struct{}

	dispatchMu sync.Mutex
	wg         sync.WaitGroup

	// onEvaluate, when set, sees every evaluation that ran.
	onEvaluate func(Input, Action)
}

// New creates a guard. Call Run to start it. Until the first SetSession the session is
// considered loading, so nothing is dispatched.
func New(rules Rules, nav Navigator) *Guard {
	return &Guard{
		rules:   rules,
		nav:     nav,
		pending: Input{Loading: true, Path: DefaultHomePath},
		kick:    make(chan struct{}, 1),
	}
}

// update never blocks; queued changes are coalesced into one evaluation.
func (g *Guard) update(fn func(*Input)) {
	g.mu.Lock()
	fn(&g.pending)
	g.mu.Unlock()
	select {
	case g.kick <- struct{}{}:
	default:
	}
}

// SetSession records a session state change.
func (g *Guard) SetSession(loading, isLogged bool) {
	g.update(func(in *Input) {
		in.Loading = loading
		in.IsLogged = isLogged
	})
}

// SetRoute records a route change.
func (g *Guard) SetRoute(path, redirect string) {
	g.update(func(in *Input) {
		in.Path = path
		in.Redirect = redirect
	})
}

// Attach feeds the provider's state into the guard until the returned function is called.
func (g *Guard) Attach(p *session.Provider) (detach func()) {
	detach = p.Subscribe(func(s session.Snapshot) {
		g.SetSession(s.Loading, s.IsLogged)
	})
	s := p.Snapshot()
	g.SetSession(s.Loading, s.IsLogged)
	return detach
}

// Run evaluates changes until ctx is done, then waits for the last dispatch to return.
func (g *Guard) Run(ctx context.Context) {
	var last *Input
	cancelDispatch := context.CancelFunc(func() {})
	defer func() {
		cancelDispatch()
		g.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.kick:
		}

		g.mu.Lock()
		current := g.pending
		g.mu.Unlock()

		if last != nil && *last == current {
			continue
		}
		last = &current

		action := g.rules.Evaluate(current)
		cancelDispatch()
		cancelDispatch = func() {}
		if action.Kind != None {
			var dispatchCtx context.Context
			dispatchCtx, cancelDispatch = context.WithCancel(ctx)
			log.WithFields(log.Fields{"route": current.Path, "action": action.Kind}).Debugf("guard: navigating to %s", action.Target())
			g.wg.Add(1)
			go g.dispatch(dispatchCtx, action)
		}
		if g.onEvaluate != nil {
			g.onEvaluate(current, action)
		}
	}
}

func (g *Guard) dispatch(ctx context.Context, action Action) {
	defer g.wg.Done()
	g.dispatchMu.Lock()
	defer g.dispatchMu.Unlock()

	if ctx.Err() != nil {
		log.WithField("action", action.Kind).Debug("guard: dropping superseded navigation")
		return
	}
	if err := g.nav.Navigate(ctx, action); err != nil && ctx.Err() == nil {
		log.WithError(err).WithField("action", action.Kind).Warn("guard: navigation failed")
	}
}

package session

import (
	"context"
	"strings"

	"github.com/anurestate/restate/internal/appwrite"
	"github.com/anurestate/restate/internal/resource"
	log "github.com/sirupsen/logrus"
)

// Snapshot is the shared session state. IsLogged is derived from User and never set on
// its own.
type Snapshot struct {
	IsLogged bool
	User     *Identity
	Loading  bool
}

func snapshotOf(s resource.State[*Identity]) Snapshot {
	return Snapshot{IsLogged: s.Data != nil, User: s.Data, Loading: s.Loading}
}

// Provider owns the session resource. Create one per program run and Close it on exit.
type Provider struct {
	res *resource.Resource[*Identity]
}

// NewProvider creates the provider and starts resolving the current user.
func NewProvider(accessor *Accessor) *Provider {
	return &Provider{
		res: resource.New(func(ctx context.Context, _ resource.Params) (*Identity, error) {
			return accessor.GetCurrentUser(ctx), nil
		}),
	}
}

// Snapshot returns the current state.
func (p *Provider) Snapshot() Snapshot {
	return snapshotOf(p.res.Snapshot())
}

// Ready is closed once the first lookup has finished.
func (p *Provider) Ready() <-chan struct{} {
	return p.res.Ready()
}

// Refetch resolves the current user again and returns once the new state is applied.
// params are accepted for symmetry with other resources and are not used.
func (p *Provider) Refetch(ctx context.Context, params resource.Params) error {
	return p.res.Refetch(ctx, params)
}

// Subscribe calls fn on every state change until the returned function is called.
// fn must not block on the provider.
func (p *Provider) Subscribe(fn func(Snapshot)) (cancel func()) {
	return p.res.Subscribe(func(s resource.State[*Identity]) {
		fn(snapshotOf(s))
	})
}

// HandleAccountEvent refetches when a realtime event touches the account or its sessions.
func (p *Provider) HandleAccountEvent(evt appwrite.Event) {
	for _, name := range evt.Events {
		if strings.HasPrefix(name, "users.") {
			log.WithField("action", name).Debug("session: account event, refreshing")
			if err := p.Refetch(context.Background(), nil); err != nil {
				log.WithError(err).Debug("session: refetch after account event failed")
			}
			return
		}
	}
}

// Close stops the provider. Lookups still in flight are cancelled and discarded.
func (p *Provider) Close() {
	p.res.Close()
}

package session

import "context"

type providerKey struct{}

// WithProvider returns a context carrying p.
func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

// FromContext returns the provider stored in ctx, if any.
func FromContext(ctx context.Context) (*Provider, bool) {
	p, ok := ctx.Value(providerKey{}).(*Provider)
	return p, ok && p != nil
}

// MustFromContext returns the provider stored in ctx and panics when there is none.
// Reaching the panic means a caller was wired outside the provider's scope.
func MustFromContext(ctx context.Context) *Provider {
	p, ok := FromContext(ctx)
	if !ok {
		panic("session: provider not found in context - MustFromContext used outside WithProvider")
	}
	return p
}

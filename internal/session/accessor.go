// Package session resolves the signed-in identity and shares it with the rest of the
// client through a Provider that lives for the lifetime of the program.
package session

import (
	"context"

	"github.com/anurestate/restate/internal/appwrite"
	"github.com/anurestate/restate/internal/logging"
)

// Identity is the signed-in user. It is replaced wholesale on every refetch.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// AccountClient is the part of the backend client the accessor needs.
type AccountClient interface {
	GetAccount(ctx context.Context) (*appwrite.Account, error)
	AvatarInitials(name string) string
}

// Accessor looks up the current identity.
type Accessor struct {
	client AccountClient
}

// NewAccessor creates an accessor backed by client.
func NewAccessor(client AccountClient) *Accessor {
	return &Accessor{client: client}
}

// Lookup returns the current identity. A missing session, including an account record
// without an id, yields (nil, nil). Other failures are returned as classified by the client.
func (a *Accessor) Lookup(ctx context.Context) (*Identity, error) {
	account, err := a.client.GetAccount(ctx)
	if err != nil {
		if appwrite.IsUnauthenticated(err) {
			return nil, nil
		}
		return nil, err
	}
	if account == nil || account.ID == "" {
		return nil, nil
	}
	return &Identity{
		ID:     account.ID,
		Name:   account.Name,
		Email:  account.Email,
		Avatar: a.client.AvatarInitials(account.Name),
	}, nil
}

// GetCurrentUser returns the current identity or nil. It never fails: errors other than a
// missing session are logged and reported as signed out.
func (a *Accessor) GetCurrentUser(ctx context.Context) *Identity {
	identity, err := a.Lookup(ctx)
	if err != nil {
		logging.Entry(ctx).WithField("kind", appwrite.KindOf(err)).WithError(err).Error("session: failed to resolve current user")
		return nil
	}
	return identity
}

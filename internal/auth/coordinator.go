package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/anurestate/restate/internal/appwrite"
	"github.com/anurestate/restate/internal/browser"
	"github.com/anurestate/restate/internal/logging"
	log "github.com/sirupsen/logrus"
)

// Client is the part of the backend client the handshake needs.
type Client interface {
	CreateOAuth2Token(ctx context.Context, provider, success, failure string) (string, error)
	CreateSession(ctx context.Context, userID, secret string) (*appwrite.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Coordinator runs the login and logout flows. It does not touch the session provider;
// callers refetch it after a successful Login.
type Coordinator struct {
	Client   Client
	Browser  browser.AuthSession
	Provider string
	// RedirectBase is the application redirect target, e.g. "http://localhost:8085/".
	RedirectBase string
}

// RedirectURL resolves path against base.
func RedirectURL(base, path string) (string, error) {
	baseURL, err := url.Parse(strings.TrimSpace(base))
	if err != nil || baseURL.Scheme == "" {
		return "", fmt.Errorf("invalid redirect base %q", base)
	}
	if path == "" {
		path = "/"
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid redirect path %q: %w", path, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

// Authenticate runs the handshake and returns the first failing step as a *HandshakeError.
func (c *Coordinator) Authenticate(ctx context.Context) error {
	entry := logging.Entry(ctx).WithField("provider", c.Provider)

	redirect, err := RedirectURL(c.RedirectBase, "/")
	if err != nil {
		return NewHandshakeError(ErrTokenCreation, err)
	}
	entry.Debugf("redirect URI: %s", redirect)

	entry.WithField("step", ErrTokenCreation.Step).Debug("creating OAuth2 token")
	authURL, err := c.Client.CreateOAuth2Token(ctx, c.Provider, redirect, redirect)
	if err != nil {
		return NewHandshakeError(ErrTokenCreation, err)
	}
	if authURL == "" {
		return NewHandshakeError(ErrTokenCreation, errors.New("no authorization URL returned"))
	}

	entry.WithField("step", ErrBrowserSession.Step).Info("opening browser session")
	result, err := c.Browser.Open(ctx, authURL, redirect)
	if err != nil {
		return NewHandshakeError(ErrBrowserSession, err)
	}
	entry.WithField("step", ErrBrowserSession.Step).Debugf("browser result type: %s", result.Type)
	if result.Type != browser.ResultSuccess {
		return NewHandshakeError(ErrBrowserSession, fmt.Errorf("browser result %q", result.Type))
	}

	pair, err := ParseTokenPair(result.URL)
	if err != nil {
		return NewHandshakeError(ErrMissingParams, err)
	}

	entry.WithField("step", ErrSessionExchange.Step).Debug("creating session")
	session, err := c.Client.CreateSession(ctx, pair.UserID, pair.Secret)
	if err != nil {
		return NewHandshakeError(ErrSessionExchange, err)
	}
	if session == nil {
		return NewHandshakeError(ErrSessionExchange, errors.New("no session returned"))
	}
	return nil
}

// Login runs the handshake and reports whether a session was created. Failures are
// logged, never returned.
func (c *Coordinator) Login(ctx context.Context) bool {
	return c.SignIn(ctx) == nil
}

// SignIn runs one logged handshake attempt under a fresh request id. The error is the one
// Authenticate returned, already logged with its failed step.
func (c *Coordinator) SignIn(ctx context.Context) error {
	ctx = logging.WithRequestID(ctx, logging.NewRequestID())
	entry := logging.Entry(ctx).WithField("provider", c.Provider)
	entry.Info("starting login")

	if err := c.Authenticate(ctx); err != nil {
		fields := log.Fields{}
		if handshakeErr, ok := errors.AsType[*HandshakeError](err); ok {
			fields["step"] = handshakeErr.Step
		}
		entry.WithFields(fields).WithError(err).Error("login failed")
		return err
	}
	entry.Info("login successful")
	return nil
}

// Logout deletes the current session. A missing session counts as success, so repeated
// calls keep returning true.
func (c *Coordinator) Logout(ctx context.Context) bool {
	err := c.Client.DeleteSession(ctx, appwrite.CurrentSession)
	switch {
	case err == nil:
		log.Info("logged out")
		return true
	case appwrite.IsUnauthenticated(err):
		log.Debug("logout: no active session")
		return true
	default:
		log.WithField("kind", appwrite.KindOf(err)).WithError(err).Error("logout failed")
		return false
	}
}

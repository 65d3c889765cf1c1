package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/anurestate/restate/internal/auth"
	"github.com/anurestate/restate/internal/session"
	log "github.com/sirupsen/logrus"
)

// DoLogin runs the OAuth handshake in the browser and reports the signed-in user. The
// session provider in ctx is refreshed on success. It returns false when login failed.
func DoLogin(ctx context.Context, rt *Runtime, out io.Writer) bool {
	if err := rt.Coordinator.SignIn(ctx); err != nil {
		_, _ = fmt.Fprintln(out, auth.UserFriendlyMessage(err))
		return false
	}

	provider := session.MustFromContext(ctx)
	if errRefetch := provider.Refetch(ctx, nil); errRefetch != nil {
		log.WithError(errRefetch).Warn("failed to refresh session after login")
	}
	if user := provider.Snapshot().User; user != nil {
		_, _ = fmt.Fprintf(out, "Signed in as %s <%s>\n", user.Name, user.Email)
	} else {
		_, _ = fmt.Fprintln(out, "Login finished but no account could be loaded")
	}
	return true
}

// DoLogout deletes the current session. Logging out while signed out succeeds.
func DoLogout(ctx context.Context, rt *Runtime, out io.Writer) bool {
	if !rt.Coordinator.Logout(ctx) {
		_, _ = fmt.Fprintln(out, "Failed to logout")
		return false
	}
	if errRefetch := session.MustFromContext(ctx).Refetch(ctx, nil); errRefetch != nil {
		log.WithError(errRefetch).Debug("failed to refresh session after logout")
	}
	_, _ = fmt.Fprintln(out, "Logged out")
	return true
}

package guard

import (
	"context"

	"github.com/anurestate/restate/internal/session"
	log "github.com/sirupsen/logrus"
)

// CheckSession reports whether a user is signed in. When shouldRedirect is set and no user
// is found, or the lookup fails, nav is asked to replace the route with the sign-in route.
func CheckSession(ctx context.Context, accessor *session.Accessor, shouldRedirect bool, nav Navigator) bool {
	user, err := accessor.Lookup(ctx)
	if err != nil {
		log.WithError(err).Error("guard: session check failed")
	}
	if user == nil && shouldRedirect && nav != nil {
		if errNav := nav.Navigate(ctx, Action{Kind: ToSignIn, Path: DefaultSignInPath}); errNav != nil {
			log.WithError(errNav).Warn("guard: redirect to sign-in failed")
		}
	}
	return user != nil
}

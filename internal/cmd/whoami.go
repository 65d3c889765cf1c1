package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/anurestate/restate/internal/appwrite"
	"github.com/anurestate/restate/internal/auth"
	"github.com/anurestate/restate/internal/guard"
	"github.com/anurestate/restate/internal/properties"
	"github.com/anurestate/restate/internal/session"
	log "github.com/sirupsen/logrus"
)

// DoWhoami prints the signed-in user once the session provider in ctx has settled.
// It reports whether a user is signed in. When nobody is, the account is looked up once
// more so an unreachable backend is not reported as a signed-out user.
func DoWhoami(ctx context.Context, rt *Runtime, out io.Writer) bool {
	provider := session.MustFromContext(ctx)
	select {
	case <-provider.Ready():
	case <-ctx.Done():
		return false
	}
	user := provider.Snapshot().User
	if user == nil {
		identity, err := rt.Accessor.Lookup(ctx)
		switch {
		case appwrite.KindOf(err) == appwrite.KindNetwork:
			_, _ = fmt.Fprintln(out, auth.UserFriendlyMessage(err))
			return false
		case identity == nil:
			_, _ = fmt.Fprintln(out, "Not signed in. Run restate -login first.")
			return false
		}
		user = identity
	}
	_, _ = fmt.Fprintf(out, "ID:     %s\nName:   %s\nEmail:  %s\nAvatar: %s\n", user.ID, user.Name, user.Email, user.Avatar)
	return true
}

// signInHint is the navigator for command modes: a redirect to the sign-in route becomes a hint.
func signInHint(out io.Writer) guard.Navigator {
	return guard.NavigatorFunc(func(_ context.Context, action guard.Action) error {
		log.WithField("action", action.Kind).Debugf("redirect to %s", action.Target())
		_, err := fmt.Fprintln(out, "Not signed in. Run restate -login first.")
		return err
	})
}

// DoProperties prints the listings matching filter, or a single listing when id is set.
// Signed-out users are sent to login first when the guard requires it.
func DoProperties(ctx context.Context, rt *Runtime, filter properties.Filter, id string, out io.Writer) bool {
	if rt.Config.Guard.RequiresAuth() && !guard.CheckSession(ctx, rt.Accessor, true, signInHint(out)) {
		return false
	}

	if id != "" {
		p := rt.Properties.Get(ctx, id)
		if p == nil {
			_, _ = fmt.Fprintf(out, "Property %s not found\n", id)
			return false
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "ID\t%s\nName\t%s\nType\t%s\nAddress\t%s\nPrice\t%.0f\nRating\t%.1f\nImage\t%s\n",
			p.ID, p.Name, p.Type, p.Address, p.Price, p.Rating, p.Image)
		return w.Flush() == nil
	}

	list := rt.Properties.List(ctx, filter)
	if len(list) == 0 {
		_, _ = fmt.Fprintln(out, "No properties found")
		return true
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tPRICE\tRATING\tADDRESS")
	for _, p := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%.1f\t%s\n", p.ID, p.Name, p.Type, p.Price, p.Rating, p.Address)
	}
	return w.Flush() == nil
}

// Package guard reconciles the current route with the session state: signed-out users are
// sent away from protected routes and signed-in users away from the auth-only ones.
package guard

import (
	"net/url"
	"slices"
	"strings"
)

const (
	// DefaultSignInPath is where signed-out users are sent.
	DefaultSignInPath = "/sign-in"
	// DefaultHomePath is where signed-in users leaving an auth-only route land.
	DefaultHomePath = "/"
	// RedirectParam carries the route to return to after signing in.
	RedirectParam = "redirect"
)

// Rules configures the guard.
type Rules struct {
	// RequireAuth protects every route outside AuthPaths.
	RequireAuth bool
	// AuthPaths are the auth-only routes.
	AuthPaths []string
	// SignInPath defaults to DefaultSignInPath.
	SignInPath string
	// HomePath defaults to DefaultHomePath.
	HomePath string
}

// Input is everything an evaluation depends on.
type Input struct {
	Loading  bool
	IsLogged bool
	// Path is the current route, e.g. "/profile".
	Path string
	// Redirect is the current route's redirect parameter, if any.
	Redirect string
}

// Kind names a navigation decision.
type Kind int

const (
	// None leaves navigation alone.
	None Kind = iota
	// ToSignIn replaces the current route with the sign-in route.
	ToSignIn
	// ToHome replaces the current route with the post-login destination.
	ToHome
)

func (k Kind) String() string {
	switch k {
	case ToSignIn:
		return "to-sign-in"
	case ToHome:
		return "to-home"
	default:
		return "none"
	}
}

// Action is the result of an evaluation. Every navigating action replaces history.
type Action struct {
	Kind Kind
	Path string
	// Params are the query parameters of the destination.
	Params url.Values
}

// Target renders the destination as a path with query string.
func (a Action) Target() string {
	if len(a.Params) == 0 {
		return a.Path
	}
	return a.Path + "?" + a.Params.Encode()
}

func (r Rules) signInPath() string {
	if r.SignInPath != "" {
		return NormalizePath(r.SignInPath)
	}
	return DefaultSignInPath
}

func (r Rules) homePath() string {
	if r.HomePath != "" {
		return NormalizePath(r.HomePath)
	}
	return DefaultHomePath
}

// IsAuthPath reports whether path is one of the auth-only routes. Both sides are
// normalized, so "sign-in" and "/sign-in/" match "/sign-in".
func (r Rules) IsAuthPath(path string) bool {
	path = NormalizePath(path)
	return slices.ContainsFunc(r.AuthPaths, func(p string) bool {
		return NormalizePath(p) == path
	})
}

// Evaluate decides what to do for in. It is a pure function: the same input always yields
// the same action, and a settled input yields None.
func (r Rules) Evaluate(in Input) Action {
	if in.Loading {
		return Action{Kind: None}
	}
	path := NormalizePath(in.Path)
	allowed := r.IsAuthPath(path)

	switch {
	case r.RequireAuth && !in.IsLogged && !allowed:
		return Action{Kind: ToSignIn, Path: r.signInPath(), Params: url.Values{RedirectParam: {path}}}
	case in.IsLogged && allowed:
		dest := r.homePath()
		if redirect := NormalizePath(in.Redirect); in.Redirect != "" && !r.IsAuthPath(redirect) {
			dest = redirect
		}
		return Action{Kind: ToHome, Path: dest}
	default:
		return Action{Kind: None}
	}
}

// NormalizePath cleans a route path: leading slash, no trailing slash, no query.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	path = "/" + strings.Trim(path, "/")
	return path
}

// PathFromSegments joins route segments, e.g. ["(root)", "profile"] -> "/profile".
// Parenthesised group segments do not appear in the path.
func PathFromSegments(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.Trim(strings.TrimSpace(seg), "/")
		if seg == "" || (strings.HasPrefix(seg, "(") && strings.HasSuffix(seg, ")")) {
			continue
		}
		parts = append(parts, seg)
	}
	return "/" + strings.Join(parts, "/")
}

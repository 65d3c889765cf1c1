package guard

import (
	"testing"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	rules := Rules{RequireAuth: true, AuthPaths: []string{"/sign-in", "/sign-up"}}
	unslashed := Rules{RequireAuth: true, AuthPaths: []string{"sign-in", "sign-up"}}
	trailing := Rules{RequireAuth: true, AuthPaths: []string{"/sign-in/", "sign-up"}}

	tests := []struct {
		name       string
		rules      Rules
		in         Input
		wantKind   Kind
		wantTarget string
	}{
		{"loading signed out on protected", rules, Input{Loading: true, Path: "/profile"}, None, ""},
		{"loading signed in on auth path", rules, Input{Loading: true, IsLogged: true, Path: "/sign-in"}, None, ""},
		{"signed out on protected", rules, Input{Path: "/profile"}, ToSignIn, "/sign-in?redirect=%2Fprofile"},
		{"signed out on root", rules, Input{Path: ""}, ToSignIn, "/sign-in?redirect=%2F"},
		{"signed out on sign-in", rules, Input{Path: "/sign-in"}, None, ""},
		{"signed out on sign-up", rules, Input{Path: "/sign-up/"}, None, ""},
		{"signed out without require-auth", Rules{AuthPaths: rules.AuthPaths}, Input{Path: "/profile"}, None, ""},
		{"signed in on sign-in", rules, Input{IsLogged: true, Path: "/sign-in"}, ToHome, "/"},
		{"signed in on sign-in with redirect", rules, Input{IsLogged: true, Path: "/sign-in", Redirect: "/profile"}, ToHome, "/profile"},
		{"signed in redirect back to auth path", rules, Input{IsLogged: true, Path: "/sign-in", Redirect: "/sign-up"}, ToHome, "/"},
		{"signed in on protected", rules, Input{IsLogged: true, Path: "/profile"}, None, ""},
		{"custom sign-in path", Rules{RequireAuth: true, AuthPaths: []string{"/login"}, SignInPath: "/login"}, Input{Path: "/explore"}, ToSignIn, "/login?redirect=%2Fexplore"},
		{"auth paths without leading slash, signed out", unslashed, Input{Path: "/sign-in"}, None, ""},
		{"auth paths without leading slash, signed in", unslashed, Input{IsLogged: true, Path: "/sign-in", Redirect: "/profile"}, ToHome, "/profile"},
		{"auth paths with trailing slash, signed out", trailing, Input{Path: "/sign-in"}, None, ""},
		{"auth paths with trailing slash, signed in", trailing, Input{IsLogged: true, Path: "/sign-in"}, ToHome, "/"},
		{"unnormalized sign-in path", Rules{RequireAuth: true, AuthPaths: []string{"login/"}, SignInPath: "login/"}, Input{Path: "/explore"}, ToSignIn, "/login?redirect=%2Fexplore"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rules.Evaluate(tt.in)
			if got.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if tt.wantKind != None && got.Target() != tt.wantTarget {
				t.Fatalf("Target() = %q, want %q", got.Target(), tt.wantTarget)
			}
		})
	}
}

func TestEvaluateRedirectParam(t *testing.T) {
	t.Parallel()

	got := Rules{RequireAuth: true, AuthPaths: []string{"/sign-in", "/sign-up"}}.Evaluate(Input{Path: "/profile"})
	if got.Path != "/sign-in" || got.Params.Get(RedirectParam) != "/profile" {
		t.Fatalf("action = %+v", got)
	}
}

func TestPathFromSegments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		segments []string
		want     string
	}{
		{nil, "/"},
		{[]string{"(root)", "(tabs)", "profile"}, "/profile"},
		{[]string{"sign-in"}, "/sign-in"},
		{[]string{"properties", "p1"}, "/properties/p1"},
	}
	for _, tt := range tests {
		if got := PathFromSegments(tt.segments...); got != tt.want {
			t.Errorf("PathFromSegments(%v) = %q, want %q", tt.segments, got, tt.want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{"": "/", "/": "/", "profile/": "/profile", "/sign-in?redirect=x": "/sign-in"} {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

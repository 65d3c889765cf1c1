package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anurestate/restate/internal/config"
	"github.com/anurestate/restate/internal/properties"
	"github.com/anurestate/restate/internal/session"
	log "github.com/sirupsen/logrus"
)

const testSecret = "s3cret"

// newBackend fakes the account and databases endpoints. Requests without the session
// secret are rejected the way the real backend does for guests.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("X-Appwrite-Session") != testSecret {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"User (role: guests) missing scope (account)","code":401,"type":"general_unauthorized_scope"}`))
			return false
		}
		return true
	}
	mux.HandleFunc("GET /v1/account", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			_, _ = w.Write([]byte(`{"$id":"u1","name":"Ada","email":"ada@example.com","status":true}`))
		}
	})
	mux.HandleFunc("DELETE /v1/account/sessions/current", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			w.WriteHeader(http.StatusNoContent)
		}
	})
	mux.HandleFunc("GET /v1/databases/db/collections/props/documents", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":2,"documents":[
			{"$id":"p1","$collectionId":"props","$createdAt":"2024-01-02","name":"Lakeside Villa","type":"Villa","address":"1 Lake Rd","price":1200,"rating":4.8},
			{"$id":"p2","$collectionId":"props","$createdAt":"2024-01-01","name":"City Studio","type":"Studio","address":"2 Main St","price":800,"rating":4.1}]}`))
	})
	mux.HandleFunc("GET /v1/databases/db/collections/props/documents/p1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"$id":"p1","$collectionId":"props","name":"Lakeside Villa","type":"Villa","address":"1 Lake Rd","price":1200,"rating":4.8}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newTestRuntime returns a runtime against srv and a context carrying its provider.
func newTestRuntime(t *testing.T, srv *httptest.Server, signedIn bool) (*Runtime, context.Context) {
	t.Helper()
	log.SetLevel(log.PanicLevel)
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })

	cfg, err := config.LoadConfigOptional("", true)
	if err != nil {
		t.Fatalf("LoadConfigOptional() error = %v", err)
	}
	cfg.Endpoint = srv.URL + "/v1"
	cfg.ProjectID = "p"
	cfg.DatabaseID = "db"
	cfg.Collections.Properties = "props"
	cfg.AuthDir = t.TempDir()

	rt, err := NewRuntime(cfg, &LoginOptions{NoBrowser: true})
	if err != nil {
		t.Fatalf("NewRuntime() error = %v", err)
	}
	if signedIn {
		if err = rt.Client.Store().Save(testSecret); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	provider := session.NewProvider(rt.Accessor)
	t.Cleanup(provider.Close)
	return rt, session.WithProvider(context.Background(), provider)
}

func TestDoWhoami(t *testing.T) {
	srv := newBackend(t)

	tests := []struct {
		name     string
		signedIn bool
		want     string
	}{
		{"signed in", true, "ada@example.com"},
		{"signed out", false, "Not signed in"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, ctx := newTestRuntime(t, srv, tt.signedIn)
			var out bytes.Buffer
			if got := DoWhoami(ctx, rt, &out); got != tt.signedIn {
				t.Fatalf("DoWhoami() = %v, want %v", got, tt.signedIn)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Fatalf("output = %q, want it to contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestDoWhoamiReportsUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	rt, ctx := newTestRuntime(t, srv, true)

	var out bytes.Buffer
	if DoWhoami(ctx, rt, &out) {
		t.Fatal("DoWhoami() = true with the backend down")
	}
	if strings.Contains(out.String(), "Not signed in") || !strings.Contains(out.String(), "Could not reach the server") {
		t.Fatalf("output = %q, want an unreachable backend message", out.String())
	}
}

func TestDoPropertiesRequiresSession(t *testing.T) {
	srv := newBackend(t)
	rt, ctx := newTestRuntime(t, srv, false)

	var out bytes.Buffer
	if DoProperties(ctx, rt, properties.Filter{}, "", &out) {
		t.Fatal("DoProperties() = true for a signed-out user")
	}
	if !strings.Contains(out.String(), "restate -login") {
		t.Fatalf("output = %q, want sign-in hint", out.String())
	}
}

func TestDoPropertiesListsAndShows(t *testing.T) {
	srv := newBackend(t)
	rt, ctx := newTestRuntime(t, srv, true)

	var out bytes.Buffer
	if !DoProperties(ctx, rt, properties.Filter{Filter: "All"}, "", &out) {
		t.Fatal("DoProperties() = false")
	}
	for _, want := range []string{"NAME", "Lakeside Villa", "City Studio"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("list output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if !DoProperties(ctx, rt, properties.Filter{}, "p1", &out) {
		t.Fatal("DoProperties(id) = false")
	}
	if !strings.Contains(out.String(), "1 Lake Rd") {
		t.Errorf("detail output missing address:\n%s", out.String())
	}

	out.Reset()
	if DoProperties(ctx, rt, properties.Filter{}, "missing", &out) {
		t.Fatal("DoProperties(missing) = true")
	}
}

func TestDoLogoutClearsSession(t *testing.T) {
	srv := newBackend(t)
	rt, ctx := newTestRuntime(t, srv, true)
	provider := session.MustFromContext(ctx)
	<-provider.Ready()
	if !provider.Snapshot().IsLogged {
		t.Fatal("expected a signed-in user before logout")
	}

	var out bytes.Buffer
	if !DoLogout(ctx, rt, &out) {
		t.Fatalf("DoLogout() = false, output %q", out.String())
	}
	if secret, _ := rt.Client.Store().Load(); secret != "" {
		t.Fatalf("secret = %q after logout, want cleared", secret)
	}
	if provider.Snapshot().IsLogged {
		t.Fatal("provider still signed in after logout")
	}

	out.Reset()
	if !DoLogout(ctx, rt, &out) {
		t.Fatal("second DoLogout() = false, want idempotent success")
	}
}

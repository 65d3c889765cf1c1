package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anurestate/restate/internal/appwrite"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakeAccounts struct {
	mu      sync.Mutex
	account *appwrite.Account
	err     error
	calls   int
}

func (f *fakeAccounts) set(account *appwrite.Account, err error) {
	f.mu.Lock()
	f.account, f.err = account, err
	f.mu.Unlock()
}

func (f *fakeAccounts) GetAccount(context.Context) (*appwrite.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.account, f.err
}

func (f *fakeAccounts) AvatarInitials(name string) string {
	return "https://cloud.example.com/v1/avatars/initials?name=" + name
}

var errMissingScope = &appwrite.Error{Kind: appwrite.KindUnauthenticated, Code: 401, Type: "general_unauthorized_scope", Message: "missing scope (account)"}

func TestGetCurrentUserComposesIdentity(t *testing.T) {
	accounts := &fakeAccounts{account: &appwrite.Account{ID: "u1", Name: "Ada", Email: "ada@example.com"}}
	a := NewAccessor(accounts)

	first := a.GetCurrentUser(context.Background())
	second := a.GetCurrentUser(context.Background())
	if first == nil || second == nil {
		t.Fatal("GetCurrentUser() = nil, want identity")
	}
	want := Identity{ID: "u1", Name: "Ada", Email: "ada@example.com", Avatar: "https://cloud.example.com/v1/avatars/initials?name=Ada"}
	if *first != want {
		t.Fatalf("identity = %+v, want %+v", *first, want)
	}
	if first.Avatar != second.Avatar {
		t.Fatalf("avatar differs across calls: %q vs %q", first.Avatar, second.Avatar)
	}
	if first == second {
		t.Fatal("each lookup should build a new identity")
	}
}

func TestGetCurrentUserNormalizesFailures(t *testing.T) {
	tests := []struct {
		name       string
		account    *appwrite.Account
		err        error
		wantLookup bool
		wantLogged bool
	}{
		{"no identity marker", &appwrite.Account{Name: "ghost"}, nil, false, false},
		{"missing scope", nil, errMissingScope, false, false},
		{"network", nil, &appwrite.Error{Kind: appwrite.KindNetwork, Message: "dial tcp"}, true, true},
		{"unknown", nil, errors.New("boom"), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := test.NewGlobal()
			defer hook.Reset()

			a := NewAccessor(&fakeAccounts{account: tt.account, err: tt.err})
			if got := a.GetCurrentUser(context.Background()); got != nil {
				t.Fatalf("GetCurrentUser() = %+v, want nil", got)
			}
			_, errLookup := a.Lookup(context.Background())
			if (errLookup != nil) != tt.wantLookup {
				t.Fatalf("Lookup() error = %v, want error %v", errLookup, tt.wantLookup)
			}
			logged := false
			for _, entry := range hook.AllEntries() {
				if entry.Level == log.ErrorLevel {
					logged = true
				}
			}
			if logged != tt.wantLogged {
				t.Fatalf("error logged = %v, want %v", logged, tt.wantLogged)
			}
		})
	}
}

func waitReady(t *testing.T, p *Provider) {
	t.Helper()
	select {
	case <-p.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for provider")
	}
}

func TestProviderIsLoggedTracksUser(t *testing.T) {
	accounts := &fakeAccounts{err: errMissingScope}
	p := NewProvider(NewAccessor(accounts))
	defer p.Close()

	var mu sync.Mutex
	var seen []Snapshot
	cancel := p.Subscribe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	defer cancel()

	waitReady(t, p)
	if s := p.Snapshot(); s.Loading || s.IsLogged || s.User != nil {
		t.Fatalf("signed-out snapshot = %+v", s)
	}

	accounts.set(&appwrite.Account{ID: "u1", Name: "Ada"}, nil)
	if err := p.Refetch(context.Background(), nil); err != nil {
		t.Fatalf("Refetch() error = %v", err)
	}
	if s := p.Snapshot(); !s.IsLogged || s.User == nil || s.User.ID != "u1" {
		t.Fatalf("signed-in snapshot = %+v", s)
	}

	accounts.set(nil, errors.New("backend down"))
	if err := p.Refetch(context.Background(), nil); err != nil {
		t.Fatalf("Refetch() error = %v", err)
	}
	if s := p.Snapshot(); s.IsLogged || s.User != nil {
		t.Fatalf("failed lookup should present signed out, got %+v", s)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		t.Fatal("no snapshots observed")
	}
	for _, s := range seen {
		if !s.Loading && s.IsLogged != (s.User != nil) {
			t.Fatalf("isLogged diverged from user in %+v", s)
		}
	}
}

func TestHandleAccountEventRefetches(t *testing.T) {
	accounts := &fakeAccounts{err: errMissingScope}
	p := NewProvider(NewAccessor(accounts))
	defer p.Close()
	waitReady(t, p)

	accounts.set(&appwrite.Account{ID: "u1", Name: "Ada"}, nil)
	p.HandleAccountEvent(appwrite.Event{Events: []string{"buckets.b1.files.f1.create"}})
	if p.Snapshot().IsLogged {
		t.Fatal("unrelated event should not refetch")
	}
	p.HandleAccountEvent(appwrite.Event{Events: []string{"users.u1.sessions.s1.create"}})
	if !p.Snapshot().IsLogged {
		t.Fatal("session event should refetch the user")
	}
}

func TestMustFromContext(t *testing.T) {
	p := NewProvider(NewAccessor(&fakeAccounts{err: errMissingScope}))
	defer p.Close()

	ctx := WithProvider(context.Background(), p)
	if got := MustFromContext(ctx); got != p {
		t.Fatal("MustFromContext returned a different provider")
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("FromContext on empty context reported a provider")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustFromContext outside a provider should panic")
		}
	}()
	MustFromContext(context.Background())
}

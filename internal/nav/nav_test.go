package nav

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/linkgate/internal/docstore/memory"
	"github.com/dropDatabas3/linkgate/internal/idp/local"
	"github.com/dropDatabas3/linkgate/internal/profile"
	"github.com/dropDatabas3/linkgate/internal/session"
)

func newSession(t *testing.T, p *local.Provider) *session.Manager {
	t.Helper()
	m := session.New(profile.New(memory.New()))
	m.Start(p.StateChanges())
	t.Cleanup(m.Stop)
	return m
}

func TestDecide_SuspendsWhileLoading(t *testing.T) {
	p := local.New()
	m := session.New(profile.New(memory.New()))
	// Sin Start: la sesión queda en LOADING hasta que arranque la
	// suscripción, igual que una app esperando el primer callback.
	g := New(m, PathLogin, PathHome)

	decided := make(chan Decision, 1)
	go func() {
		d, err := g.Decide(context.Background(), Route{Path: PathHome, RequiresAuth: true})
		if err != nil {
			t.Errorf("Decide: %v", err)
		}
		decided <- d
	}()

	select {
	case <-decided:
		t.Fatalf("decision must suspend while LOADING")
	case <-time.After(50 * time.Millisecond):
	}

	// Arranca la suscripción: la emisión inicial del provider (sin sesión)
	// resuelve readiness y destraba la decisión.
	m.Start(p.StateChanges())
	t.Cleanup(m.Stop)

	select {
	case d := <-decided:
		if d.RedirectTo != PathLogin {
			t.Fatalf("unauthenticated on auth route should redirect to login, got %+v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("decision did not resume after readiness")
	}
}

func TestDecide_AuthRequiredRedirectsToLogin(t *testing.T) {
	p := local.New()
	m := newSession(t, p)
	g := New(m, PathLogin, PathHome)

	waitStatus(t, m, session.StatusUnauthed)

	d, err := g.Decide(context.Background(), Route{Path: PathProfile, RequiresAuth: true})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.RedirectTo != PathLogin {
		t.Fatalf("want redirect to login, got %+v", d)
	}
}

func TestDecide_AuthedOnLoginRedirectsHome(t *testing.T) {
	p := local.New()
	m := newSession(t, p)

	if _, err := p.CreateAccount(context.Background(), "ana@example.com", "Secret123"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	waitStatus(t, m, session.StatusAuthed)

	g := New(m, PathLogin, PathHome)

	d, err := g.Decide(context.Background(), Route{Path: PathLogin, RequiresAuth: false})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.RedirectTo != PathHome {
		t.Fatalf("authed user on /login should land on home, got %+v", d)
	}

	// Otras rutas públicas no redirigen aunque haya sesión.
	d, err = g.Decide(context.Background(), Route{Path: PathStatus, RequiresAuth: false})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !d.Allowed() {
		t.Fatalf("public route should be allowed: %+v", d)
	}
}

func TestDecide_AllowedPassesThrough(t *testing.T) {
	p := local.New()
	m := newSession(t, p)
	g := New(m, PathLogin, PathHome)

	waitStatus(t, m, session.StatusUnauthed)

	for _, route := range []Route{
		{Path: PathLogin, RequiresAuth: false},
		{Path: PathRegister, RequiresAuth: false},
		{Path: PathStatus, RequiresAuth: false},
	} {
		d, err := g.Decide(context.Background(), route)
		if err != nil {
			t.Fatalf("Decide(%s): %v", route.Path, err)
		}
		if !d.Allowed() {
			t.Fatalf("route %s should be allowed, got %+v", route.Path, d)
		}
	}
}

func TestDecide_ContextCancelledWhileLoading(t *testing.T) {
	m := session.New(profile.New(memory.New()))
	g := New(m, PathLogin, PathHome)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Decide(ctx, Route{Path: PathHome, RequiresAuth: true}); err == nil {
		t.Fatalf("cancelled context should abort the suspended decision")
	}
}

func TestLookup(t *testing.T) {
	r, ok := Lookup(PathHome)
	if !ok || !r.RequiresAuth {
		t.Fatalf("home should exist and require auth: %+v", r)
	}
	if _, ok := Lookup("/nope"); ok {
		t.Fatalf("unknown path should not resolve")
	}
}

func waitStatus(t *testing.T, m *session.Manager, want session.Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Status() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status never reached %s (now %s)", want, m.Status())
}

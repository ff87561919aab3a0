package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/linkgate/internal/idp"
	"github.com/dropDatabas3/linkgate/internal/idp/local"
	"github.com/dropDatabas3/linkgate/internal/profile"
)

// fakeLoader registra las llamadas a GetOrCreate y permite inyectar fallas.
type fakeLoader struct {
	mu      sync.Mutex
	calls   []string // provider tags recibidos
	failErr error
}

func (f *fakeLoader) GetOrCreate(ctx context.Context, uid, email, displayName, providerTag string) (*profile.UserProfile, error) {
	f.mu.Lock()
	f.calls = append(f.calls, providerTag)
	err := f.failErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &profile.UserProfile{UID: uid, Email: email, Provider: providerTag, Roles: []string{"user"}}, nil
}

func (f *fakeLoader) tags() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeLoader) fail(err error) {
	f.mu.Lock()
	f.failErr = err
	f.mu.Unlock()
}

// step aplica una notificación de forma síncrona y espera los profile loads.
func step(m *Manager, sc idp.StateChange) {
	m.apply(sc)
	m.loads.Wait()
}

func TestInitialStateIsLoading(t *testing.T) {
	m := New(&fakeLoader{})

	if got := m.Status(); got != StatusLoading {
		t.Fatalf("initial status = %q, want LOADING", got)
	}
	select {
	case <-m.Ready():
		t.Fatalf("ready must not resolve before the first notification")
	default:
	}
}

func TestFirstNotification_NoPrincipal(t *testing.T) {
	m := New(&fakeLoader{})

	step(m, idp.StateChange{})
	waitReady(t, m)

	snap := m.Snapshot()
	if snap.Status != StatusUnauthed || snap.Principal != nil || snap.Err != "" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestAuthNotification_LoadsProfileWithPasswordTag(t *testing.T) {
	loader := &fakeLoader{}
	m := New(loader)

	pr := &idp.Principal{UID: "u1", Email: "jane@contoso.com", DisplayName: "Jane"}
	step(m, idp.StateChange{Principal: pr})
	waitReady(t, m)

	snap := m.Snapshot()
	if snap.Status != StatusAuthed || snap.Principal == nil || snap.Principal.UID != "u1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Profile == nil || snap.Profile.UID != "u1" {
		t.Fatalf("profile not materialized: %+v", snap.Profile)
	}

	// Comportamiento heredado: el tag de provider del load se defaultea a
	// "password" aunque el login haya sido enterprise. Este test lo fija
	// para que un fix sea un cambio deliberado y visible.
	tags := loader.tags()
	if len(tags) != 1 || tags[0] != "password" {
		t.Fatalf("profile load tag = %v, want [password]", tags)
	}
}

func TestProfileLoadFailure_DoesNotBlockAuth(t *testing.T) {
	loader := &fakeLoader{}
	m := New(loader)

	// Primer login: perfil carga bien.
	step(m, idp.StateChange{Principal: &idp.Principal{UID: "u1", Email: "a@example.com"}})
	prev := m.Snapshot().Profile
	if prev == nil {
		t.Fatalf("setup: profile should have loaded")
	}

	// Re-login con el docstore caído: el perfil anterior queda intacto y no
	// se registra error de sesión.
	loader.fail(errors.New("docstore down"))
	step(m, idp.StateChange{Principal: &idp.Principal{UID: "u1", Email: "a@example.com"}})

	snap := m.Snapshot()
	if snap.Status != StatusAuthed {
		t.Fatalf("auth must not depend on profile load: %+v", snap)
	}
	if snap.Err != "" {
		t.Fatalf("profile load failure must not surface as session error: %q", snap.Err)
	}
	if snap.Profile == nil || snap.Profile.UID != prev.UID {
		t.Fatalf("previous profile should remain: %+v", snap.Profile)
	}
}

func TestLogoutNotification_ClearsPrincipalAndProfile(t *testing.T) {
	m := New(&fakeLoader{})

	step(m, idp.StateChange{Principal: &idp.Principal{UID: "u1"}})
	step(m, idp.StateChange{})

	snap := m.Snapshot()
	if snap.Status != StatusUnauthed || snap.Principal != nil || snap.Profile != nil {
		t.Fatalf("logout notification must clear state: %+v", snap)
	}
}

func TestReadyResolvesExactlyOnce(t *testing.T) {
	m := New(&fakeLoader{})

	step(m, idp.StateChange{})
	waitReady(t, m)

	// Múltiples awaiters concurrentes se destraban juntos.
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.WaitReady(context.Background()); err != nil {
				t.Errorf("WaitReady: %v", err)
			}
		}()
	}
	wg.Wait()

	// Notificaciones posteriores no re-resuelven ni paniquean.
	step(m, idp.StateChange{Principal: &idp.Principal{UID: "u1"}})
	step(m, idp.StateChange{})
	waitReady(t, m)
}

func TestSubscriptionError_ForcesUnauthedAndResolvesReady(t *testing.T) {
	m := New(&fakeLoader{})

	step(m, idp.StateChange{Err: errors.New("token channel broken")})
	waitReady(t, m)

	snap := m.Snapshot()
	if snap.Status != StatusUnauthed || snap.Principal != nil {
		t.Fatalf("subscription error must force UNAUTHED: %+v", snap)
	}
	if snap.Err != "token channel broken" {
		t.Fatalf("error not recorded: %q", snap.Err)
	}
}

func TestStatusPrincipalInvariant(t *testing.T) {
	m := New(&fakeLoader{})

	steps := []idp.StateChange{
		{},
		{Principal: &idp.Principal{UID: "u1"}},
		{},
		{Principal: &idp.Principal{UID: "u2"}},
	}
	for _, sc := range steps {
		step(m, sc)
		snap := m.Snapshot()
		authed := snap.Principal != nil
		if (snap.Status == StatusAuthed) != authed {
			t.Fatalf("invariant broken: status=%s principal=%v", snap.Status, snap.Principal)
		}
		if snap.Status == StatusLoading {
			t.Fatalf("LOADING re-entered after first notification")
		}
	}
}

func TestStaleProfileLoadDoesNotOverwrite(t *testing.T) {
	loader := &fakeLoader{}
	m := New(loader)

	// Login y logout inmediato: el load del login es stale al completarse.
	m.apply(idp.StateChange{Principal: &idp.Principal{UID: "u1"}})
	m.apply(idp.StateChange{})
	m.loads.Wait()

	snap := m.Snapshot()
	if snap.Profile != nil {
		t.Fatalf("stale profile load overwrote a logged-out session: %+v", snap.Profile)
	}
}

func TestSetErrorAndReset(t *testing.T) {
	m := New(&fakeLoader{})

	step(m, idp.StateChange{Principal: &idp.Principal{UID: "u1"}})

	m.SetError("invalid credentials")
	if m.Snapshot().Err != "invalid credentials" {
		t.Fatalf("SetError not recorded")
	}

	m.Reset()
	snap := m.Snapshot()
	if snap.Status != StatusUnauthed || snap.Principal != nil || snap.Profile != nil || snap.Err != "" {
		t.Fatalf("Reset must clear everything: %+v", snap)
	}
}

func TestStart_DrainsProviderStream(t *testing.T) {
	p := local.New()
	m := New(&fakeLoader{})
	m.Start(p.StateChanges())
	defer m.Stop()

	// El provider emite su estado inicial al crearse.
	waitReady(t, m)
	if m.Status() != StatusUnauthed {
		t.Fatalf("initial provider state should be unauthenticated")
	}

	if _, err := p.CreateAccount(context.Background(), "ana@example.com", "Secret123"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	waitFor(t, func() bool { return m.Status() == StatusAuthed })

	if err := p.EndSession(context.Background()); err != nil {
		t.Fatalf("end session: %v", err)
	}
	waitFor(t, func() bool { return m.Status() == StatusUnauthed })
}

func waitReady(t *testing.T, m *Manager) {
	t.Helper()
	select {
	case <-m.Ready():
	case <-time.After(2 * time.Second):
		t.Fatalf("readiness signal did not resolve")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/linkgate/internal/cache"
	"github.com/dropDatabas3/linkgate/internal/docstore/memory"
	"github.com/dropDatabas3/linkgate/internal/gateway"
	ctrl "github.com/dropDatabas3/linkgate/internal/http/controllers/auth"
	dto "github.com/dropDatabas3/linkgate/internal/http/dto/auth"
	svc "github.com/dropDatabas3/linkgate/internal/http/services/auth"
	idplocal "github.com/dropDatabas3/linkgate/internal/idp/local"
	"github.com/dropDatabas3/linkgate/internal/nav"
	"github.com/dropDatabas3/linkgate/internal/profile"
	"github.com/dropDatabas3/linkgate/internal/provider"
	"github.com/dropDatabas3/linkgate/internal/session"
)

func newStack(t *testing.T) (*httptest.Server, *idplocal.Provider) {
	t.Helper()

	idProvider := idplocal.New()
	slot, err := cache.New(cache.Config{Kind: "memory", Prefix: "test"})
	require.NoError(t, err)

	sessions := session.New(profile.New(memory.New()))
	sessions.Start(idProvider.StateChanges())
	t.Cleanup(sessions.Stop)

	gw := gateway.New(idProvider, slot, gateway.Options{Tenant: "common"})
	service := svc.NewService(svc.Deps{
		Gateway:  gw,
		Sessions: sessions,
		Router:   provider.New(nil),
	})

	ts := httptest.NewServer(New(Deps{
		Controllers: ctrl.NewControllers(service),
		Gatekeeper:  nav.New(sessions, nav.PathLogin, nav.PathHome),
	}))
	t.Cleanup(ts.Close)
	return ts, idProvider
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func TestSSOConflict_PendingCredentialProtocol(t *testing.T) {
	ts, idProvider := newStack(t)

	// cuenta password preexistente
	resp := post(t, ts.URL+"/api/auth/register", dto.RegisterRequest{
		Email: "ana@contoso.com", Password: "secret1",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// el consent SSO resuelve al mismo email: conflicto
	idProvider.SetConsentResult("ana@contoso.com", "Ana")
	resp = post(t, ts.URL+"/api/auth/login/sso", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res dto.AuthResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resp.Body.Close()
	require.Nil(t, res.Principal)
	require.Contains(t, res.Error, "account already exists")

	// la metadata del conflicto quedó guardada
	var pending struct {
		Pending *dto.PendingCredentialDTO `json:"pending"`
	}
	resp, err := http.Get(ts.URL + "/api/auth/pending-credential")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pending))
	resp.Body.Close()
	require.NotNil(t, pending.Pending)
	require.Equal(t, "microsoft", pending.Pending.Provider)
	require.Equal(t, "ana@contoso.com", pending.Pending.Email)

	// tras vincular el provider, el mismo consent entra
	idProvider.LinkProvider("ana@contoso.com", "microsoft")
	idProvider.SetConsentResult("ana@contoso.com", "Ana")
	resp = post(t, ts.URL+"/api/auth/login/sso", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res = dto.AuthResult{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resp.Body.Close()
	require.Empty(t, res.Error)
	require.NotNil(t, res.Principal)

	// DELETE descarta el slot
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/auth/pending-credential", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/auth/pending-credential")
	require.NoError(t, err)
	pending.Pending = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pending))
	resp.Body.Close()
	require.Nil(t, pending.Pending)
}

func TestProviderHint(t *testing.T) {
	ts, _ := newStack(t)

	cases := []struct {
		email      string
		provider   string
		enterprise bool
	}{
		{"ana@contoso.com", "microsoft", true},
		{"dev@gmail.com", "google", true},
		{"ana@example.com", "none", false},
	}
	for _, c := range cases {
		resp, err := http.Get(ts.URL + "/api/auth/provider-hint?email=" + c.email)
		require.NoError(t, err)
		var hint dto.ProviderHint
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&hint))
		resp.Body.Close()
		require.Equal(t, c.provider, hint.Provider, c.email)
		require.Equal(t, c.enterprise, hint.Enterprise, c.email)
	}
}

func TestGuard_SuspendsUntilFirstDetermination(t *testing.T) {
	// sin Start: la sesión queda en LOADING y el guard debe suspender
	sessions := session.New(profile.New(memory.New()))

	slot, err := cache.New(cache.Config{Kind: "memory"})
	require.NoError(t, err)
	idProvider := idplocal.New()
	gw := gateway.New(idProvider, slot, gateway.Options{Tenant: "common"})
	service := svc.NewService(svc.Deps{Gateway: gw, Sessions: sessions, Router: provider.New(nil)})

	ts := httptest.NewServer(New(Deps{
		Controllers: ctrl.NewControllers(service),
		Gatekeeper:  nav.New(sessions, nav.PathLogin, nav.PathHome),
	}))
	t.Cleanup(ts.Close)

	done := make(chan int, 1)
	go func() {
		client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}}
		resp, err := client.Get(ts.URL + "/home")
		if err != nil {
			done <- -1
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()

	// mientras no hay determinación, el request queda bloqueado
	select {
	case code := <-done:
		t.Fatalf("guard decided during LOADING: status %d", code)
	case <-time.After(100 * time.Millisecond):
	}

	// primera determinación: UNAUTHED → redirect al login
	sessions.Start(idProvider.StateChanges())
	t.Cleanup(sessions.Stop)

	select {
	case code := <-done:
		require.Equal(t, http.StatusFound, code)
	case <-time.After(2 * time.Second):
		t.Fatal("guard never resolved after first determination")
	}
}

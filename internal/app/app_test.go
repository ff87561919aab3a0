package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/linkgate/internal/config"
	dto "github.com/dropDatabas3/linkgate/internal/http/dto/auth"
)

func newTestApp(t *testing.T) (*App, *httptest.Server, *http.Client) {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	// limit bajo para que el test de 429 sea determinista
	cfg.Rate.Login = config.RateLimit{Limit: 2, Window: time.Minute}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.close)

	ts := httptest.NewServer(a.Handler())
	t.Cleanup(ts.Close)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return a, ts, client
}

func postJSON(t *testing.T, c *http.Client, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := c.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func sessionStatus(t *testing.T, c *http.Client, base string) dto.SessionDTO {
	t.Helper()
	resp, err := c.Get(base + "/api/auth/session")
	require.NoError(t, err)
	return decodeJSON[dto.SessionDTO](t, resp)
}

func TestApp_RegisterLoginLogoutFlow(t *testing.T) {
	_, ts, c := newTestApp(t)

	// sin sesión: el guard manda /home al login
	require.Eventually(t, func() bool {
		return sessionStatus(t, c, ts.URL).Status == "UNAUTHED"
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := c.Get(ts.URL + "/home")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	// registro
	resp = postJSON(t, c, ts.URL+"/api/auth/register", dto.RegisterRequest{
		Email: "ana@example.com", Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decodeJSON[dto.AuthResult](t, resp)
	require.Empty(t, res.Error)
	require.NotNil(t, res.Principal)
	require.NotEmpty(t, res.Principal.UID)

	// la sesión se actualiza por la notificación asíncrona del provider
	require.Eventually(t, func() bool {
		s := sessionStatus(t, c, ts.URL)
		return s.Status == "AUTHED" && s.Profile != nil
	}, 2*time.Second, 10*time.Millisecond)

	// autenticado: /home pasa, /login redirige a /home
	resp, err = c.Get(ts.URL + "/home")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.Get(ts.URL + "/login")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/home", resp.Header.Get("Location"))

	// logout resetea de inmediato
	resp = postJSON(t, c, ts.URL+"/api/auth/logout", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	require.Equal(t, "UNAUTHED", sessionStatus(t, c, ts.URL).Status)
}

func TestApp_LoginRejectionIsUniform(t *testing.T) {
	_, ts, c := newTestApp(t)

	// credenciales inválidas: 200 con {principal: null, error}
	resp := postJSON(t, c, ts.URL+"/api/auth/login", dto.LoginRequest{
		Email: "nadie@example.com", Password: "whatever",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeJSON[dto.AuthResult](t, resp)
	require.Nil(t, res.Principal)
	require.Equal(t, "Invalid email or password", res.Error)
}

func TestApp_LoginRateLimited(t *testing.T) {
	_, ts, c := newTestApp(t)

	body := dto.LoginRequest{Email: "nadie@example.com", Password: "whatever"}
	for i := 0; i < 2; i++ {
		resp := postJSON(t, c, ts.URL+"/api/auth/login", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := postJSON(t, c, ts.URL+"/api/auth/login", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestApp_RegisterValidation(t *testing.T) {
	_, ts, c := newTestApp(t)

	resp := postJSON(t, c, ts.URL+"/api/auth/register", dto.RegisterRequest{
		Email: "not-an-email", Password: "secret1",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, c, ts.URL+"/api/auth/register", dto.RegisterRequest{
		Email: "ana@example.com", Password: "12345",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

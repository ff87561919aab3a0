// Package rest implementa idp.Provider contra la API REST de la plataforma
// de identidad (estilo Identity Toolkit: signUp, signInWithPassword,
// signInWithIdp, apiKey en query).
//
// El paso interactivo del consent (popup/redirect) lo completa el browser;
// este cliente recibe la credencial resultante via ConsentTokenSource y hace
// el exchange server-side.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/linkgate/internal/idp"
)

// ConsentTokenSource obtiene la credencial del provider enterprise luego de
// que el usuario completó el flujo interactivo. Retorna el id_token del IdP.
type ConsentTokenSource func(ctx context.Context, req idp.ConsentRequest) (string, error)

// Client es un idp.Provider sobre HTTP.
type Client struct {
	baseURL string
	apiKey  string
	tokens  ConsentTokenSource
	http    *http.Client

	mu      sync.Mutex
	current *idp.Principal
	changes chan idp.StateChange
}

var _ idp.Provider = (*Client)(nil)

// New crea un Client. tokens puede ser nil si el deployment no usa SSO.
func New(baseURL, apiKey string, tokens ConsentTokenSource) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		tokens:  tokens,
		http:    &http.Client{Timeout: 10 * time.Second},
		changes: make(chan idp.StateChange, 16),
	}
	// Estado inicial: sin sesión. La plataforma real restauraría el token
	// persistido; este cliente arranca siempre deslogueado.
	c.emit(idp.StateChange{})
	return c
}

func (c *Client) emit(sc idp.StateChange) {
	select {
	case c.changes <- sc:
	default:
	}
}

// authResponse es la respuesta de los endpoints de sign-in.
type authResponse struct {
	IDToken     string `json:"idToken"`
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	// Campos del conflicto en signInWithIdp
	NeedConfirmation bool   `json:"needConfirmation"`
	VerifiedEmail    string `json:"verifiedEmail,omitempty"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, endpoint string, body any, out *authResponse) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/v1/accounts:%s?key=%s", c.baseURL, endpoint, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var ae apiError
		_ = json.NewDecoder(resp.Body).Decode(&ae)
		return mapAPIError(ae.Error.Message)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// mapAPIError traduce los códigos wire de la plataforma a errores idp.
func mapAPIError(code string) error {
	switch {
	case code == "EMAIL_EXISTS":
		return idp.NewError(idp.CodeEmailInUse, "The email address is already in use by another account")
	case strings.HasPrefix(code, "WEAK_PASSWORD"):
		return idp.NewError(idp.CodeWeakPassword, "Password should be at least 6 characters")
	case code == "EMAIL_NOT_FOUND", code == "INVALID_PASSWORD", code == "INVALID_LOGIN_CREDENTIALS":
		// No distinguir not-found de bad-password: account enumeration.
		return idp.NewError(idp.CodeInvalidCredentials, "Invalid email or password")
	default:
		return idp.NewError("auth/internal-error", "Identity platform error: "+code)
	}
}

// principalFrom arma el Principal desde la respuesta, completando claims
// faltantes con el id_token (sub, email, name). El token viene por el canal
// autenticado de la plataforma, por eso se parsea sin verificar firma.
func principalFrom(r *authResponse) *idp.Principal {
	p := &idp.Principal{UID: r.LocalID, Email: r.Email, DisplayName: r.DisplayName}
	if r.IDToken == "" || (p.UID != "" && p.Email != "" && p.DisplayName != "") {
		return p
	}
	var claims jwtv5.MapClaims
	parser := jwtv5.NewParser()
	if _, _, err := parser.ParseUnverified(r.IDToken, &claims); err != nil {
		return p
	}
	if p.UID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			p.UID = sub
		}
	}
	if p.Email == "" {
		if v, ok := claims["email"].(string); ok {
			p.Email = v
		}
	}
	if p.DisplayName == "" {
		if v, ok := claims["name"].(string); ok {
			p.DisplayName = v
		}
	}
	return p
}

func (c *Client) CreateAccount(ctx context.Context, email, password string) (*idp.Principal, error) {
	var out authResponse
	err := c.post(ctx, "signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return c.signedIn(&out), nil
}

func (c *Client) VerifyPassword(ctx context.Context, email, password string) (*idp.Principal, error) {
	var out authResponse
	err := c.post(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return c.signedIn(&out), nil
}

func (c *Client) InteractiveConsent(ctx context.Context, req idp.ConsentRequest) (*idp.Principal, error) {
	if c.tokens == nil {
		return nil, idp.NewError("auth/operation-not-allowed", "SSO consent is not configured")
	}
	idToken, err := c.tokens(ctx, req)
	if err != nil {
		return nil, idp.NewError(idp.CodePopupClosed, "The popup has been closed by the user before finalizing the operation")
	}

	var out authResponse
	err = c.post(ctx, "signInWithIdp", map[string]any{
		"postBody":          fmt.Sprintf("id_token=%s&providerId=%s.com", idToken, req.Provider),
		"requestUri":        c.baseURL,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.NeedConfirmation {
		// La cuenta ya existe bajo otra credencial. La plataforma no abre
		// sesión; el caller decide cómo resolver el linking.
		return nil, &idp.Error{
			Code:             idp.CodeAccountExists,
			Message:          "An account already exists with the same email address but different sign-in credentials",
			ConflictingEmail: out.VerifiedEmail,
		}
	}
	return c.signedIn(&out), nil
}

func (c *Client) signedIn(r *authResponse) *idp.Principal {
	p := principalFrom(r)
	c.mu.Lock()
	c.current = p
	c.mu.Unlock()
	c.emit(idp.StateChange{Principal: p})
	return p
}

func (c *Client) EndSession(ctx context.Context) error {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	c.emit(idp.StateChange{})
	return nil
}

func (c *Client) StateChanges() <-chan idp.StateChange {
	return c.changes
}

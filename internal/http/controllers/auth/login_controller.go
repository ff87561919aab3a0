package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/linkgate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/linkgate/internal/http/errors"
	svc "github.com/dropDatabas3/linkgate/internal/http/services/auth"
	"github.com/dropDatabas3/linkgate/internal/observability/logger"
	"github.com/dropDatabas3/linkgate/internal/provider"
)

// LoginController maneja login por password y por SSO enterprise.
type LoginController struct {
	service *svc.Service
}

// NewLoginController crea un nuevo controller de login.
func NewLoginController(service *svc.Service) *LoginController {
	return &LoginController{service: service}
}

// Login maneja POST /api/auth/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}

	principal, err := c.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		log.Debug("login rejected", logger.Err(err))
		writeJSON(w, http.StatusOK, authResult(nil, err))
		return
	}

	writeJSON(w, http.StatusOK, authResult(principal, nil))
}

// LoginSSO maneja POST /api/auth/login/sso
func (c *LoginController) LoginSSO(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.LoginSSO"))

	principal, err := c.service.LoginSSO(ctx)
	if err != nil {
		log.Debug("sso login rejected", logger.Err(err))
		writeJSON(w, http.StatusOK, authResult(nil, err))
		return
	}

	writeJSON(w, http.StatusOK, authResult(principal, nil))
}

// ProviderHint maneja GET /api/auth/provider-hint?email=...
// La UI lo llama antes de cualquier operación de red contra el provider.
func (c *LoginController) ProviderHint(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("query param email requerido"))
		return
	}

	tag, enterprise := c.service.ProviderHint(r.Context(), email)
	writeJSON(w, http.StatusOK, dto.ProviderHint{
		Provider:    string(tag),
		DisplayName: provider.DisplayName(tag),
		Enterprise:  enterprise,
	})
}

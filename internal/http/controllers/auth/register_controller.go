package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/linkgate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/linkgate/internal/http/errors"
	svc "github.com/dropDatabas3/linkgate/internal/http/services/auth"
	"github.com/dropDatabas3/linkgate/internal/observability/logger"
	"github.com/dropDatabas3/linkgate/internal/validation"
)

// RegisterController maneja el endpoint de registro.
type RegisterController struct {
	service *svc.Service
}

// NewRegisterController crea un nuevo controller de registro.
func NewRegisterController(service *svc.Service) *RegisterController {
	return &RegisterController{service: service}
}

// Register maneja POST /api/auth/register
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Register"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}
	if !validation.ValidEmail(req.Email) {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("email con formato inválido"))
		return
	}
	if !validation.ValidPassword(req.Password) {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("la contraseña debe tener entre 6 y 128 caracteres"))
		return
	}

	principal, err := c.service.Register(ctx, req.Email, req.Password)
	if err != nil {
		log.Debug("register rejected", logger.Err(err))
		// El contrato del resultado es uniforme: el rechazo viaja como
		// {principal: null, error: <mensaje>} con status 200.
		writeJSON(w, http.StatusOK, authResult(nil, err))
		return
	}

	writeJSON(w, http.StatusCreated, authResult(principal, nil))
}

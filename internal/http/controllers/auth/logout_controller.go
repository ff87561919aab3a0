package auth

import (
	"net/http"

	svc "github.com/dropDatabas3/linkgate/internal/http/services/auth"
	"github.com/dropDatabas3/linkgate/internal/observability/logger"
)

// LogoutController maneja el endpoint de logout.
type LogoutController struct {
	service *svc.Service
}

// NewLogoutController crea un nuevo controller de logout.
func NewLogoutController(service *svc.Service) *LogoutController {
	return &LogoutController{service: service}
}

// Logout maneja POST /api/auth/logout
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := c.service.Logout(ctx); err != nil {
		logger.From(ctx).Warn("logout failed",
			logger.Layer("controller"), logger.Op("LogoutController.Logout"), logger.Err(err))
		writeJSON(w, http.StatusOK, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"error": nil})
}

package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/linkgate/internal/http/dto/auth"
	svc "github.com/dropDatabas3/linkgate/internal/http/services/auth"
)

// SessionController expone el estado de sesión y el pending credential.
type SessionController struct {
	service *svc.Service
}

// NewSessionController crea un nuevo controller de sesión.
func NewSessionController(service *svc.Service) *SessionController {
	return &SessionController{service: service}
}

// Session maneja GET /api/auth/session
func (c *SessionController) Session(w http.ResponseWriter, r *http.Request) {
	snap := c.service.Session()

	out := dto.SessionDTO{
		Status:    string(snap.Status),
		Principal: principalDTO(snap.Principal),
		Error:     snap.Err,
	}
	if snap.Profile != nil {
		out.Profile = snap.Profile
	}
	writeJSON(w, http.StatusOK, out)
}

// PendingCredential maneja GET /api/auth/pending-credential
// Retorna la metadata del conflicto de linking interrumpido, o null.
func (c *SessionController) PendingCredential(w http.ResponseWriter, r *http.Request) {
	pc := c.service.PendingCredential(r.Context())
	if pc == nil {
		writeJSON(w, http.StatusOK, map[string]any{"pending": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pending": dto.PendingCredentialDTO{Provider: pc.Provider, Email: pc.Email},
	})
}

// ClearPendingCredential maneja DELETE /api/auth/pending-credential
func (c *SessionController) ClearPendingCredential(w http.ResponseWriter, r *http.Request) {
	c.service.ClearPendingCredential(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

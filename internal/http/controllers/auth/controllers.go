// Package auth contiene los controllers HTTP de autenticación.
package auth

import (
	"encoding/json"
	"net/http"

	dto "github.com/dropDatabas3/linkgate/internal/http/dto/auth"
	svc "github.com/dropDatabas3/linkgate/internal/http/services/auth"
	"github.com/dropDatabas3/linkgate/internal/idp"
)

const (
	maxBodySize     = 64 * 1024 // 64KB
	contentTypeJSON = "application/json; charset=utf-8"
)

// Controllers agrupa los controllers de auth para el wiring del router.
type Controllers struct {
	Register *RegisterController
	Login    *LoginController
	Logout   *LogoutController
	Session  *SessionController
}

// NewControllers crea el set completo sobre un service.
func NewControllers(service *svc.Service) *Controllers {
	return &Controllers{
		Register: NewRegisterController(service),
		Login:    NewLoginController(service),
		Logout:   NewLogoutController(service),
		Session:  NewSessionController(service),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func principalDTO(p *idp.Principal) *dto.PrincipalDTO {
	if p == nil {
		return nil
	}
	return &dto.PrincipalDTO{UID: p.UID, Email: p.Email, DisplayName: p.DisplayName}
}

// authResult arma el resultado uniforme {principal, error} del contrato.
func authResult(p *idp.Principal, err error) dto.AuthResult {
	res := dto.AuthResult{Principal: principalDTO(p)}
	if err != nil {
		if pe := idp.AsError(err); pe != nil {
			res.Error = pe.Message
		} else {
			res.Error = err.Error()
		}
	}
	return res
}

// Package auth implementa la capa de casos de uso de autenticación: envuelve
// el gateway, registra errores en el estado de sesión y resetea la sesión
// tras un logout confirmado.
package auth

import (
	"context"
	"strings"

	"github.com/dropDatabas3/linkgate/internal/gateway"
	"github.com/dropDatabas3/linkgate/internal/idp"
	"github.com/dropDatabas3/linkgate/internal/observability/logger"
	"github.com/dropDatabas3/linkgate/internal/provider"
	"github.com/dropDatabas3/linkgate/internal/session"
)

// Deps contiene las dependencias del service.
type Deps struct {
	Gateway  *gateway.Gateway
	Sessions *session.Manager
	Router   *provider.Router
}

// Service es la fachada de autenticación que consumen los controllers.
type Service struct {
	deps Deps
}

// NewService crea un Service.
func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// errMessage extrae el mensaje legible de un error del provider.
// El mensaje se expone verbatim: es la copy que la plataforma ya escribió
// para el usuario final.
func errMessage(err error) string {
	if pe := idp.AsError(err); pe != nil {
		return pe.Message
	}
	return err.Error()
}

// record registra el mensaje del error en el estado de sesión para los
// consumidores reactivos de UI, y lo retorna.
func (s *Service) record(err error) error {
	if err != nil {
		s.deps.Sessions.SetError(errMessage(err))
	}
	return err
}

// Register crea una cuenta nueva. El update de sesión llega por la
// notificación asíncrona del provider, no por esta llamada.
func (s *Service) Register(ctx context.Context, email, password string) (*idp.Principal, error) {
	principal, err := s.deps.Gateway.Register(ctx, email, password)
	return principal, s.record(err)
}

// Login verifica credenciales email/password.
func (s *Service) Login(ctx context.Context, email, password string) (*idp.Principal, error) {
	principal, err := s.deps.Gateway.LoginPassword(ctx, email, password)
	return principal, s.record(err)
}

// LoginSSO abre el consent del provider enterprise.
func (s *Service) LoginSSO(ctx context.Context) (*idp.Principal, error) {
	principal, err := s.deps.Gateway.LoginEnterpriseSSO(ctx)
	return principal, s.record(err)
}

// Logout cierra la sesión. En éxito resetea el estado local de inmediato
// para no esperar el round-trip de la notificación asíncrona.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.deps.Gateway.Logout(ctx); err != nil {
		return s.record(err)
	}
	s.deps.Sessions.Reset()
	return nil
}

// Session retorna el snapshot actual del estado de sesión.
func (s *Service) Session() session.Snapshot {
	return s.deps.Sessions.Snapshot()
}

// PendingCredential retorna la metadata del conflicto pendiente, o nil.
func (s *Service) PendingCredential(ctx context.Context) *gateway.PendingCredential {
	return s.deps.Gateway.PendingCredential(ctx)
}

// ClearPendingCredential descarta el conflicto pendiente.
func (s *Service) ClearPendingCredential(ctx context.Context) {
	s.deps.Gateway.ClearPendingCredential(ctx)
}

// ProviderHint sugiere el provider para un email, antes de cualquier llamada
// de red: la UI lo usa para ofrecer el botón SSO correcto.
func (s *Service) ProviderHint(ctx context.Context, email string) (tag provider.Tag, enterprise bool) {
	email = strings.TrimSpace(email)
	tag = s.deps.Router.Detect(email)
	enterprise = tag != provider.None
	logger.From(ctx).Debug("provider hint",
		logger.Component("auth.service"), logger.Provider(string(tag)))
	return tag, enterprise
}

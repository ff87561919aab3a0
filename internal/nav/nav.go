// Package nav decide transiciones de navegación a partir del estado de
// sesión. Es el route guard de la aplicación: no renderiza nada, solo
// permite o redirige.
package nav

import (
	"context"

	"github.com/dropDatabas3/linkgate/internal/observability/logger"
	"github.com/dropDatabas3/linkgate/internal/session"
)

// Route es la metadata de ruta que consume el guard. RequiresAuth es el
// único flag del contrato; el resto de la declaración de ruta no le importa.
type Route struct {
	Path         string
	RequiresAuth bool
}

// Decision es el resultado del guard. RedirectTo vacío significa permitir
// la navegación sin cambios.
type Decision struct {
	RedirectTo string
}

// Allowed indica si la navegación sigue a su destino original.
func (d Decision) Allowed() bool { return d.RedirectTo == "" }

// Gatekeeper evalúa rutas contra el session manager.
type Gatekeeper struct {
	sessions  *session.Manager
	loginPath string
	homePath  string
}

// New crea un Gatekeeper. loginPath es el entry point de login; homePath la
// landing autenticada por defecto.
func New(sessions *session.Manager, loginPath, homePath string) *Gatekeeper {
	return &Gatekeeper{sessions: sessions, loginPath: loginPath, homePath: homePath}
}

// Decide resuelve la navegación hacia route.
//
// Si la sesión está en LOADING, la decisión se suspende hasta que la señal
// de readiness resuelva (sin timeout propio: un provider que nunca contesta
// deja la navegación colgada, riesgo aceptado de la dependencia externa).
func (g *Gatekeeper) Decide(ctx context.Context, route Route) (Decision, error) {
	if g.sessions.Status() == session.StatusLoading {
		if err := g.sessions.WaitReady(ctx); err != nil {
			return Decision{}, err
		}
	}

	authed := g.sessions.Status() == session.StatusAuthed
	log := logger.From(ctx).With(logger.Component("nav"), logger.Route(route.Path))

	switch {
	case route.RequiresAuth && !authed:
		log.Debug("redirecting to login")
		return Decision{RedirectTo: g.loginPath}, nil
	case !route.RequiresAuth && authed && route.Path == g.loginPath:
		log.Debug("already authenticated, redirecting home")
		return Decision{RedirectTo: g.homePath}, nil
	default:
		return Decision{}, nil
	}
}

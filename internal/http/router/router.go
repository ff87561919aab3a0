// Package router define las rutas HTTP de la aplicación.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ctrl "github.com/dropDatabas3/linkgate/internal/http/controllers/auth"
	mw "github.com/dropDatabas3/linkgate/internal/http/middlewares"
	"github.com/dropDatabas3/linkgate/internal/nav"
	"github.com/dropDatabas3/linkgate/internal/rate"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Controllers *ctrl.Controllers
	Gatekeeper  *nav.Gatekeeper

	// Limiters por endpoint; nil desactiva el rate limit de ese endpoint.
	LoginLimiter    rate.Limiter
	RegisterLimiter rate.Limiter
}

// New arma el router completo: API de auth, rutas de página con guard,
// health y métricas.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(mw.WithLogger)
	r.Use(mw.Recover)

	// API de autenticación. Sin guard: login/register/logout tienen que ser
	// alcanzables sin sesión.
	r.Route("/api/auth", func(r chi.Router) {
		c := deps.Controllers
		r.With(mw.RateLimit(deps.RegisterLimiter, "register")).
			Post("/register", c.Register.Register)
		r.With(mw.RateLimit(deps.LoginLimiter, "login")).
			Post("/login", c.Login.Login)
		r.Post("/login/sso", c.Login.LoginSSO)
		r.Post("/logout", c.Logout.Logout)
		r.Get("/session", c.Session.Session)
		r.Get("/provider-hint", c.Login.ProviderHint)
		r.Get("/pending-credential", c.Session.PendingCredential)
		r.Delete("/pending-credential", c.Session.ClearPendingCredential)
	})

	// Rutas de página: el contenido real lo renderiza el frontend; acá solo
	// importa la decisión del guard sobre el flag requiresAuth.
	r.Group(func(r chi.Router) {
		r.Use(mw.NavGuard(deps.Gatekeeper))
		for _, route := range nav.Routes {
			r.Get(route.Path, pageHandler(route))
		}
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, nav.PathHome, http.StatusFound)
		})
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func pageHandler(route nav.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"page":"` + route.Path + `"}`))
	}
}

package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/linkgate/internal/nav"
)

// NavGuard aplica el Navigation Gatekeeper a las rutas de página.
//
// Para paths declarados en la tabla de rutas, la decisión puede suspenderse
// mientras la sesión está en LOADING; el request queda bloqueado hasta la
// primera determinación de estado (o hasta que el cliente corte el request).
// Paths fuera de la tabla pasan sin guard.
func NavGuard(g *nav.Gatekeeper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, ok := nav.Lookup(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := g.Decide(r.Context(), route)
			if err != nil {
				// Contexto cancelado mientras la decisión estaba suspendida.
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			if !decision.Allowed() {
				http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

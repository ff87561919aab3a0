// Package middlewares contiene los middlewares HTTP de la aplicación.
package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dropDatabas3/linkgate/internal/observability/logger"
)

// WithLogger inyecta un logger scoped al request en el contexto, con
// request_id, método y path. Los controllers lo recuperan con logger.From.
func WithLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logger.With(
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(logger.ToContext(r.Context(), l)))
	})
}

// Recover traduce panics a 500 sin tirar el proceso.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic recovered", logger.Any("panic", rec))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

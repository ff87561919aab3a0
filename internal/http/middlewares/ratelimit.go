package middlewares

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	httperrors "github.com/dropDatabas3/linkgate/internal/http/errors"
	"github.com/dropDatabas3/linkgate/internal/observability/logger"
	"github.com/dropDatabas3/linkgate/internal/rate"
)

// RateLimit limita por IP los endpoints de credenciales. scope distingue el
// contador ("login", "register") para que un flujo no consuma la ventana del
// otro. Si el limiter falla (redis caído) el request pasa: fail-open, el
// provider sigue siendo la última línea.
func RateLimit(l rate.Limiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := scope + ":" + clientIP(r)
			res, err := l.Allow(r.Context(), key)
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			setRateHeaders(w, res)
			if !res.Allowed {
				httperrors.WriteError(w, httperrors.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func setRateHeaders(w http.ResponseWriter, res rate.Result) {
	w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
	if res.WindowTTL > 0 {
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(res.WindowTTL).Unix()))
	}
	if res.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter.Seconds())))
	}
}

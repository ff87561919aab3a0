package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. Standalone package para evitar ciclos de
// import entre gateway, session y HTTP.

var (
	AuthAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Intentos de autenticación por operación, provider y resultado",
	}, []string{"op", "provider", "outcome"})

	LinkingConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_linking_conflicts_total",
		Help: "Conflictos account-exists-with-different-credential durante SSO",
	})

	SessionState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "session_state",
		Help: "Estado actual de la sesión (1 en el estado activo, 0 en el resto)",
	}, []string{"state"})

	ProfileLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "profile_loads_total",
		Help: "Materializaciones de perfil por resultado",
	}, []string{"outcome"})
)

// Outcomes estándar para los counters.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// RegisterAuth registers the auth metrics on the given registry (or default if nil).
func RegisterAuth(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{AuthAttempts, LinkingConflicts, SessionState, ProfileLoads} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

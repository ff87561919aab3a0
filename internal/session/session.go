// Package session implementa la máquina de estados de sesión.
//
// El Manager es el único suscriptor del stream de cambios del identity
// provider y el único writer de status/principal/profile. Se construye una
// vez al startup y se inyecta explícitamente a los consumidores (guard,
// controllers); no hay singleton implícito.
//
// Estados: LOADING → AUTHED | UNAUTHED, con round-trips libres
// AUTHED ↔ UNAUTHED en ciclos login/logout. LOADING nunca se re-entra.
package session

import (
	"context"
	"sync"

	"github.com/dropDatabas3/linkgate/internal/idp"
	"github.com/dropDatabas3/linkgate/internal/metrics"
	"github.com/dropDatabas3/linkgate/internal/observability/logger"
	"github.com/dropDatabas3/linkgate/internal/profile"
	"github.com/dropDatabas3/linkgate/internal/provider"
)

// Status es el estado de la sesión. Exactamente un valor activo a la vez;
// solo el Manager lo transiciona.
type Status string

const (
	// StatusLoading es el estado inicial, hasta la primera notificación.
	StatusLoading Status = "LOADING"
	// StatusAuthed indica principal presente.
	StatusAuthed Status = "AUTHED"
	// StatusUnauthed indica que no hay principal.
	StatusUnauthed Status = "UNAUTHED"
)

// ProfileLoader materializa el perfil al autenticar. Lo implementa
// profile.Service; interface para poder inyectar fakes en tests.
type ProfileLoader interface {
	GetOrCreate(ctx context.Context, uid, email, displayName, providerTag string) (*profile.UserProfile, error)
}

// Snapshot es una vista consistente del estado de sesión.
type Snapshot struct {
	Status    Status
	Principal *idp.Principal
	Profile   *profile.UserProfile
	Err       string
}

// Manager observa el stream del provider y mantiene el estado de sesión.
type Manager struct {
	mu        sync.RWMutex
	status    Status
	principal *idp.Principal
	profile   *profile.UserProfile
	lastErr   string

	ready     chan struct{}
	readyOnce sync.Once

	profiles ProfileLoader
	loads    sync.WaitGroup

	stop chan struct{}
	done chan struct{}
}

// New crea un Manager en LOADING, todavía sin suscribir.
func New(profiles ProfileLoader) *Manager {
	return &Manager{
		status:   StatusLoading,
		profiles: profiles,
		ready:    make(chan struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start suscribe el Manager al stream de cambios. Exactamente una llamada
// por proceso; el goroutine drena el canal hasta Stop o hasta que el
// provider lo cierre.
func (m *Manager) Start(changes <-chan idp.StateChange) {
	go func() {
		defer close(m.done)
		for {
			select {
			case <-m.stop:
				return
			case sc, ok := <-changes:
				if !ok {
					return
				}
				m.apply(sc)
			}
		}
	}()
}

// Stop termina el goroutine de suscripción y espera los profile loads
// in-flight. Parte del teardown de la aplicación.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
	m.loads.Wait()
}

// apply procesa una notificación del provider.
func (m *Manager) apply(sc idp.StateChange) {
	log := logger.Named("session")

	if sc.Err != nil {
		// Falla del canal de suscripción: estado degradado pero definido.
		// La señal de readiness igual se resuelve para que la app no cuelgue.
		m.mu.Lock()
		m.status = StatusUnauthed
		m.principal = nil
		m.profile = nil
		m.lastErr = sc.Err.Error()
		m.mu.Unlock()

		log.Warn("state subscription error", logger.Err(sc.Err))
		m.setStateGauge(StatusUnauthed)
		m.resolveReady()
		return
	}

	m.mu.Lock()
	m.principal = sc.Principal
	if sc.Principal != nil {
		m.status = StatusAuthed
	} else {
		m.status = StatusUnauthed
		m.profile = nil
	}
	m.lastErr = ""
	status := m.status
	m.mu.Unlock()

	m.setStateGauge(status)

	if sc.Principal != nil {
		pr := *sc.Principal
		m.loads.Add(1)
		go func() {
			defer m.loads.Done()
			m.loadProfile(pr)
		}()
	}

	m.resolveReady()
}

// loadProfile materializa el perfil del principal. El tag de provider se
// defaultea al tag password, independientemente del provider usado en el
// login actual. Fallas se loguean y dejan el perfil anterior intacto: un
// perfil ausente no bloquea la autenticación.
func (m *Manager) loadProfile(pr idp.Principal) {
	log := logger.Named("session").With(logger.UID(pr.UID))

	p, err := m.profiles.GetOrCreate(context.Background(), pr.UID, pr.Email, pr.DisplayName, string(provider.Password))
	if err != nil {
		log.Warn("profile load failed, keeping previous profile", logger.Err(err))
		metrics.ProfileLoads.WithLabelValues(metrics.OutcomeError).Inc()
		return
	}
	metrics.ProfileLoads.WithLabelValues(metrics.OutcomeOK).Inc()

	m.mu.Lock()
	// Una notificación posterior pudo cambiar el principal mientras el load
	// estaba in-flight; un perfil stale no debe pisar el estado actual.
	if m.principal != nil && m.principal.UID == pr.UID {
		m.profile = p
	}
	m.mu.Unlock()
}

// resolveReady resuelve la señal one-shot de readiness. Solo la primera
// determinación de estado tiene efecto.
func (m *Manager) resolveReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

// Ready retorna el canal de readiness. Se cierra exactamente una vez, en la
// primera notificación (o falla de suscripción); múltiples awaiters
// concurrentes se destraban juntos.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// WaitReady bloquea hasta la primera determinación de estado o hasta que el
// contexto se cancele.
func (m *Manager) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot retorna una vista consistente del estado.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Status:    m.status,
		Principal: m.principal,
		Profile:   m.profile,
		Err:       m.lastErr,
	}
}

// Status retorna el estado actual.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// SetError registra un mensaje de error de login/register para los
// consumidores de UI. Usado solo por los wrappers del gateway.
func (m *Manager) SetError(msg string) {
	m.mu.Lock()
	m.lastErr = msg
	m.mu.Unlock()
}

// Reset fuerza UNAUTHED y limpia principal, perfil y error. Se usa tras la
// confirmación de un logout explícito, para no esperar el round-trip de la
// notificación asíncrona.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.status = StatusUnauthed
	m.principal = nil
	m.profile = nil
	m.lastErr = ""
	m.mu.Unlock()
	m.setStateGauge(StatusUnauthed)
}

func (m *Manager) setStateGauge(active Status) {
	for _, s := range []Status{StatusLoading, StatusAuthed, StatusUnauthed} {
		v := 0.0
		if s == active {
			v = 1.0
		}
		metrics.SessionState.WithLabelValues(string(s)).Set(v)
	}
}

// Package gateway envuelve las llamadas al identity provider externo y
// normaliza resultados y errores. Es dueño del protocolo de pending
// credential usado durante los conflictos de account-linking.
//
// Contrato lateral: las operaciones mutadoras son fire-and-forget respecto
// al estado de sesión. No actualizan SessionStatus; solo disparan la
// notificación asíncrona del provider, que el session manager observa.
package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dropDatabas3/linkgate/internal/cache"
	"github.com/dropDatabas3/linkgate/internal/idp"
	"github.com/dropDatabas3/linkgate/internal/metrics"
	"github.com/dropDatabas3/linkgate/internal/observability/logger"
	"github.com/dropDatabas3/linkgate/internal/provider"
)

// pendingCredentialKey es el slot único de pending credential. Solo puede
// existir uno a la vez: un conflicto nuevo pisa al anterior.
const pendingCredentialKey = "auth:pending_credential"

// enterpriseScopes son los scopes mínimos de perfil para el consent SSO.
var enterpriseScopes = []string{"User.Read"}

// PendingCredential es el registro transitorio de un conflicto de linking
// interrumpido. Solo metadata: la credencial OAuth original no sobrevive al
// round-trip y el replay completo requiere soporte del provider.
type PendingCredential struct {
	Provider string `json:"provider"`
	Email    string `json:"email"`
}

// Options parametriza el Gateway.
type Options struct {
	// Tenant restringe el tenant enterprise del consent SSO.
	// Vacío equivale a "common" (cualquier tenant).
	Tenant string
	// PendingTTL limita la vida del pending credential en el slot.
	// 0 = sin expiración (la sesión del cliente acota la vida real).
	PendingTTL time.Duration
}

// Gateway media entre la aplicación y el identity provider.
type Gateway struct {
	idp     idp.Provider
	slot    cache.Client
	tenant  string
	pending time.Duration
}

// New crea un Gateway.
func New(p idp.Provider, slot cache.Client, opts Options) *Gateway {
	tenant := opts.Tenant
	if tenant == "" {
		tenant = "common"
	}
	return &Gateway{idp: p, slot: slot, tenant: tenant, pending: opts.PendingTTL}
}

// Register crea una cuenta nueva con el provider.
// En fallas del provider (email en uso, password débil) retorna el error con
// el mensaje legible; el caller decide cómo exponerlo.
func (g *Gateway) Register(ctx context.Context, email, password string) (*idp.Principal, error) {
	log := logger.From(ctx).With(logger.Layer("gateway"), logger.Op("Register"))

	principal, err := g.idp.CreateAccount(ctx, email, password)
	if err != nil {
		log.Debug("register rejected", logger.Err(err))
		metrics.AuthAttempts.WithLabelValues("register", string(provider.Password), metrics.OutcomeRejected).Inc()
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("register", string(provider.Password), metrics.OutcomeOK).Inc()
	return principal, nil
}

// LoginPassword verifica credenciales con el provider.
// Credencial inválida y usuario inexistente llegan como el mismo mensaje
// para no permitir account enumeration en esta capa.
func (g *Gateway) LoginPassword(ctx context.Context, email, password string) (*idp.Principal, error) {
	log := logger.From(ctx).With(logger.Layer("gateway"), logger.Op("LoginPassword"))

	principal, err := g.idp.VerifyPassword(ctx, email, password)
	if err != nil {
		log.Debug("password login rejected", logger.Err(err))
		metrics.AuthAttempts.WithLabelValues("login", string(provider.Password), metrics.OutcomeRejected).Inc()
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("login", string(provider.Password), metrics.OutcomeOK).Inc()
	return principal, nil
}

// LoginEnterpriseSSO abre el flujo interactivo de consent del provider
// enterprise fijo (Microsoft) con scope mínimo de perfil y la restricción
// de tenant configurada.
//
// Protocolo de conflicto: si el provider reporta que la cuenta ya existe
// bajo otra credencial, se persiste PendingCredential{provider, email} en el
// slot de sesión ANTES de retornar el error. Un paso de linking posterior
// puede retomar con ese email sin que el usuario re-descubra el provider.
func (g *Gateway) LoginEnterpriseSSO(ctx context.Context) (*idp.Principal, error) {
	log := logger.From(ctx).With(logger.Layer("gateway"), logger.Op("LoginEnterpriseSSO"))

	principal, err := g.idp.InteractiveConsent(ctx, idp.ConsentRequest{
		Provider: string(provider.Microsoft),
		Scopes:   enterpriseScopes,
		Tenant:   g.tenant,
	})
	if err != nil {
		if pe := idp.AsError(err); pe != nil && pe.Code == idp.CodeAccountExists && pe.ConflictingEmail != "" {
			g.savePendingCredential(ctx, PendingCredential{
				Provider: string(provider.Microsoft),
				Email:    pe.ConflictingEmail,
			})
			metrics.LinkingConflicts.Inc()
			metrics.AuthAttempts.WithLabelValues("login", string(provider.Microsoft), metrics.OutcomeConflict).Inc()
			log.Info("sso conflict, pending credential saved", logger.Email(pe.ConflictingEmail))
			return nil, err
		}
		log.Debug("sso login rejected", logger.Err(err))
		metrics.AuthAttempts.WithLabelValues("login", string(provider.Microsoft), metrics.OutcomeRejected).Inc()
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("login", string(provider.Microsoft), metrics.OutcomeOK).Inc()
	return principal, nil
}

// Logout limpia el pending credential incondicionalmente y cierra la sesión
// en el provider. La limpieza ocurre ANTES de la llamada al provider y no se
// revierte si el logout falla: un logout a medias no debe dejar un artefacto
// de conflicto cross-provider colgado.
func (g *Gateway) Logout(ctx context.Context) error {
	g.ClearPendingCredential(ctx)

	if err := g.idp.EndSession(ctx); err != nil {
		logger.From(ctx).Warn("provider logout failed",
			logger.Layer("gateway"), logger.Op("Logout"), logger.Err(err))
		metrics.AuthAttempts.WithLabelValues("logout", "", metrics.OutcomeError).Inc()
		return err
	}
	metrics.AuthAttempts.WithLabelValues("logout", "", metrics.OutcomeOK).Inc()
	return nil
}

// savePendingCredential persiste el registro en el slot, pisando cualquier
// pending anterior. Fallas de storage se loguean y se tragan: es un recovery
// aid best-effort, no puede bloquear el flujo de login.
func (g *Gateway) savePendingCredential(ctx context.Context, pc PendingCredential) {
	raw, err := json.Marshal(pc)
	if err != nil {
		logger.From(ctx).Error("pending credential marshal failed", logger.Err(err))
		return
	}
	if err := g.slot.Set(ctx, pendingCredentialKey, string(raw), g.pending); err != nil {
		logger.From(ctx).Warn("pending credential save failed", logger.Err(err))
	}
}

// PendingCredential lee el slot de sesión. Retorna nil en ausencia o
// contenido malformado (se loguea, no se propaga).
func (g *Gateway) PendingCredential(ctx context.Context) *PendingCredential {
	raw, err := g.slot.Get(ctx, pendingCredentialKey)
	if err != nil {
		if !cache.IsNotFound(err) {
			logger.From(ctx).Warn("pending credential read failed", logger.Err(err))
		}
		return nil
	}
	var pc PendingCredential
	if err := json.Unmarshal([]byte(raw), &pc); err != nil {
		logger.From(ctx).Warn("pending credential malformed, ignoring", logger.Err(err))
		return nil
	}
	return &pc
}

// ClearPendingCredential vacía el slot. Idempotente.
func (g *Gateway) ClearPendingCredential(ctx context.Context) {
	if err := g.slot.Delete(ctx, pendingCredentialKey); err != nil {
		logger.From(ctx).Warn("pending credential clear failed", logger.Err(err))
	}
}

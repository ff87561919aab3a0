// Package idp define el contrato con el identity provider externo.
//
// El provider es dueño de las credenciales, los tokens y el flujo interactivo
// de consent; este paquete solo normaliza resultados y errores. Las
// implementaciones viven en subpaquetes (rest, local).
package idp

import (
	"context"
	"fmt"
)

// Principal es el handle de identidad retornado por el provider.
// Es propiedad del provider; los consumidores guardan referencias no-owning.
type Principal struct {
	UID         string
	Email       string
	DisplayName string
}

// StateChange es una notificación del stream de cambios de sesión.
// Principal es nil cuando no hay sesión activa. Err se setea solo en
// fallas del canal de suscripción, no en logins fallidos.
type StateChange struct {
	Principal *Principal
	Err       error
}

// ConsentRequest parametriza el flujo interactivo de consent SSO.
type ConsentRequest struct {
	// Provider es el tag del provider enterprise (ej: "microsoft").
	Provider string
	// Scopes mínimos de perfil a solicitar.
	Scopes []string
	// Tenant restringe el tenant enterprise. "common" acepta cualquiera.
	Tenant string
}

// Provider es el contrato con la plataforma de identidad externa.
//
// Las operaciones mutadoras son fire-and-forget respecto al estado de sesión:
// no actualizan nada localmente, solo disparan una notificación asíncrona en
// StateChanges que el session manager observa.
type Provider interface {
	// CreateAccount registra una cuenta nueva con email y password.
	CreateAccount(ctx context.Context, email, password string) (*Principal, error)

	// VerifyPassword valida credenciales y abre sesión.
	VerifyPassword(ctx context.Context, email, password string) (*Principal, error)

	// InteractiveConsent abre el flujo de consent del provider enterprise.
	// En conflicto cuenta-existente retorna un *Error con código
	// CodeAccountExists y el email en conflicto.
	InteractiveConsent(ctx context.Context, req ConsentRequest) (*Principal, error)

	// EndSession cierra la sesión en el provider.
	EndSession(ctx context.Context) error

	// StateChanges retorna el stream de notificaciones de estado.
	// Emite al menos una vez al inicio con el estado actual, y de nuevo en
	// cada login/logout. Exactamente un suscriptor persistente lo consume.
	StateChanges() <-chan StateChange
}

// Códigos de error del provider.
const (
	// CodeInvalidCredentials cubre password inválido y usuario inexistente.
	// No se distingue para evitar account enumeration.
	CodeInvalidCredentials = "auth/invalid-credentials"
	// CodeEmailInUse indica que el email ya tiene cuenta.
	CodeEmailInUse = "auth/email-already-in-use"
	// CodeWeakPassword indica que el password no cumple la política.
	CodeWeakPassword = "auth/weak-password"
	// CodeAccountExists indica conflicto: la cuenta ya existe bajo otra
	// credencial. Dispara el protocolo de pending credential.
	CodeAccountExists = "auth/account-exists-with-different-credential"
	// CodePopupClosed indica que el usuario cerró el consent sin completar.
	CodePopupClosed = "auth/popup-closed-by-user"
)

// Error es un rechazo del provider con código estable y mensaje legible.
type Error struct {
	Code    string
	Message string
	// ConflictingEmail se setea solo con CodeAccountExists.
	ConflictingEmail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError crea un Error del provider.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// AsError extrae un *Error si err lo es; nil en caso contrario.
func AsError(err error) *Error {
	if pe, ok := err.(*Error); ok {
		return pe
	}
	return nil
}

// IsConflict indica si err es el conflicto cuenta-existente.
func IsConflict(err error) bool {
	pe := AsError(err)
	return pe != nil && pe.Code == CodeAccountExists
}

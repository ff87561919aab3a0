// Package auth define los DTOs del surface HTTP de autenticación.
package auth

// RegisterRequest es el body de POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest es el body de POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PrincipalDTO es la vista pública del principal.
type PrincipalDTO struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// AuthResult es el resultado uniforme de register/login: exactamente uno de
// Principal o Error es no-vacío.
type AuthResult struct {
	Principal *PrincipalDTO `json:"principal"`
	Error     string        `json:"error,omitempty"`
}

// ProviderHint es la respuesta de GET /api/auth/provider-hint.
type ProviderHint struct {
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName"`
	Enterprise  bool   `json:"enterprise"`
}

// SessionDTO es la vista del estado de sesión para la UI.
type SessionDTO struct {
	Status    string        `json:"status"`
	Principal *PrincipalDTO `json:"principal"`
	Profile   any           `json:"profile"`
	Error     string        `json:"error,omitempty"`
}

// PendingCredentialDTO es la metadata del conflicto de linking interrumpido.
type PendingCredentialDTO struct {
	Provider string `json:"provider"`
	Email    string `json:"email"`
}

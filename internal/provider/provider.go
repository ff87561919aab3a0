// Package provider resuelve el identity provider sugerido a partir del
// dominio del email. Es una tabla estática en memoria; no hace I/O.
//
// Extension point: la tabla puede moverse al document store para
// configuración dinámica en producción.
package provider

import "strings"

// Tag identifica un identity provider soportado.
type Tag string

const (
	// Microsoft es el provider enterprise (Entra ID / Azure AD).
	Microsoft Tag = "microsoft"
	// Google es el provider consumer de Google.
	Google Tag = "google"
	// None indica login con email/password (sin SSO).
	None Tag = "none"
	// Password es el tag persistido en el perfil para cuentas email/password.
	Password Tag = "password"
)

// defaultDomainMap mapea dominios (lowercase) a su provider asociado.
var defaultDomainMap = map[string]Tag{
	// Dominios asociados a Microsoft
	"microsoft.com":           Microsoft,
	"contoso.com":             Microsoft,
	"contoso.onmicrosoft.com": Microsoft,
	// Dominios asociados a Google (ejemplo)
	"gmail.com":      Google,
	"googlemail.com": Google,
}

// Router resuelve provider tags desde emails. Inmutable después de New.
type Router struct {
	domains map[string]Tag
}

// New crea un Router con la tabla default más las entradas extra dadas.
// Las keys de extra se normalizan a lowercase; un tag desconocido se ignora.
func New(extra map[string]string) *Router {
	m := make(map[string]Tag, len(defaultDomainMap)+len(extra))
	for d, t := range defaultDomainMap {
		m[d] = t
	}
	for d, t := range extra {
		switch Tag(t) {
		case Microsoft, Google:
			m[strings.ToLower(strings.TrimSpace(d))] = Tag(t)
		}
	}
	return &Router{domains: m}
}

// Detect retorna el provider sugerido para un email.
// Función total: todo input mapea a exactamente un tag, posiblemente None.
func (r *Router) Detect(email string) Tag {
	_, domain, ok := strings.Cut(strings.ToLower(email), "@")
	if !ok || domain == "" {
		return None
	}
	if tag, ok := r.domains[domain]; ok {
		return tag
	}
	return None
}

// IsEnterprise indica si el dominio del email sugiere SSO corporativo.
func (r *Router) IsEnterprise(email string) bool {
	return r.Detect(email) != None
}

// DisplayName retorna el nombre legible de un provider tag.
// Tag es una enumeración cerrada; un tag desconocido es un bug del caller.
func DisplayName(tag Tag) string {
	switch tag {
	case Microsoft:
		return "Microsoft"
	case Google:
		return "Google"
	case None, Password:
		return "Email/Password"
	default:
		return "Email/Password"
	}
}

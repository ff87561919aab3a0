// Package validation contiene las reglas locales de formato para
// credenciales. Son chequeos previos al provider: lo que se rechaza acá
// nunca llega a la red.
package validation

import (
	"regexp"
	"unicode/utf8"
)

// Email rules:
// - local@domain, exactamente un "@".
// - Local: [a-zA-Z0-9._%+-], 1..64.
// - Domain: labels alfanuméricos con "-" interno, al menos un punto, TLD de 2+.
// - No cubre todo RFC 5322 a propósito; el provider es la autoridad final.
//
// Examples valid: ana@contoso.com, dev+test@sub.example.org
// Examples invalid: @x.com, a@b, a b@c.com, a@@b.com
var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]{1,64}@(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

const (
	// PasswordMinLen es el mínimo que acepta la plataforma de identidad;
	// validarlo acá evita el round-trip por WEAK_PASSWORD.
	PasswordMinLen = 6
	PasswordMaxLen = 128
)

// ValidEmail returns true if the address matches the allowed pattern.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ValidPassword returns true if the password length (in runes) is within
// bounds. No hay reglas de composición: largo suficiente es la única regla.
func ValidPassword(password string) bool {
	n := utf8.RuneCountInString(password)
	return n >= PasswordMinLen && n <= PasswordMaxLen
}

package logger

import (
	"go.uber.org/zap"

	"github.com/dropDatabas3/linkgate/internal/util"
)

// =================================================================================
// CAMPOS ESTÁNDAR - IDENTIDAD
// =================================================================================

// UID crea un campo para el uid del principal.
func UID(v string) zap.Field {
	return zap.String("uid", v)
}

// Email crea un campo para el email, enmascarado: los logs nunca llevan la
// dirección completa.
func Email(v string) zap.Field {
	return zap.String("email", util.MaskEmail(v))
}

// Provider crea un campo para el provider tag (microsoft, google, password).
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// SessionState crea un campo para el estado de la sesión.
func SessionState(v string) zap.Field {
	return zap.String("session_state", v)
}

// Route crea un campo para la ruta de navegación.
func Route(v string) zap.Field {
	return zap.String("route", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (controller, service, store).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// =================================================================================
// CAMPOS GENÉRICOS
// =================================================================================

// Key crea un campo genérico para una clave.
func Key(v string) zap.Field {
	return zap.String("key", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

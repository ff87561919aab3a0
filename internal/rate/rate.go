// Package rate implementa rate limiting fixed-window para los endpoints de
// credenciales. La clave típica es "login:<ip>".
package rate

import (
	"context"
	"time"
)

// Result describe el estado de la ventana después de contar el hit.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

// Limiter cuenta hits por clave dentro de una ventana fija.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Package docstore define el contrato con el document store externo.
//
// Los documentos son JSON objects schemaless agrupados en colecciones,
// identificados por id. Adapters en subpaquetes: memory, fs, pg.
package docstore

import (
	"context"
)

// Document es un documento schemaless.
type Document map[string]any

// Store es el contrato con el document store.
type Store interface {
	// Get lee un documento. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, collection, id string) (Document, error)

	// CreateIfAbsent persiste doc solo si el id no existe todavía.
	// Si ya existe, retorna el documento existente SIN modificar
	// (first-write-wins). Retorna el documento vigente en ambos casos.
	CreateIfAbsent(ctx context.Context, collection, id string, doc Document) (Document, error)

	// Merge aplica un partial update sobre el documento. Crea el documento
	// si no existía (merge-write semantics). Los campos no nombrados se
	// preservan.
	Merge(ctx context.Context, collection, id string, fields Document) error

	// Close libera recursos del adapter.
	Close() error
}

// Config configuración para crear un Store.
type Config struct {
	Driver string // "memory" | "fs" | "postgres"
	DSN    string // postgres
	Root   string // fs
}

// ErrNotFound indica que el documento no existe.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "docstore: document not found" }

// IsNotFound verifica si el error es documento inexistente.
func IsNotFound(err error) bool {
	_, ok := err.(errNotFound)
	return ok
}

// Clone copia superficialmente un documento. Los adapters retornan copias
// para que los callers no muten el estado interno.
func Clone(d Document) Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Package pg implementa docstore.Store sobre Postgres.
// Un solo table de documentos JSONB, keyed por (collection, id). El merge
// usa el operador || de jsonb para partial updates server-side.
package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/linkgate/internal/docstore"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ docstore.Store = (*Store)(nil)

// New abre el pool y verifica la conexión.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Schema es el DDL del table de documentos. Se aplica con la herramienta de
// migración del deployment; se expone acá para tests y bootstrap manual.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    doc        JSONB NOT NULL,
    PRIMARY KEY (collection, id)
);`

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	const query = `SELECT doc FROM documents WHERE collection = $1 AND id = $2`

	var raw []byte
	err := s.pool.QueryRow(ctx, query, collection, id).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get: %w", err)
	}

	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("pg: corrupt document %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *Store) CreateIfAbsent(ctx context.Context, collection, id string, doc docstore.Document) (docstore.Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("pg: marshal: %w", err)
	}

	// ON CONFLICT DO NOTHING + RETURNING no retorna la fila existente, así
	// que se resuelve en dos pasos dentro del mismo statement batch.
	const query = `
		INSERT INTO documents (collection, id, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, collection, id, raw); err != nil {
		return nil, fmt.Errorf("pg: create: %w", err)
	}
	return s.Get(ctx, collection, id)
}

func (s *Store) Merge(ctx context.Context, collection, id string, fields docstore.Document) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("pg: marshal: %w", err)
	}

	const query = `
		INSERT INTO documents (collection, id, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET doc = documents.doc || EXCLUDED.doc
	`
	if _, err := s.pool.Exec(ctx, query, collection, id, raw); err != nil {
		return fmt.Errorf("pg: merge: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

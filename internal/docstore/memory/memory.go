// Package memory implementa docstore.Store en memoria.
// Útil para desarrollo y testing.
package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/linkgate/internal/docstore"
)

type Store struct {
	mu   sync.RWMutex
	data map[string]docstore.Document // key: collection + "/" + id
}

var _ docstore.Store = (*Store)(nil)

// New crea un Store vacío.
func New() *Store {
	return &Store{data: make(map[string]docstore.Document)}
}

func key(collection, id string) string { return collection + "/" + id }

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[key(collection, id)]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return docstore.Clone(doc), nil
}

func (s *Store) CreateIfAbsent(ctx context.Context, collection, id string, doc docstore.Document) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(collection, id)
	if existing, ok := s.data[k]; ok {
		return docstore.Clone(existing), nil
	}
	s.data[k] = docstore.Clone(doc)
	return docstore.Clone(doc), nil
}

func (s *Store) Merge(ctx context.Context, collection, id string, fields docstore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(collection, id)
	doc, ok := s.data[k]
	if !ok {
		doc = make(docstore.Document, len(fields))
	}
	for f, v := range fields {
		doc[f] = v
	}
	s.data[k] = doc
	return nil
}

func (s *Store) Close() error { return nil }

// Package fs implementa docstore.Store sobre el filesystem.
// Cada documento es un archivo JSON: <root>/<collection>/<id>.json.
// Escrituras atómicas via atomicwrite; un RWMutex serializa los merges.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dropDatabas3/linkgate/internal/docstore"
	"github.com/dropDatabas3/linkgate/internal/util/atomicwrite"
)

type Store struct {
	root string
	mu   sync.RWMutex
}

var _ docstore.Store = (*Store)(nil)

// New crea un Store con raíz en root. Crea el directorio si no existe.
func New(root string) (*Store, error) {
	if root == "" {
		root = "data"
	}
	info, err := os.Stat(root)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("fs: root path error: %w", err)
		}
		if mkErr := os.MkdirAll(root, 0755); mkErr != nil {
			return nil, fmt.Errorf("fs: failed to create root path %s: %w", root, mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("fs: root path is not a directory: %s", root)
	}
	return &Store{root: root}, nil
}

// path resuelve el archivo del documento, rechazando ids con traversal.
func (s *Store) path(collection, id string) (string, error) {
	if strings.ContainsAny(collection+id, `/\`) || id == "" || collection == "" {
		return "", fmt.Errorf("fs: invalid document key %s/%s", collection, id)
	}
	return filepath.Join(s.root, collection, id+".json"), nil
}

func (s *Store) read(path string) (docstore.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("fs: read: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("fs: corrupt document %s: %w", path, err)
	}
	return doc, nil
}

func (s *Store) write(path string, doc docstore.Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("fs: marshal: %w", err)
	}
	return atomicwrite.AtomicWriteFile(path, raw, 0644)
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	p, err := s.path(collection, id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(p)
}

func (s *Store) CreateIfAbsent(ctx context.Context, collection, id string, doc docstore.Document) (docstore.Document, error) {
	p, err := s.path(collection, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.read(p); err == nil {
		return existing, nil
	} else if !docstore.IsNotFound(err) {
		return nil, err
	}
	if err := s.write(p, doc); err != nil {
		return nil, err
	}
	return docstore.Clone(doc), nil
}

func (s *Store) Merge(ctx context.Context, collection, id string, fields docstore.Document) error {
	p, err := s.path(collection, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(p)
	if err != nil {
		if !docstore.IsNotFound(err) {
			return err
		}
		doc = make(docstore.Document, len(fields))
	}
	for f, v := range fields {
		doc[f] = v
	}
	return s.write(p, doc)
}

func (s *Store) Close() error { return nil }

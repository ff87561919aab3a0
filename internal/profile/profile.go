// Package profile materializa el perfil de usuario en el document store.
//
// El perfil es un documento propio de la aplicación, separado del registro
// de identidad del provider. Política first-write-wins: una vez creado, los
// campos no se refrescan desde el provider; solo Update los muta.
package profile

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/linkgate/internal/docstore"
	"github.com/dropDatabas3/linkgate/internal/observability/logger"
)

// Collection es la colección de perfiles en el document store.
const Collection = "users"

// UserProfile es el documento de perfil por uid.
type UserProfile struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	Provider    string    `json:"provider"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Service lee y escribe perfiles sobre un docstore.Store.
type Service struct {
	store docstore.Store
	sf    singleflight.Group
	now   func() time.Time
}

// New crea un Service.
func New(store docstore.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// GetOrCreate retorna el perfil del uid, creándolo si no existe.
//
// Si el documento ya existe se retorna tal cual, sin merge: email y
// displayName NO se refrescan aunque hayan cambiado en el provider
// (first-write-wins). En la creación, roles arranca en {"user"} y ambos
// timestamps en el mismo instante.
//
// Llamadas concurrentes para el mismo uid se colapsan en una sola via
// singleflight; el docstore igual garantiza creación única.
func (s *Service) GetOrCreate(ctx context.Context, uid, email, displayName, providerTag string) (*UserProfile, error) {
	v, err, _ := s.sf.Do(uid, func() (any, error) {
		return s.getOrCreate(ctx, uid, email, displayName, providerTag)
	})
	if err != nil {
		return nil, err
	}
	return v.(*UserProfile), nil
}

func (s *Service) getOrCreate(ctx context.Context, uid, email, displayName, providerTag string) (*UserProfile, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("profile"), logger.UID(uid))

	now := s.now().UTC()
	fresh := &UserProfile{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		Provider:    providerTag,
		Roles:       []string{"user"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	doc, err := s.store.CreateIfAbsent(ctx, Collection, uid, toDocument(fresh))
	if err != nil {
		log.Warn("profile create-or-read failed", logger.Err(err))
		return nil, err
	}

	p := fromDocument(doc)
	return p, nil
}

// Update aplica un partial update sobre el perfil y refresca updatedAt.
// No falla si el documento no existía: merge-write lo crea.
func (s *Service) Update(ctx context.Context, uid string, fields map[string]any) error {
	merged := make(docstore.Document, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["updatedAt"] = s.now().UTC().Format(time.RFC3339Nano)

	if err := s.store.Merge(ctx, Collection, uid, merged); err != nil {
		logger.From(ctx).Warn("profile update failed",
			logger.Component("profile"), logger.UID(uid), logger.Err(err))
		return err
	}
	return nil
}

// toDocument serializa el perfil al shape schemaless del docstore.
func toDocument(p *UserProfile) docstore.Document {
	roles := make([]any, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = r
	}
	return docstore.Document{
		"uid":         p.UID,
		"email":       p.Email,
		"displayName": p.DisplayName,
		"provider":    p.Provider,
		"roles":       roles,
		"createdAt":   p.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt":   p.UpdatedAt.Format(time.RFC3339Nano),
	}
}

// fromDocument deserializa con tolerancia: campos faltantes quedan en cero.
func fromDocument(doc docstore.Document) *UserProfile {
	p := &UserProfile{
		UID:         str(doc["uid"]),
		Email:       str(doc["email"]),
		DisplayName: str(doc["displayName"]),
		Provider:    str(doc["provider"]),
	}
	if raw, ok := doc["roles"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				p.Roles = append(p.Roles, s)
			}
		}
	}
	p.CreatedAt = ts(doc["createdAt"])
	p.UpdatedAt = ts(doc["updatedAt"])
	return p
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func ts(v any) time.Time {
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err == nil {
			return parsed
		}
	case time.Time:
		return t
	}
	return time.Time{}
}

// Package local implementa un identity provider en memoria.
//
// Pensado para desarrollo y tests: passwords con bcrypt, uids con uuid,
// y un stream de cambios de estado igual al de la plataforma real. El flujo
// interactivo de consent se scriptea con SetConsentResult porque no hay
// browser en el que abrir un popup.
package local

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/linkgate/internal/idp"
)

const minPasswordLen = 6

type account struct {
	principal idp.Principal
	hash      []byte
	// providers vinculados a la cuenta ("password", "microsoft", ...)
	providers []string
}

// Provider es un idp.Provider en memoria.
type Provider struct {
	mu       sync.Mutex
	accounts map[string]*account // key: email lowercase
	current  *idp.Principal
	changes  chan idp.StateChange

	// resultado scripteado para el próximo InteractiveConsent
	consentEmail string
	consentName  string
}

var _ idp.Provider = (*Provider)(nil)

// New crea el provider y emite la notificación inicial (sin sesión).
func New() *Provider {
	p := &Provider{
		accounts: make(map[string]*account),
		changes:  make(chan idp.StateChange, 16),
	}
	p.emit(idp.StateChange{})
	return p
}

func (p *Provider) emit(sc idp.StateChange) {
	select {
	case p.changes <- sc:
	default:
		// Sin consumidor: se descarta. El único suscriptor (session manager)
		// drena el canal de forma continua.
	}
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*idp.Principal, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if len(password) < minPasswordLen {
		return nil, idp.NewError(idp.CodeWeakPassword, "Password should be at least 6 characters")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[email]; exists {
		return nil, idp.NewError(idp.CodeEmailInUse, "The email address is already in use by another account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, idp.NewError(idp.CodeWeakPassword, "Password could not be processed")
	}

	acc := &account{
		principal: idp.Principal{UID: uuid.NewString(), Email: email},
		hash:      hash,
		providers: []string{"password"},
	}
	p.accounts[email] = acc

	pr := acc.principal
	p.current = &pr
	p.emit(idp.StateChange{Principal: &pr})
	return &pr, nil
}

func (p *Provider) VerifyPassword(ctx context.Context, email, password string) (*idp.Principal, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[email]
	if !ok || acc.hash == nil {
		return nil, idp.NewError(idp.CodeInvalidCredentials, "Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return nil, idp.NewError(idp.CodeInvalidCredentials, "Invalid email or password")
	}

	pr := acc.principal
	p.current = &pr
	p.emit(idp.StateChange{Principal: &pr})
	return &pr, nil
}

// SetConsentResult scriptea la identidad que retornará el próximo
// InteractiveConsent, como si el usuario completara el popup con ese email.
func (p *Provider) SetConsentResult(email, displayName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consentEmail = strings.TrimSpace(strings.ToLower(email))
	p.consentName = displayName
}

func (p *Provider) InteractiveConsent(ctx context.Context, req idp.ConsentRequest) (*idp.Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.consentEmail == "" {
		return nil, idp.NewError(idp.CodePopupClosed, "The popup has been closed by the user before finalizing the operation")
	}
	email := p.consentEmail

	if acc, exists := p.accounts[email]; exists && !hasProvider(acc, req.Provider) {
		// La cuenta existe bajo otra credencial: conflicto de linking.
		return nil, &idp.Error{
			Code:             idp.CodeAccountExists,
			Message:          "An account already exists with the same email address but different sign-in credentials",
			ConflictingEmail: email,
		}
	}

	acc, exists := p.accounts[email]
	if !exists {
		acc = &account{
			principal: idp.Principal{UID: uuid.NewString(), Email: email, DisplayName: p.consentName},
			providers: []string{req.Provider},
		}
		p.accounts[email] = acc
	}

	pr := acc.principal
	p.current = &pr
	p.emit(idp.StateChange{Principal: &pr})
	return &pr, nil
}

// LinkProvider marca un provider como vinculado a la cuenta del email.
// Simula el paso de account-linking que la plataforma real hace con la
// credencial original.
func (p *Provider) LinkProvider(email, providerTag string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	email = strings.ToLower(email)
	if acc, ok := p.accounts[email]; ok && !hasProvider(acc, providerTag) {
		acc.providers = append(acc.providers, providerTag)
	}
}

func (p *Provider) EndSession(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	p.emit(idp.StateChange{})
	return nil
}

func (p *Provider) StateChanges() <-chan idp.StateChange {
	return p.changes
}

// FailSubscription inyecta un error de canal de suscripción, para tests.
func (p *Provider) FailSubscription(err error) {
	p.emit(idp.StateChange{Err: err})
}

func hasProvider(acc *account, tag string) bool {
	for _, t := range acc.providers {
		if t == tag {
			return true
		}
	}
	return false
}

package local

import (
	"context"
	"testing"

	"github.com/dropDatabas3/linkgate/internal/idp"
)

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	p := New()
	ctx := context.Background()

	if _, err := p.CreateAccount(ctx, "ana@contoso.com", "secret1"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	_, err := p.CreateAccount(ctx, "Ana@Contoso.com", "other-secret")
	pe := idp.AsError(err)
	if pe == nil || pe.Code != idp.CodeEmailInUse {
		t.Fatalf("expected %s, got %v", idp.CodeEmailInUse, err)
	}
}

func TestCreateAccount_WeakPassword(t *testing.T) {
	p := New()
	_, err := p.CreateAccount(context.Background(), "ana@contoso.com", "12345")
	pe := idp.AsError(err)
	if pe == nil || pe.Code != idp.CodeWeakPassword {
		t.Fatalf("expected %s, got %v", idp.CodeWeakPassword, err)
	}
}

func TestVerifyPassword_SameErrorForUnknownUserAndBadPassword(t *testing.T) {
	p := New()
	ctx := context.Background()
	if _, err := p.CreateAccount(ctx, "ana@contoso.com", "secret1"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	_, errUnknown := p.VerifyPassword(ctx, "nadie@contoso.com", "secret1")
	_, errBadPw := p.VerifyPassword(ctx, "ana@contoso.com", "wrong")

	for _, err := range []error{errUnknown, errBadPw} {
		pe := idp.AsError(err)
		if pe == nil || pe.Code != idp.CodeInvalidCredentials {
			t.Fatalf("expected %s, got %v", idp.CodeInvalidCredentials, err)
		}
	}
	if errUnknown.Error() != errBadPw.Error() {
		t.Fatalf("rejections must be indistinguishable: %q vs %q", errUnknown, errBadPw)
	}
}

func TestInteractiveConsent_PopupClosedWithoutScript(t *testing.T) {
	p := New()
	_, err := p.InteractiveConsent(context.Background(), idp.ConsentRequest{Provider: "microsoft"})
	pe := idp.AsError(err)
	if pe == nil || pe.Code != idp.CodePopupClosed {
		t.Fatalf("expected %s, got %v", idp.CodePopupClosed, err)
	}
}

func TestInteractiveConsent_ConflictThenLink(t *testing.T) {
	p := New()
	ctx := context.Background()

	created, err := p.CreateAccount(ctx, "ana@contoso.com", "secret1")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	p.SetConsentResult("ana@contoso.com", "Ana")
	_, err = p.InteractiveConsent(ctx, idp.ConsentRequest{Provider: "microsoft"})
	if !idp.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if pe := idp.AsError(err); pe.ConflictingEmail != "ana@contoso.com" {
		t.Fatalf("ConflictingEmail = %q", pe.ConflictingEmail)
	}

	// Con el provider vinculado, el mismo consent entra a la cuenta original.
	p.LinkProvider("ana@contoso.com", "microsoft")
	pr, err := p.InteractiveConsent(ctx, idp.ConsentRequest{Provider: "microsoft"})
	if err != nil {
		t.Fatalf("InteractiveConsent after link: %v", err)
	}
	if pr.UID != created.UID {
		t.Fatalf("consent returned uid %q, want original %q", pr.UID, created.UID)
	}
}

func TestStateChanges_LoginAndLogoutEmit(t *testing.T) {
	p := New()
	ctx := context.Background()

	// notificación inicial: sin sesión
	sc := <-p.StateChanges()
	if sc.Principal != nil || sc.Err != nil {
		t.Fatalf("initial change = %+v, want empty", sc)
	}

	pr, err := p.CreateAccount(ctx, "ana@contoso.com", "secret1")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	sc = <-p.StateChanges()
	if sc.Principal == nil || sc.Principal.UID != pr.UID {
		t.Fatalf("change after create = %+v, want principal %q", sc, pr.UID)
	}

	if err := p.EndSession(ctx); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	sc = <-p.StateChanges()
	if sc.Principal != nil {
		t.Fatalf("change after logout = %+v, want empty", sc)
	}
}

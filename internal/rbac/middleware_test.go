package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/odyssey-erp/cashcard/internal/auth"
)

type forbiddenCounter struct{ n int }

func (f *forbiddenCounter) ObserveAuth(outcome string) {
	if outcome == auth.OutcomeForbidden {
		f.n++
	}
}

func serve(t *testing.T, mw func(http.Handler) http.Handler, principal *auth.Principal) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/cashcards", nil)
	if principal != nil {
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), *principal))
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr, called
}

func TestRequireRoleAllowsCardOwner(t *testing.T) {
	m := Middleware{}
	rr, called := serve(t, m.RequireRole(auth.RoleCardOwner), &auth.Principal{Username: "sarah1", Role: "CARD-OWNER"})
	if !called || rr.Code != http.StatusOK {
		t.Fatalf("expected handler to run, got status %d", rr.Code)
	}
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	counter := &forbiddenCounter{}
	m := Middleware{Recorder: counter}
	rr, called := serve(t, m.RequireRole(auth.RoleCardOwner), &auth.Principal{Username: "hank-owns-no-cards", Role: auth.RoleNonOwner})
	if called {
		t.Fatalf("handler must not run")
	}
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rr.Body.String())
	}
	if counter.n != 1 {
		t.Fatalf("expected forbidden outcome recorded once, got %d", counter.n)
	}
}

func TestRequireRoleWithoutPrincipal(t *testing.T) {
	m := Middleware{}
	rr, called := serve(t, m.RequireRole(auth.RoleCardOwner), nil)
	if called || rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without handler, got %d (called=%v)", rr.Code, called)
	}
}

func TestRequireAnyRoleNormalizes(t *testing.T) {
	got := normalizeRoles([]string{" Card-Owner ", "card-owner", "", "AUDITOR"})
	if len(got) != 2 || got[0] != "card-owner" || got[1] != "auditor" {
		t.Fatalf("unexpected normalized roles: %v", got)
	}

	m := Middleware{}
	_, called := serve(t, m.RequireAnyRole("auditor", "card-owner"), &auth.Principal{Username: "kumar2", Role: auth.RoleCardOwner})
	if !called {
		t.Fatalf("expected handler to run")
	}
}

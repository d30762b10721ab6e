package rbac

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/odyssey-erp/cashcard/internal/auth"
)

// Middleware wires role-based authorization for HTTP handlers. It must run
// after auth.Middleware.Authenticate.
type Middleware struct {
	Logger   *slog.Logger
	Recorder auth.Recorder
}

// RequireRole ensures the current principal holds role.
func (m Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return m.RequireAnyRole(role)
}

// RequireAnyRole ensures the current principal holds at least one of roles.
// Requests without a principal get 401, principals lacking every role get
// 403. Both responses have an empty body.
func (m Middleware) RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	normalized := normalizeRoles(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				if m.Logger != nil {
					m.Logger.Warn("rbac without principal", slog.String("path", r.URL.Path))
				}
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if len(normalized) == 0 || hasAnyRole(principal, normalized) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Recorder != nil {
				m.Recorder.ObserveAuth(auth.OutcomeForbidden)
			}
			w.WriteHeader(http.StatusForbidden)
		})
	}
}

func normalizeRoles(roles []string) []string {
	unique := make(map[string]struct{}, len(roles))
	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(strings.ToLower(role))
		if role == "" {
			continue
		}
		if _, seen := unique[role]; seen {
			continue
		}
		unique[role] = struct{}{}
		normalized = append(normalized, role)
	}
	return normalized
}

func hasAnyRole(p auth.Principal, required []string) bool {
	for _, role := range required {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
)

// Verifier checks a username and secret pair.
type Verifier interface {
	Verify(ctx context.Context, username, secret string) (Principal, error)
}

// Recorder observes authentication outcomes.
type Recorder interface {
	ObserveAuth(outcome string)
}

// Authentication outcomes reported to a Recorder.
const (
	OutcomeOK        = "ok"
	OutcomeMissing   = "missing"
	OutcomeInvalid   = "invalid"
	OutcomeForbidden = "forbidden"
)

const defaultRealm = "cashcard"

// Middleware authenticates requests with HTTP Basic credentials.
type Middleware struct {
	Verifier Verifier
	Logger   *slog.Logger
	Recorder Recorder
	Realm    string
}

// Authenticate rejects requests without valid Basic credentials with 401 and
// an empty body. On success the principal is stored in the request context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, secret, ok := r.BasicAuth()
		if !ok {
			m.observe(OutcomeMissing)
			m.challenge(w)
			return
		}
		principal, err := m.Verifier.Verify(r.Context(), username, secret)
		if err != nil {
			if m.Logger != nil {
				if errors.Is(err, ErrInvalidCredentials) {
					m.Logger.Warn("authentication failed",
						slog.String("username", username),
						slog.String("remote_addr", r.RemoteAddr))
				} else {
					m.Logger.Error("verify credentials", slog.Any("error", err))
				}
			}
			m.observe(OutcomeInvalid)
			m.challenge(w)
			return
		}
		m.observe(OutcomeOK)
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

func (m Middleware) challenge(w http.ResponseWriter) {
	realm := m.Realm
	if realm == "" {
		realm = defaultRealm
	}
	w.Header().Set("WWW-Authenticate", "Basic realm="+strconv.Quote(realm))
	w.WriteHeader(http.StatusUnauthorized)
}

func (m Middleware) observe(outcome string) {
	if m.Recorder != nil {
		m.Recorder.ObserveAuth(outcome)
	}
}

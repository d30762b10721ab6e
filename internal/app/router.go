package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/cashcard/internal/auth"
	"github.com/odyssey-erp/cashcard/internal/cashcard"
	"github.com/odyssey-erp/cashcard/internal/observability"
	"github.com/odyssey-erp/cashcard/internal/platform/httpx"
	"github.com/odyssey-erp/cashcard/internal/rbac"
)

// CashCardsPath is where the cash card resource is mounted.
const CashCardsPath = "/cashcards"

const healthTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger    *slog.Logger
	Config    *Config
	CashCards *cashcard.Handler
	Auth      auth.Middleware
	RBAC      rbac.Middleware
	Health    Pinger
	Metrics   *observability.Metrics
}

// NewRouter constructs the chi.Router with the service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := params.Health.Ping(ctx); err != nil {
				if params.Logger != nil {
					params.Logger.Error("health check", slog.Any("error", err))
				}
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.CashCards != nil {
		r.Route(CashCardsPath, func(r chi.Router) {
			r.Use(params.Auth.Authenticate)
			r.Use(params.RBAC.RequireRole(auth.RoleCardOwner))
			params.CashCards.MountRoutes(r)
		})
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/cashcard/internal/app"
	"github.com/odyssey-erp/cashcard/internal/auth"
	"github.com/odyssey-erp/cashcard/internal/cashcard"
	"github.com/odyssey-erp/cashcard/internal/observability"
	"github.com/odyssey-erp/cashcard/internal/rbac"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("cashcard exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	backend, err := app.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	directory, err := app.LoadDirectory(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("principals loaded", slog.Int("count", directory.Len()))

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
		if err := backend.RegisterMetrics(metrics.Registerer()); err != nil {
			return err
		}
	}

	service := cashcard.NewService(backend.Store)
	handler := cashcard.NewHandler(logger, service, app.CashCardsPath, cashcard.PageLimits{
		DefaultSize: cfg.PageDefaultSize,
		MaxSize:     cfg.PageMaxSize,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:    logger,
		Config:    cfg,
		CashCards: handler,
		Auth:      auth.Middleware{Verifier: directory, Logger: logger, Recorder: metrics},
		RBAC:      rbac.Middleware{Logger: logger, Recorder: metrics},
		Health:    backend.Health,
		Metrics:   metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("store", backend.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/cashcard/internal/auth"
	"github.com/odyssey-erp/cashcard/internal/cashcard"
	"github.com/odyssey-erp/cashcard/internal/cashcard/memstore"
	"github.com/odyssey-erp/cashcard/internal/cashcard/pgstore"
	"github.com/odyssey-erp/cashcard/internal/cashcard/redisstore"
	"github.com/odyssey-erp/cashcard/internal/platform/cache"
	"github.com/odyssey-erp/cashcard/internal/platform/db"
)

// Backend is an opened card store with its health check.
type Backend struct {
	Driver string
	Store  cashcard.Store
	Health Pinger
	close  func()

	collectors []prometheus.Collector
}

// RegisterMetrics registers the connection pool gauges of the backend.
func (b *Backend) RegisterMetrics(reg prometheus.Registerer) error {
	if b == nil || reg == nil {
		return nil
	}
	for _, c := range b.collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register pool metrics: %w", err)
		}
	}
	return nil
}

func poolGauge(name, help string, value func() float64) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, value)
}

func pgPoolCollectors(pool *pgxpool.Pool) []prometheus.Collector {
	return []prometheus.Collector{
		poolGauge("cashcard_pg_pool_total_conns", "Connections currently open in the PostgreSQL pool.",
			func() float64 { return float64(pool.Stat().TotalConns()) }),
		poolGauge("cashcard_pg_pool_idle_conns", "Idle connections in the PostgreSQL pool.",
			func() float64 { return float64(pool.Stat().IdleConns()) }),
		poolGauge("cashcard_pg_pool_acquired_conns", "Connections checked out of the PostgreSQL pool.",
			func() float64 { return float64(pool.Stat().AcquiredConns()) }),
	}
}

func redisPoolCollectors(client *redis.Client) []prometheus.Collector {
	return []prometheus.Collector{
		poolGauge("cashcard_redis_pool_total_conns", "Connections currently open in the Redis pool.",
			func() float64 { return float64(client.PoolStats().TotalConns) }),
		poolGauge("cashcard_redis_pool_idle_conns", "Idle connections in the Redis pool.",
			func() float64 { return float64(client.PoolStats().IdleConns) }),
	}
}

// Close releases the connections held by the backend.
func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

// OpenBackend connects the store selected by cfg.StoreDriver.
func OpenBackend(ctx context.Context, cfg *Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.StoreDriver {
	case StorePostgres:
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			return nil, err
		}
		if cfg.PGAutoMigrate {
			if err := pgstore.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			logger.Info("schema migrated")
		}
		return &Backend{
			Driver: StorePostgres,
			Store:  pgstore.New(pool),
			Health: PingFunc(pool.Ping),
			close:  pool.Close,

			collectors: pgPoolCollectors(pool),
		}, nil

	case StoreRedis:
		client, err := cache.New(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver: StoreRedis,
			Store:  redisstore.New(client, cfg.RedisKeyPrefix),
			Health: PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() }),
			close:  func() { _ = client.Close() },

			collectors: redisPoolCollectors(client),
		}, nil

	case StoreMemory:
		store := memstore.New()
		if !cfg.IsProduction() {
			store.Seed(cashcard.DemoCards()...)
			logger.Warn("memory store seeded with demo cards")
		}
		return &Backend{Driver: StoreMemory, Store: store}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// LoadDirectory builds the credential directory from PRINCIPALS_FILE. Outside
// production the demo principals are used when no file is configured.
func LoadDirectory(cfg *Config, logger *slog.Logger) (*auth.Directory, error) {
	var records []auth.Record
	switch {
	case cfg.PrincipalsFile != "":
		loaded, err := auth.LoadRecords(cfg.PrincipalsFile)
		if err != nil {
			return nil, err
		}
		records = loaded
	case cfg.IsProduction():
		return nil, errors.New("PRINCIPALS_FILE must be provided in production")
	default:
		demo, err := auth.DemoRecords(bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		records = demo
		logger.Warn("using demo principals; set PRINCIPALS_FILE to configure real ones")
	}
	return auth.NewDirectory(records)
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/cashcard/internal/app"
	"github.com/odyssey-erp/cashcard/internal/cashcard"
	"github.com/odyssey-erp/cashcard/internal/cashcard/pgstore"
	"github.com/odyssey-erp/cashcard/internal/cashcard/redisstore"
	"github.com/odyssey-erp/cashcard/internal/platform/cache"
	"github.com/odyssey-erp/cashcard/internal/platform/db"
)

func loadConfig() (*app.Config, *slog.Logger, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	return cfg, app.NewLogger(cfg), nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the cash_card table in PG_DSN if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := db.New(cmd.Context(), cfg.PGDSN, cfg.PGMaxConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgstore.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo cards into the store selected by STORE_DRIVER",
		Long: `Load the demo cards (ids 99-102) into the configured store.

Existing rows with the same ids are overwritten, and the id sequence is moved
past them so later creates never collide. Only the postgres and redis drivers
are supported; the memory driver seeds itself on startup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			cards := cashcard.DemoCards()
			ctx := cmd.Context()

			switch cfg.StoreDriver {
			case app.StorePostgres:
				pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := pgstore.Migrate(ctx, pool); err != nil {
					return err
				}
				if err := pgstore.Seed(ctx, pool, cards); err != nil {
					return err
				}
			case app.StoreRedis:
				client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
				if err != nil {
					return err
				}
				defer client.Close()
				if err := redisstore.New(client, cfg.RedisKeyPrefix).Seed(ctx, cards...); err != nil {
					return err
				}
			default:
				return fmt.Errorf("seed: store driver %q is not persistent", cfg.StoreDriver)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d cards into %s\n", len(cards), cfg.StoreDriver)
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one card as JSON",
		Long: `Print one card as JSON.

With --owner the lookup is scoped exactly as the HTTP API scopes it and works
with every store driver. Without --owner the card is read regardless of owner,
which only the postgres driver supports.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("show: id %q must be an integer", args[0])
			}
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var card cashcard.CashCard
			if owner != "" {
				backend, err := app.OpenBackend(ctx, cfg, logger)
				if err != nil {
					return err
				}
				defer backend.Close()
				card, err = backend.Store.Get(ctx, cashcard.Owner(owner), id)
				if err != nil {
					return notFound(err, id)
				}
			} else {
				if cfg.StoreDriver != app.StorePostgres {
					return fmt.Errorf("show: --owner is required for store driver %q", cfg.StoreDriver)
				}
				pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
				if err != nil {
					return err
				}
				defer pool.Close()
				card, err = pgstore.New(pool).FindByID(ctx, id)
				if err != nil {
					return notFound(err, id)
				}
			}
			return printCard(cmd.OutOrStdout(), card)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "only show the card if it belongs to this principal")
	return cmd
}

func notFound(err error, id int64) error {
	if errors.Is(err, cashcard.ErrNotFound) {
		return fmt.Errorf("show: card %d not found", id)
	}
	return err
}

func printCard(w io.Writer, card cashcard.CashCard) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		ID     int64       `json:"id"`
		Amount json.Number `json:"amount"`
		Owner  string      `json:"owner"`
	}{card.ID, json.Number(card.Amount.String()), card.Owner})
}

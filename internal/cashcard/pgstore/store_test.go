package pgstore

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/cashcard/internal/cashcard"
	"github.com/odyssey-erp/cashcard/internal/cashcard/storetest"
)

const dsnEnv = "CASHCARD_TEST_PG_DSN"

// newTestPool connects to the database named by CASHCARD_TEST_PG_DSN inside a
// throwaway schema, migrated and dropped when the test ends.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set; skipping PostgreSQL tests", dsnEnv)
	}
	ctx := context.Background()
	schema := "cashcard_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	config, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	config.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, config)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) cashcard.Store {
		return New(newTestPool(t))
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	pool := newTestPool(t)
	assert.NoError(t, Migrate(context.Background(), pool))
}

func TestSeedAndFindByID(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	require.NoError(t, Seed(ctx, pool, cashcard.DemoCards()))
	require.NoError(t, Seed(ctx, pool, cashcard.DemoCards()), "seeding twice must not fail")

	s := New(pool)
	card, err := s.FindByID(ctx, 102)
	require.NoError(t, err)
	assert.Equal(t, "kumar2", card.Owner)
	assert.Equal(t, "200.00", card.Amount.StringFixed(2))

	_, err = s.FindByID(ctx, 424242)
	assert.ErrorIs(t, err, cashcard.ErrNotFound)

	created, err := s.Create(ctx, "sarah1", storetest.Dec(t, "250.00"))
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(102))
}

func TestOrderClause(t *testing.T) {
	got, err := orderClause(cashcard.PageRequest{Sort: []cashcard.Order{{Property: cashcard.PropertyAmount, Direction: cashcard.Desc}}}.Orders())
	require.NoError(t, err)
	assert.Equal(t, "amount DESC, id ASC", got)

	got, err = orderClause(cashcard.PageRequest{}.Orders())
	require.NoError(t, err)
	assert.Equal(t, "amount ASC, id ASC", got)

	_, err = orderClause([]cashcard.Order{{Property: "amount; DROP TABLE cash_card"}})
	assert.ErrorIs(t, err, cashcard.ErrInvalidSort)
}

// Package pgstore persists cash cards in PostgreSQL.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/cashcard/internal/cashcard"
	"github.com/odyssey-erp/cashcard/internal/platform/db"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is the subset of pgx shared by pools, connections and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements cashcard.Store on PostgreSQL.
type Store struct {
	db DBTX
}

// New constructs a Store.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Migrate creates the cash_card table and its index when missing.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("pgstore: migrate: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, owner cashcard.Owner, id int64) (cashcard.CashCard, error) {
	const query = `SELECT id, amount, owner FROM cash_card WHERE id = $1 AND owner = $2`
	card, err := scanCard(s.db.QueryRow(ctx, query, id, string(owner)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cashcard.CashCard{}, cashcard.ErrNotFound
		}
		return cashcard.CashCard{}, fmt.Errorf("pgstore: get %d: %w", id, err)
	}
	return card, nil
}

// FindByID returns a card regardless of owner. It is meant for operators and
// must never back an HTTP endpoint.
func (s *Store) FindByID(ctx context.Context, id int64) (cashcard.CashCard, error) {
	const query = `SELECT id, amount, owner FROM cash_card WHERE id = $1`
	card, err := scanCard(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cashcard.CashCard{}, cashcard.ErrNotFound
		}
		return cashcard.CashCard{}, fmt.Errorf("pgstore: find %d: %w", id, err)
	}
	return card, nil
}

func (s *Store) Exists(ctx context.Context, owner cashcard.Owner, id int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM cash_card WHERE id = $1 AND owner = $2)`
	var exists bool
	if err := s.db.QueryRow(ctx, query, id, string(owner)).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgstore: exists %d: %w", id, err)
	}
	return exists, nil
}

// List uses a dynamic ORDER BY built from whitelisted columns.
func (s *Store) List(ctx context.Context, owner cashcard.Owner, page cashcard.PageRequest) ([]cashcard.CashCard, error) {
	orderBy, err := orderClause(page.Orders())
	if err != nil {
		return nil, err
	}
	query := `SELECT id, amount, owner FROM cash_card WHERE owner = $1 ORDER BY ` + orderBy + ` LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(ctx, query, string(owner), page.Size, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("pgstore: list: %w", err)
	}
	defer rows.Close()

	cards := []cashcard.CashCard{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("pgstore: list scan: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (s *Store) Create(ctx context.Context, owner cashcard.Owner, amount decimal.Decimal) (cashcard.CashCard, error) {
	const query = `INSERT INTO cash_card (amount, owner) VALUES ($1, $2) RETURNING id, amount, owner`
	card, err := scanCard(s.db.QueryRow(ctx, query, decimalToNumeric(amount), string(owner)))
	if err != nil {
		return cashcard.CashCard{}, fmt.Errorf("pgstore: create: %w", err)
	}
	return card, nil
}

func (s *Store) Update(ctx context.Context, owner cashcard.Owner, card cashcard.CashCard) error {
	const query = `UPDATE cash_card SET amount = $1 WHERE id = $2 AND owner = $3`
	tag, err := s.db.Exec(ctx, query, decimalToNumeric(card.Amount), card.ID, string(owner))
	if err != nil {
		return fmt.Errorf("pgstore: update %d: %w", card.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return cashcard.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, owner cashcard.Owner, id int64) error {
	const query = `DELETE FROM cash_card WHERE id = $1 AND owner = $2`
	tag, err := s.db.Exec(ctx, query, id, string(owner))
	if err != nil {
		return fmt.Errorf("pgstore: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return cashcard.ErrNotFound
	}
	return nil
}

// Seed upserts cards with their given ids in one transaction and moves the
// identity sequence past the highest id so later inserts never collide.
func Seed(ctx context.Context, pool *pgxpool.Pool, cards []cashcard.CashCard) error {
	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		const upsert = `INSERT INTO cash_card (id, amount, owner) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET amount = EXCLUDED.amount, owner = EXCLUDED.owner`
		for _, c := range cards {
			if _, err := tx.Exec(ctx, upsert, c.ID, decimalToNumeric(c.Amount), c.Owner); err != nil {
				return fmt.Errorf("pgstore: seed card %d: %w", c.ID, err)
			}
		}
		const bump = `SELECT setval(pg_get_serial_sequence('cash_card', 'id'), GREATEST((SELECT COALESCE(MAX(id), 0) FROM cash_card), 1))`
		if _, err := tx.Exec(ctx, bump); err != nil {
			return fmt.Errorf("pgstore: seed sequence: %w", err)
		}
		return nil
	})
}

func orderClause(orders []cashcard.Order) (string, error) {
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		var column string
		switch o.Property {
		case cashcard.PropertyID:
			column = "id"
		case cashcard.PropertyAmount:
			column = "amount"
		case cashcard.PropertyOwner:
			column = "owner"
		default:
			return "", fmt.Errorf("%w: unknown property %q", cashcard.ErrInvalidSort, o.Property)
		}
		dir := "ASC"
		if o.Direction == cashcard.Desc {
			dir = "DESC"
		}
		parts = append(parts, column+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

func scanCard(row pgx.Row) (cashcard.CashCard, error) {
	var (
		card   cashcard.CashCard
		amount pgtype.Numeric
	)
	if err := row.Scan(&card.ID, &amount, &card.Owner); err != nil {
		return cashcard.CashCard{}, err
	}
	d, err := numericToDecimal(amount)
	if err != nil {
		return cashcard.CashCard{}, fmt.Errorf("card %d: %w", card.ID, err)
	}
	card.Amount = d
	return card, nil
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, errors.New("amount is null")
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Zero, errors.New("amount is not finite")
	}
	if n.Int == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

var _ cashcard.Store = (*Store)(nil)

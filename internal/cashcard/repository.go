package cashcard

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store persists cash cards. Every method is scoped to an owner; a card held
// by another owner behaves exactly like a missing one.
type Store interface {
	// Get returns the card with id owned by owner, or ErrNotFound.
	Get(ctx context.Context, owner Owner, id int64) (CashCard, error)
	// Exists reports whether owner holds a card with id.
	Exists(ctx context.Context, owner Owner, id int64) (bool, error)
	// List returns one page of the owner's cards ordered by page.Orders().
	List(ctx context.Context, owner Owner, page PageRequest) ([]CashCard, error)
	// Create inserts a card for owner and returns it with a fresh id.
	Create(ctx context.Context, owner Owner, amount decimal.Decimal) (CashCard, error)
	// Update replaces the stored row for card.ID. It returns ErrNotFound when
	// the row is missing or not held by owner.
	Update(ctx context.Context, owner Owner, card CashCard) error
	// Delete removes the card with id. It returns ErrNotFound when the row is
	// missing or not held by owner.
	Delete(ctx context.Context, owner Owner, id int64) error
}

// Package cashcard implements owner-scoped storage and HTTP handling of cash
// card records.
package cashcard

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a card does not exist or belongs to a
	// different owner. Callers must not be able to tell the two cases apart.
	ErrNotFound = errors.New("cashcard: not found")
	// ErrInvalidSort reports an unknown sort property or direction.
	ErrInvalidSort = errors.New("cashcard: invalid sort")
	// ErrInvalidAmount reports an amount outside the storable range.
	ErrInvalidAmount = errors.New("cashcard: amount out of range")
)

// Amount bounds, matching the PostgreSQL NUMERIC limits.
const (
	MaxIntegerDigits  = 131072
	MaxFractionDigits = 16383
)

// CheckAmount rejects amounts whose integer or fractional part has more
// digits than any store can hold. It inspects only the coefficient length and
// the exponent, so it never expands the value.
func CheckAmount(d decimal.Decimal) error {
	exp := int64(d.Exponent())
	digits := int64(d.NumDigits())
	if exp < 0 && -exp > MaxFractionDigits {
		return fmt.Errorf("%w: more than %d fractional digits", ErrInvalidAmount, MaxFractionDigits)
	}
	if digits+exp > MaxIntegerDigits {
		return fmt.Errorf("%w: more than %d integer digits", ErrInvalidAmount, MaxIntegerDigits)
	}
	return nil
}

// Owner identifies the principal a card belongs to. Store methods require an
// Owner so every query is scoped to the caller.
type Owner string

// CashCard is a single owner-scoped amount record.
type CashCard struct {
	ID     int64
	Amount decimal.Decimal
	Owner  string
}

// OwnedBy reports whether the card belongs to owner.
func (c CashCard) OwnedBy(owner Owner) bool {
	return c.Owner == string(owner)
}

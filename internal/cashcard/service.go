package cashcard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Service applies ownership rules on top of a Store.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the owner's card with id.
func (s *Service) Get(ctx context.Context, owner Owner, id int64) (CashCard, error) {
	return s.store.Get(ctx, owner, id)
}

// List returns one page of the owner's cards.
func (s *Service) List(ctx context.Context, owner Owner, page PageRequest) ([]CashCard, error) {
	cards, err := s.store.List(ctx, owner, page)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []CashCard{}
	}
	return cards, nil
}

// Create stores a new card for owner. The owner is always the caller.
func (s *Service) Create(ctx context.Context, owner Owner, amount decimal.Decimal) (CashCard, error) {
	if owner == "" {
		return CashCard{}, fmt.Errorf("cashcard: create: owner required")
	}
	if err := CheckAmount(amount); err != nil {
		return CashCard{}, err
	}
	return s.store.Create(ctx, owner, amount)
}

// Update replaces the amount of the owner's card. The stored id and owner are
// kept; only the amount changes.
func (s *Service) Update(ctx context.Context, owner Owner, id int64, amount decimal.Decimal) error {
	if err := CheckAmount(amount); err != nil {
		return err
	}
	current, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	return s.store.Update(ctx, owner, CashCard{ID: current.ID, Amount: amount, Owner: current.Owner})
}

// Delete removes the owner's card with id.
func (s *Service) Delete(ctx context.Context, owner Owner, id int64) error {
	exists, err := s.store.Exists(ctx, owner, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return s.store.Delete(ctx, owner, id)
}

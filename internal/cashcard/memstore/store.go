// Package memstore is an in-memory cashcard.Store for development and tests.
package memstore

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/cashcard/internal/cashcard"
)

// Store keeps cards in a map guarded by a mutex.
type Store struct {
	mu     sync.RWMutex
	cards  map[int64]cashcard.CashCard
	nextID int64
}

// New returns an empty store whose first id is 1.
func New() *Store {
	return &Store{cards: make(map[int64]cashcard.CashCard), nextID: 1}
}

// Seed inserts cards with their given ids. Later Create calls continue after
// the highest seeded id.
func (s *Store) Seed(cards ...cashcard.CashCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cards {
		s.cards[c.ID] = c
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
	}
}

func (s *Store) Get(ctx context.Context, owner cashcard.Owner, id int64) (cashcard.CashCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.cards[id]
	if !ok || !card.OwnedBy(owner) {
		return cashcard.CashCard{}, cashcard.ErrNotFound
	}
	return card, nil
}

func (s *Store) Exists(ctx context.Context, owner cashcard.Owner, id int64) (bool, error) {
	_, err := s.Get(ctx, owner, id)
	if err == cashcard.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) List(ctx context.Context, owner cashcard.Owner, page cashcard.PageRequest) ([]cashcard.CashCard, error) {
	s.mu.RLock()
	owned := make([]cashcard.CashCard, 0)
	for _, c := range s.cards {
		if c.OwnedBy(owner) {
			owned = append(owned, c)
		}
	}
	s.mu.RUnlock()

	cashcard.SortCards(owned, page.Orders())
	return cashcard.PageOf(owned, page), nil
}

func (s *Store) Create(ctx context.Context, owner cashcard.Owner, amount decimal.Decimal) (cashcard.CashCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card := cashcard.CashCard{ID: s.nextID, Amount: amount, Owner: string(owner)}
	s.cards[card.ID] = card
	s.nextID++
	return card, nil
}

func (s *Store) Update(ctx context.Context, owner cashcard.Owner, card cashcard.CashCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cards[card.ID]
	if !ok || !current.OwnedBy(owner) {
		return cashcard.ErrNotFound
	}
	s.cards[card.ID] = cashcard.CashCard{ID: current.ID, Amount: card.Amount, Owner: current.Owner}
	return nil
}

func (s *Store) Delete(ctx context.Context, owner cashcard.Owner, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cards[id]
	if !ok || !current.OwnedBy(owner) {
		return cashcard.ErrNotFound
	}
	delete(s.cards, id)
	return nil
}

var _ cashcard.Store = (*Store)(nil)

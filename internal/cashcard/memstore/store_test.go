package memstore

import (
	"testing"

	"github.com/odyssey-erp/cashcard/internal/cashcard"
	"github.com/odyssey-erp/cashcard/internal/cashcard/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) cashcard.Store {
		return New()
	})
}

func TestSeedAdvancesIDs(t *testing.T) {
	s := New()
	s.Seed(cashcard.DemoCards()...)

	card, err := s.Create(t.Context(), "sarah1", storetest.Dec(t, "5"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if card.ID != 103 {
		t.Fatalf("expected id 103 after seeding, got %d", card.ID)
	}
}

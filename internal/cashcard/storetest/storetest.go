// Package storetest holds a behavioural test suite shared by every
// cashcard.Store implementation.
package storetest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/cashcard/internal/cashcard"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) cashcard.Store

// Dec parses a decimal literal or fails the test.
func Dec(t testing.TB, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// Run executes the contract suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateThenGet", func(t *testing.T) { testCreateThenGet(t, newStore(t)) })
	t.Run("ForeignAndMissingLookLikeNotFound", func(t *testing.T) { testScopedLookups(t, newStore(t)) })
	t.Run("ListOrdering", func(t *testing.T) { testListOrdering(t, newStore(t)) })
	t.Run("ListPaging", func(t *testing.T) { testListPaging(t, newStore(t)) })
	t.Run("UpdateReplacesAmountOnly", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("DeleteIsScoped", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("PreservesPrecision", func(t *testing.T) { testPrecision(t, newStore(t)) })
}

type fixture struct {
	sarah []cashcard.CashCard
	kumar cashcard.CashCard
}

// seed creates three cards for sarah1 (123.45, 1.00, 150.00) and one for kumar2.
func seed(t *testing.T, s cashcard.Store) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture
	for _, amt := range []string{"123.45", "1.00", "150.00"} {
		c, err := s.Create(ctx, "sarah1", Dec(t, amt))
		require.NoError(t, err)
		f.sarah = append(f.sarah, c)
	}
	k, err := s.Create(ctx, "kumar2", Dec(t, "200.00"))
	require.NoError(t, err)
	f.kumar = k
	return f
}

func amounts(cards []cashcard.CashCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Amount.StringFixed(2))
	}
	return out
}

func testCreateThenGet(t *testing.T, s cashcard.Store) {
	ctx := context.Background()
	a, err := s.Create(ctx, "sarah1", Dec(t, "250.00"))
	require.NoError(t, err)
	b, err := s.Create(ctx, "sarah1", Dec(t, "-3.5"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "sarah1", a.Owner)

	got, err := s.Get(ctx, "sarah1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.True(t, got.Amount.Equal(Dec(t, "250")), "amount %s", got.Amount)
	assert.Equal(t, "sarah1", got.Owner)

	got, err = s.Get(ctx, "sarah1", b.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(Dec(t, "-3.5")))
}

func testScopedLookups(t *testing.T, s cashcard.Store) {
	ctx := context.Background()
	f := seed(t, s)

	_, err := s.Get(ctx, "sarah1", f.kumar.ID)
	assert.ErrorIs(t, err, cashcard.ErrNotFound)
	_, err = s.Get(ctx, "sarah1", 999999)
	assert.ErrorIs(t, err, cashcard.ErrNotFound)

	ok, err := s.Exists(ctx, "sarah1", f.kumar.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.Exists(ctx, "kumar2", f.kumar.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Exists(ctx, "kumar2", 999999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testListOrdering(t *testing.T, s cashcard.Store) {
	ctx := context.Background()
	f := seed(t, s)

	cards, err := s.List(ctx, "sarah1", cashcard.PageRequest{Size: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.00", "123.45", "150.00"}, amounts(cards))
	for _, c := range cards {
		assert.Equal(t, "sarah1", c.Owner)
	}

	cards, err = s.List(ctx, "sarah1", cashcard.PageRequest{Size: 20, Sort: []cashcard.Order{{Property: cashcard.PropertyAmount, Direction: cashcard.Desc}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"150.00", "123.45", "1.00"}, amounts(cards))

	cards, err = s.List(ctx, "sarah1", cashcard.PageRequest{Size: 20, Sort: []cashcard.Order{{Property: cashcard.PropertyID, Direction: cashcard.Desc}}})
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, f.sarah[2].ID, cards[0].ID)
	assert.Equal(t, f.sarah[0].ID, cards[2].ID)

	// equal amounts fall back to id ascending
	dupA, err := s.Create(ctx, "kumar2", Dec(t, "5"))
	require.NoError(t, err)
	dupB, err := s.Create(ctx, "kumar2", Dec(t, "5.00"))
	require.NoError(t, err)
	cards, err = s.List(ctx, "kumar2", cashcard.PageRequest{Size: 20})
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, dupA.ID, cards[0].ID)
	assert.Equal(t, dupB.ID, cards[1].ID)
	assert.Equal(t, f.kumar.ID, cards[2].ID)

	cards, err = s.List(ctx, "nobody", cashcard.PageRequest{Size: 20})
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func testListPaging(t *testing.T, s cashcard.Store) {
	ctx := context.Background()
	seed(t, s)

	cards, err := s.List(ctx, "sarah1", cashcard.PageRequest{Page: 0, Size: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.00"}, amounts(cards))

	cards, err = s.List(ctx, "sarah1", cashcard.PageRequest{Page: 0, Size: 1, Sort: []cashcard.Order{{Property: cashcard.PropertyAmount, Direction: cashcard.Desc}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"150.00"}, amounts(cards))

	cards, err = s.List(ctx, "sarah1", cashcard.PageRequest{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"150.00"}, amounts(cards))

	cards, err = s.List(ctx, "sarah1", cashcard.PageRequest{Page: 5, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func testUpdate(t *testing.T, s cashcard.Store) {
	ctx := context.Background()
	f := seed(t, s)
	target := f.sarah[0]

	err := s.Update(ctx, "sarah1", cashcard.CashCard{ID: target.ID, Amount: Dec(t, "19.99"), Owner: "kumar2"})
	require.NoError(t, err)
	got, err := s.Get(ctx, "sarah1", target.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(Dec(t, "19.99")))
	assert.Equal(t, "sarah1", got.Owner)

	err = s.Update(ctx, "sarah1", cashcard.CashCard{ID: f.kumar.ID, Amount: Dec(t, "0"), Owner: "sarah1"})
	assert.ErrorIs(t, err, cashcard.ErrNotFound)
	kumar, err := s.Get(ctx, "kumar2", f.kumar.ID)
	require.NoError(t, err)
	assert.True(t, kumar.Amount.Equal(Dec(t, "200")))

	err = s.Update(ctx, "sarah1", cashcard.CashCard{ID: 999999, Amount: Dec(t, "1"), Owner: "sarah1"})
	assert.ErrorIs(t, err, cashcard.ErrNotFound)
}

func testDelete(t *testing.T, s cashcard.Store) {
	ctx := context.Background()
	f := seed(t, s)

	assert.ErrorIs(t, s.Delete(ctx, "sarah1", f.kumar.ID), cashcard.ErrNotFound)
	_, err := s.Get(ctx, "kumar2", f.kumar.ID)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "sarah1", f.sarah[0].ID))
	_, err = s.Get(ctx, "sarah1", f.sarah[0].ID)
	assert.ErrorIs(t, err, cashcard.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "sarah1", f.sarah[0].ID), cashcard.ErrNotFound)

	fresh, err := s.Create(ctx, "sarah1", Dec(t, "7"))
	require.NoError(t, err)
	for _, c := range append(f.sarah, f.kumar) {
		assert.NotEqual(t, c.ID, fresh.ID, "ids must never be reused")
	}
}

func testPrecision(t *testing.T, s cashcard.Store) {
	ctx := context.Background()
	precise := Dec(t, "12345678901234567890.123456789012345678")
	c, err := s.Create(ctx, "sarah1", precise)
	require.NoError(t, err)

	got, err := s.Get(ctx, "sarah1", c.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(precise), "got %s", got.Amount)
}

package cashcard

import (
	"cmp"
	"slices"
	"strings"
)

// SortCards orders cards in place according to orders. Stores without a query
// engine use it to honour PageRequest.Orders.
func SortCards(cards []CashCard, orders []Order) {
	slices.SortStableFunc(cards, func(a, b CashCard) int {
		for _, o := range orders {
			var c int
			switch o.Property {
			case PropertyID:
				c = cmp.Compare(a.ID, b.ID)
			case PropertyAmount:
				c = a.Amount.Cmp(b.Amount)
			case PropertyOwner:
				c = strings.Compare(a.Owner, b.Owner)
			}
			if o.Direction == Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

// PageOf returns the slice of sorted cards selected by page.
func PageOf(sorted []CashCard, page PageRequest) []CashCard {
	offset := page.Offset()
	if offset >= int64(len(sorted)) || page.Size <= 0 {
		return []CashCard{}
	}
	end := min(offset+int64(page.Size), int64(len(sorted)))
	return slices.Clone(sorted[offset:end])
}

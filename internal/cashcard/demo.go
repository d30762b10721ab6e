package cashcard

import "github.com/shopspring/decimal"

// DemoCards returns the sample data set loaded by development deployments and
// `cashcardctl seed`.
func DemoCards() []CashCard {
	return []CashCard{
		{ID: 99, Amount: decimal.RequireFromString("123.45"), Owner: "sarah1"},
		{ID: 100, Amount: decimal.RequireFromString("1.00"), Owner: "sarah1"},
		{ID: 101, Amount: decimal.RequireFromString("150.00"), Owner: "sarah1"},
		{ID: 102, Amount: decimal.RequireFromString("200.00"), Owner: "kumar2"},
	}
}

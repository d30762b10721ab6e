package cashcard

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckAmount(t *testing.T) {
	accepted := []decimal.Decimal{
		decimal.RequireFromString("123.45"),
		decimal.RequireFromString("-0.0001"),
		decimal.New(1, MaxIntegerDigits-1),
		decimal.New(1, -MaxFractionDigits),
		decimal.Zero,
	}
	for _, d := range accepted {
		assert.NoError(t, CheckAmount(d), "exp=%d", d.Exponent())
	}

	rejected := []decimal.Decimal{
		decimal.New(1, 50000000),
		decimal.New(1, MaxIntegerDigits),
		decimal.New(1, -MaxFractionDigits-1),
		decimal.New(-7, -2000000000),
	}
	for _, d := range rejected {
		assert.ErrorIs(t, CheckAmount(d), ErrInvalidAmount, "exp=%d", d.Exponent())
	}
}

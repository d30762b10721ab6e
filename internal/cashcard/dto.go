package cashcard

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// amountRequest is the body accepted by create and update. Any id or owner
// sent by the client is ignored.
type amountRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

const tagAmountRange = "amount_range"

// validateAmountRequest bounds the amount's digits. It runs as a struct
// rule because validator does not apply field tags inside decimal.Decimal.
func validateAmountRequest(sl validator.StructLevel) {
	req := sl.Current().Interface().(amountRequest)
	if req.Amount == nil {
		return
	}
	if CheckAmount(*req.Amount) != nil {
		sl.ReportError(req.Amount, "Amount", "amount", tagAmountRange, "")
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateAmountRequest, amountRequest{})
	return v
}

// cardResponse renders amounts as JSON numbers with their exact digits.
type cardResponse struct {
	ID     int64       `json:"id"`
	Amount json.Number `json:"amount"`
	Owner  string      `json:"owner"`
}

func toResponse(c CashCard) cardResponse {
	return cardResponse{ID: c.ID, Amount: json.Number(c.Amount.String()), Owner: c.Owner}
}

func toResponses(cards []CashCard) []cardResponse {
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toResponse(c))
	}
	return out
}

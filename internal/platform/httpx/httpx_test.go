package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorNotFoundHasEmptyBody(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("cashcard 7: %w", ErrNotFound))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestRespondErrorValidationWritesProblem(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("%w: amount is required", ErrValidation))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "amount is required")
}

func TestRespondErrorUnknownHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection reset")
}

func TestDecodeJSONRequiresSingleValue(t *testing.T) {
	type body struct {
		Amount int `json:"amount"`
	}
	cases := map[string]error{
		`{"amount":5}`:             nil,
		"{\"amount\":5}\n\t ":      nil,
		`{"amount":5}garbage`:      ErrTrailingData,
		`{"amount":5}{"amount":6}`: ErrTrailingData,
		`{"amount":5} 7`:           ErrTrailingData,
	}
	for raw, want := range cases {
		var got body
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		err := DecodeJSON(req, &got)
		if want == nil {
			require.NoError(t, err, raw)
			assert.Equal(t, 5, got.Amount, raw)
			continue
		}
		assert.ErrorIs(t, err, want, raw)
	}
}

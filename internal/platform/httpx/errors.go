// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the transport layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps errors to HTTP responses. Not found, forbidden and
// unauthorized outcomes carry no body so callers cannot learn why a request
// was refused; validation failures are reported using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Status(w, http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		Status(w, http.StatusForbidden)
	case errors.Is(err, ErrUnauthorized):
		Status(w, http.StatusUnauthorized)
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

package cashcard_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/cashcard/internal/auth"
	"github.com/odyssey-erp/cashcard/internal/cashcard"
	"github.com/odyssey-erp/cashcard/internal/cashcard/memstore"
)

type cardJSON struct {
	ID     int64       `json:"id"`
	Amount json.Number `json:"amount"`
	Owner  string      `json:"owner"`
}

// newRouter mounts the handler with the principal taken from the X-Test-User
// header so tests can exercise ownership without the auth chain.
func newRouter(t *testing.T) http.Handler {
	t.Helper()
	store := memstore.New()
	store.Seed(cashcard.DemoCards()...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := cashcard.NewHandler(logger, cashcard.NewService(store), "/cashcards", cashcard.PageLimits{})

	r := chi.NewRouter()
	r.Route("/cashcards", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if user := req.Header.Get("X-Test-User"); user != "" {
					p := auth.Principal{Username: user, Role: auth.RoleCardOwner}
					req = req.WithContext(auth.ContextWithPrincipal(req.Context(), p))
				}
				next.ServeHTTP(w, req)
			})
		})
		h.MountRoutes(r)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, target, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerGet(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodGet, "/cashcards/99", "sarah1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var card cardJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, cardJSON{ID: 99, Amount: "123.45", Owner: "sarah1"}, card)

	for _, target := range []string{"/cashcards/102", "/cashcards/1000"} {
		rec = do(t, h, http.MethodGet, target, "sarah1", "")
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Empty(t, rec.Body.String(), target)
	}

	rec = do(t, h, http.MethodGet, "/cashcards/abc", "sarah1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerRequiresPrincipal(t *testing.T) {
	rec := do(t, newRouter(t), http.MethodGet, "/cashcards/99", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHandlerCreateIgnoresClientOwner(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodPost, "/cashcards", "sarah1", `{"id":7,"amount":250.00,"owner":"kumar2"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Body.String())
	location := rec.Header().Get("Location")
	assert.Equal(t, "http://example.com/cashcards/103", location)

	rec = do(t, h, http.MethodGet, strings.TrimPrefix(location, "http://example.com"), "sarah1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var card cardJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, cardJSON{ID: 103, Amount: "250", Owner: "sarah1"}, card)
}

func TestHandlerCreateHonoursForwardedProto(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/cashcards", strings.NewReader(`{"amount":1}`))
	req.Header.Set("X-Test-User", "sarah1")
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "https://example.com/cashcards/103", rec.Header().Get("Location"))
}

func TestHandlerRejectsBadBodies(t *testing.T) {
	h := newRouter(t)
	for _, body := range []string{`{}`, `{"amount":null}`, `not json`, `{"amount":"lots"}`} {
		rec := do(t, h, http.MethodPost, "/cashcards", "sarah1", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"), body)
	}
}

func TestHandlerList(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodGet, "/cashcards", "sarah1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cards []cardJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cards))
	require.Len(t, cards, 3)
	assert.Equal(t, []int64{100, 99, 101}, []int64{cards[0].ID, cards[1].ID, cards[2].ID})

	rec = do(t, h, http.MethodGet, "/cashcards?page=0&size=1&sort=amount,desc", "sarah1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, json.Number("150"), cards[0].Amount)

	rec = do(t, h, http.MethodGet, "/cashcards", "hank-owns-no-cards", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/cashcards?sort=secret", "sarah1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUpdate(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodPut, "/cashcards/99", "sarah1", `{"amount":19.99,"owner":"kumar2"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/cashcards/99", "sarah1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var card cardJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, cardJSON{ID: 99, Amount: "19.99", Owner: "sarah1"}, card)

	for _, target := range []string{"/cashcards/102", "/cashcards/99999"} {
		rec = do(t, h, http.MethodPut, target, "sarah1", `{"amount":333.33}`)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Empty(t, rec.Body.String(), target)
	}

	rec = do(t, h, http.MethodGet, "/cashcards/102", "kumar2", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, json.Number("200"), card.Amount)
}

func TestHandlerDelete(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodDelete, "/cashcards/102", "sarah1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/cashcards/99", "sarah1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/cashcards/99", "sarah1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/cashcards/99", "sarah1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/cashcards/102", "kumar2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerRejectsOversizedAmounts(t *testing.T) {
	h := newRouter(t)

	for _, body := range []string{`{"amount":1e50000000}`, `{"amount":1e-20000}`, `{"amount":"-9e131072"}`} {
		rec := do(t, h, http.MethodPost, "/cashcards", "sarah1", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"), body)
		assert.Contains(t, rec.Body.String(), "fractional digits", body)
		assert.Empty(t, rec.Header().Get("Location"), body)

		rec = do(t, h, http.MethodPut, "/cashcards/99", "sarah1", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := do(t, h, http.MethodGet, "/cashcards/103", "sarah1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "rejected create must not store a card")

	rec = do(t, h, http.MethodGet, "/cashcards/99", "sarah1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var card cardJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, json.Number("123.45"), card.Amount)
}

func TestHandlerRejectsTrailingData(t *testing.T) {
	h := newRouter(t)

	rec := do(t, h, http.MethodPut, "/cashcards/99", "sarah1", `{"amount":5}garbage`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/cashcards", "sarah1", `{"amount":5}{"amount":6}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/cashcards/99", "sarah1", "{\"amount\":5}\n")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

package cashcard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/cashcard/internal/auth"
	"github.com/odyssey-erp/cashcard/internal/platform/httpx"
)

const maxBodyBytes = 1 << 20

// Handler serves the cash card resource.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	basePath  string
	limits    PageLimits
}

// NewHandler constructs a Handler. basePath is the mount point used to build
// Location headers, for example "/cashcards".
func NewHandler(logger *slog.Logger, service *Service, basePath string, limits PageLimits) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: newValidator(),
		basePath:  basePath,
		limits:    limits.normalized(),
	}
}

// MountRoutes registers every entry of the dispatch table on r.
func (h *Handler) MountRoutes(r chi.Router) {
	for _, rt := range routes {
		handle := rt.handle
		r.MethodFunc(rt.Method, rt.Pattern, func(w http.ResponseWriter, r *http.Request) {
			handle(h, w, r)
		})
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	card, err := h.service.Get(r.Context(), owner, id)
	if err != nil {
		h.fail(w, "get cashcard", err, slog.Int64("id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(card))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	page, err := ParsePageRequest(r.URL.Query(), h.limits)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	cards, err := h.service.List(r.Context(), owner, page)
	if err != nil {
		h.fail(w, "list cashcards", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(cards))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeAmount(w, r)
	if !ok {
		return
	}
	card, err := h.service.Create(r.Context(), owner, *req.Amount)
	if err != nil {
		h.fail(w, "create cashcard", err)
		return
	}
	w.Header().Set("Location", h.resourceURL(r, card.ID))
	httpx.Status(w, http.StatusCreated)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeAmount(w, r)
	if !ok {
		return
	}
	if err := h.service.Update(r.Context(), owner, id, *req.Amount); err != nil {
		h.fail(w, "update cashcard", err, slog.Int64("id", id))
		return
	}
	httpx.Status(w, http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), owner, id); err != nil {
		h.fail(w, "delete cashcard", err, slog.Int64("id", id))
		return
	}
	httpx.Status(w, http.StatusNoContent)
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (Owner, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok || principal.Username == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return "", false
	}
	return Owner(principal.Username), true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "cash card id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeAmount(w http.ResponseWriter, r *http.Request) (amountRequest, bool) {
	var req amountRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", "request body must be a JSON object with a numeric amount")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, validationMessage(err)))
		return req, false
	}
	return req, true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Tag() == tagAmountRange {
				return fmt.Sprintf("amount must have at most %d integer and %d fractional digits", MaxIntegerDigits, MaxFractionDigits)
			}
		}
	}
	return "amount is required"
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error, attrs ...any) {
	if errors.Is(err, ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if errors.Is(err, ErrInvalidAmount) {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	h.logger.Error(op, append(attrs, slog.Any("error", err))...)
	httpx.RespondError(w, err)
}

func (h *Handler) resourceURL(r *http.Request, id int64) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	u := url.URL{
		Scheme: scheme,
		Host:   r.Host,
		Path:   path.Join("/", h.basePath, strconv.FormatInt(id, 10)),
	}
	return u.String()
}

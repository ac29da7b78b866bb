package coupon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/velora-hq/backend-salon/internal/common"
)

// Handler exposes the public offers listing and administrative coupon
// management endpoints.
type Handler struct {
	Svc   *Service
	Store *Store
}

type couponPayload struct {
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	Percent       int          `json:"percent"`
	MaxDiscount   *int64       `json:"maxDiscount"`
	MinOrderValue *int64       `json:"minOrderValue"`
	ValidUntil    string       `json:"validUntil"`
	FreeService   *FreeService `json:"freeService"`
}

// ListOffers returns the coupons and codeless offers still valid today.
func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	rules, err := h.Svc.ListOffers(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "offers are unavailable right now", nil)
		return
	}
	if rules == nil {
		rules = []Rule{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rules})
}

// Create inserts a new coupon rule.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	rule, err := buildRule("", payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	created, err := h.Store.Create(r.Context(), rule)
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create coupon", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update rewrites an existing coupon identified by id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	rule, err := buildRule(id, payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	updated, err := h.Store.Update(r.Context(), rule)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
		case errors.Is(err, ErrDuplicateCode):
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update coupon", nil)
		}
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Delete removes a coupon rule.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete coupon", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": id}})
}

func buildRule(id string, payload couponPayload) (Rule, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return Rule{}, errors.New("name is required")
	}
	if payload.Percent < 0 || payload.Percent > 100 {
		return Rule{}, errors.New("percent must be between 0 and 100")
	}
	if _, err := parseDate(payload.ValidUntil); err != nil {
		return Rule{}, err
	}
	if payload.MaxDiscount != nil && *payload.MaxDiscount < 0 {
		return Rule{}, errors.New("maxDiscount must not be negative")
	}
	if payload.MinOrderValue != nil && *payload.MinOrderValue < 0 {
		return Rule{}, errors.New("minOrderValue must not be negative")
	}
	if payload.FreeService != nil && strings.TrimSpace(payload.FreeService.ID) == "" {
		return Rule{}, errors.New("freeService.id is required when freeService is set")
	}
	return Rule{
		ID:            id,
		Code:          strings.TrimSpace(payload.Code),
		Name:          name,
		Percent:       payload.Percent,
		MaxDiscount:   payload.MaxDiscount,
		MinOrderValue: payload.MinOrderValue,
		ValidUntil:    strings.TrimSpace(payload.ValidUntil),
		FreeService:   payload.FreeService,
	}, nil
}

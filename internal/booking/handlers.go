package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/velora-hq/backend-salon/internal/cart"
	"github.com/velora-hq/backend-salon/internal/common"
	"github.com/velora-hq/backend-salon/internal/coupon"
)

// Handler exposes the booking submission endpoint.
type Handler struct {
	Svc *Service
}

// Submit handles POST /api/v1/bookings.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "booking service not configured", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	userID, _ := common.UserID(r.Context())
	o, err := h.Svc.Submit(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": o})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		details := make(map[string]any, len(verr))
		for _, fe := range verr {
			details[fe.Field()] = fe.Tag()
		}
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid booking input", details)
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cannot submit a booking for an empty cart", nil)
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, coupon.ErrCatalogUnavailable):
		common.JSONError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "coupon catalog is unavailable right now", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "booking submission failed", nil)
	}
}

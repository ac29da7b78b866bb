package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/velora-hq/backend-salon/internal/common"
	"github.com/velora-hq/backend-salon/internal/events"
)

// Handler exposes customer-facing booking endpoints.
type Handler struct {
	Store *Store
	Bus   *events.Bus
}

// List handles GET /api/v1/orders for the authenticated user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	total, err := h.Store.CountByUser(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count bookings", nil)
		return
	}
	orders, err := h.Store.ListByUser(r.Context(), userID, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list bookings", nil)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Get handles GET /api/v1/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	userID, _ := common.UserID(r.Context())
	o, err := h.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "booking not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load booking", nil)
		return
	}
	if o.UserID != "" && o.UserID != userID {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "booking not found", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Cancel handles POST /api/v1/orders/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	userID, _ := common.UserID(r.Context())
	id := chi.URLParam(r, "id")
	existing, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "booking not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load booking", nil)
		return
	}
	if existing.UserID != "" && existing.UserID != userID {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "booking not found", nil)
		return
	}
	updated, err := h.Store.UpdateStatus(r.Context(), id, StatusCancelled)
	if err != nil {
		h.writeStatusError(w, err)
		return
	}
	if h.Bus != nil {
		_, _ = h.Bus.Emit(r.Context(), events.TopicBookingCancelled, updated.ID, map[string]any{"status": updated.Status})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// AdminHandler exposes administrative booking management endpoints.
type AdminHandler struct {
	Store *Store
	Bus   *events.Bus
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// List handles GET /api/v1/admin/orders with optional status filter.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	orders, err := h.Store.ListAll(r.Context(), status, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list bookings", nil)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(orders)},
	})
}

// PatchStatus handles PATCH /api/v1/admin/orders/{id}/status.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	to := strings.ToUpper(strings.TrimSpace(req.Status))
	switch to {
	case StatusConfirmed, StatusCompleted, StatusCancelled:
	default:
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported status", nil)
		return
	}
	updated, err := h.Store.UpdateStatus(r.Context(), chi.URLParam(r, "id"), to)
	if err != nil {
		h.writeStatusError(w, err)
		return
	}
	if h.Bus != nil {
		topic := topicForStatus(to)
		if topic != "" {
			_, _ = h.Bus.Emit(r.Context(), topic, updated.ID, map[string]any{"status": updated.Status})
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

func (h *Handler) writeStatusError(w http.ResponseWriter, err error) {
	writeStatusError(w, err)
}

func (h *AdminHandler) writeStatusError(w http.ResponseWriter, err error) {
	writeStatusError(w, err)
}

func writeStatusError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "booking not found", nil)
	case errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update booking", nil)
	}
}

func topicForStatus(status string) string {
	switch status {
	case StatusConfirmed:
		return events.TopicBookingConfirmed
	case StatusCompleted:
		return events.TopicBookingCompleted
	case StatusCancelled:
		return events.TopicBookingCancelled
	default:
		return ""
	}
}

package favorites

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velora-hq/backend-salon/internal/common"
)

// Handler exposes the favorites endpoints for authenticated users.
type Handler struct {
	Svc *Service
}

// List handles GET /api/v1/me/favorites.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	favs, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list favorites", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": favs})
}

// Add handles PUT /api/v1/me/favorites/{kind}/{id}.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Add(r.Context(), userID, chi.URLParam(r, "kind"), chi.URLParam(r, "id")); err != nil {
		writeFavError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /api/v1/me/favorites/{kind}/{id}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Remove(r.Context(), userID, chi.URLParam(r, "kind"), chi.URLParam(r, "id")); err != nil {
		writeFavError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return userID, true
}

func writeFavError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidRef) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "kind must be service or package", nil)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update favorites", nil)
}

package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/velora-hq/backend-salon/internal/common"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Services handles GET /api/v1/services with optional category and q filters.
func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rows, err := h.service.ListServices(r.Context(), r.URL.Query().Get("category"), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// ServiceDetail handles GET /api/v1/services/{id}.
func (h *Handler) ServiceDetail(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	svc, err := h.service.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": svc})
}

// Packages handles GET /api/v1/packages.
func (h *Handler) Packages(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rows, err := h.service.ListPackages(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// PackageDetail handles GET /api/v1/packages/{id}.
func (h *Handler) PackageDetail(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	p, err := h.service.GetPackage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rows, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Testimonials handles GET /api/v1/testimonials.
func (h *Handler) Testimonials(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 20)
	rows, err := h.service.ListTestimonials(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog request failed", nil)
}

// AdminHandler exposes administrative catalog management endpoints.
type AdminHandler struct {
	Store *Store
	Cache *Cache
}

type servicePayload struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	Price       int64   `json:"price"`
	OfferPrice  *int64  `json:"offerPrice"`
	Duration    int     `json:"duration"`
	CategoryID  *string `json:"categoryId"`
}

type packagePayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	Price       int64    `json:"price"`
	OfferPrice  *int64   `json:"offerPrice"`
	ServiceIDs  []string `json:"serviceIds"`
}

type testimonialPayload struct {
	Author string `json:"author"`
	Quote  string `json:"quote"`
	Rating int    `json:"rating"`
}

// CreateService handles POST /api/v1/admin/services.
func (h *AdminHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog store not configured", nil)
		return
	}
	var payload servicePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	svc, err := buildService("", payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	created, err := h.Store.CreateService(r.Context(), svc)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create service", nil)
		return
	}
	h.invalidate(r, "catalog:services:all")
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// UpdateService handles PUT /api/v1/admin/services/{id}.
func (h *AdminHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog store not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	var payload servicePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	svc, err := buildService(id, payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	updated, err := h.Store.UpdateService(r.Context(), svc)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "service not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update service", nil)
		return
	}
	h.invalidate(r, "catalog:services:all")
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// DeleteService handles DELETE /api/v1/admin/services/{id}.
func (h *AdminHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog store not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := h.Store.DeleteService(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "service not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete service", nil)
		return
	}
	h.invalidate(r, "catalog:services:all")
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": id}})
}

// CreatePackage handles POST /api/v1/admin/packages.
func (h *AdminHandler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog store not configured", nil)
		return
	}
	var payload packagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.Name) == "" || len(payload.ServiceIDs) == 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "name and serviceIds are required", nil)
		return
	}
	p := Package{
		Name:        strings.TrimSpace(payload.Name),
		Description: payload.Description,
		ImageURL:    payload.ImageURL,
		Price:       payload.Price,
		OfferPrice:  payload.OfferPrice,
	}
	for _, id := range payload.ServiceIDs {
		p.Items = append(p.Items, PackageItem{ServiceID: strings.TrimSpace(id)})
	}
	created, err := h.Store.CreatePackage(r.Context(), p)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create package", nil)
		return
	}
	h.invalidate(r, "catalog:packages:all")
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// DeletePackage handles DELETE /api/v1/admin/packages/{id}.
func (h *AdminHandler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog store not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := h.Store.DeletePackage(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "package not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete package", nil)
		return
	}
	h.invalidate(r, "catalog:packages:all")
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": id}})
}

// CreateTestimonial handles POST /api/v1/admin/testimonials.
func (h *AdminHandler) CreateTestimonial(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog store not configured", nil)
		return
	}
	var payload testimonialPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.Author) == "" || strings.TrimSpace(payload.Quote) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "author and quote are required", nil)
		return
	}
	if payload.Rating < 1 || payload.Rating > 5 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "rating must be between 1 and 5", nil)
		return
	}
	created, err := h.Store.CreateTestimonial(r.Context(), Testimonial{
		Author: strings.TrimSpace(payload.Author),
		Quote:  strings.TrimSpace(payload.Quote),
		Rating: payload.Rating,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create testimonial", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// DeleteTestimonial handles DELETE /api/v1/admin/testimonials/{id}.
func (h *AdminHandler) DeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog store not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := h.Store.DeleteTestimonial(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "testimonial not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete testimonial", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": id}})
}

func (h *AdminHandler) invalidate(r *http.Request, key string) {
	if h.Cache != nil {
		_ = h.Cache.Delete(r.Context(), key)
	}
}

func buildService(id string, payload servicePayload) (ServiceItem, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return ServiceItem{}, errors.New("name is required")
	}
	if payload.Price < 0 {
		return ServiceItem{}, errors.New("price must not be negative")
	}
	if payload.OfferPrice != nil && *payload.OfferPrice < 0 {
		return ServiceItem{}, errors.New("offerPrice must not be negative")
	}
	if payload.Duration < 0 {
		return ServiceItem{}, errors.New("duration must not be negative")
	}
	return ServiceItem{
		ID:          id,
		Name:        name,
		Description: payload.Description,
		ImageURL:    payload.ImageURL,
		Price:       payload.Price,
		OfferPrice:  payload.OfferPrice,
		Duration:    payload.Duration,
		CategoryID:  payload.CategoryID,
	}, nil
}

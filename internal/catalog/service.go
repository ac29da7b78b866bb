package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/velora-hq/backend-salon/internal/common"
	"github.com/velora-hq/backend-salon/internal/pricing"
)

// Kinds of bookable catalog lines.
const (
	KindService = "service"
	KindPackage = "package"
)

type queryProvider interface {
	ListServices(ctx context.Context, categorySlug, q string) ([]ServiceItem, error)
	GetServiceByID(ctx context.Context, id string) (ServiceItem, error)
	ListPackages(ctx context.Context) ([]Package, error)
	GetPackageByID(ctx context.Context, id string) (Package, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListTestimonials(ctx context.Context, limit int) ([]Testimonial, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	queries queryProvider
	cache   *Cache
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries queryProvider
	Cache   *Cache
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	return &Service{queries: cfg.Queries, cache: cfg.Cache}, nil
}

// ListServices returns services filtered by category slug and name search.
// The unfiltered listing is cached.
func (s *Service) ListServices(ctx context.Context, categorySlug, q string) ([]ServiceItem, error) {
	categorySlug = strings.TrimSpace(categorySlug)
	q = strings.TrimSpace(q)
	useCache := categorySlug == "" && q == ""
	const key = "catalog:services:all"
	if useCache && s.cache != nil {
		var cached []ServiceItem
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	items, err := s.queries.ListServices(ctx, categorySlug, q)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	if items == nil {
		items = []ServiceItem{}
	}
	if useCache && s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, items)
	}
	return items, nil
}

// GetService returns a single service by id.
func (s *Service) GetService(ctx context.Context, id string) (ServiceItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ServiceItem{}, badRequest("id", "id is required", nil)
	}
	svc, err := s.queries.GetServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ServiceItem{}, notFound("service not found", err)
		}
		return ServiceItem{}, fmt.Errorf("get service: %w", err)
	}
	return svc, nil
}

// ListPackages returns all packages with bundled services, cached.
func (s *Service) ListPackages(ctx context.Context) ([]Package, error) {
	const key = "catalog:packages:all"
	if s.cache != nil {
		var cached []Package
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	packages, err := s.queries.ListPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	if packages == nil {
		packages = []Package{}
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, packages)
	}
	return packages, nil
}

// GetPackage returns a single package by id.
func (s *Service) GetPackage(ctx context.Context, id string) (Package, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Package{}, badRequest("id", "id is required", nil)
	}
	p, err := s.queries.GetPackageByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Package{}, notFound("package not found", err)
		}
		return Package{}, fmt.Errorf("get package: %w", err)
	}
	return p, nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []Category{}
	}
	return categories, nil
}

// ListTestimonials returns the most recent testimonials.
func (s *Service) ListTestimonials(ctx context.Context, limit int) ([]Testimonial, error) {
	testimonials, err := s.queries.ListTestimonials(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	if testimonials == nil {
		testimonials = []Testimonial{}
	}
	return testimonials, nil
}

// LineItemFor snapshots a catalog entry into a cart line. Prices and durations
// are copied at add time so later catalog edits do not mutate open carts.
func (s *Service) LineItemFor(ctx context.Context, kind, id string, quantity int) (pricing.LineItem, error) {
	if quantity < 1 {
		quantity = 1
	}
	switch kind {
	case KindService, "":
		svc, err := s.GetService(ctx, id)
		if err != nil {
			return pricing.LineItem{}, err
		}
		return pricing.LineItem{
			ID:         svc.ID,
			Name:       svc.Name,
			ImageURL:   svc.ImageURL,
			Price:      svc.Price,
			OfferPrice: svc.OfferPrice,
			Quantity:   quantity,
			Duration:   svc.Duration,
		}, nil
	case KindPackage:
		p, err := s.GetPackage(ctx, id)
		if err != nil {
			return pricing.LineItem{}, err
		}
		services := make([]pricing.SubItem, 0, len(p.Items))
		for _, item := range p.Items {
			services = append(services, pricing.SubItem{Name: item.Name, Duration: item.Duration})
		}
		return pricing.LineItem{
			ID:         p.ID,
			Name:       p.Name,
			ImageURL:   p.ImageURL,
			Price:      p.Price,
			OfferPrice: p.OfferPrice,
			Quantity:   quantity,
			Services:   services,
		}, nil
	default:
		return pricing.LineItem{}, badRequest("kind", "kind must be service or package", nil)
	}
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}

func notFound(message string, err error) *common.AppError {
	return &common.AppError{Code: "NOT_FOUND", Message: message, HTTPStatus: http.StatusNotFound, Err: err}
}

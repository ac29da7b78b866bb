package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/velora-hq/backend-salon/internal/catalog"
)

type fakeQueries struct {
	services     []catalog.ServiceItem
	packages     []catalog.Package
	categories   []catalog.Category
	testimonials []catalog.Testimonial
}

func (f *fakeQueries) ListServices(_ context.Context, categorySlug, q string) ([]catalog.ServiceItem, error) {
	return f.services, nil
}

func (f *fakeQueries) GetServiceByID(_ context.Context, id string) (catalog.ServiceItem, error) {
	for _, svc := range f.services {
		if svc.ID == id {
			return svc, nil
		}
	}
	return catalog.ServiceItem{}, catalog.ErrNotFound
}

func (f *fakeQueries) ListPackages(_ context.Context) ([]catalog.Package, error) {
	return f.packages, nil
}

func (f *fakeQueries) GetPackageByID(_ context.Context, id string) (catalog.Package, error) {
	for _, p := range f.packages {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Package{}, catalog.ErrNotFound
}

func (f *fakeQueries) ListCategories(_ context.Context) ([]catalog.Category, error) {
	return f.categories, nil
}

func (f *fakeQueries) ListTestimonials(_ context.Context, limit int) ([]catalog.Testimonial, error) {
	return f.testimonials, nil
}

func offer(v int64) *int64 { return &v }

func newTestHandler(t *testing.T, queries *fakeQueries) *catalog.Handler {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{Queries: queries})
	require.NoError(t, err)
	return catalog.NewHandler(catalog.HandlerConfig{Service: svc})
}

func TestServicesEndpoint(t *testing.T) {
	handler := newTestHandler(t, &fakeQueries{
		services: []catalog.ServiceItem{
			{ID: "svc-1", Name: "Haircut", Price: 400, Duration: 30},
			{ID: "svc-2", Name: "Hair Spa", Price: 1000, OfferPrice: offer(800), Duration: 45},
		},
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/services", nil)
	rr := httptest.NewRecorder()
	handler.Services(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data []catalog.ServiceItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, int64(800), *body.Data[1].OfferPrice)
}

func TestServiceDetailNotFound(t *testing.T) {
	handler := newTestHandler(t, &fakeQueries{})
	router := chi.NewRouter()
	router.Get("/api/v1/services/{id}", handler.ServiceDetail)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/services/missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPackagesEndpointIncludesBundledServices(t *testing.T) {
	handler := newTestHandler(t, &fakeQueries{
		packages: []catalog.Package{{
			ID:    "pkg-1",
			Name:  "Bridal Glow",
			Price: 900,
			Items: []catalog.PackageItem{
				{ServiceID: "svc-1", Name: "Facial", Duration: 20},
				{ServiceID: "svc-2", Name: "Threading", Duration: 15},
			},
		}},
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/packages", nil)
	rr := httptest.NewRecorder()
	handler.Packages(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data []catalog.Package `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Len(t, body.Data[0].Items, 2)
}

func TestTestimonialsEndpoint(t *testing.T) {
	handler := newTestHandler(t, &fakeQueries{
		testimonials: []catalog.Testimonial{{ID: "t1", Author: "Priya", Quote: "Loved it", Rating: 5}},
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/testimonials?limit=5", nil)
	rr := httptest.NewRecorder()
	handler.Testimonials(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestLineItemForSnapshotsPackage(t *testing.T) {
	queries := &fakeQueries{
		packages: []catalog.Package{{
			ID:    "pkg-1",
			Name:  "Bridal Glow",
			Price: 900,
			Items: []catalog.PackageItem{
				{ServiceID: "svc-1", Name: "Facial", Duration: 20},
				{ServiceID: "svc-2", Name: "Threading", Duration: 15},
			},
		}},
	}
	svc, err := catalog.NewService(catalog.ServiceConfig{Queries: queries})
	require.NoError(t, err)

	line, err := svc.LineItemFor(context.Background(), catalog.KindPackage, "pkg-1", 2)
	require.NoError(t, err)
	require.Equal(t, "pkg-1", line.ID)
	require.Equal(t, 2, line.Quantity)
	require.Len(t, line.Services, 2)
	require.Equal(t, int64(900), line.Price)
}

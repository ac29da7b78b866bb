package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a catalog entity does not exist.
var ErrNotFound = errors.New("catalog: not found")

// DB captures the pgx methods the store depends on; *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store reads and writes catalog entities in PostgreSQL.
type Store struct {
	DB DB
}

const (
	serviceColumns        = `id, name, description, image_url, price, offer_price, duration, category_id`
	serviceColumnsAliased = `s.id, s.name, s.description, s.image_url, s.price, s.offer_price, s.duration, s.category_id`
)

// ListServices returns services, optionally filtered by category slug and a
// case-insensitive name match.
func (s *Store) ListServices(ctx context.Context, categorySlug, q string) ([]ServiceItem, error) {
	sql := `SELECT ` + serviceColumnsAliased + ` FROM services s`
	args := []any{}
	var where []string
	if categorySlug = strings.TrimSpace(categorySlug); categorySlug != "" {
		args = append(args, categorySlug)
		sql += ` JOIN categories c ON c.id = s.category_id`
		where = append(where, fmt.Sprintf("c.slug = $%d", len(args)))
	}
	if q = strings.TrimSpace(q); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("s.name ILIKE $%d", len(args)))
	}
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY s.name ASC`
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()
	var out []ServiceItem
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

// GetServiceByID fetches a single service.
func (s *Store) GetServiceByID(ctx context.Context, id string) (ServiceItem, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ServiceItem{}, ErrNotFound
		}
		return ServiceItem{}, fmt.Errorf("get service: %w", err)
	}
	return svc, nil
}

// CreateService inserts a service and returns it with its generated id.
func (s *Store) CreateService(ctx context.Context, svc ServiceItem) (ServiceItem, error) {
	svc.ID = uuid.NewString()
	_, err := s.DB.Exec(ctx,
		`INSERT INTO services (id, name, description, image_url, price, offer_price, duration, category_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		svc.ID, svc.Name, svc.Description, svc.ImageURL, svc.Price, svc.OfferPrice, svc.Duration, svc.CategoryID)
	if err != nil {
		return ServiceItem{}, fmt.Errorf("create service: %w", err)
	}
	return svc, nil
}

// UpdateService rewrites an existing service.
func (s *Store) UpdateService(ctx context.Context, svc ServiceItem) (ServiceItem, error) {
	tag, err := s.DB.Exec(ctx,
		`UPDATE services SET name = $2, description = $3, image_url = $4, price = $5, offer_price = $6,
		 duration = $7, category_id = $8, updated_at = now() WHERE id = $1`,
		svc.ID, svc.Name, svc.Description, svc.ImageURL, svc.Price, svc.OfferPrice, svc.Duration, svc.CategoryID)
	if err != nil {
		return ServiceItem{}, fmt.Errorf("update service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ServiceItem{}, ErrNotFound
	}
	return svc, nil
}

// DeleteService removes a service.
func (s *Store) DeleteService(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPackages returns all packages with their bundled services.
func (s *Store) ListPackages(ctx context.Context) ([]Package, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT id, name, description, image_url, price, offer_price FROM packages ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()
	var out []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Price, &p.OfferPrice); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := s.listPackageItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// GetPackageByID fetches a package with its bundled services.
func (s *Store) GetPackageByID(ctx context.Context, id string) (Package, error) {
	row := s.DB.QueryRow(ctx,
		`SELECT id, name, description, image_url, price, offer_price FROM packages WHERE id = $1`, id)
	var p Package
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Price, &p.OfferPrice); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Package{}, ErrNotFound
		}
		return Package{}, fmt.Errorf("get package: %w", err)
	}
	items, err := s.listPackageItems(ctx, p.ID)
	if err != nil {
		return Package{}, err
	}
	p.Items = items
	return p, nil
}

func (s *Store) listPackageItems(ctx context.Context, packageID string) ([]PackageItem, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT pi.service_id, s.name, s.duration
		 FROM package_items pi JOIN services s ON s.id = pi.service_id
		 WHERE pi.package_id = $1 ORDER BY pi.position ASC`, packageID)
	if err != nil {
		return nil, fmt.Errorf("list package items: %w", err)
	}
	defer rows.Close()
	var items []PackageItem
	for rows.Next() {
		var item PackageItem
		if err := rows.Scan(&item.ServiceID, &item.Name, &item.Duration); err != nil {
			return nil, fmt.Errorf("scan package item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreatePackage inserts a package and its item links.
func (s *Store) CreatePackage(ctx context.Context, p Package) (Package, error) {
	p.ID = uuid.NewString()
	_, err := s.DB.Exec(ctx,
		`INSERT INTO packages (id, name, description, image_url, price, offer_price)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Description, p.ImageURL, p.Price, p.OfferPrice)
	if err != nil {
		return Package{}, fmt.Errorf("create package: %w", err)
	}
	for pos, item := range p.Items {
		if _, err := s.DB.Exec(ctx,
			`INSERT INTO package_items (package_id, service_id, position) VALUES ($1, $2, $3)`,
			p.ID, item.ServiceID, pos); err != nil {
			return Package{}, fmt.Errorf("link package item: %w", err)
		}
	}
	return p, nil
}

// DeletePackage removes a package and its item links.
func (s *Store) DeletePackage(ctx context.Context, id string) error {
	if _, err := s.DB.Exec(ctx, `DELETE FROM package_items WHERE package_id = $1`, id); err != nil {
		return fmt.Errorf("unlink package items: %w", err)
	}
	tag, err := s.DB.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCategories returns all categories sorted by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, name, slug FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListTestimonials returns testimonials newest first.
func (s *Store) ListTestimonials(ctx context.Context, limit int) ([]Testimonial, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.DB.Query(ctx,
		`SELECT id, author, quote, rating, created_at FROM testimonials ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	defer rows.Close()
	var out []Testimonial
	for rows.Next() {
		var tm Testimonial
		if err := rows.Scan(&tm.ID, &tm.Author, &tm.Quote, &tm.Rating, &tm.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan testimonial: %w", err)
		}
		out = append(out, tm)
	}
	return out, rows.Err()
}

// CreateTestimonial inserts a testimonial.
func (s *Store) CreateTestimonial(ctx context.Context, tm Testimonial) (Testimonial, error) {
	tm.ID = uuid.NewString()
	row := s.DB.QueryRow(ctx,
		`INSERT INTO testimonials (id, author, quote, rating) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		tm.ID, tm.Author, tm.Quote, tm.Rating)
	if err := row.Scan(&tm.CreatedAt); err != nil {
		return Testimonial{}, fmt.Errorf("create testimonial: %w", err)
	}
	return tm, nil
}

// DeleteTestimonial removes a testimonial.
func (s *Store) DeleteTestimonial(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete testimonial: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanService(row pgx.Row) (ServiceItem, error) {
	var svc ServiceItem
	err := row.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.ImageURL,
		&svc.Price, &svc.OfferPrice, &svc.Duration, &svc.CategoryID)
	return svc, err
}

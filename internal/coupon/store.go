package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB captures the pgx methods the store depends on; *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrDuplicateCode indicates another coupon already uses the code.
var ErrDuplicateCode = errors.New("coupon code already exists")

// Store reads and writes coupon rules in PostgreSQL.
type Store struct {
	DB DB
}

const couponColumns = `id, code, name, percent, max_discount, min_order_value, valid_until, free_service_id, free_service_name, free_service_duration`

// GetByCode performs a case-insensitive exact match on the coupon code.
// Offers saved without a code are listable but can never be applied, so empty
// codes are excluded from matching.
func (s *Store) GetByCode(ctx context.Context, code string) (Rule, error) {
	row := s.DB.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code <> '' AND lower(code) = lower($1)`,
		strings.TrimSpace(code))
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, ErrNotFound
		}
		return Rule{}, fmt.Errorf("get coupon by code: %w", err)
	}
	return rule, nil
}

// ListActive returns coupons valid on or after the given date, soonest expiry
// first.
func (s *Store) ListActive(ctx context.Context, from string) ([]Rule, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE valid_until >= $1 ORDER BY valid_until ASC`,
		from)
	if err != nil {
		return nil, fmt.Errorf("list active coupons: %w", err)
	}
	defer rows.Close()
	var rules []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Create inserts a new coupon rule and returns it with its generated id.
func (s *Store) Create(ctx context.Context, rule Rule) (Rule, error) {
	id := uuid.NewString()
	validUntil, err := parseDate(rule.ValidUntil)
	if err != nil {
		return Rule{}, err
	}
	fsID, fsName, fsDuration := freeServiceFields(rule.FreeService)
	_, err = s.DB.Exec(ctx,
		`INSERT INTO coupons (id, code, name, percent, max_discount, min_order_value, valid_until, free_service_id, free_service_name, free_service_duration)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, strings.TrimSpace(rule.Code), rule.Name, rule.Percent, rule.MaxDiscount, rule.MinOrderValue,
		validUntil, fsID, fsName, fsDuration)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Rule{}, ErrDuplicateCode
		}
		return Rule{}, fmt.Errorf("create coupon: %w", err)
	}
	rule.ID = id
	return rule, nil
}

// Update rewrites an existing coupon rule identified by id.
func (s *Store) Update(ctx context.Context, rule Rule) (Rule, error) {
	validUntil, err := parseDate(rule.ValidUntil)
	if err != nil {
		return Rule{}, err
	}
	fsID, fsName, fsDuration := freeServiceFields(rule.FreeService)
	tag, err := s.DB.Exec(ctx,
		`UPDATE coupons SET code = $2, name = $3, percent = $4, max_discount = $5, min_order_value = $6,
		 valid_until = $7, free_service_id = $8, free_service_name = $9, free_service_duration = $10, updated_at = now()
		 WHERE id = $1`,
		rule.ID, strings.TrimSpace(rule.Code), rule.Name, rule.Percent, rule.MaxDiscount, rule.MinOrderValue,
		validUntil, fsID, fsName, fsDuration)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Rule{}, ErrDuplicateCode
		}
		return Rule{}, fmt.Errorf("update coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Rule{}, ErrNotFound
	}
	return rule, nil
}

// Delete removes a coupon rule.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRule(row pgx.Row) (Rule, error) {
	var (
		rule       Rule
		validUntil time.Time
		fsID       *string
		fsName     *string
		fsDuration *int
	)
	err := row.Scan(&rule.ID, &rule.Code, &rule.Name, &rule.Percent, &rule.MaxDiscount,
		&rule.MinOrderValue, &validUntil, &fsID, &fsName, &fsDuration)
	if err != nil {
		return Rule{}, err
	}
	rule.ValidUntil = validUntil.Format(time.DateOnly)
	if fsID != nil && *fsID != "" {
		fs := FreeService{ID: *fsID}
		if fsName != nil {
			fs.Name = *fsName
		}
		if fsDuration != nil {
			fs.Duration = *fsDuration
		}
		rule.FreeService = &fs
	}
	return rule, nil
}

func freeServiceFields(fs *FreeService) (id, name *string, duration *int) {
	if fs == nil {
		return nil, nil, nil
	}
	return &fs.ID, &fs.Name, &fs.Duration
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("validUntil must be YYYY-MM-DD: %w", err)
	}
	return parsed, nil
}

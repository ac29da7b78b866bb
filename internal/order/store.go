package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound indicates the requested booking does not exist.
var ErrNotFound = errors.New("order: not found")

// ErrInvalidTransition indicates a status change the lifecycle forbids.
var ErrInvalidTransition = errors.New("order: invalid status transition")

// DB is the pgx surface the store needs; *pgxpool.Pool satisfies it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists bookings in PostgreSQL.
type Store struct {
	DB DB
}

const orderColumns = `id, user_id, customer_name, customer_phone, customer_email,
 scheduled_date, scheduled_time, notes, items, coupon_code, coupon_name, free_service,
 subtotal, discount, discounted_subtotal, service_charge, total, total_duration,
 status, created_at, updated_at`

// Create inserts the booking and its line items in a single transaction.
func (s *Store) Create(ctx context.Context, o Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	var freeService []byte
	if o.FreeService != nil {
		freeService, err = json.Marshal(o.FreeService)
		if err != nil {
			return fmt.Errorf("encode free service: %w", err)
		}
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, customer_name, customer_phone, customer_email,
		 scheduled_date, scheduled_time, notes, items, coupon_code, coupon_name, free_service,
		 subtotal, discount, discounted_subtotal, service_charge, total, total_duration, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		o.ID, nullable(o.UserID), o.CustomerName, o.CustomerPhone, nullable(o.CustomerEmail),
		o.ScheduledDate, o.ScheduledTime, o.Notes, items, nullable(o.CouponCode), nullable(o.CouponName), freeService,
		o.Summary.Subtotal, o.Summary.Discount, o.Summary.DiscountedSubtotal,
		o.Summary.ServiceCharge, o.Summary.Total, o.Summary.TotalDuration, o.Status)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for _, item := range o.Items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items (order_id, item_id, name, price, offer_price, quantity, duration, is_free)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			o.ID, item.ID, item.Name, item.Price, item.OfferPrice, item.Qty(), item.Duration, item.IsFree); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// GetByID fetches a booking.
func (s *Store) GetByID(ctx context.Context, id string) (Order, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListByUser returns a page of the user's bookings, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountByUser counts the user's bookings.
func (s *Store) CountByUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.DB.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return total, nil
}

// ListAll returns a page of all bookings for the admin view, optionally
// filtered by status.
func (s *Store) ListAll(ctx context.Context, status string, limit, offset int) ([]Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if status != "" {
		args = append(args, status)
		sql += ` WHERE status = $1`
	}
	args = append(args, limit, offset)
	sql += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus transitions a booking, enforcing the lifecycle inside the
// transaction so concurrent updates cannot skip states.
func (s *Store) UpdateStatus(ctx context.Context, id, to string) (Order, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("lock order: %w", err)
	}
	if !ValidTransition(current, to) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, to)
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, to); err != nil {
		return Order{}, fmt.Errorf("update status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return s.GetByID(ctx, id)
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o           Order
		userID      *string
		email       *string
		couponCode  *string
		couponName  *string
		items       []byte
		freeService []byte
		date        time.Time
	)
	err := row.Scan(&o.ID, &userID, &o.CustomerName, &o.CustomerPhone, &email,
		&date, &o.ScheduledTime, &o.Notes, &items, &couponCode, &couponName, &freeService,
		&o.Summary.Subtotal, &o.Summary.Discount, &o.Summary.DiscountedSubtotal,
		&o.Summary.ServiceCharge, &o.Summary.Total, &o.Summary.TotalDuration,
		&o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.ScheduledDate = date.Format(time.DateOnly)
	if userID != nil {
		o.UserID = *userID
	}
	if email != nil {
		o.CustomerEmail = *email
	}
	if couponCode != nil {
		o.CouponCode = *couponCode
	}
	if couponName != nil {
		o.CouponName = *couponName
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return Order{}, fmt.Errorf("decode order items: %w", err)
		}
	}
	if len(freeService) > 0 {
		if err := json.Unmarshal(freeService, &o.FreeService); err != nil {
			return Order{}, fmt.Errorf("decode free service: %w", err)
		}
	}
	return o, nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

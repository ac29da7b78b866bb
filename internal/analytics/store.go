package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// DailyRow aggregates booking activity for one calendar day.
type DailyRow struct {
	Day       time.Time `json:"day"`
	Bookings  int64     `json:"bookings"`
	Completed int64     `json:"completed"`
	Cancelled int64     `json:"cancelled"`
	Revenue   int64     `json:"revenue"`
}

// TopServiceRow ranks catalog items by how often they were booked.
type TopServiceRow struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Bookings int64  `json:"bookings"`
	Quantity int64  `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

// OverviewRow is the dashboard headline: booking counts per status plus
// realized revenue from completed bookings.
type OverviewRow struct {
	Pending          int64 `json:"pending"`
	Confirmed        int64 `json:"confirmed"`
	Completed        int64 `json:"completed"`
	Cancelled        int64 `json:"cancelled"`
	RealizedRevenue  int64 `json:"realizedRevenue"`
	CouponedBookings int64 `json:"couponedBookings"`
}

// DB is the subset of pgxpool.Pool the analytics store needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store runs the aggregate queries directly against the bookings tables.
type Store struct {
	DB DB
}

// BookingsDaily returns per-day booking counts and revenue, inclusive of from
// and exclusive of to. Days without bookings are absent from the result.
func (s *Store) BookingsDaily(ctx context.Context, from, to time.Time) ([]DailyRow, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
		       COUNT(*) AS bookings,
		       COUNT(*) FILTER (WHERE status = 'COMPLETED') AS completed,
		       COUNT(*) FILTER (WHERE status = 'CANCELLED') AS cancelled,
		       COALESCE(SUM(total) FILTER (WHERE status <> 'CANCELLED'), 0) AS revenue
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY 1
		ORDER BY 1`, from, to)
	if err != nil {
		return nil, fmt.Errorf("bookings daily: %w", err)
	}
	defer rows.Close()
	var out []DailyRow
	for rows.Next() {
		var d DailyRow
		if err := rows.Scan(&d.Day, &d.Bookings, &d.Completed, &d.Cancelled, &d.Revenue); err != nil {
			return nil, fmt.Errorf("bookings daily: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TopServices ranks booked items by booking count. Free items are excluded so
// coupon giveaways do not inflate the ranking.
func (s *Store) TopServices(ctx context.Context, limit, offset int) ([]TopServiceRow, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT oi.item_id,
		       MAX(oi.name) AS name,
		       COUNT(DISTINCT oi.order_id) AS bookings,
		       SUM(oi.quantity) AS quantity,
		       SUM(COALESCE(oi.offer_price, oi.price) * oi.quantity) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status <> 'CANCELLED' AND NOT oi.is_free
		GROUP BY oi.item_id
		ORDER BY bookings DESC, revenue DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("top services: %w", err)
	}
	defer rows.Close()
	var out []TopServiceRow
	for rows.Next() {
		var t TopServiceRow
		if err := rows.Scan(&t.ItemID, &t.Name, &t.Bookings, &t.Quantity, &t.Revenue); err != nil {
			return nil, fmt.Errorf("top services: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Overview returns the status breakdown across all bookings.
func (s *Store) Overview(ctx context.Context) (OverviewRow, error) {
	var o OverviewRow
	err := s.DB.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'PENDING'),
		       COUNT(*) FILTER (WHERE status = 'CONFIRMED'),
		       COUNT(*) FILTER (WHERE status = 'COMPLETED'),
		       COUNT(*) FILTER (WHERE status = 'CANCELLED'),
		       COALESCE(SUM(total) FILTER (WHERE status = 'COMPLETED'), 0),
		       COUNT(*) FILTER (WHERE coupon_code IS NOT NULL)
		FROM orders`).
		Scan(&o.Pending, &o.Confirmed, &o.Completed, &o.Cancelled, &o.RealizedRevenue, &o.CouponedBookings)
	if err != nil {
		return OverviewRow{}, fmt.Errorf("overview: %w", err)
	}
	return o, nil
}

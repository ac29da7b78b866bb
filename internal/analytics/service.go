package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Querier defines the database access required for analytics operations.
type Querier interface {
	BookingsDaily(ctx context.Context, from, to time.Time) ([]DailyRow, error)
	TopServices(ctx context.Context, limit, offset int) ([]TopServiceRow, error)
	Overview(ctx context.Context) (OverviewRow, error)
}

// Service provides cached access to booking analytics.
type Service struct {
	Q            Querier
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// BookingsDaily returns the per-day booking summary between the provided
// bounds, inclusive of from and exclusive of to.
func (s *Service) BookingsDaily(ctx context.Context, from, to time.Time) ([]DailyRow, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("an", "daily", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []DailyRow
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.BookingsDaily(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// TopServices returns the most booked catalog items.
func (s *Service) TopServices(ctx context.Context, limit, offset int) ([]TopServiceRow, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	key := cacheKey("an", "top", limit, offset)
	var cached []TopServiceRow
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.TopServices(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// Overview returns the dashboard headline numbers.
func (s *Service) Overview(ctx context.Context) (OverviewRow, error) {
	if s == nil || s.Q == nil {
		return OverviewRow{}, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("an", "overview")
	var cached OverviewRow
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	row, err := s.Q.Overview(ctx)
	if err != nil {
		return OverviewRow{}, err
	}
	s.store(ctx, key, row)
	return row, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dest any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}

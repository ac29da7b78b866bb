package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/velora-hq/backend-salon/internal/analytics"
)

type stubQueries struct {
	dailyCalls    int
	overviewCalls int
}

func (s *stubQueries) BookingsDaily(_ context.Context, from, _ time.Time) ([]analytics.DailyRow, error) {
	s.dailyCalls++
	return []analytics.DailyRow{{Day: from, Bookings: 3, Completed: 2, Revenue: 2700}}, nil
}

func (s *stubQueries) TopServices(context.Context, int, int) ([]analytics.TopServiceRow, error) {
	return []analytics.TopServiceRow{{ItemID: "svc-1", Name: "Hair Spa", Bookings: 5, Quantity: 6, Revenue: 4800}}, nil
}

func (s *stubQueries) Overview(context.Context) (analytics.OverviewRow, error) {
	s.overviewCalls++
	return analytics.OverviewRow{Pending: 1, Completed: 4, RealizedRevenue: 3600}, nil
}

func newService(t *testing.T) (*analytics.Service, *stubQueries) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	queries := &stubQueries{}
	return &analytics.Service{Q: queries, R: rdb, TTL: time.Minute, DefaultRange: 30}, queries
}

func TestBookingsDailyCached(t *testing.T) {
	svc, queries := newService(t)
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	first, err := svc.BookingsDaily(context.Background(), from, to)
	require.NoError(t, err)
	second, err := svc.BookingsDaily(context.Background(), from, to)
	require.NoError(t, err)

	require.Equal(t, 1, queries.dailyCalls)
	require.Equal(t, first[0].Revenue, second[0].Revenue)
}

func TestOverviewCached(t *testing.T) {
	svc, queries := newService(t)
	first, err := svc.Overview(context.Background())
	require.NoError(t, err)
	second, err := svc.Overview(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, queries.overviewCalls)
	require.Equal(t, first.RealizedRevenue, second.RealizedRevenue)
}

func TestTopServicesDefaultsLimit(t *testing.T) {
	svc, _ := newService(t)
	rows, err := svc.TopServices(context.Background(), 0, -1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Hair Spa", rows[0].Name)
}

package favorites_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/velora-hq/backend-salon/internal/favorites"
)

func newService(t *testing.T) *favorites.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &favorites.Service{R: client}
}

func TestAddListRemove(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "user-1", "service", "svc-1"))
	require.NoError(t, svc.Add(ctx, "user-1", "package", "pkg-1"))
	// adding twice stays a single entry
	require.NoError(t, svc.Add(ctx, "user-1", "service", "svc-1"))

	favs, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, []favorites.Favorite{
		{Kind: "package", ID: "pkg-1"},
		{Kind: "service", ID: "svc-1"},
	}, favs)

	saved, err := svc.Check(ctx, "user-1", "service", "svc-1")
	require.NoError(t, err)
	require.True(t, saved)

	require.NoError(t, svc.Remove(ctx, "user-1", "service", "svc-1"))
	saved, err = svc.Check(ctx, "user-1", "service", "svc-1")
	require.NoError(t, err)
	require.False(t, saved)
}

func TestAddRejectsUnknownKind(t *testing.T) {
	svc := newService(t)
	err := svc.Add(context.Background(), "user-1", "product", "p-1")
	require.ErrorIs(t, err, favorites.ErrInvalidRef)
}

func TestListIsolatedPerUser(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, "user-1", "service", "svc-1"))

	favs, err := svc.List(ctx, "user-2")
	require.NoError(t, err)
	require.Empty(t, favs)
}

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velora-hq/backend-salon/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/salon",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "test-secret",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "backend-salon", cfg.JWTIssuer)
	require.Equal(t, 7*24*time.Hour, cfg.CartTTL)
	require.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, int64(20), cfg.CouponApplyLimit)
	require.Equal(t, time.Minute, cfg.CouponApplyWindow)
	require.Equal(t, "salon", cfg.MetricsNamespace)
	require.False(t, cfg.TracingEnabled)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	_, err := config.LoadForTests(env)
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	env["CART_TTL"] = "30m"
	env["CORS_ALLOWED_ORIGINS"] = "https://salon.example , https://admin.salon.example"
	env["TRACING_ENABLED"] = "true"

	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 30*time.Minute, cfg.CartTTL)
	require.Equal(t, []string{"https://salon.example", "https://admin.salon.example"}, cfg.CORSAllowedOrigins)
	require.True(t, cfg.TracingEnabled)
}

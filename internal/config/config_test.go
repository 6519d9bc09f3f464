package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverMySQL, cfg.DBDriver)
	require.Equal(t, "3306", cfg.DBPort)
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, cfg.DBDriver)
	require.Equal(t, 2*time.Hour, cfg.JWTTTL)
	require.True(t, cfg.IsProduction())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
}

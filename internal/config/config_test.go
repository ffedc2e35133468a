package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("GRADLINK_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "GradLink API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Equal(t, 2*time.Minute, cfg.StatsCacheTTL)
	require.Equal(t, 10, cfg.UploadMaxMB)
	require.False(t, cfg.GoogleEnabled())
	require.False(t, cfg.CloudinaryEnabled())
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("GRADLINK_JWT_SECRET", "secret")
	t.Setenv("GRADLINK_APP_PORT", ":9090")
	t.Setenv("GRADLINK_JWT_TTL", "30m")
	t.Setenv("GRADLINK_GOOGLE_CLIENT_ID", "id")
	t.Setenv("GRADLINK_GOOGLE_CLIENT_SECRET", "shh")
	t.Setenv("GRADLINK_GOOGLE_REDIRECT_URL", "http://localhost/callback")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 30*time.Minute, cfg.JWTTTL)
	require.True(t, cfg.GoogleEnabled())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("GRADLINK_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	t.Setenv("GRADLINK_JWT_SECRET", "secret")
	t.Setenv("GRADLINK_STATS_CACHE_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresUpstreamBaseURL(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPSTREAM_BASE_URL")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:5000")
	t.Setenv("ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://localhost:5000", cfg.Upstream.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 10, cfg.Session.PageSize)
	assert.False(t, cfg.Session.CookieSecure)
	assert.NotEmpty(t, cfg.Server.AllowedOrigins)
}

func TestLoad_TrimsTrailingSlash(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://api.internal/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://api.internal", cfg.Upstream.BaseURL)
}

func TestLoad_RejectsBadPageSize(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:5000")
	t.Setenv("DIRECTORY_PAGE_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIRECTORY_PAGE_SIZE")
}

func TestLoad_RejectsShortSessionTTL(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:5000")
	t.Setenv("SESSION_TTL", "5s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TTL")
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:5000")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12"}, cfg.Server.TrustedProxies)
}

func TestLoad_TrustedProxiesDefaultEmpty(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:5000")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestLoad_ProductionSecureCookiesAndOrigins(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:5000")
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://console.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, []string{"https://console.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
}

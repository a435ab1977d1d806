package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "http://localhost:3500", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "cbdms_sid", cfg.Session.CookieName)
	assert.Equal(t, "access_token", cfg.Session.TokenCookieName)
	assert.Equal(t, 30*time.Minute, cfg.Session.WorkspaceTTL)
	assert.False(t, cfg.PaperCache.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.college.test/api/")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, ,https://b.test")
	t.Setenv("ENABLE_PAPER_CACHE", "true")
	t.Setenv("PAPER_CACHE_TTL", "not-a-duration")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := fromViper(v)
	require.Equal(t, "https://api.college.test/api", cfg.API.BaseURL)
	require.Equal(t, 3*time.Second, cfg.API.Timeout)
	require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowedOrigins)
	require.True(t, cfg.PaperCache.Enabled)
	require.Equal(t, 10*time.Minute, cfg.PaperCache.TTL)
}

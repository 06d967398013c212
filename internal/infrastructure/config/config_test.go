package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.True(t, cfg.Store.AutoMigrate)
	assert.Equal(t, 30*time.Minute, cfg.Store.ConnMaxLifetime)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "X-User-ID", cfg.Auth.DevHeader)
	assert.False(t, cfg.Vision.Enabled)
	assert.Equal(t, 60*time.Second, cfg.Vision.Timeout)
	assert.Equal(t, uint32(5), cfg.Breaker.FailureThreshold)
	assert.Equal(t, uint32(1), cfg.Breaker.MaxRequests)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, int64(10*1024*1024), cfg.Image.MaxSizeBytes)
	assert.Equal(t, 1200, cfg.Image.MaxDimension)
	assert.Equal(t, time.Second, cfg.DedupWindow)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/kitchen")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("APP_CACHE_DRIVER", "redis")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/kitchen", cfg.Store.DSN)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "auth without secret",
			env:  map[string]string{"JWT_SECRET": ""},
		},
		{
			name: "sql driver without dsn",
			env:  map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "mysql", "DATABASE_URL": ""},
		},
		{
			name: "unknown store driver",
			env:  map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "sqlite"},
		},
		{
			name: "vision without api key",
			env:  map[string]string{"JWT_SECRET": "s", "APP_VISION_ENABLED": "true", "VISION_API_KEY": ""},
		},
		{
			name: "unknown cache driver",
			env:  map[string]string{"JWT_SECRET": "s", "APP_CACHE_DRIVER": "memcached"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigAuthDisabled(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_AUTH_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Auth.Enabled)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "sk-o...cdef", MaskSecret("sk-or-1234567890abcdef"))
}

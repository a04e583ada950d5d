package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var keys = []string{
	"SERVICE_NAME", "ENV", "LOG_FILE", "LOG_LEVEL", "HTTP_ADDR", "SHUTDOWN_TIMEOUT", "DATABASE_URL", "SEED",
	"SESSION_TTL", "SESSION_REAP_INTERVAL", "LOW_STOCK_THRESHOLD", "LOW_CHANGE_THRESHOLD",
	"CORS_ALLOWED_ORIGINS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c := Load()

	assert.Equal(t, "vending", c.ServiceName)
	assert.Equal(t, "dev", c.Env)
	assert.Empty(t, c.LogFile)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout)
	assert.Empty(t, c.DatabaseURL)
	assert.True(t, c.Seed)
	assert.Zero(t, c.SessionTTL)
	assert.Equal(t, time.Minute, c.SessionReapInterval)
	assert.Equal(t, 3, c.LowStockThreshold)
	assert.Equal(t, 5, c.LowChangeThreshold)
	assert.Equal(t, defaultOrigins, c.CORSAllowedOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_FILE", "/var/log/vending/app.log")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SHUTDOWN_TIMEOUT", "2s")
	t.Setenv("DATABASE_URL", "postgres://vending@localhost/vending")
	t.Setenv("SEED", "false")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("LOW_STOCK_THRESHOLD", "1")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	c := Load()

	assert.Equal(t, ":9090", c.HTTPAddr)
	assert.Equal(t, "/var/log/vending/app.log", c.LogFile)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 2*time.Second, c.ShutdownTimeout)
	assert.Equal(t, "postgres://vending@localhost/vending", c.DatabaseURL)
	assert.False(t, c.Seed)
	assert.Equal(t, 15*time.Minute, c.SessionTTL)
	assert.Equal(t, 1, c.LowStockThreshold)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSAllowedOrigins)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	t.Setenv("SESSION_TTL", "-1m")
	t.Setenv("LOW_CHANGE_THRESHOLD", "few")
	t.Setenv("SEED", "maybe")
	c := Load()

	assert.Equal(t, 10*time.Second, c.ShutdownTimeout)
	assert.Zero(t, c.SessionTTL)
	assert.Equal(t, 5, c.LowChangeThreshold)
	assert.True(t, c.Seed)
}

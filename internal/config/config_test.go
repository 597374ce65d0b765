package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_USER", "kinogo")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "kinogo")
}

func TestNew_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 10*time.Second, cfg.PayPal.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Sweep.Interval)
}

func TestNew_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("SWEEP_INTERVAL", "5s")
	t.Setenv("PAYPAL_TIMEOUT", "2s")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Sweep.Interval)
	assert.Equal(t, 2*time.Second, cfg.PayPal.Timeout)
}

func TestNew_MissingRequired(t *testing.T) {
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "x")
	t.Setenv("POSTGRES_DB", "x")

	_, err := New()
	assert.Error(t, err)
}

func TestNew_InvalidNumber(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "not-a-port")

	_, err := New()
	assert.Error(t, err)
}

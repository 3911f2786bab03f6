package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "MXN", cfg.Currency)
	require.False(t, cfg.DevSeed)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("DEV_SEED", "true")
	t.Setenv("JWT_HS256_SECRET", " topsecret ")

	cfg := Load()
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, "USD", cfg.Currency)
	require.True(t, cfg.DevSeed)
	require.Equal(t, "topsecret", cfg.JWTSecret)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "5175", cfg.Port)
	assert.Equal(t, 4, cfg.CodeLength)
	assert.Equal(t, 12, cfg.MaxAttempts)
	assert.Equal(t, 14*24*time.Hour, cfg.TokenTTL)

	g := cfg.Game(6)
	assert.Equal(t, 6, g.Colors)
	assert.NoError(t, g.Validate())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CODE_LENGTH", "5")
	t.Setenv("MAX_ATTEMPTS", "10")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("SECURE_COOKIES", "true")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.CodeLength)
	assert.Equal(t, 10, cfg.MaxAttempts)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.SecureCookies)
}

func TestParseRejectsInvalid(t *testing.T) {
	t.Setenv("CODE_LENGTH", "0")
	_, err := Parse()
	assert.Error(t, err)

	t.Setenv("CODE_LENGTH", "four")
	_, err = Parse()
	assert.Error(t, err)
}

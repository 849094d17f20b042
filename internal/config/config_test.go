package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("HASH_ROUNDS", "")
	t.Setenv("ACCESS_TOKEN_EXPIRES_IN", "")
	t.Setenv("REFRESH_TOKEN_EXPIRES_IN", "")
	t.Setenv("SEED_ROLES", "")

	cfg := Load()

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 10, cfg.HashRounds)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenExpiry)
	assert.True(t, cfg.SeedRoles)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("HASH_ROUNDS", "12")
	t.Setenv("ACCESS_TOKEN_EXPIRES_IN", "5m")
	t.Setenv("SEED_ROLES", "false")
	t.Setenv("AUTH_RATE_LIMIT", "not-a-number")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 12, cfg.HashRounds)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenExpiry)
	assert.False(t, cfg.SeedRoles)
	assert.Equal(t, 10, cfg.AuthRateLimit)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Env: EnvDevelopment}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "REFRESH_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "DB_PASSWORD")

	cfg.AccessTokenSecret = "a"
	cfg.RefreshTokenSecret = "r"
	cfg.DBPassword = "pw"
	assert.NoError(t, cfg.Validate())

	cfg.Env = "staging"
	assert.ErrorContains(t, cfg.Validate(), "ENV")
}

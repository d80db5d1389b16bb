package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unset clears a variable for the test while keeping t.Setenv's restore
// behavior; an empty value would otherwise still count as "set".
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "JWT_SECRET", "TOKEN_TTL", "MONGO_URL", "MONGO_DB", "REDIS_URL", "LOG_LEVEL"} {
		unset(t, key)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "neurobridge", cfg.MongoDB)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.NotEmpty(t, cfg.JWTSecret, "development falls back to a placeholder secret")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadConfigRejectsBadTTL(t *testing.T) {
	t.Setenv("TOKEN_TTL", "one day")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	unset(t, "JWT_SECRET")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("SOME_KEY", "value")
	assert.Equal(t, "value", GetEnv("SOME_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("SOME_MISSING_KEY", "fallback"))
}

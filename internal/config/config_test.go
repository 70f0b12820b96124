package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"JWT_SECRET": "test-secret-at-least-16-chars!!"}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "podcasts.sqlite", cfg.Database.DSN)
	assert.Equal(t, 5*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, 10*time.Second, cfg.JWT.Leeway)
	assert.Equal(t, time.Duration(0), cfg.JWT.NotBefore)
	assert.Equal(t, "Bearer", cfg.JWT.AuthHeaderPrefix)
	assert.Equal(t, "/auth", cfg.JWT.AuthURL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Server.TrustProxy)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"JWT_SECRET":             "test-secret-at-least-16-chars!!",
		"PORT":                   "9000",
		"DB_DRIVER":              "Postgres",
		"DB_DSN":                 "postgres://u:p@localhost/podcasts",
		"JWT_EXPIRATION":         "1h",
		"JWT_AUTH_HEADER_PREFIX": "JWT",
		"CORS_ALLOWED_ORIGINS":   "http://a.test, ,http://b.test",
		"AUTH_RATE_LIMIT":        "3",
		"TRUST_PROXY":            "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "JWT", cfg.JWT.AuthHeaderPrefix)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 3, cfg.Auth.LoginRateLimit)
	assert.True(t, cfg.Server.TrustProxy)
}

func TestFromEnv_Errors(t *testing.T) {
	base := func(extra map[string]string) map[string]string {
		m := map[string]string{"JWT_SECRET": "test-secret-at-least-16-chars!!"}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}

	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{}},
		{name: "bad port", env: base(map[string]string{"PORT": "eighty"})},
		{name: "bad duration", env: base(map[string]string{"JWT_EXPIRATION": "soon"})},
		{name: "unknown driver", env: base(map[string]string{"DB_DRIVER": "oracle"})},
		{name: "prefix with space", env: base(map[string]string{"JWT_AUTH_HEADER_PREFIX": "JWT X"})},
		{name: "relative auth url", env: base(map[string]string{"JWT_AUTH_URL": "auth"})},
		{name: "bad trust proxy", env: base(map[string]string{"TRUST_PROXY": "maybe"})},
		{name: "zero rate limit", env: base(map[string]string{"AUTH_RATE_LIMIT": "0"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(tt.env))
			assert.Error(t, err)
		})
	}
}

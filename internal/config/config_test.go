package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CART_TOKEN_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 2, cfg.ReadRetries)
	assert.Equal(t, 1, cfg.MutationRetries)
	assert.Equal(t, 30*24*time.Hour, cfg.CartTokenTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "storefront-activity", cfg.KafkaTopic)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CART_TOKEN_SECRET", testSecret)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("BACKEND_URL", "https://api.example.bg/v1")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("BACKEND_READ_RETRIES", "0")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "https://api.example.bg/v1", cfg.BackendURL)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 0, cfg.ReadRetries)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"BACKEND_TIMEOUT", "ten seconds"},
		{"BACKEND_MUTATION_RETRIES", "once"},
		{"COOKIE_SECURE", "maybe"},
		{"CACHE_TTL", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate_CartSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   error
	}{
		{"missing", "", ErrMissingCartSecret},
		{"short", "too-short", ErrShortCartSecret},
		{"ok", strings.Repeat("s", 32), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{CartTokenSecret: tt.secret, BackendURL: "http://backend"}
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_NegativeRetries(t *testing.T) {
	cfg := &Config{CartTokenSecret: testSecret, BackendURL: "http://backend", ReadRetries: -1}
	assert.Error(t, cfg.Validate())
}

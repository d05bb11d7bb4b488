package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "STORE_DRIVER", "MONGO_URI", "MONGO_DB", "POSTGRES_DSN",
	"SQLITE_PATH", "LOCK_DRIVER", "LOCK_TTL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX", "OUTBOX_ENABLED", "OUTBOX_POLL_INTERVAL", "RETRY_BACKOFF",
	"IDEMPOTENCY_DRIVER", "IDEMP_TTL", "CURRENCY", "BOOKING_MAX_ATTEMPTS", "CATALOG_FIXTURES",
}

// clearEnv unsets every key for the test; t.Setenv registers the restore.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, LockMemory, cfg.LockDriver)
	assert.Equal(t, IdempotencyMemory, cfg.IdempotencyDriver)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, 3, cfg.BookingMaxAttempts)
	assert.True(t, cfg.OutboxEnabled)
	assert.Equal(t, 168*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.UsesRedis())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/rentals?sslmode=disable")
	t.Setenv("LOCK_DRIVER", "redis")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("OUTBOX_ENABLED", "off")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("BOOKING_MAX_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.OutboxEnabled)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 5, cfg.BookingMaxAttempts)
	assert.True(t, cfg.UsesRedis())
}

func TestUsesRedis(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"defaults", nil, false},
		{"redis locks", map[string]string{"LOCK_DRIVER": "redis"}, true},
		{"redis idempotency", map[string]string{"IDEMPOTENCY_DRIVER": "Redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.UsesRedis())
			if tt.env["IDEMPOTENCY_DRIVER"] != "" {
				assert.Equal(t, IdempotencyRedis, cfg.IdempotencyDriver)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"mongo without uri", map[string]string{"STORE_DRIVER": "mongo"}, "MONGO_URI is required"},
		{"postgres without dsn", map[string]string{"STORE_DRIVER": "postgres"}, "POSTGRES_DSN is required"},
		{"unknown store", map[string]string{"STORE_DRIVER": "oracle"}, "invalid STORE_DRIVER"},
		{"unknown lock", map[string]string{"LOCK_DRIVER": "zookeeper"}, "invalid LOCK_DRIVER"},
		{"unknown idempotency", map[string]string{"IDEMPOTENCY_DRIVER": "postgres"}, "invalid IDEMPOTENCY_DRIVER"},
		{"mongo idempotency without uri", map[string]string{"IDEMPOTENCY_DRIVER": "mongo"}, "MONGO_URI is required"},
		{"bad duration", map[string]string{"LOCK_TTL": "soon"}, "invalid LOCK_TTL duration"},
		{"bad int", map[string]string{"REDIS_DB": "two"}, "invalid REDIS_DB integer"},
		{"bad bool", map[string]string{"OUTBOX_ENABLED": "maybe"}, "invalid OUTBOX_ENABLED boolean"},
		{"bad backoff", map[string]string{"RETRY_BACKOFF": "1s,later"}, "invalid RETRY_BACKOFF component"},
		{"bad currency", map[string]string{"CURRENCY": "RUPEE"}, "CURRENCY must be a 3-letter code"},
		{"zero attempts", map[string]string{"BOOKING_MAX_ATTEMPTS": "0"}, "BOOKING_MAX_ATTEMPTS must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadWithFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("HTTP_ADDR=:9090\nCURRENCY=EUR\n"), 0o600))
	t.Setenv("CURRENCY", "GBP")

	cfg, err := LoadWithFile(envFile)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "GBP", cfg.Currency, "environment wins over the file")

	_, err = LoadWithFile(filepath.Join(dir, "missing.env"))
	assert.NoError(t, err)

	_, err = LoadWithFile(dir)
	assert.ErrorContains(t, err, "error loading .env file")
}

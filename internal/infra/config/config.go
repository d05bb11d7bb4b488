package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	LockMemory = "memory"
	LockRedis  = "redis"

	IdempotencyMemory = "memory"
	IdempotencyMongo  = "mongo"
	IdempotencyRedis  = "redis"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	StoreDriver string
	MongoURI    string
	MongoDB     string
	PostgresDSN string
	SQLitePath  string

	LockDriver    string
	LockTTL       time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	OutboxEnabled      bool
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	IdempotencyDriver string
	IdempotencyTTL    time.Duration

	Currency           string
	BookingMaxAttempts int
	CatalogFixtures    string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	return LoadWithFile("")
}

// LoadWithFile loads an optional .env file, then reads the environment.
// Variables already set in the environment win over the file.
func LoadWithFile(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := Config{
		Env:               getEnv("APP_ENV", "dev"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getEnv("MONGO_DB", "vehiclerental"),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		SQLitePath:        getEnv("SQLITE_PATH", "vehiclerental.db"),
		LockDriver:        strings.ToLower(getEnv("LOCK_DRIVER", LockMemory)),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		KafkaTopicPrefix:  getEnv("KAFKA_TOPIC_PREFIX", ""),
		IdempotencyDriver: strings.ToLower(getEnv("IDEMPOTENCY_DRIVER", IdempotencyMemory)),
		Currency:          strings.ToUpper(getEnv("CURRENCY", "INR")),
		CatalogFixtures:   getEnv("CATALOG_FIXTURES", ""),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.OutboxEnabled, err = parseBoolEnv("OUTBOX_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.LockTTL, err = parseDurationEnv("LOCK_TTL", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.BookingMaxAttempts, err = parseIntEnv("BOOKING_MAX_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every selected driver has what it needs.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.LockDriver {
	case LockMemory, LockRedis:
	default:
		return fmt.Errorf("invalid LOCK_DRIVER %q", c.LockDriver)
	}
	switch c.IdempotencyDriver {
	case IdempotencyMemory, IdempotencyRedis:
	case IdempotencyMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when IDEMPOTENCY_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("invalid IDEMPOTENCY_DRIVER %q", c.IdempotencyDriver)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a 3-letter code, got %q", c.Currency)
	}
	if c.BookingMaxAttempts < 1 {
		return fmt.Errorf("BOOKING_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// UsesRedis reports whether any component needs a Redis client.
func (c Config) UsesRedis() bool {
	return c.LockDriver == LockRedis || c.IdempotencyDriver == IdempotencyRedis
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %q", key, raw)
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLength = 32

var (
	ErrMissingCartSecret = errors.New("CART_TOKEN_SECRET environment variable is required")
	ErrShortCartSecret   = fmt.Errorf("CART_TOKEN_SECRET must be at least %d characters long", minSecretLength)
)

type Config struct {
	Addr string

	BackendURL      string
	BackendTimeout  time.Duration
	ReadRetries     int
	MutationRetries int

	CartTokenSecret string
	CartTokenTTL    time.Duration
	AuthCookieTTL   time.Duration
	CookieSecure    bool

	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	DatabaseURL string

	LogLevel  string
	LogFormat string
}

// Load reads the environment, after merging a .env file when one exists.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:            getEnv("HTTP_ADDR", ":8080"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:8000/api/v1"),
		CartTokenSecret: os.Getenv("CART_TOKEN_SECRET"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "storefront-activity"),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "activity-projector"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.BackendTimeout, err = getDuration("BACKEND_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReadRetries, err = getInt("BACKEND_READ_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.MutationRetries, err = getInt("BACKEND_MUTATION_RETRIES", 1); err != nil {
		return nil, err
	}
	if cfg.CartTokenTTL, err = getDuration("CART_TOKEN_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AuthCookieTTL, err = getDuration("AUTH_COOKIE_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE", true); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks what the storefront server cannot start without
func (c *Config) Validate() error {
	if c.CartTokenSecret == "" {
		return ErrMissingCartSecret
	}
	if len(c.CartTokenSecret) < minSecretLength {
		return ErrShortCartSecret
	}
	if c.BackendURL == "" {
		return errors.New("BACKEND_URL must not be empty")
	}
	if c.ReadRetries < 0 || c.MutationRetries < 0 {
		return errors.New("backend retry counts must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

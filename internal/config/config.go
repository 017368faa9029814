package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Entitlement  EntitlementConfig
	Dodo         DodoConfig
	License      LicenseConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN disables the
// license store; the service keeps running without persistence.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// EntitlementConfig defines token signing parameters.
type EntitlementConfig struct {
	SigningSecret string
	TokenTTLHours int
}

// DodoConfig describes the payment provider integration.
type DodoConfig struct {
	BaseURL            string
	APIKey             string
	TimeoutSeconds     int
	MaxRetries         int
	StatusCacheTTLSecs int
}

// LicenseConfig controls the stored-license lifecycle.
type LicenseConfig struct {
	KeyBcryptCost int
	ReconcileCron string
}

// RateLimitConfig bounds license endpoint traffic per client.
type RateLimitConfig struct {
	LicenseRPS   float64
	LicenseBurst int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "toolkit-converter"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Entitlement: EntitlementConfig{
			SigningSecret: getEnv("ENTITLEMENT_JWT_SECRET", "dev-secret-change-me"),
			TokenTTLHours: getEnvAsInt("ENTITLEMENT_TOKEN_TTL_HOURS", 24),
		},
		Dodo: DodoConfig{
			BaseURL:            getEnv("DODO_API_BASE", "https://api.dodopayments.com"),
			APIKey:             os.Getenv("DODO_API_KEY"),
			TimeoutSeconds:     getEnvAsInt("DODO_TIMEOUT_SECONDS", 10),
			MaxRetries:         getEnvAsInt("DODO_MAX_RETRIES", 1),
			StatusCacheTTLSecs: getEnvAsInt("LICENSE_STATUS_CACHE_TTL_SECONDS", 300),
		},
		License: LicenseConfig{
			KeyBcryptCost: getEnvAsInt("LICENSE_KEY_BCRYPT_COST", 10),
			ReconcileCron: os.Getenv("RECONCILE_CRON"),
		},
		RateLimit: RateLimitConfig{
			LicenseRPS:   getEnvAsFloat("LICENSE_RATE_RPS", 5),
			LicenseBurst: getEnvAsInt("LICENSE_RATE_BURST", 10),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the entitlement token lifetime.
func (e EntitlementConfig) TokenTTL() time.Duration {
	if e.TokenTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(e.TokenTTLHours) * time.Hour
}

// Timeout returns the provider request timeout.
func (d DodoConfig) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// StatusCacheTTL returns how long provider status lookups may be cached.
func (d DodoConfig) StatusCacheTTL() time.Duration {
	if d.StatusCacheTTLSecs <= 0 {
		return 0
	}
	return time.Duration(d.StatusCacheTTLSecs) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

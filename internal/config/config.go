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

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"

	// SigningAlgorithm is the only accepted JWT algorithm.
	SigningAlgorithm = "HS256"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Services ServicesConfig
	Store    StoreConfig
	Sentry   SentryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	ProxyHeader           string
}

// PostgresConfig holds DB connection values.
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

// AuthConfig defines user authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	JWTAlgorithm          string
	Issuer                string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// ServicesConfig defines service-to-service credentials and throttling.
type ServicesConfig struct {
	APIKeys              map[string]string
	TokenTTLSeconds      int
	RateLimitMaxRequests int
	RateLimitWindowSec   int
	RateLimitBackend     string
}

// StoreConfig selects the record store implementation.
type StoreConfig struct {
	Backend string
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	apiKeys, err := serviceKeysFromEnv()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "employee-onboarding-api"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "1.0.0"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			ProxyHeader:           os.Getenv("HTTP_PROXY_HEADER"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			JWTAlgorithm:          getEnv("JWT_ALGORITHM", SigningAlgorithm),
			Issuer:                getEnv("JWT_ISSUER", "employee-onboarding-api"),
			AccessTokenTTLMinutes: getEnvAsInt("JWT_EXPIRES_MINUTES", 30),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Services: ServicesConfig{
			APIKeys:              apiKeys,
			TokenTTLSeconds:      getEnvAsInt("SERVICE_TOKEN_TTL_SECONDS", 3600),
			RateLimitMaxRequests: getEnvAsInt("SERVICE_RATE_LIMIT_MAX_REQUESTS", 100),
			RateLimitWindowSec:   getEnvAsInt("SERVICE_RATE_LIMIT_WINDOW_SECONDS", 60),
			RateLimitBackend:     strings.ToLower(getEnv("SERVICE_RATE_LIMIT_BACKEND", RateLimitBackendMemory)),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", StoreBackendPostgres)),
		},
		Sentry: SentryConfig{
			DSN: os.Getenv("SENTRY_DSN"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.Auth.JWTAlgorithm != SigningAlgorithm {
		errs = append(errs, fmt.Errorf("unsupported JWT_ALGORITHM %q", c.Auth.JWTAlgorithm))
	}
	if c.Services.RateLimitMaxRequests <= 0 {
		errs = append(errs, errors.New("SERVICE_RATE_LIMIT_MAX_REQUESTS must be positive"))
	}
	if c.Services.RateLimitWindowSec <= 0 {
		errs = append(errs, errors.New("SERVICE_RATE_LIMIT_WINDOW_SECONDS must be positive"))
	}
	switch c.Services.RateLimitBackend {
	case RateLimitBackendMemory, RateLimitBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown SERVICE_RATE_LIMIT_BACKEND %q", c.Services.RateLimitBackend))
	}
	switch c.Store.Backend {
	case StoreBackendPostgres, StoreBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend))
	}
	return errors.Join(errs...)
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

// IsProduction reports whether error details must be hidden from clients.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// AccessTokenTTL returns the user token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// TokenTTL returns the service token lifetime.
func (s ServicesConfig) TokenTTL() time.Duration {
	if s.TokenTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(s.TokenTTLSeconds) * time.Second
}

// RateLimitWindow returns the fixed window length.
func (s ServicesConfig) RateLimitWindow() time.Duration {
	return time.Duration(s.RateLimitWindowSec) * time.Second
}

// knownServiceKeys maps the built-in service names to their env variables.
var knownServiceKeys = map[string]string{
	"analytics-service": "ANALYTICS_SERVICE_API_KEY",
	"hr-integration":    "HR_INTEGRATION_API_KEY",
	"chatbot-agent":     "CHATBOT_AGENT_API_KEY",
}

func serviceKeysFromEnv() (map[string]string, error) {
	keys := make(map[string]string, len(knownServiceKeys))
	for name, env := range knownServiceKeys {
		if val := strings.TrimSpace(os.Getenv(env)); val != "" {
			keys[name] = val
		}
	}

	extra, err := ParseServiceKeys(os.Getenv("SERVICE_API_KEYS"))
	if err != nil {
		return nil, err
	}
	for name, key := range extra {
		keys[name] = key
	}
	return keys, nil
}

// ParseServiceKeys parses "name=key,name=key". Entries with an empty key are dropped.
func ParseServiceKeys(raw string) (map[string]string, error) {
	keys := map[string]string{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return keys, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, key, ok := strings.Cut(pair, "=")
		name, key = strings.TrimSpace(name), strings.TrimSpace(key)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid SERVICE_API_KEYS entry %q", pair)
		}
		if key == "" {
			continue
		}
		keys[name] = key
	}
	return keys, nil
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

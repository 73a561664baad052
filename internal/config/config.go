// Package config defines the process configuration for the fairweather
// services. Configuration is read once at startup from the environment
// (optionally seeded from a .env file) and is immutable thereafter.
//
// A missing required value or an invalid format fails startup.
package config

import (
	"time"

	"fairweather/internal/types"
)

// SecretString is an alias for types.SecretString so secrets in Config never
// leak through logs or JSON dumps.
type SecretString = types.SecretString

// Config is the top-level configuration. Components receive only the section
// they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"fairweather"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Upstream      UpstreamConfig
	Cache         CacheConfig
	Prefetch      PrefetchConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Injected via ldflags, not the environment.
	Build BuildInfo
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	HealthTimeout      time.Duration `envconfig:"HEALTH_TIMEOUT" default:"1500ms"`
}

// DatabaseConfig holds the Postgres connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
	MigrateOnStart    bool          `envconfig:"DB_MIGRATE_ON_START" default:"false"`
}

// RedisConfig holds the cache connection.
type RedisConfig struct {
	Addr     string       `envconfig:"REDIS_ADDR" validate:"required,hostname_port"`
	Password SecretString `envconfig:"REDIS_PASSWORD"`
	DB       int          `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
}

// UpstreamConfig points at the forecast, archive and routing providers.
type UpstreamConfig struct {
	ForecastBaseURL string        `envconfig:"FORECAST_BASE_URL" default:"https://api.open-meteo.com" validate:"url"`
	ArchiveBaseURL  string        `envconfig:"ARCHIVE_BASE_URL" default:"https://archive-api.open-meteo.com" validate:"url"`
	RoutingBaseURL  string        `envconfig:"ROUTING_BASE_URL" default:"https://router.project-osrm.org" validate:"url"`
	Timeout         time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
	ArchiveTimeout  time.Duration `envconfig:"ARCHIVE_TIMEOUT" default:"30s"`
	ForecastDays    int           `envconfig:"FORECAST_DAYS" default:"3" validate:"gte=1,lte=16"`
}

// CacheConfig holds cache lifetimes.
type CacheConfig struct {
	ForecastTTL time.Duration `envconfig:"CACHE_FORECAST_TTL" default:"1h"`
	ArchiveTTL  time.Duration `envconfig:"CACHE_ARCHIVE_TTL" default:"720h"`
}

// PrefetchConfig controls the forecast warm-up job.
type PrefetchConfig struct {
	Interval    time.Duration `envconfig:"PREFETCH_INTERVAL" default:"30m"`
	Concurrency int           `envconfig:"PREFETCH_CONCURRENCY" default:"4" validate:"gte=1,lte=32"`
}

// AWSConfig holds regional settings for CloudWatch.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`
	// LocalStack endpoint, empty in production.
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Fairweather"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// IsLocal reports whether the process runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	ErrParsing    ConfigErrorType = "PARSING_FAILED"
)

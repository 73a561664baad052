package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDotenv() loaderDeps {
	return loaderDeps{loadDotenv: func(...string) error { return os.ErrNotExist }}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "local")
	t.Setenv("DATABASE_URL", "postgres://fw:fw@localhost:5432/fairweather")
	t.Setenv("REDIS_ADDR", "localhost:6379")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := loadConfigWithDeps(noDotenv())
	require.NoError(t, err)

	assert.True(t, cfg.IsLocal())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CorsAllowedOrigins)
	assert.Equal(t, "https://api.open-meteo.com", cfg.Upstream.ForecastBaseURL)
	assert.Equal(t, "https://router.project-osrm.org", cfg.Upstream.RoutingBaseURL)
	assert.Equal(t, time.Hour, cfg.Cache.ForecastTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Cache.ArchiveTTL)
	assert.Equal(t, 30*time.Minute, cfg.Prefetch.Interval)
	assert.Equal(t, "Fairweather", cfg.Observability.MetricNamespace)
	assert.Equal(t, "dev", cfg.Build.Version)
	assert.Equal(t, "postgres://fw:fw@localhost:5432/fairweather", cfg.Database.URL.Unmask())
	assert.Equal(t, time.UTC, time.Local)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("CACHE_FORECAST_TTL", "15m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("REDIS_PASSWORD", "hunter2")

	cfg, err := loadConfigWithDeps(noDotenv())
	require.NoError(t, err)

	assert.False(t, cfg.IsLocal())
	assert.Equal(t, 15*time.Minute, cfg.Cache.ForecastTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CorsAllowedOrigins)
	assert.Equal(t, "[redacted]", cfg.Redis.Password.String())
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	_, err := loadConfigWithDeps(noDotenv())
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrMissingEnv, cfgErr.Type)
	assert.Contains(t, cfgErr.Message, "Database.URL")
}

func TestLoadConfigInvalidValues(t *testing.T) {
	tests := map[string][2]string{
		"environment": {"APP_ENV", "qa"},
		"log level":   {"LOG_LEVEL", "verbose"},
		"redis addr":  {"REDIS_ADDR", "no-port"},
		"days":        {"FORECAST_DAYS", "40"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(kv[0], kv[1])

			_, err := loadConfigWithDeps(noDotenv())
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, ErrValidation, cfgErr.Type)
		})
	}
}

func TestLoadConfigParsingFailure(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CACHE_FORECAST_TTL", "soon")

	_, err := loadConfigWithDeps(noDotenv())
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrParsing, cfgErr.Type)
}

func TestLoadConfigDotenvDoesNotOverrideEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	// Registered with t.Setenv so the value set by godotenv is restored.
	t.Setenv("METRIC_NAMESPACE", "")
	require.NoError(t, os.Unsetenv("METRIC_NAMESPACE"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7000\nMETRIC_NAMESPACE=FromFile\n"), 0o600))

	deps := defaultDeps()
	deps.dotenvFiles = []string{path}
	cfg, err := loadConfigWithDeps(deps)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "FromFile", cfg.Observability.MetricNamespace)
}

func TestConfigError(t *testing.T) {
	inner := errors.New("boom")
	err := &ConfigError{Type: ErrParsing, Message: "bad", Err: inner}
	assert.Equal(t, "[PARSING_FAILED] bad: boom", err.Error())
	assert.ErrorIs(t, err, inner)

	assert.Equal(t, "[VALIDATION_FAILED] bad", (&ConfigError{Type: ErrValidation, Message: "bad"}).Error())
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is returned by LoadConfig to aid diagnosing a bad environment.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// loaderDeps holds the injectable parts of the loader.
type loaderDeps struct {
	dotenvFiles []string
	loadDotenv  func(files ...string) error
}

func defaultDeps() loaderDeps {
	return loaderDeps{loadDotenv: godotenv.Load}
}

// LoadConfig loads and validates the configuration:
//  1. Forces the process timezone to UTC.
//  2. Loads .env if present. Existing variables are never overridden.
//  3. Populates Config from envconfig tags.
//  4. Fills Build from linker variables.
//  5. Validates struct tags.
func LoadConfig() (*Config, error) {
	return loadConfigWithDeps(defaultDeps())
}

func loadConfigWithDeps(deps loaderDeps) (*Config, error) {
	time.Local = time.UTC

	// A missing .env file is normal outside local development.
	_ = deps.loadDotenv(deps.dotenvFiles...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, classifyValidation(err)
	}
	return &cfg, nil
}

// classifyValidation reports missing required values separately from values
// that are present but malformed.
func classifyValidation(err error) *ConfigError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ConfigError{Type: ErrValidation, Message: "configuration validation failed", Err: err}
	}
	var missing []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Namespace())
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Type:    ErrMissingEnv,
			Message: "missing required configuration: " + strings.Join(missing, ", "),
			Err:     err,
		}
	}
	return &ConfigError{Type: ErrValidation, Message: "configuration validation failed", Err: err}
}

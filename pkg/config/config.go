// Package config holds the run configuration for the parallel-graph command.
// Values come from defaults, an optional YAML file, the environment and
// command-line flags, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/parallel-graph/pkg/logging"
	"github.com/dd0wney/parallel-graph/pkg/parallel"
)

// Environment variables read by ApplyEnv.
const (
	EnvWorkers  = "PGRAPH_WORKERS"
	EnvLogLevel = "LOG_LEVEL"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

// Config is the run configuration.
type Config struct {
	Workers     int    `yaml:"workers" validate:"min=1"`
	Root        int    `yaml:"root" validate:"min=0"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`
	MetricsFile string `yaml:"metrics_file"`
	Verify      bool   `yaml:"verify"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Workers:  4,
		Root:     0,
		LogLevel: "error",
	}
}

// Load reads a YAML config file over the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvWorkers, v)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
		if level, ok := logging.ParseLevel(v); ok {
			c.LogLevel = strings.ToLower(level.String())
		}
	}
	return nil
}

// Validate checks field ranges. The worker limit is the pool's own
// parallel.MaxWorkers.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.Workers > parallel.MaxWorkers {
		return fmt.Errorf("%w: Workers: must not exceed %d", ErrInvalidConfig, parallel.MaxWorkers)
	}
	return nil
}

// Level returns the configured log level. Validate must have passed.
func (c *Config) Level() logging.Level {
	level, ok := logging.ParseLevel(c.LogLevel)
	if !ok {
		return logging.ErrorLevel
	}
	return level
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	// Report the first failing field only
	e := validationErrs[0]
	field := e.Field()
	switch e.Tag() {
	case "min":
		return fmt.Errorf("%w: %s: must be at least %s", ErrInvalidConfig, field, e.Param())
	case "max":
		return fmt.Errorf("%w: %s: must not exceed %s", ErrInvalidConfig, field, e.Param())
	case "oneof":
		return fmt.Errorf("%w: %s: must be one of [%s], got %q", ErrInvalidConfig, field, e.Param(), e.Value())
	default:
		return fmt.Errorf("%w: %s: validation failed (%s)", ErrInvalidConfig, field, e.Tag())
	}
}

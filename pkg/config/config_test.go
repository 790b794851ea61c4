package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/parallel-graph/pkg/logging"
	"github.com/dd0wney/parallel-graph/pkg/parallel"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 0, cfg.Root)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, logging.ErrorLevel, cfg.Level())
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
workers: 8
root: 3
log_level: DEBUG
metrics_file: /tmp/pgraph.prom
verify: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Config{
		Workers:     8,
		Root:        3,
		LogLevel:    "debug",
		MetricsFile: "/tmp/pgraph.prom",
		Verify:      true,
	}, cfg)
	assert.Equal(t, logging.DebugLevel, cfg.Level())
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "root: 2\n"))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2, cfg.Root)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "workers: 2\nthreads: 4\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeConfig(t, "workers: [1, 2]\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvWorkers, "16")
	t.Setenv(EnvLogLevel, "Warning")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvErrors(t *testing.T) {
	t.Setenv(EnvWorkers, "many")

	cfg := Default()
	assert.ErrorIs(t, cfg.ApplyEnv(), ErrInvalidConfig)

	t.Setenv(EnvWorkers, "")
	t.Setenv(EnvLogLevel, "verbose")
	cfg = Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }, "Workers: must be at least 1"},
		{"too many workers", func(c *Config) { c.Workers = parallel.MaxWorkers + 1 }, "Workers: must not exceed 65536"},
		{"negative root", func(c *Config) { c.Root = -1 }, "Root: must be at least 0"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "LogLevel: must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestValidateWorkerLimitMatchesPool checks the config accepts every worker
// count the pool accepts.
func TestValidateWorkerLimitMatchesPool(t *testing.T) {
	cfg := Default()
	cfg.Workers = parallel.MaxWorkers
	assert.NoError(t, cfg.Validate())

	cfg.Workers = 5000
	assert.NoError(t, cfg.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{Log: LogConfig{Level: "warn", Format: "console"}}, cfg)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PARWORKER_WORKERS", "3")
	t.Setenv("PARWORKER_GRAIN", "64")
	t.Setenv("PARWORKER_LOG_LEVEL", "debug")
	t.Setenv("PARWORKER_LOG_FORMAT", "json")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 64, cfg.Grain)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parworker.yml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 5\nlog:\n  level: info\n"), 0o600))
	t.Setenv("PARWORKER_WORKERS", "6")

	cfg, err := Load(WithFile(path))
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Workers, "environment overrides the file")
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(WithFile(filepath.Join(t.TempDir(), "missing.yml")))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadFromFlags(t *testing.T) {
	t.Setenv("PARWORKER_WORKERS", "6")
	t.Setenv("PARWORKER_GRAIN", "8")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--workers=2", "--log.level=trace"}))

	cfg, err := Load(WithFlags(fs))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 8, cfg.Grain, "unset flags leave the environment alone")
	assert.Equal(t, "trace", cfg.Log.Level)
}

func TestLoadWithDefault(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(WithFlags(fs), WithDefault("log.level", "info"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	t.Setenv("PARWORKER_LOG_LEVEL", "warn")
	cfg, err = Load(WithFlags(fs), WithDefault("log.level", "info"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level, "the environment overrides the default")

	require.NoError(t, fs.Parse([]string{"--log.level=error"}))
	cfg, err = Load(WithFlags(fs), WithDefault("log.level", "info"))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	for name, cfg := range map[string]Config{
		"workers": {Workers: -1},
		"grain":   {Grain: -2},
		"level":   {Log: LogConfig{Level: "loud"}},
		"format":  {Log: LogConfig{Format: "xml"}},
	} {
		t.Run(name, func(t *testing.T) {
			cfg.ApplyDefaults()
			assert.ErrorContains(t, cfg.Validate(), name)
		})
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("PARWORKER_LOG_FORMAT", "xml")
	_, err := Load()
	assert.ErrorContains(t, err, "log.format")
}

// Package config loads the runtime settings of the work-stealing scheduler
// and of the parworker command from environment variables, an optional YAML
// file, and command-line flags.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of all environment variables, for example
// PARWORKER_WORKERS or PARWORKER_LOG_LEVEL.
const EnvPrefix = "PARWORKER"

// LogConfig contains logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Config contains the scheduler configuration.
type Config struct {
	// Workers is the number of scheduler workers; 0 means one per logical
	// CPU.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// Grain is the grain size used to subdivide ranges; 0 lets the
	// scheduler choose one per call.
	Grain int       `yaml:"grain" mapstructure:"grain"`
	Log   LogConfig `yaml:"log" mapstructure:"log"`
}

// ApplyDefaults fills in unset logging fields.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative (got: %v)", c.Workers)
	}
	if c.Grain < 0 {
		return fmt.Errorf("grain must not be negative (got: %v)", c.Grain)
	}
	validLevels := []string{"trace", "debug", "info", "warn", "error", "disabled"}
	if !slices.Contains(validLevels, c.Log.Level) {
		return fmt.Errorf("log.level must be one of %v (got: %s)", validLevels, c.Log.Level)
	}
	validFormats := []string{"console", "json"}
	if !slices.Contains(validFormats, c.Log.Format) {
		return fmt.Errorf("log.format must be one of %v (got: %s)", validFormats, c.Log.Format)
	}
	return nil
}

type loader struct {
	file     string
	flags    *pflag.FlagSet
	defaults map[string]interface{}
}

// An Option configures Load.
type Option func(*loader)

// WithFile reads configuration from the given YAML file, underneath
// environment variables.
func WithFile(path string) Option {
	return func(l *loader) { l.file = path }
}

// WithFlags binds the flags of fs, which take precedence over environment
// variables and the configuration file. Flag names are the configuration
// keys, for example "workers" or "log.level"; see RegisterFlags.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(l *loader) { l.flags = fs }
}

// WithDefault sets the value of key when neither a flag, an environment
// variable, nor the configuration file provides one.
func WithDefault(key string, value interface{}) Option {
	return func(l *loader) {
		if l.defaults == nil {
			l.defaults = make(map[string]interface{})
		}
		l.defaults[key] = value
	}
}

// RegisterFlags defines flags for all configuration keys on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("workers", 0, "number of scheduler workers (0: one per logical CPU)")
	fs.Int("grain", 0, "grain size for range subdivision (0: automatic)")
	fs.String("log.level", "", "log level (trace, debug, info, warn, error, disabled)")
	fs.String("log.format", "", "log format (console, json)")
}

// Load returns the configuration, applying defaults and validating it.
func Load(opts ...Option) (cfg Config, err error) {
	var l loader
	for _, opt := range opts {
		opt(&l)
	}

	v := viper.New()
	v.SetDefault("workers", 0)
	v.SetDefault("grain", 0)
	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "")
	for key, value := range l.defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.file != "" {
		v.SetConfigFile(l.file)
		if err = v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("failed to read config file %s: %w", l.file, err)
		}
	}
	if l.flags != nil {
		var bindErr error
		l.flags.VisitAll(func(f *pflag.Flag) {
			if f.Changed && bindErr == nil {
				bindErr = v.BindPFlag(f.Name, f)
			}
		})
		if bindErr != nil {
			return cfg, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	if err = v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	err = cfg.Validate()
	return
}

// Package config loads runtime settings from defaults, an optional YAML
// file and LIBRARY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/aoideee/libraryhub/internal/storage"
)

// EnvPrefix is prepended to every environment override, e.g.
// LIBRARY_STORAGE_BACKEND=sqlite.
const EnvPrefix = "LIBRARY"

type Config struct {
	Port     int            `mapstructure:"port" yaml:"port"`
	Env      string         `mapstructure:"env" yaml:"env"` // development, staging or production
	LogLevel string         `mapstructure:"log_level" yaml:"log_level"`
	Storage  storage.Config `mapstructure:"storage" yaml:"storage"`
	Limiter  Limiter        `mapstructure:"limiter" yaml:"limiter"`
	CORS     CORS           `mapstructure:"cors" yaml:"cors"`
	Overdue  Overdue        `mapstructure:"overdue" yaml:"overdue"`
}

// Limiter configures the per-client token bucket.
type Limiter struct {
	Enabled bool    `mapstructure:"enabled" yaml:"enabled"`
	RPS     float64 `mapstructure:"rps" yaml:"rps"`
	Burst   int     `mapstructure:"burst" yaml:"burst"`
}

type CORS struct {
	TrustedOrigins []string `mapstructure:"trusted_origins" yaml:"trusted_origins"`
}

// Overdue controls the background sweep that marks late borrowings.
// A zero interval disables it.
type Overdue struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 4000)
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_prefix", "library")
	v.SetDefault("storage.minio_endpoint", "localhost:9000")
	v.SetDefault("storage.minio_access_key", "")
	v.SetDefault("storage.minio_secret_key", "")
	v.SetDefault("storage.minio_bucket", "library")
	v.SetDefault("storage.minio_use_ssl", false)
	v.SetDefault("storage.recovery", "reset")
	v.SetDefault("storage.cleanup_on_start", true)

	v.SetDefault("limiter.enabled", true)
	v.SetDefault("limiter.rps", 2)
	v.SetDefault("limiter.burst", 4)

	v.SetDefault("cors.trusted_origins", []string{})

	v.SetDefault("overdue.interval", time.Hour)
}

// Load reads the configuration. path may be empty, in which case
// LIBRARY_CONFIG is consulted; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	// Env overrides arrive as a single comma-separated string.
	if len(cfg.CORS.TrustedOrigins) == 1 && strings.Contains(cfg.CORS.TrustedOrigins[0], ",") {
		cfg.CORS.TrustedOrigins = strings.Split(cfg.CORS.TrustedOrigins[0], ",")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("config: port %d out of range", c.Port)
	case c.Limiter.Enabled && (c.Limiter.RPS <= 0 || c.Limiter.Burst < 1):
		return errors.New("config: limiter rps and burst must be positive")
	case c.Overdue.Interval < 0:
		return errors.New("config: overdue.interval must not be negative")
	}
	return nil
}

// WriteYAML encodes cfg with secrets masked.
func WriteYAML(w io.Writer, cfg *Config) error {
	redacted := *cfg
	for _, s := range []*string{&redacted.Storage.DSN, &redacted.Storage.RedisPassword, &redacted.Storage.MinioSecretKey} {
		if *s != "" {
			*s = "********"
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&redacted); err != nil {
		return err
	}
	return enc.Close()
}

// NewLogger returns a text logger for development and a JSON logger
// everywhere else. Accepts levels: debug, info, warn, error; unknown input
// means info.
func NewLogger(w io.Writer, env, level string) *slog.Logger {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: slogLevel}
	if env == "development" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

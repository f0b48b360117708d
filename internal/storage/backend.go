// Package storage provides the key/value backends that hold the library's
// serialized documents. Every backend stores opaque byte blobs under string
// keys; interpreting and repairing those blobs is the job of internal/data.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a blob store addressed by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // memory, file, sqlite, postgres, redis or minio
	Path    string `mapstructure:"path" yaml:"path"`       // directory for file, database file for sqlite
	DSN     string `mapstructure:"dsn" yaml:"dsn"`         // postgres connection string

	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisPrefix   string `mapstructure:"redis_prefix" yaml:"redis_prefix"`

	MinioEndpoint  string `mapstructure:"minio_endpoint" yaml:"minio_endpoint"`
	MinioAccessKey string `mapstructure:"minio_access_key" yaml:"minio_access_key"`
	MinioSecretKey string `mapstructure:"minio_secret_key" yaml:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket" yaml:"minio_bucket"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl" yaml:"minio_use_ssl"`

	Recovery       string `mapstructure:"recovery" yaml:"recovery"`                 // reset or isolate
	CleanupOnStart bool   `mapstructure:"cleanup_on_start" yaml:"cleanup_on_start"` // run aggressive cleanup before serving
}

// Open builds the backend named by cfg.Backend. Network backends are
// verified with a short timeout so misconfiguration fails at startup.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(cfg.Path)
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DSN)
	case "redis":
		return NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix)
	case "minio":
		return NewMinio(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

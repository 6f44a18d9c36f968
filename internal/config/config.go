// Package config reads server settings from SHAREDLIST_* environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"sharedlist/internal/blob"
	"sharedlist/internal/core"
)

// Defaults applied when a variable is unset or empty.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultSQLitePath      = "sharedlist.db"
	DefaultS3Region        = "us-east-1"
)

// S3 holds bucket settings for the s3 storage driver.
type S3 struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
	Key       string
}

// Config is the full server configuration.
type Config struct {
	Addr            string
	StorageDriver   core.StorageDriver
	FilePath        string
	SQLitePath      string
	PostgresDSN     string
	S3              S3
	LogLevel        slog.Level
	LogFormat       string
	AllowedOrigins  []string
	MetricsEnabled  bool
	ShutdownTimeout time.Duration
	MaxItems        int
}

// Load reads the environment, applies defaults and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Addr:          env("SHAREDLIST_ADDR", DefaultAddr),
		StorageDriver: core.StorageDriver(strings.ToLower(env("SHAREDLIST_STORAGE_DRIVER", string(core.StorageFile)))),
		FilePath:      env("SHAREDLIST_FILE_PATH", core.DefaultFilePath),
		SQLitePath:    env("SHAREDLIST_SQLITE_PATH", DefaultSQLitePath),
		PostgresDSN:   os.Getenv("SHAREDLIST_POSTGRES_DSN"),
		S3: S3{
			Bucket:   os.Getenv("SHAREDLIST_S3_BUCKET"),
			Region:   env("SHAREDLIST_S3_REGION", DefaultS3Region),
			Endpoint: os.Getenv("SHAREDLIST_S3_ENDPOINT"),
			Key:      os.Getenv("SHAREDLIST_S3_KEY"),
		},
		LogFormat:      strings.ToLower(env("SHAREDLIST_LOG_FORMAT", "text")),
		AllowedOrigins: splitList(env("SHAREDLIST_ALLOWED_ORIGINS", "*")),
	}

	var err error
	switch cfg.StorageDriver {
	case core.StorageMemory, core.StorageFile, core.StorageSQLite:
	case core.StoragePostgres:
		if cfg.PostgresDSN == "" {
			return Config{}, fmt.Errorf("SHAREDLIST_POSTGRES_DSN is required for the postgres driver")
		}
	case core.StorageS3:
		if cfg.S3.Bucket == "" {
			return Config{}, fmt.Errorf("SHAREDLIST_S3_BUCKET is required for the s3 driver")
		}
	default:
		return Config{}, fmt.Errorf("unknown SHAREDLIST_STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.S3.PathStyle, err = parseBool("SHAREDLIST_S3_PATH_STYLE", false); err != nil {
		return Config{}, err
	}
	if cfg.MetricsEnabled, err = parseBool("SHAREDLIST_METRICS", true); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = parseDuration("SHAREDLIST_SHUTDOWN_TIMEOUT", DefaultShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.MaxItems, err = parseInt("SHAREDLIST_MAX_ITEMS", 0); err != nil {
		return Config{}, err
	}
	if cfg.LogLevel, err = parseLevel(env("SHAREDLIST_LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("unknown SHAREDLIST_LOG_FORMAT %q", cfg.LogFormat)
	}
	return cfg, nil
}

// Storage converts the configuration into the store selector used by core.
func (c Config) Storage() core.StorageConfig {
	return core.StorageConfig{
		Driver:      c.StorageDriver,
		FilePath:    c.FilePath,
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
		S3: blob.S3Config{
			Bucket:    c.S3.Bucket,
			Region:    c.S3.Region,
			Endpoint:  c.S3.Endpoint,
			PathStyle: c.S3.PathStyle,
		},
		S3Key: c.S3.Key,
	}
}

// Logger builds a slog logger writing to w in the configured format and level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(key string, fallback bool) (bool, error) {
	v := env(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := env(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	v := env(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("parse SHAREDLIST_LOG_LEVEL: %w", err)
	}
	return level, nil
}

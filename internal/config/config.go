package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all the environment-based configurations.
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8000"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass   string `envconfig:"REDIS_PASSWORD"`
	RedisDB     int    `envconfig:"REDIS_DB" default:"0"`
	LogFilePath string `envconfig:"LOG_FILE_PATH"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	MonitorInterval     time.Duration `envconfig:"MONITOR_INTERVAL" default:"30s"`
	MonitorErrorBackoff time.Duration `envconfig:"MONITOR_ERROR_BACKOFF" default:"60s"`
	ShutdownTimeout     time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	PackageCacheTTL     time.Duration `envconfig:"PACKAGE_CACHE_TTL" default:"1m"`

	// Key prefix the accounting watcher reacts to.
	AccountingKeyPrefix string `envconfig:"ACCOUNTING_KEY_PREFIX" default:"radius:acct:"`
}

// Load reads the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config files searched in order. The first
// one found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mdspoller/config.yaml",
	"/etc/mdspoller/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// MaxWorkers caps POLLER_WORKERS.
const MaxWorkers = 16

func defaultConfig() *Config {
	return &Config{
		Poller: PollerConfig{
			LimitDays:            "90",
			CreateRegisterEvents: false,
			Workers:              1,
			Interval:             5 * time.Minute,
			RunTimeout:           0,
		},
		Fetch: FetchConfig{
			Timeout:         30 * time.Second,
			RetryDelay:      time.Second,
			RateLimit:       0, // Unlimited
			RateBurst:       1,
			BreakerFailures: 5,
			BreakerTimeout:  2 * time.Minute,
		},
		TokenCache: TokenCacheConfig{
			Backend: "memory",
			Path:    "/data/token-cache",
		},
		Database: DatabaseConfig{
			Path:      "/data/mdspoller.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 9464,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads and validates the configuration.
func LoadWithKoanf() (*Config, error) {
	return loadFrom(findConfigFile())
}

// LoadFile loads the configuration using the given YAML file instead of the
// search paths. Environment variables still apply.
func LoadFile(path string) (*Config, error) {
	return loadFrom(path)
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var envMappings = map[string]string{
	"provider_poller_limit_days":    "poller.limit_days",
	"poller_create_register_events": "poller.create_register_events",
	"poller_workers":                "poller.workers",
	"poller_interval":               "poller.interval",
	"poller_run_timeout":            "poller.run_timeout",

	"poller_token_encryption_key": "token_cache.encryption_key",
	"poller_token_cache":          "token_cache.backend",
	"poller_token_cache_path":     "token_cache.path",

	"fetch_timeout":          "fetch.timeout",
	"fetch_retry_delay":      "fetch.retry_delay",
	"fetch_rate_limit":       "fetch.rate_limit",
	"fetch_rate_burst":       "fetch.rate_burst",
	"fetch_breaker_failures": "fetch.breaker_failures",
	"fetch_breaker_timeout":  "fetch.breaker_timeout",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"http_host": "server.host",
	"http_port": "server.port",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable to its config key. Unmapped
// variables return "" and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package config

import (
	"fmt"
	"net/url"

	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/tokencache"
	"github.com/tomtom215/mdspoller/internal/validation"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePoller(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateTokenCache(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateProviders()
}

func (c *Config) validatePoller() error {
	if _, _, err := c.Poller.Limit(); err != nil {
		return err
	}
	if c.Poller.Workers < 1 || c.Poller.Workers > MaxWorkers {
		return fmt.Errorf("POLLER_WORKERS must be between 1 and %d, got %d", MaxWorkers, c.Poller.Workers)
	}
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("POLLER_INTERVAL must be positive, got %v", c.Poller.Interval)
	}
	if c.Poller.RunTimeout < 0 {
		return fmt.Errorf("POLLER_RUN_TIMEOUT must not be negative, got %v", c.Poller.RunTimeout)
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %v", c.Fetch.Timeout)
	}
	if c.Fetch.RetryDelay < 0 {
		return fmt.Errorf("FETCH_RETRY_DELAY must not be negative, got %v", c.Fetch.RetryDelay)
	}
	if c.Fetch.RateLimit < 0 {
		return fmt.Errorf("FETCH_RATE_LIMIT must not be negative, got %v", c.Fetch.RateLimit)
	}
	if c.Fetch.RateBurst < 0 {
		return fmt.Errorf("FETCH_RATE_BURST must not be negative, got %d", c.Fetch.RateBurst)
	}
	if c.Fetch.BreakerFailures < 0 {
		return fmt.Errorf("FETCH_BREAKER_FAILURES must not be negative, got %d", c.Fetch.BreakerFailures)
	}
	return nil
}

func (c *Config) validateTokenCache() error {
	switch tokencache.BackendType(c.TokenCache.Backend) {
	case tokencache.BackendMemory:
	case tokencache.BackendBadger:
		if c.TokenCache.Path == "" {
			return fmt.Errorf("POLLER_TOKEN_CACHE_PATH is required when POLLER_TOKEN_CACHE=badger")
		}
	default:
		return fmt.Errorf("POLLER_TOKEN_CACHE must be memory or badger, got %q", c.TokenCache.Backend)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func (c *Config) validateProviders() error {
	seen := make(map[string]bool, len(c.Providers))
	for i := range c.Providers {
		pc := &c.Providers[i]
		if err := validation.ValidateStruct(pc); err != nil {
			return fmt.Errorf("providers[%d]: %w", i, err)
		}
		if seen[pc.ID] {
			return fmt.Errorf("providers[%d]: duplicate id %s", i, pc.ID)
		}
		seen[pc.ID] = true
		if pc.BaseAPIURL != "" {
			if u, err := url.Parse(pc.BaseAPIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				return fmt.Errorf("providers[%d]: base_api_url must be an http(s) URL", i)
			}
		}
		if _, err := pc.ToModel(); err != nil {
			return fmt.Errorf("providers[%d]: %w", i, err)
		}
	}
	return nil
}

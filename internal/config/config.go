// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/mdspoller/internal/models"
)

// Config holds the poller configuration.
//
// Loading order (see LoadWithKoanf):
//  1. Defaults from defaultConfig
//  2. Optional YAML file (CONFIG_PATH or the default search paths)
//  3. Mapped environment variables
//
// Providers declared in the YAML file are synced into the store on start-up.
type Config struct {
	Poller     PollerConfig     `koanf:"poller"`
	Fetch      FetchConfig      `koanf:"fetch"`
	TokenCache TokenCacheConfig `koanf:"token_cache"`
	Database   DatabaseConfig   `koanf:"database"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Providers  []ProviderConfig `koanf:"providers"`
}

// PollerConfig holds the polling run settings.
type PollerConfig struct {
	// LimitDays bounds how far back a provider without a cursor is polled.
	// Empty or "null" polls from the beginning.
	LimitDays            string        `koanf:"limit_days"`
	CreateRegisterEvents bool          `koanf:"create_register_events"`
	Workers              int           `koanf:"workers"`
	Interval             time.Duration `koanf:"interval"`    // serve mode period
	RunTimeout           time.Duration `koanf:"run_timeout"` // 0 = no deadline
}

// Limit returns the initial look-back window. ok is false when polling
// starts from the epoch.
func (p PollerConfig) Limit() (limit time.Duration, ok bool, err error) {
	raw := strings.TrimSpace(p.LimitDays)
	if raw == "" || strings.EqualFold(raw, "null") || strings.EqualFold(raw, "none") {
		return 0, false, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("PROVIDER_POLLER_LIMIT_DAYS must be an integer or null: %w", err)
	}
	if days < 0 {
		return 0, false, fmt.Errorf("PROVIDER_POLLER_LIMIT_DAYS must not be negative, got %d", days)
	}
	return time.Duration(days) * 24 * time.Hour, true, nil
}

// FetchConfig holds provider API client settings.
type FetchConfig struct {
	Timeout         time.Duration `koanf:"timeout"`
	RetryDelay      time.Duration `koanf:"retry_delay"`
	RateLimit       float64       `koanf:"rate_limit"` // requests per second per provider, 0 = unlimited
	RateBurst       int           `koanf:"rate_burst"`
	BreakerFailures int           `koanf:"breaker_failures"` // 0 disables the circuit breaker
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// TokenCacheConfig selects and keys the OAuth2 token cache.
type TokenCacheConfig struct {
	Backend       string `koanf:"backend"` // memory or badger
	Path          string `koanf:"path"`
	EncryptionKey string `koanf:"encryption_key"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// ServerConfig holds the serve mode HTTP listener.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ProviderConfig is a provider declared in the config file.
type ProviderConfig struct {
	ID               string                 `koanf:"id" validate:"required"`
	Name             string                 `koanf:"name" validate:"required"`
	BaseAPIURL       string                 `koanf:"base_api_url" validate:"omitempty,url"`
	APIVersion       string                 `koanf:"api_version" validate:"required"`
	Authentication   AuthenticationConfig   `koanf:"authentication"`
	APIConfiguration APIConfigurationConfig `koanf:"api_configuration"`
}

// AuthenticationConfig mirrors models.Authentication.
type AuthenticationConfig struct {
	Type         string            `koanf:"type" validate:"omitempty,oneof=none oauth2"`
	ClientID     string            `koanf:"client_id" validate:"required_if=Type oauth2"`
	ClientSecret string            `koanf:"client_secret" validate:"required_if=Type oauth2"`
	TokenURL     string            `koanf:"token_url" validate:"omitempty,url"`
	TokenParams  map[string]string `koanf:"token_params"`
}

// APIConfigurationConfig mirrors models.APIConfiguration.
type APIConfigurationConfig struct {
	TrailingSlash       bool              `koanf:"trailing_slash"`
	SwapLngLat          bool              `koanf:"swap_lng_lat"`
	PollingCursor       string            `koanf:"polling_cursor"`
	ProviderPollingLag  string            `koanf:"provider_polling_lag"`
	RealtimeThreshold   string            `koanf:"realtime_threshold"`
	StatusChangesParams map[string]string `koanf:"status_changes_params"`
}

// ToModel converts the declaration into a provider and validates it.
func (pc ProviderConfig) ToModel() (models.Provider, error) {
	id, err := uuid.Parse(pc.ID)
	if err != nil {
		return models.Provider{}, fmt.Errorf("provider %q: invalid id: %w", pc.Name, err)
	}
	version, err := models.ParseAPIVersion(pc.APIVersion)
	if err != nil {
		return models.Provider{}, fmt.Errorf("provider %q: %w", pc.Name, err)
	}
	cursorKind, err := models.ParseCursorKind(pc.APIConfiguration.PollingCursor)
	if err != nil {
		return models.Provider{}, fmt.Errorf("provider %q: %w", pc.Name, err)
	}

	auth := models.Authentication{Type: models.AuthNone}
	if models.AuthType(pc.Authentication.Type) == models.AuthOAuth2 {
		auth = models.Authentication{
			Type: models.AuthOAuth2,
			OAuth2: &models.OAuth2Credentials{
				ClientID:         pc.Authentication.ClientID,
				ClientSecret:     pc.Authentication.ClientSecret,
				TokenURL:         pc.Authentication.TokenURL,
				ExtraTokenParams: pc.Authentication.TokenParams,
			},
		}
	}

	p := models.Provider{
		ID:             id,
		Name:           pc.Name,
		BaseAPIURL:     pc.BaseAPIURL,
		APIVersion:     version,
		Authentication: auth,
		Configuration: models.APIConfiguration{
			TrailingSlash:       pc.APIConfiguration.TrailingSlash,
			SwapLngLat:          pc.APIConfiguration.SwapLngLat,
			PollingCursor:       cursorKind,
			ProviderPollingLag:  pc.APIConfiguration.ProviderPollingLag,
			RealtimeThreshold:   pc.APIConfiguration.RealtimeThreshold,
			StatusChangesParams: pc.APIConfiguration.StatusChangesParams,
		},
	}
	if err := p.Validate(); err != nil {
		return models.Provider{}, fmt.Errorf("provider %q: %w", pc.Name, err)
	}
	return p, nil
}

// ProviderModels converts every declared provider.
func (c *Config) ProviderModels() ([]models.Provider, error) {
	out := make([]models.Provider, 0, len(c.Providers))
	for _, pc := range c.Providers {
		p, err := pc.ToModel()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

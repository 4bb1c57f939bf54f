// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/mdspoller/internal/models"
)

func TestPollerConfigLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantOK  bool
		wantErr bool
	}{
		{"90", 90 * 24 * time.Hour, true, false},
		{" 7 ", 7 * 24 * time.Hour, true, false},
		{"0", 0, true, false},
		{"", 0, false, false},
		{"null", 0, false, false},
		{"None", 0, false, false},
		{"-3", 0, false, true},
		{"1.5", 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok, err := PollerConfig{LimitDays: tt.raw}.Limit()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Limit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Limit() = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func validProviderConfig() ProviderConfig {
	return ProviderConfig{
		ID:         "63f13c48-34ff-49d2-aca7-cf6a5b6171c3",
		Name:       "Lime",
		BaseAPIURL: "https://mds.lime.example.com/v1",
		APIVersion: "0.3.2",
		Authentication: AuthenticationConfig{
			Type:         "oauth2",
			ClientID:     "agency",
			ClientSecret: "s3cret",
			TokenURL:     "https://auth.lime.example.com/token",
		},
		APIConfiguration: APIConfigurationConfig{
			PollingCursor:      "total_events",
			ProviderPollingLag: "PT30M",
		},
	}
}

func TestProviderConfigToModel(t *testing.T) {
	p, err := validProviderConfig().ToModel()
	if err != nil {
		t.Fatalf("ToModel() error = %v", err)
	}
	if p.ID.String() != "63f13c48-34ff-49d2-aca7-cf6a5b6171c3" || p.APIVersion != models.APIVersion03 {
		t.Errorf("provider = %+v", p)
	}
	if p.Authentication.Kind() != models.AuthOAuth2 || p.Authentication.OAuth2.TokenURL != "https://auth.lime.example.com/token" {
		t.Errorf("authentication = %+v", p.Authentication)
	}
	if p.CursorKind() != models.CursorTotalEvents {
		t.Errorf("CursorKind() = %s, want total_events", p.CursorKind())
	}
}

func TestProviderConfigToModel_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ProviderConfig)
		wantErr string
	}{
		{"bad id", func(pc *ProviderConfig) { pc.ID = "lime" }, "invalid id"},
		{"bad version", func(pc *ProviderConfig) { pc.APIVersion = "1.0" }, "unsupported MDS version"},
		{"bad cursor", func(pc *ProviderConfig) { pc.APIConfiguration.PollingCursor = "page" }, "page"},
		{"cursor not allowed", func(pc *ProviderConfig) { pc.APIVersion = "0.4" }, "total_events"},
		{"bad lag", func(pc *ProviderConfig) { pc.APIConfiguration.ProviderPollingLag = "an hour" }, "provider_polling_lag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := validProviderConfig()
			tt.mutate(&pc)
			_, err := pc.ToModel()
			if err == nil {
				t.Fatal("ToModel() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateProviders(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing name", func(c *Config) { c.Providers[0].Name = "" }, "Name is required"},
		{"oauth2 without client id", func(c *Config) { c.Providers[0].Authentication.ClientID = "" }, "ClientID is required"},
		{"unknown auth type", func(c *Config) { c.Providers[0].Authentication.Type = "basic" }, "Type must be one of"},
		{"non-http base url", func(c *Config) { c.Providers[0].BaseAPIURL = "ftp://mds.example.com" }, "http(s)"},
		{"duplicate id", func(c *Config) { c.Providers = append(c.Providers, c.Providers[0]) }, "duplicate id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Providers = []ProviderConfig{validProviderConfig()}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfigAddr(t *testing.T) {
	if got := (ServerConfig{Host: "127.0.0.1", Port: 9464}).Addr(); got != "127.0.0.1:9464" {
		t.Errorf("Addr() = %q", got)
	}
}

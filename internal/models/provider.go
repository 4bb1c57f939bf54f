// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package models

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tomtom215/mdspoller/internal/codec"
)

// APIVersion is a supported version of the MDS Provider API.
type APIVersion string

// Supported Provider API versions.
const (
	APIVersion02 APIVersion = "0.2"
	APIVersion03 APIVersion = "0.3"
	APIVersion04 APIVersion = "0.4"
)

// MDSContentType is the media type of the MDS Provider API.
const MDSContentType = "application/vnd.mds.provider+json"

// DefaultRealtimeThreshold is used when a 0.4 provider does not configure one.
const DefaultRealtimeThreshold = 9 * 24 * time.Hour

// ErrUnsupportedVersion is returned for versions outside 0.2 to 0.4.
var ErrUnsupportedVersion = errors.New("unsupported MDS version")

// ParseAPIVersion accepts "0.3", "0.3.1" and the "v0_3" spelling used by
// older registry exports.
func ParseAPIVersion(s string) (APIVersion, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "v")
	v = strings.ReplaceAll(v, "_", ".")
	parts := strings.Split(v, ".")
	if len(parts) >= 2 {
		switch APIVersion(parts[0] + "." + parts[1]) {
		case APIVersion02:
			return APIVersion02, nil
		case APIVersion03:
			return APIVersion03, nil
		case APIVersion04:
			return APIVersion04, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
}

// AuthType discriminates Authentication.
type AuthType string

// Authentication types.
const (
	AuthNone   AuthType = "none"
	AuthOAuth2 AuthType = "oauth2"
)

// OAuth2Credentials configures the client-credentials flow of a provider.
type OAuth2Credentials struct {
	ClientID     string
	ClientSecret string
	// TokenURL replaces "{base_api_url}/oauth2/token" entirely when set.
	TokenURL         string
	ExtraTokenParams map[string]string
}

// Authentication is either none or oauth2. OAuth2 is only set for AuthOAuth2.
type Authentication struct {
	Type   AuthType
	OAuth2 *OAuth2Credentials
}

type authenticationJSON struct {
	Type         string            `json:"type,omitempty"`
	ClientID     string            `json:"client_id,omitempty"`
	ClientSecret string            `json:"client_secret,omitempty"`
	TokenURL     string            `json:"token_url,omitempty"`
	TokenParams  map[string]string `json:"token_params,omitempty"`
}

// MarshalJSON flattens the union into the registry column layout.
func (a Authentication) MarshalJSON() ([]byte, error) {
	out := authenticationJSON{Type: string(a.Kind())}
	if a.OAuth2 != nil {
		out.ClientID = a.OAuth2.ClientID
		out.ClientSecret = a.OAuth2.ClientSecret
		out.TokenURL = a.OAuth2.TokenURL
		out.TokenParams = a.OAuth2.ExtraTokenParams
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flattened registry layout.
func (a *Authentication) UnmarshalJSON(data []byte) error {
	var in authenticationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch AuthType(in.Type) {
	case "", AuthNone:
		*a = Authentication{Type: AuthNone}
	case AuthOAuth2:
		*a = Authentication{Type: AuthOAuth2, OAuth2: &OAuth2Credentials{
			ClientID:         in.ClientID,
			ClientSecret:     in.ClientSecret,
			TokenURL:         in.TokenURL,
			ExtraTokenParams: in.TokenParams,
		}}
	default:
		return fmt.Errorf("unknown authentication type %q", in.Type)
	}
	return nil
}

// Kind returns the authentication type, treating the zero value as none.
func (a Authentication) Kind() AuthType {
	if a.Type == "" {
		return AuthNone
	}
	return a.Type
}

// APIConfiguration holds the per-provider feature toggles.
type APIConfiguration struct {
	TrailingSlash bool       `json:"trailing_slash,omitempty"`
	SwapLngLat    bool       `json:"swap_lng_lat,omitempty"`
	PollingCursor CursorKind `json:"polling_cursor,omitempty"`
	// ProviderPollingLag and RealtimeThreshold are ISO 8601 durations.
	ProviderPollingLag  string            `json:"provider_polling_lag,omitempty"`
	RealtimeThreshold   string            `json:"realtime_threshold,omitempty"`
	StatusChangesParams map[string]string `json:"status_changes_params,omitempty"`
}

// PollingLag returns the configured lag, zero when unset.
func (c APIConfiguration) PollingLag() (time.Duration, error) {
	return parseOptionalDuration(c.ProviderPollingLag, 0)
}

// Threshold returns the 0.4 realtime threshold, DefaultRealtimeThreshold when unset.
func (c APIConfiguration) Threshold() (time.Duration, error) {
	return parseOptionalDuration(c.RealtimeThreshold, DefaultRealtimeThreshold)
}

func parseOptionalDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return codec.ParseDuration(s)
}

// Provider is a registered operator and its polling state.
type Provider struct {
	ID             uuid.UUID
	Name           string
	BaseAPIURL     string
	APIVersion     APIVersion
	Authentication Authentication
	Configuration  APIConfiguration
	Cursor         CursorState
	CreatedAt      time.Time
}

// CursorKind returns the configured polling cursor, start_time by default.
func (p *Provider) CursorKind() CursorKind {
	if p.Configuration.PollingCursor == "" {
		return CursorStartTime
	}
	return p.Configuration.PollingCursor
}

// Validate checks the registry entry before a run touches the network.
func (p *Provider) Validate() error {
	if p.ID == uuid.Nil {
		return errors.New("provider id is required")
	}
	if _, err := ParseAPIVersion(string(p.APIVersion)); err != nil {
		return err
	}
	if p.BaseAPIURL != "" {
		u, err := url.Parse(p.BaseAPIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid base_api_url %q", p.BaseAPIURL)
		}
	}
	if err := p.CursorKind().AllowedFor(p.APIVersion); err != nil {
		return err
	}
	if _, err := p.Configuration.PollingLag(); err != nil {
		return fmt.Errorf("provider_polling_lag: %w", err)
	}
	if _, err := p.Configuration.Threshold(); err != nil {
		return fmt.Errorf("realtime_threshold: %w", err)
	}
	if p.Authentication.Kind() == AuthOAuth2 {
		if p.Authentication.OAuth2 == nil || p.Authentication.OAuth2.ClientID == "" {
			return errors.New("oauth2 authentication requires a client_id")
		}
	}
	return nil
}

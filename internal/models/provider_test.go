// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

func TestParseAPIVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    APIVersion
		wantErr bool
	}{
		{in: "0.2", want: APIVersion02},
		{in: "0.3.1", want: APIVersion03},
		{in: "0.4.0", want: APIVersion04},
		{in: "v0_3", want: APIVersion03},
		{in: "0.5.0", wantErr: true},
		{in: "1.0", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAPIVersion(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedVersion) {
					t.Fatalf("ParseAPIVersion(%q) error = %v, want ErrUnsupportedVersion", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAPIVersion(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAPIVersion(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCursorKind_AllowedFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind    CursorKind
		version APIVersion
		ok      bool
	}{
		{CursorStartTime, APIVersion02, true},
		{CursorStartTime, APIVersion04, true},
		{CursorStartRecorded, APIVersion03, true},
		{CursorTotalEvents, APIVersion03, true},
		{CursorStartRecorded, APIVersion04, false},
		{CursorTotalEvents, APIVersion02, false},
	}

	for _, tt := range tests {
		err := tt.kind.AllowedFor(tt.version)
		if (err == nil) != tt.ok {
			t.Errorf("%s.AllowedFor(%s) error = %v, want ok=%v", tt.kind, tt.version, err, tt.ok)
		}
	}

	if CursorTotalEvents.QueryParam() != "skip" {
		t.Errorf("total_events query param = %q, want skip", CursorTotalEvents.QueryParam())
	}
}

func TestProvider_Validate(t *testing.T) {
	t.Parallel()

	valid := func() Provider {
		return Provider{
			ID:         uuid.New(),
			Name:       "Test",
			BaseAPIURL: "http://provider.example",
			APIVersion: APIVersion03,
		}
	}

	tests := []struct {
		name    string
		mutate  func(p *Provider)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *Provider) {}},
		{name: "no base url is fine", mutate: func(p *Provider) { p.BaseAPIURL = "" }},
		{name: "nil id", mutate: func(p *Provider) { p.ID = uuid.Nil }, wantErr: true},
		{name: "bad version", mutate: func(p *Provider) { p.APIVersion = "0.9" }, wantErr: true},
		{name: "relative url", mutate: func(p *Provider) { p.BaseAPIURL = "/status_changes" }, wantErr: true},
		{
			name: "skip cursor on 0.4",
			mutate: func(p *Provider) {
				p.APIVersion = APIVersion04
				p.Configuration.PollingCursor = CursorTotalEvents
			},
			wantErr: true,
		},
		{name: "bad lag", mutate: func(p *Provider) { p.Configuration.ProviderPollingLag = "one hour" }, wantErr: true},
		{
			name: "oauth2 without client id",
			mutate: func(p *Provider) {
				p.Authentication = Authentication{Type: AuthOAuth2, OAuth2: &OAuth2Credentials{}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIConfiguration_Durations(t *testing.T) {
	t.Parallel()

	var cfg APIConfiguration
	threshold, err := cfg.Threshold()
	if err != nil || threshold != DefaultRealtimeThreshold {
		t.Fatalf("default threshold = %v, %v", threshold, err)
	}
	lag, err := cfg.PollingLag()
	if err != nil || lag != 0 {
		t.Fatalf("default lag = %v, %v", lag, err)
	}

	cfg.ProviderPollingLag = "PT1H"
	cfg.RealtimeThreshold = "P2D"
	if lag, _ = cfg.PollingLag(); lag != time.Hour {
		t.Errorf("lag = %v, want 1h", lag)
	}
	if threshold, _ = cfg.Threshold(); threshold != 48*time.Hour {
		t.Errorf("threshold = %v, want 48h", threshold)
	}
}

func TestAuthentication_JSON(t *testing.T) {
	t.Parallel()

	in := Authentication{Type: AuthOAuth2, OAuth2: &OAuth2Credentials{
		ClientID:         "client",
		ClientSecret:     "secret",
		TokenURL:         "https://auth.example/token",
		ExtraTokenParams: map[string]string{"audience": "agency"},
	}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out Authentication
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Kind() != AuthOAuth2 || out.OAuth2 == nil {
		t.Fatalf("Unmarshal lost the oauth2 arm: %+v", out)
	}
	if out.OAuth2.ExtraTokenParams["audience"] != "agency" || out.OAuth2.TokenURL != in.OAuth2.TokenURL {
		t.Errorf("Unmarshal = %+v", out.OAuth2)
	}

	var none Authentication
	if err := json.Unmarshal([]byte(`{}`), &none); err != nil || none.Kind() != AuthNone {
		t.Errorf("empty object = %+v, %v; want none", none, err)
	}
	if err := json.Unmarshal([]byte(`{"type":"basic"}`), &none); err == nil {
		t.Error("unknown type should fail")
	}
}

func TestAgencyEventForReason(t *testing.T) {
	t.Parallel()

	ev, ok := AgencyEventForReason("maintenance_pick_up")
	if !ok || ev.Type != EventProviderPickUp || ev.Reason != ReasonMaintenance {
		t.Errorf("maintenance_pick_up = %+v, %v", ev, ok)
	}
	ev, ok = AgencyEventForReason("service_start")
	if !ok || ev.Type != EventServiceStart || ev.Reason != "" {
		t.Errorf("service_start = %+v, %v", ev, ok)
	}
	if _, ok := AgencyEventForReason("teleported"); ok {
		t.Error("unknown reason should not map")
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"tagged", NewPollError(KindAuth, "http://x", base), KindAuth},
		{"wrapped tagged", fmt.Errorf("page 2: %w", NewPollError(KindMalformedBody, "", base)), KindMalformedBody},
		{"unsupported version", fmt.Errorf("translate: %w", ErrUnsupportedVersion), KindUnsupportedVersion},
		{"plain", base, KindUnknown},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("%s: KindOf() = %q, want %q", tt.name, got, tt.want)
		}
	}

	if NewPollError(KindFetch, "", nil) != nil {
		t.Error("NewPollError(nil) should be nil")
	}
}

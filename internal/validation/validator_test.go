// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package validation

import (
	"strings"
	"testing"
)

// ===================================================================================================
// Singleton Validator Tests
// ===================================================================================================

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

// ===================================================================================================
// ValidateStruct Tests
// ===================================================================================================

type credentials struct {
	Type         string   `validate:"omitempty,oneof=none oauth2"`
	ClientID     string   `validate:"required_if=Type oauth2"`
	TokenURL     string   `validate:"omitempty,url"`
	Propulsion   []string `validate:"required,min=1"`
	Name         string   `validate:"required,max=8"`
	Latitude     float64  `validate:"latitude"`
	Longitude    float64  `validate:"longitude"`
	RetryAttempt int      `validate:"gte=0,lte=3"`
}

func validCredentials() credentials {
	return credentials{
		Type:       "oauth2",
		ClientID:   "client",
		TokenURL:   "https://auth.example.com/token",
		Propulsion: []string{"electric"},
		Name:       "lime",
		Latitude:   48.85,
		Longitude:  2.35,
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	c := validCredentials()
	if err := ValidateStruct(&c); err != nil {
		t.Fatalf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStruct_Messages(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*credentials)
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{
			name:      "required_if",
			mutate:    func(c *credentials) { c.ClientID = "" },
			wantField: "ClientID",
			wantTag:   "required_if",
			wantMsg:   "ClientID is required when Type oauth2",
		},
		{
			name:      "oneof",
			mutate:    func(c *credentials) { c.Type = "basic" },
			wantField: "Type",
			wantTag:   "oneof",
			wantMsg:   "Type must be one of: none oauth2",
		},
		{
			name:      "url",
			mutate:    func(c *credentials) { c.TokenURL = "not a url" },
			wantField: "TokenURL",
			wantTag:   "url",
			wantMsg:   "TokenURL must be a valid URL",
		},
		{
			name:      "empty slice",
			mutate:    func(c *credentials) { c.Propulsion = []string{} },
			wantField: "Propulsion",
			wantTag:   "min",
			wantMsg:   "Propulsion must be at least 1 items",
		},
		{
			name:      "string max",
			mutate:    func(c *credentials) { c.Name = "much-too-long" },
			wantField: "Name",
			wantTag:   "max",
			wantMsg:   "Name must be at most 8 characters",
		},
		{
			name:      "latitude",
			mutate:    func(c *credentials) { c.Latitude = 91 },
			wantField: "Latitude",
			wantTag:   "latitude",
			wantMsg:   "Latitude must be a valid latitude (-90 to 90)",
		},
		{
			name:      "lte",
			mutate:    func(c *credentials) { c.RetryAttempt = 4 },
			wantField: "RetryAttempt",
			wantTag:   "lte",
			wantMsg:   "RetryAttempt must be less than or equal to 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCredentials()
			tt.mutate(&c)

			err := ValidateStruct(&c)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if len(err.Errors()) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(err.Errors()), err)
			}
			fe := err.Errors()[0]
			if fe.Field() != tt.wantField || fe.Tag() != tt.wantTag {
				t.Errorf("field/tag = %s/%s, want %s/%s", fe.Field(), fe.Tag(), tt.wantField, tt.wantTag)
			}
			if fe.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", fe.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	c := validCredentials()
	c.Name = ""
	c.Longitude = 200

	err := ValidateStruct(&c)
	if err == nil {
		t.Fatal("expected error")
	}
	fields := err.Fields()
	if len(fields) != 2 || fields[0] != "Name" || fields[1] != "Longitude" {
		t.Errorf("Fields() = %v", fields)
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Error() should join messages: %q", err.Error())
	}
}

func TestValidateStruct_NotAStruct(t *testing.T) {
	err := ValidateStruct("plain string")
	if err == nil {
		t.Fatal("expected error for non-struct input")
	}
	if err.Errors()[0].Field() != "unknown" {
		t.Errorf("Field() = %q, want unknown", err.Errors()[0].Field())
	}
}

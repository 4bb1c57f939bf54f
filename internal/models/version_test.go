// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package models

import (
	"errors"
	"testing"
)

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		in            APIVersion
		want          APIVersion
		wantTranslate bool
		wantEvents    bool
	}{
		{in: "0.2", want: APIVersion02, wantTranslate: true},
		{in: "0.3", want: APIVersion03},
		{in: "0.3.1", want: APIVersion03},
		{in: "v0_3", want: APIVersion03},
		{in: " 0.4.0 ", want: APIVersion04, wantEvents: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			s, err := StrategyFor(tt.in)
			if err != nil {
				t.Fatalf("StrategyFor(%q) error = %v", tt.in, err)
			}
			if s.Version != tt.want {
				t.Errorf("Version = %q, want %q", s.Version, tt.want)
			}
			if s.Translate != tt.wantTranslate {
				t.Errorf("Translate = %v, want %v", s.Translate, tt.wantTranslate)
			}
			if (s.Events != "") != tt.wantEvents {
				t.Errorf("Events = %q", s.Events)
			}
		})
	}
}

func TestStrategyFor_Unsupported(t *testing.T) {
	for _, v := range []APIVersion{"", "1.0", "0.1", "latest"} {
		if _, err := StrategyFor(v); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("StrategyFor(%q) error = %v, want ErrUnsupportedVersion", v, err)
		}
	}
}

// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package codec

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "PT1H", want: time.Hour},
		{in: "P9D", want: 9 * 24 * time.Hour},
		{in: "P1DT30M", want: 24*time.Hour + 30*time.Minute},
		{in: "PT0.5S", want: 500 * time.Millisecond},
		{in: "1h", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	got, err := ParseDuration(FormatDuration(90 * time.Minute))
	if err != nil || got != 90*time.Minute {
		t.Errorf("round trip = %v, %v", got, err)
	}
}

// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package codec

import (
	"errors"
	"testing"
	"time"
)

func TestToMS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want int64
	}{
		{"epoch", time.Unix(0, 0), 0},
		{"exact millisecond", time.UnixMilli(1_325_376_000_000), 1_325_376_000_000},
		{"below half rounds down", time.Unix(1, 499_999), 1000},
		{"half rounds up", time.Unix(1, 500_000), 1001},
		{"above half rounds up", time.Unix(1, 999_999), 1001},
		{"negative half rounds away from zero", time.Unix(-1, 999_500_000), -1},
		{"negative below half", time.Unix(-1, 999_600_000), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToMS(tt.in); got != tt.want {
				t.Errorf("ToMS(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromMS_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, ms := range []int64{0, 1, 999, 1_325_376_000_000, 1_571_236_835_123} {
		got := FromMS(ms)
		if got.Location() != time.UTC {
			t.Errorf("FromMS(%d) location = %v, want UTC", ms, got.Location())
		}
		if back := ToMS(got); back != ms {
			t.Errorf("ToMS(FromMS(%d)) = %d", ms, back)
		}
	}

	now := time.Now()
	if drift := FromMS(ToMS(now)).Sub(now); drift > time.Millisecond/2 || drift < -time.Millisecond/2 {
		t.Errorf("FromMS(ToMS(now)) drifted by %v", drift)
	}
}

func TestSecondsToMS(t *testing.T) {
	t.Parallel()

	if got := SecondsToMS(1325376000.123); got != 1325376000123 {
		t.Errorf("SecondsToMS = %d, want 1325376000123", got)
	}
	if got := SecondsToMS(0.0005); got != 1 {
		t.Errorf("SecondsToMS(0.0005) = %d, want 1", got)
	}
}

func TestHourKey(t *testing.T) {
	t.Parallel()

	in := time.Date(2019, 10, 16, 15, 40, 35, 0, time.UTC)
	if got := HourKey(in); got != "2019-10-16T15" {
		t.Errorf("HourKey = %q", got)
	}
	paris := time.FixedZone("CEST", 2*3600)
	if got := HourKey(in.In(paris)); got != "2019-10-16T15" {
		t.Errorf("HourKey should format in UTC, got %q", got)
	}
}

func TestParseMS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: `1325376000000`, want: 1325376000000},
		{raw: `"1325376000000"`, want: 1325376000000},
		{raw: `" 42 "`, want: 42},
		{raw: `1325376000000.9`, want: 1325376000000},
		{raw: `1.5e3`, want: 1500},
		{raw: `"12.5"`, wantErr: true},
		{raw: `"soon"`, wantErr: true},
		{raw: `null`, wantErr: true},
		{raw: ``, wantErr: true},
		{raw: `true`, wantErr: true},
		{raw: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseMS([]byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimestamp) {
					t.Fatalf("ParseMS(%s) error = %v, want ErrInvalidTimestamp", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMS(%s) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseMS(%s) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseOptionalTime(t *testing.T) {
	t.Parallel()

	got, err := ParseOptionalTime(nil)
	if err != nil || got != nil {
		t.Fatalf("absent = %v, %v; want nil, nil", got, err)
	}
	got, err = ParseOptionalTime([]byte("null"))
	if err != nil || got != nil {
		t.Fatalf("null = %v, %v; want nil, nil", got, err)
	}
	got, err = ParseOptionalTime([]byte("1000"))
	if err != nil || got == nil || !got.Equal(time.Unix(1, 0)) {
		t.Fatalf("1000 = %v, %v", got, err)
	}
	if _, err := ParseOptionalTime([]byte(`"x"`)); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
}

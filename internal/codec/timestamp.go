// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package codec

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// HourKeyLayout formats the hour index used by the 0.4 archive endpoint.
const HourKeyLayout = "2006-01-02T15"

// ErrInvalidTimestamp is returned when a value cannot be read as milliseconds.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// ToMS returns t as milliseconds since the epoch, rounding half away from zero.
func ToMS(t time.Time) int64 {
	sec := t.Unix()
	nsec := int64(t.Nanosecond())
	ms := sec*1000 + nsec/int64(time.Millisecond)
	rem := nsec % int64(time.Millisecond)
	half := int64(time.Millisecond) / 2
	// t.Unix floors, so rem is always the positive part below ms.
	if ms >= 0 {
		if rem >= half {
			ms++
		}
	} else if rem > half {
		ms++
	}
	return ms
}

// FromMS returns the UTC instant for ms milliseconds since the epoch.
func FromMS(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// SecondsToMS converts floating-point seconds to milliseconds.
func SecondsToMS(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}

// HourKey formats the hour containing t as YYYY-MM-DDTHH in UTC.
func HourKey(t time.Time) string {
	return t.UTC().Truncate(time.Hour).Format(HourKeyLayout)
}

// ParseMS reads a JSON number or a JSON string holding an integer.
// Fractional numbers are truncated toward zero.
func ParseMS(raw []byte) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("%w: missing value", ErrInvalidTimestamp)
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidTimestamp, s)
		}
		return ms, nil
	}

	if ms, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return ms, nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidTimestamp, truncateForError(raw))
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidTimestamp, truncateForError(raw))
	}
	return int64(f), nil
}

// ParseOptionalMS is ParseMS for optional fields: absent and null give nil.
func ParseOptionalMS(raw []byte) (*int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	ms, err := ParseMS(raw)
	if err != nil {
		return nil, err
	}
	return &ms, nil
}

// ParseOptionalTime is ParseOptionalMS returning an instant.
func ParseOptionalTime(raw []byte) (*time.Time, error) {
	ms, err := ParseOptionalMS(raw)
	if err != nil || ms == nil {
		return nil, err
	}
	t := FromMS(*ms)
	return &t, nil
}

func truncateForError(raw []byte) string {
	const maxLen = 64
	if len(raw) > maxLen {
		return string(raw[:maxLen]) + "..."
	}
	return string(raw)
}

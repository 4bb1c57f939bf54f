// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package codec

import (
	"fmt"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// ParseDuration parses an ISO 8601 duration ("PT1H", "P9D", "P1DT30M").
// Months and years use the fixed lengths of the duration library.
func ParseDuration(s string) (time.Duration, error) {
	d, err := duration.Parse(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q: %w", s, err)
	}
	return d.ToTimeDuration(), nil
}

// FormatDuration renders d as an ISO 8601 duration.
func FormatDuration(d time.Duration) string {
	return duration.Format(d)
}

// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

// Package translate rewrites MDS Provider API payloads of older versions
// into the shape of the latest supported version, so the rest of the
// poller only deals with one schema. Translation is pure: it never
// performs I/O and only mutates the body it is given.
package translate

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/tomtom215/mdspoller/internal/codec"
	"github.com/tomtom215/mdspoller/internal/models"
)

// Translate brings body up to date in place and returns the version the
// body declared. The body's own version field is authoritative; the
// Content-Type header never reaches this function.
func Translate(body *models.Body) (models.APIVersion, error) {
	version, err := models.ParseAPIVersion(body.Version)
	if err != nil {
		return "", err
	}

	strategy, err := models.StrategyFor(version)
	if err != nil {
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedVersion, body.Version)
	}
	if strategy.Translate {
		translateV02(body)
	}
	return version, nil
}

// translateV02 converts floating-point second timestamps to milliseconds
// and keeps only the first of the associated trips.
func translateV02(body *models.Body) {
	if body.Data == nil {
		return
	}
	for i := range body.Data.StatusChanges {
		sc := &body.Data.StatusChanges[i]
		if ms, ok := fractionalSecondsToMS(sc.EventTime); ok {
			sc.EventTime = json.RawMessage(strconv.FormatInt(ms, 10))
		}
		if len(sc.AssociatedTrips) > 0 {
			sc.AssociatedTrip = sc.AssociatedTrips[0]
		}
		sc.AssociatedTrips = nil
	}
}

// fractionalSecondsToMS only rewrites JSON numbers that carry a fractional
// part; integers were already milliseconds in 0.2.
func fractionalSecondsToMS(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' || !bytes.ContainsRune(raw, '.') {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false
	}
	return codec.SecondsToMS(seconds), true
}

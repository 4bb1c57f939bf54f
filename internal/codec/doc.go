// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

/*
Package codec converts the scalar encodings used by the MDS Provider API.

MDS timestamps are integer milliseconds since the Unix epoch. ToMS rounds
half away from zero, FromMS always yields UTC, and ParseMS accepts the
loosely typed values providers actually send (JSON numbers, including
fractional ones, and numeric strings).

Locations are GeoJSON Point Features. ParsePointFeature decodes one,
optionally swaps a provider's inverted (lat, lng) pair and then checks the
WGS-84 ranges. Range failures wrap ErrOutOfRange so callers can report
them separately from structurally invalid features.

Durations in provider configuration are ISO 8601 strings such as "PT1H"
or "P9D"; ParseDuration converts them with github.com/sosodev/duration.
*/
package codec

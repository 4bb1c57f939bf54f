// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

// Package cursor decides where a provider is polled from and how its
// cursor moves after each page.
//
// One of three cursors is active per provider: start_time (event time,
// every version), start_recorded and total_events (0.3 only). A cursor that
// was never persisted starts PROVIDER_POLLER_LIMIT_DAYS in the past, or at
// the epoch when no limit is configured; a skip cursor starts at 0.
//
// MDS 0.4 splits data between the hourly /status_changes archive and the
// recent /events window. The hour after the cursor is requested from the
// archive while it is older than the realtime threshold (P9D by default);
// once it is not, /events is queried up to now minus the polling lag.
//
// Cursors only move forward: every advance takes the maximum of the current
// position and the candidate derived from the page.
package cursor

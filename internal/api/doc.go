// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

// Package api exposes the operational HTTP endpoints of serve mode on a chi
// router: Prometheus metrics and a health check. Provider data is not
// served; providers are managed through the configuration file.
package api

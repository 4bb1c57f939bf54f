// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/mdspoller/internal/logging"
)

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status            string  `json:"status"` // "healthy" or "degraded"
	DatabaseConnected bool    `json:"database_connected"`
	Uptime            float64 `json:"uptime_seconds"`
}

// Health reports 200 when the database answers and 503 otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	connected := false
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			logging.Warn().Err(err).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Msg("Health check could not reach the database")
		} else {
			connected = true
		}
	}

	status, code := "healthy", http.StatusOK
	if !connected {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	respondJSON(w, code, HealthStatus{
		Status:            status,
		DatabaseConnected: connected,
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}

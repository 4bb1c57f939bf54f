// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is the part of the record store the health check needs.
type Store interface {
	Ping(ctx context.Context) error
}

// healthRateLimit caps /healthz per client IP and minute, since every request
// reaches the database.
const healthRateLimit = 60

// Handler serves the operational endpoints of serve mode.
type Handler struct {
	store     Store
	startTime time.Time
}

// NewHandler creates a handler backed by store.
func NewHandler(store Store) *Handler {
	return &Handler{store: store, startTime: time.Now()}
}

// NewRouter builds the chi router:
//
//	GET /metrics    Prometheus exposition
//	GET /healthz    liveness plus database connectivity (rate limited)
func NewRouter(h *Handler, requestTimeout time.Duration) http.Handler {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(requestTimeout))
		r.Use(httprate.Limit(healthRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Get("/healthz", h.Health)
	})
	return r
}

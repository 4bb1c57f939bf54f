// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the provider poller:
// - DuckDB record store queries
// - Poller runs, pages and records per provider
// - Provider API requests, retries and OAuth2 tokens
// - Circuit breakers guarding provider APIs

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_rows_written_total",
			Help: "Rows handed to bulk upserts, before conflict resolution",
		},
		[]string{"table"},
	)

	// Poller Metrics
	PollRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_runs_total",
			Help: "Total number of poller runs",
		},
		[]string{"result"}, // "success", "partial", "failure"
	)

	PollRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mds_poller_run_duration_seconds",
			Help:    "Duration of a full poller run over all providers",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	PollLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mds_poller_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last run without provider failures",
		},
	)

	ProviderPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_provider_polls_total",
			Help: "Provider polls by terminal state",
		},
		[]string{"provider", "state"}, // state: DONE, FAILED, SKIPPED
	)

	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_provider_errors_total",
			Help: "Provider polls that failed, by error kind",
		},
		[]string{"provider", "kind"},
	)

	ProviderPollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mds_poller_provider_poll_duration_seconds",
			Help:    "Duration of polling a single provider",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"provider"},
	)

	PagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_pages_total",
			Help: "Pages of status changes committed",
		},
		[]string{"provider", "endpoint"},
	)

	RecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_records_total",
			Help: "Status changes written as event records",
		},
		[]string{"provider"},
	)

	RecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_records_dropped_total",
			Help: "Status changes dropped by validation",
		},
		[]string{"provider", "kind"}, // kind: bad_record, bad_param
	)

	DevicesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_devices_created_total",
			Help: "Devices first seen by the poller",
		},
		[]string{"provider"},
	)

	ForeignProviderRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_foreign_provider_records_total",
			Help: "Status changes whose provider_id differs from the polled provider",
		},
		[]string{"provider"},
	)

	CursorAge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mds_poller_cursor_age_seconds",
			Help: "Age of the active time cursor when a provider poll starts",
		},
		[]string{"provider"},
	)

	// Provider API Metrics
	FetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_fetch_requests_total",
			Help: "HTTP requests sent to provider APIs",
		},
		[]string{"provider", "status_code"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mds_poller_fetch_duration_seconds",
			Help:    "Provider API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	FetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_fetch_retries_total",
			Help: "Provider API requests retried",
		},
		[]string{"provider", "reason"}, // reason: "transient", "auth"
	)

	ContentTypeMismatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_content_type_mismatches_total",
			Help: "Responses whose Content-Type declared another MDS version",
		},
		[]string{"provider"},
	)

	// OAuth2 Token Cache Metrics
	TokenCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_token_cache_lookups_total",
			Help: "Token cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "undecryptable", "error"
	)

	TokenFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mds_poller_token_fetches_total",
			Help: "OAuth2 client-credentials token requests",
		},
		[]string{"provider", "result"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordFetch records one provider API request. A zero status code means
// the request never got a response.
func RecordFetch(provider string, statusCode int, duration time.Duration) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	FetchRequests.WithLabelValues(provider, code).Inc()
	FetchDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordProviderPoll records the terminal state of one provider poll.
func RecordProviderPoll(provider, state, errorKind string, duration time.Duration) {
	ProviderPolls.WithLabelValues(provider, state).Inc()
	ProviderPollDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if errorKind != "" {
		ProviderErrors.WithLabelValues(provider, errorKind).Inc()
	}
}

// RecordRun records a complete poller run.
func RecordRun(duration time.Duration, providers, failed int) {
	PollRunDuration.Observe(duration.Seconds())
	switch {
	case failed == 0:
		PollRuns.WithLabelValues("success").Inc()
		PollLastSuccess.Set(float64(time.Now().Unix()))
	case failed < providers:
		PollRuns.WithLabelValues("partial").Inc()
	default:
		PollRuns.WithLabelValues("failure").Inc()
	}
}

// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

/*
Package metrics provides Prometheus instruments for the provider poller.

All instruments are registered on the default registry through promauto and
exposed by the HTTP service in serve mode at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Poller:
  - mds_poller_runs_total{result}: complete runs (success, partial, failure)
  - mds_poller_provider_polls_total{provider,state}: DONE, FAILED, SKIPPED
  - mds_poller_provider_errors_total{provider,kind}: failures by error kind
  - mds_poller_pages_total{provider,endpoint}: committed pages
  - mds_poller_records_total / mds_poller_records_dropped_total
  - mds_poller_foreign_provider_records_total{provider}: status changes whose
    provider_id is not the polled provider
  - mds_poller_cursor_age_seconds{provider}

Provider API:
  - mds_poller_fetch_requests_total{provider,status_code}
  - mds_poller_fetch_duration_seconds{provider}
  - mds_poller_fetch_retries_total{provider,reason}
  - mds_poller_token_cache_lookups_total{result}
  - mds_poller_token_fetches_total{provider,result}

Store and resilience:
  - duckdb_query_duration_seconds{operation,table}
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name,result}
*/
package metrics

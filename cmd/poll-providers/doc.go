// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

/*
Command poll-providers pulls status changes from every registered MDS
provider into the DuckDB record store.

	poll-providers [--raise-on-error] [--provider ID]... [--config FILE]
	poll-providers --cursor KIND --from X --to Y [--provider ID]...
	poll-providers --serve

Providers are declared in the YAML configuration and registered in the
store at startup. Each run prints one line per provider:

	Polling Lime (63f13c48-...)... Success (1200 records, 3 pages)
	Polling Bird (2411d395-...)... Skipped (polling lag)
	Polling Dott (9a1f0c2e-...)... Failed: auth_error: HTTP 401

Success and skip lines go to stdout, failures and logs to stderr. The exit
status is 0 unless the run could not start, or --raise-on-error is set and
a provider failed.

# Backfill

--cursor start_time|start_recorded|total_events with --from and --to polls
an explicit range. Times are RFC 3339 or milliseconds since the epoch,
total_events bounds are skip offsets. Records are written as usual but the
persisted cursors of the providers are left alone.

# Serve Mode

--serve polls every POLLER_INTERVAL under a suture supervisor and serves
/metrics and /healthz on HTTP_HOST:HTTP_PORT.
SIGINT or SIGTERM stops both; the page in flight is committed or rolled
back.
*/
package main
